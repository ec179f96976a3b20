package payment

// Subscriber handles processor event subscriptions.
type Subscriber struct {
	done               chan struct{}
	runStartedHandler  func(RunStarted)
	batchCompletedHdlr func(BatchCompleted)
	batchPartialHdlr   func(BatchPartiallyFailed)
	batchFailedHandler func(BatchFailed)
	runDoneHandler     func(RunDone)
	runAbortedHandler  func(RunAborted)
}

// OnRunStarted sets the handler for RunStarted events
func OnRunStarted(fn func(RunStarted)) func(*Subscriber) {
	return func(s *Subscriber) { s.runStartedHandler = fn }
}

// OnBatchCompleted sets the handler for BatchCompleted events
func OnBatchCompleted(fn func(BatchCompleted)) func(*Subscriber) {
	return func(s *Subscriber) { s.batchCompletedHdlr = fn }
}

// OnBatchPartiallyFailed sets the handler for BatchPartiallyFailed events
func OnBatchPartiallyFailed(fn func(BatchPartiallyFailed)) func(*Subscriber) {
	return func(s *Subscriber) { s.batchPartialHdlr = fn }
}

// OnBatchFailed sets the handler for BatchFailed events
func OnBatchFailed(fn func(BatchFailed)) func(*Subscriber) {
	return func(s *Subscriber) { s.batchFailedHandler = fn }
}

// OnRunDone sets the handler for RunDone events
func OnRunDone(fn func(RunDone)) func(*Subscriber) {
	return func(s *Subscriber) { s.runDoneHandler = fn }
}

// OnRunAborted sets the handler for RunAborted events
func OnRunAborted(fn func(RunAborted)) func(*Subscriber) {
	return func(s *Subscriber) { s.runAbortedHandler = fn }
}

// NewSubscriber creates a Subscriber with the given options and starts the
// dispatch loop. Returns a closer function that waits for all events to be
// processed.
//
// Example:
//
//	closer := payment.NewSubscriber(events,
//	  payment.OnRunDone(func(d RunDone) { ... }),
//	)
//	defer closer()  // Ensures all events processed before exit
//
// The subscriber processes events until the events channel closes, then the
// closer function confirms all processing is complete.
func NewSubscriber(events <-chan Event, opts ...func(*Subscriber)) func() {
	s := &Subscriber{
		done:               make(chan struct{}),
		runStartedHandler:  func(RunStarted) {},           // nop by default
		batchCompletedHdlr: func(BatchCompleted) {},       // nop by default
		batchPartialHdlr:   func(BatchPartiallyFailed) {}, // nop by default
		batchFailedHandler: func(BatchFailed) {},          // nop by default
		runDoneHandler:     func(RunDone) {},              // nop by default
		runAbortedHandler:  func(RunAborted) {},           // nop by default
	}

	for _, opt := range opts {
		opt(s)
	}

	// Start the dispatch loop immediately
	go func() {
		defer close(s.done)
		for ev := range events {
			switch e := ev.(type) {
			case RunStarted:
				s.runStartedHandler(e)
			case BatchCompleted:
				s.batchCompletedHdlr(e)
			case BatchPartiallyFailed:
				s.batchPartialHdlr(e)
			case BatchFailed:
				s.batchFailedHandler(e)
			case RunDone:
				s.runDoneHandler(e)
			case RunAborted:
				s.runAbortedHandler(e)
			}
		}
	}()

	return func() {
		<-s.done
	}
}
