package payment

import "time"

// Event represents a processor lifecycle event
type Event any

// RunStarted is emitted once before the first batch is submitted
type RunStarted struct {
	StartedAt   time.Time
	Batches     int
	Payments    int
	TotalAmount float64
}

// BatchCompleted is emitted when the wallet confirms every operation of a
// batch
type BatchCompleted struct {
	BatchID       string
	Payments      int
	Amount        float64
	TransactionID string
}

// BatchPartiallyFailed is emitted when the wallet confirms a prefix of the
// batch operations and rejects the rest
type BatchPartiallyFailed struct {
	BatchID       string
	Completed     int
	Failed        int
	TransactionID string
	Reason        string
}

// BatchFailed is emitted when a batch produces no completed payments
type BatchFailed struct {
	BatchID string
	Err     error
}

// RunDone is emitted after the last batch, whether or not every batch
// succeeded
type RunDone struct {
	Summary  RunSummary
	Duration time.Duration
}

// RunAborted is emitted when context cancellation stops the run before all
// batches were submitted
type RunAborted struct {
	Reason    error
	Remaining int
}

// RunSummary aggregates the outcome of one processing run
type RunSummary struct {
	Batches           int
	Completed         int
	PartiallyFailed   int
	Failed            int
	PaymentsCompleted int
	PaymentsFailed    int
	AmountPaid        float64
}
