package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eddiespino/aliento-pay/pkg/clock"
)

// Sentinel errors for processor failure cases
var (
	ErrGatewayRequestFailed = errors.New("gateway request failed")
	ErrSaveBatchFailed      = errors.New("save batch failed")
)

// Default configuration values
const DefaultGatewayTimeout = 30 * time.Second

// Store persists batch state after every lifecycle change
type Store interface {
	SaveBatch(ctx context.Context, batch *Batch) error
}

// Clock abstracts time for production and testing
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

// ProcessorOption configures the Processor
type ProcessorOption func(*Processor)

// WithProcessorClock injects a custom Clock (e.g., for testing)
func WithProcessorClock(c Clock) ProcessorOption {
	return func(p *Processor) { p.clock = c }
}

// WithGatewayTimeout bounds each batch submission
func WithGatewayTimeout(d time.Duration) ProcessorOption {
	return func(p *Processor) { p.gatewayTimeout = d }
}

// Processor submits batches to the wallet gateway one at a time, in order.
// A failed batch never stops the run; only context cancellation does.
//
// The Processor is for deployments with an in-process Gateway implementation
// such as a wallet bridge. The payout planner instead persists pending
// batches for an external signer, which reports outcomes through the batch
// result endpoint.
type Processor struct {
	gateway        Gateway
	store          Store
	clock          Clock
	gatewayTimeout time.Duration
	events         chan Event
}

// NewProcessor constructs a Processor with required dependencies and options
func NewProcessor(gateway Gateway, store Store, opts ...ProcessorOption) *Processor {
	p := &Processor{
		gateway:        gateway,
		store:          store,
		clock:          clock.SystemClock{},
		gatewayTimeout: DefaultGatewayTimeout,
		events:         make(chan Event, 10),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run launches the processing of the batches and returns the events channel
// and done channel.
//
// Shutdown pattern:
//  1. Cancel context to request shutdown: cancel()
//  2. Processor stops producing events and closes events channel
//  3. Wait for complete shutdown: <-done
//
// Cancellation aborts before the next batch submission, never mid-batch.
func (p *Processor) Run(ctx context.Context, batches []*Batch) (<-chan Event, <-chan struct{}) {
	done := make(chan struct{})
	go func() {
		defer close(p.events)
		defer close(done)
		p.run(ctx, batches)
	}()
	return p.events, done
}

func (p *Processor) run(ctx context.Context, batches []*Batch) {
	start := p.clock.Now()

	payments := 0
	total := 0.0
	for _, b := range batches {
		payments += len(b.Payments)
		total += b.TotalAmount()
	}
	p.events <- RunStarted{
		StartedAt:   start,
		Batches:     len(batches),
		Payments:    payments,
		TotalAmount: total,
	}

	var summary RunSummary
	summary.Batches = len(batches)

	for i, b := range batches {
		select {
		case <-ctx.Done():
			p.events <- RunAborted{Reason: ctx.Err(), Remaining: len(batches) - i}
			return
		default:
		}

		p.processBatch(ctx, b, &summary)
	}

	p.events <- RunDone{
		Summary:  summary,
		Duration: p.clock.Now().Sub(start),
	}
}

// processBatch drives one batch through its full lifecycle. Every failure
// mode ends in a terminal batch state; errors are reported as events, not
// returned.
func (p *Processor) processBatch(ctx context.Context, b *Batch, summary *RunSummary) {
	if err := b.MarkAsProcessing(); err != nil {
		p.failBatch(ctx, b, summary, err)
		return
	}
	if err := p.save(ctx, b); err != nil {
		p.failBatch(ctx, b, summary, err)
		return
	}

	submitCtx, cancel := context.WithTimeout(ctx, p.gatewayTimeout)
	result, err := p.gateway.ProcessBatch(submitCtx, b)
	cancel()
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrGatewayRequestFailed, err)
		if markErr := b.MarkAsFailed(err.Error(), p.clock.Now()); markErr != nil {
			err = errors.Join(err, markErr)
		}
		p.failBatch(ctx, b, summary, err)
		return
	}

	now := p.clock.Now()
	switch {
	case result.Success:
		if err := b.MarkAsCompleted(result.TransactionID, now); err != nil {
			p.failBatch(ctx, b, summary, err)
			return
		}
		if !p.saveAndEmit(ctx, b, summary, BatchCompleted{
			BatchID:       b.ID,
			Payments:      len(b.Payments),
			Amount:        b.TotalAmount(),
			TransactionID: result.TransactionID,
		}) {
			return
		}
		summary.Completed++
		summary.PaymentsCompleted += len(b.Payments)
		summary.AmountPaid += b.TotalAmount()

	case result.ProcessedCount > 0:
		// The wallet executes operations in submission order, so the
		// completed payments are exactly the first ProcessedCount.
		completed, failed := p.splitRecipients(b, result.ProcessedCount)
		if err := b.MarkAsPartiallyFailed(result.TransactionID, completed, failed, result.ErrorMessage, now); err != nil {
			p.failBatch(ctx, b, summary, err)
			return
		}
		if !p.saveAndEmit(ctx, b, summary, BatchPartiallyFailed{
			BatchID:       b.ID,
			Completed:     len(completed),
			Failed:        len(failed),
			TransactionID: result.TransactionID,
			Reason:        result.ErrorMessage,
		}) {
			return
		}
		summary.PartiallyFailed++
		summary.PaymentsCompleted += len(completed)
		summary.PaymentsFailed += len(failed)
		for _, to := range completed {
			for _, pay := range b.Payments {
				if pay.To == to {
					summary.AmountPaid += pay.Amount
				}
			}
		}

	default:
		err := fmt.Errorf("%w: %s", ErrGatewayRequestFailed, result.ErrorMessage)
		if markErr := b.MarkAsFailed(result.ErrorMessage, now); markErr != nil {
			err = errors.Join(err, markErr)
		}
		p.failBatch(ctx, b, summary, err)
	}
}

// splitRecipients partitions the batch recipients into the completed prefix
// and the failed remainder
func (p *Processor) splitRecipients(b *Batch, processed int) (completed, failed []string) {
	if processed > len(b.Payments) {
		processed = len(b.Payments)
	}
	for i, pay := range b.Payments {
		if i < processed {
			completed = append(completed, pay.To)
		} else {
			failed = append(failed, pay.To)
		}
	}
	return completed, failed
}

func (p *Processor) failBatch(ctx context.Context, b *Batch, summary *RunSummary, err error) {
	summary.Failed++
	summary.PaymentsFailed += len(b.Payments)
	if saveErr := p.save(ctx, b); saveErr != nil {
		err = errors.Join(err, saveErr)
	}
	p.events <- BatchFailed{BatchID: b.ID, Err: err}
}

// saveAndEmit persists the batch and emits ev. When the save fails the
// batch counts as failed in the summary and a BatchFailed event replaces
// ev, keeping the RunDone totals and the event stream in agreement.
func (p *Processor) saveAndEmit(ctx context.Context, b *Batch, summary *RunSummary, ev Event) bool {
	if err := p.save(ctx, b); err != nil {
		summary.Failed++
		summary.PaymentsFailed += len(b.Payments)
		p.events <- BatchFailed{BatchID: b.ID, Err: err}
		return false
	}
	p.events <- ev
	return true
}

func (p *Processor) save(ctx context.Context, b *Batch) error {
	if p.store == nil {
		return nil
	}
	if err := p.store.SaveBatch(ctx, b); err != nil {
		return fmt.Errorf("%w: %w", ErrSaveBatchFailed, err)
	}
	return nil
}
