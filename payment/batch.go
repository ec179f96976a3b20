package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for batch construction and lifecycle. Construction
// violations indicate a programming error upstream and are raised
// synchronously, never recorded on the entity.
var (
	ErrEmptyBatch          = errors.New("batch must contain at least one payment")
	ErrBatchTooLarge       = errors.New("batch exceeds the maximum size")
	ErrMixedSenders        = errors.New("batch payments must share one sender")
	ErrMixedCurrencies     = errors.New("batch payments must share one currency")
	ErrPaymentNotPending   = errors.New("batch payments must all be pending")
	ErrDuplicateRecipient  = errors.New("duplicate recipient within one batch")
	ErrIncompletePartition = errors.New("partial failure requires a full completed/failed partition")
	ErrUnknownRecipient    = errors.New("partition names a recipient not in the batch")
)

// MaxBatchSize is the wallet's one-signature-per-batch operation cap
const MaxBatchSize = 30

// BatchStatus is the lifecycle state of a payment batch
type BatchStatus string

const (
	BatchStatusPending         BatchStatus = "pending"
	BatchStatusProcessing      BatchStatus = "processing"
	BatchStatusCompleted       BatchStatus = "completed"
	BatchStatusPartiallyFailed BatchStatus = "partially_failed"
	BatchStatusFailed          BatchStatus = "failed"
	BatchStatusCancelled       BatchStatus = "cancelled"
)

// batchTransitions is the full transition table; anything absent is invalid
var batchTransitions = map[BatchStatus][]BatchStatus{
	BatchStatusPending:    {BatchStatusProcessing, BatchStatusCancelled},
	BatchStatusProcessing: {BatchStatusCompleted, BatchStatusPartiallyFailed, BatchStatusFailed},
}

// Batch is an ordered group of payments submitted to the wallet in one
// signature. Membership is fixed at creation; member payments are mutated
// only through the batch's own lifecycle methods.
type Batch struct {
	ID            string
	CreatedBy     string
	Payments      []*Payment
	Status        BatchStatus
	CreatedAt     time.Time
	TransactionID string
	ErrorMessage  string
}

// NewBatch validates the batch invariants and creates a pending batch
func NewBatch(createdBy string, payments []*Payment, now time.Time) (*Batch, error) {
	if len(payments) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(payments) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(payments), MaxBatchSize)
	}

	sender := payments[0].From
	currency := payments[0].Currency
	recipients := make(map[string]struct{}, len(payments))
	for _, p := range payments {
		if p.From != sender {
			return nil, fmt.Errorf("%w: %s vs %s", ErrMixedSenders, sender, p.From)
		}
		if p.Currency != currency {
			return nil, fmt.Errorf("%w: %s vs %s", ErrMixedCurrencies, currency, p.Currency)
		}
		if p.Status != StatusPending {
			return nil, fmt.Errorf("%w: payment %s is %s", ErrPaymentNotPending, p.ID, p.Status)
		}
		if _, dup := recipients[p.To]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRecipient, p.To)
		}
		recipients[p.To] = struct{}{}
	}

	return &Batch{
		ID:        uuid.NewString(),
		CreatedBy: createdBy,
		Payments:  payments,
		Status:    BatchStatusPending,
		CreatedAt: now,
	}, nil
}

// Sender returns the shared sender of all member payments
func (b *Batch) Sender() string {
	return b.Payments[0].From
}

// Currency returns the shared currency of all member payments
func (b *Batch) Currency() string {
	return b.Payments[0].Currency
}

// TotalAmount sums the member payment amounts
func (b *Batch) TotalAmount() float64 {
	total := 0.0
	for _, p := range b.Payments {
		total += p.Amount
	}
	return total
}

// transition moves the batch to the target status if the table allows it
func (b *Batch) transition(to BatchStatus) error {
	for _, allowed := range batchTransitions[b.Status] {
		if allowed == to {
			b.Status = to
			return nil
		}
	}
	return fmt.Errorf("%w: batch %s: %s -> %s", ErrInvalidStatusTransition, b.ID, b.Status, to)
}

// MarkAsProcessing moves the batch and every member payment into processing
func (b *Batch) MarkAsProcessing() error {
	if err := b.transition(BatchStatusProcessing); err != nil {
		return err
	}
	for _, p := range b.Payments {
		if err := p.MarkAsProcessing(); err != nil {
			return err
		}
	}
	return nil
}

// MarkAsCompleted finishes the batch and all member payments with the
// gateway transaction id, clearing any prior error
func (b *Batch) MarkAsCompleted(transactionID string, now time.Time) error {
	if transactionID == "" {
		return ErrMissingTransactionID
	}
	if err := b.transition(BatchStatusCompleted); err != nil {
		return err
	}
	for _, p := range b.Payments {
		if err := p.MarkAsCompleted(transactionID, now); err != nil {
			return err
		}
	}
	b.TransactionID = transactionID
	b.ErrorMessage = ""
	return nil
}

// MarkAsFailed fails the batch and every still-processing member payment
func (b *Batch) MarkAsFailed(reason string, now time.Time) error {
	if err := b.transition(BatchStatusFailed); err != nil {
		return err
	}
	for _, p := range b.Payments {
		if p.Status == StatusProcessing {
			if err := p.MarkAsFailed(reason, now); err != nil {
				return err
			}
		}
	}
	b.ErrorMessage = reason
	return nil
}

// MarkAsPartiallyFailed records a partial on-chain success. The caller must
// partition every member recipient into completed or failed; the batch does
// not infer the split.
func (b *Batch) MarkAsPartiallyFailed(transactionID string, completed, failed []string, reason string, now time.Time) error {
	byRecipient := make(map[string]*Payment, len(b.Payments))
	for _, p := range b.Payments {
		byRecipient[p.To] = p
	}

	seen := make(map[string]struct{}, len(completed)+len(failed))
	for _, to := range completed {
		if _, ok := byRecipient[to]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownRecipient, to)
		}
		seen[to] = struct{}{}
	}
	for _, to := range failed {
		if _, ok := byRecipient[to]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownRecipient, to)
		}
		if _, dup := seen[to]; dup {
			return fmt.Errorf("%w: %s listed as both completed and failed", ErrIncompletePartition, to)
		}
		seen[to] = struct{}{}
	}
	if len(seen) != len(b.Payments) {
		return fmt.Errorf("%w: %d of %d payments partitioned", ErrIncompletePartition, len(seen), len(b.Payments))
	}

	if err := b.transition(BatchStatusPartiallyFailed); err != nil {
		return err
	}

	for _, to := range completed {
		if err := byRecipient[to].MarkAsCompleted(transactionID, now); err != nil {
			return err
		}
	}
	for _, to := range failed {
		if err := byRecipient[to].MarkAsFailed(reason, now); err != nil {
			return err
		}
	}
	b.TransactionID = transactionID
	b.ErrorMessage = reason
	return nil
}

// Cancel aborts a pending batch and its member payments
func (b *Batch) Cancel() error {
	if err := b.transition(BatchStatusCancelled); err != nil {
		return err
	}
	for _, p := range b.Payments {
		if err := p.Cancel(); err != nil {
			return err
		}
	}
	return nil
}
