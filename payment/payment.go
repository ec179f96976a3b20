// Package payment tracks transfer payments and their batches through an
// explicit lifecycle, and partitions calculated payouts into wallet-sized
// batches.
package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for payment validation and lifecycle
var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrEmptyRecipient          = errors.New("recipient must not be empty")
	ErrEmptySender             = errors.New("sender must not be empty")
	ErrSelfTransfer            = errors.New("sender and recipient must differ")
	ErrAmountTooSmall          = errors.New("amount below the minimum transfer unit")
	ErrAmountTooLarge          = errors.New("amount above the sanity ceiling")
	ErrMissingCurrency         = errors.New("currency must not be empty")
	ErrMissingTransactionID    = errors.New("completion requires a transaction id")
)

// Amount bounds enforced before any state mutation
const (
	// MinAmount is one rounding unit of the reward currency
	MinAmount = 0.001
	// MaxAmount is a sanity ceiling; nothing this system pays out should
	// ever come close
	MaxAmount = 1_000_000.0
)

// DefaultCurrency is the reward currency payments are denominated in
const DefaultCurrency = "HIVE"

// Status is the lifecycle state of a single payment
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Type distinguishes how a payment was created
type Type string

const (
	TypeSingle Type = "single"
	TypeBatch  Type = "batch"
)

// paymentTransitions is the full transition table; anything absent is invalid
var paymentTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusFailed:     {StatusPending}, // retry
}

// Payment is a single transfer tracked from creation to a terminal state.
// It is owned by the batch or single-transfer use case that created it and
// is only ever mutated through its lifecycle methods.
type Payment struct {
	ID            string
	From          string
	To            string
	Amount        float64
	Currency      string
	Memo          string
	Type          Type
	Status        Status
	CreatedAt     time.Time
	ProcessedAt   *time.Time
	TransactionID string
	ErrorMessage  string
}

// NewPayment validates and creates a pending payment
func NewPayment(from, to string, amount float64, currency, memo string, typ Type, now time.Time) (*Payment, error) {
	switch {
	case from == "":
		return nil, ErrEmptySender
	case to == "":
		return nil, ErrEmptyRecipient
	case from == to:
		return nil, ErrSelfTransfer
	case currency == "":
		return nil, ErrMissingCurrency
	case amount < MinAmount:
		return nil, fmt.Errorf("%w: %.3f", ErrAmountTooSmall, amount)
	case amount > MaxAmount:
		return nil, fmt.Errorf("%w: %.3f", ErrAmountTooLarge, amount)
	}

	return &Payment{
		ID:        uuid.NewString(),
		From:      from,
		To:        to,
		Amount:    amount,
		Currency:  currency,
		Memo:      memo,
		Type:      typ,
		Status:    StatusPending,
		CreatedAt: now,
	}, nil
}

// transition moves the payment to the target status if the table allows it
func (p *Payment) transition(to Status) error {
	for _, allowed := range paymentTransitions[p.Status] {
		if allowed == to {
			p.Status = to
			return nil
		}
	}
	return fmt.Errorf("%w: payment %s: %s -> %s", ErrInvalidStatusTransition, p.ID, p.Status, to)
}

// MarkAsProcessing moves a pending payment into processing
func (p *Payment) MarkAsProcessing() error {
	return p.transition(StatusProcessing)
}

// MarkAsCompleted finishes the payment with the gateway transaction id
// and clears any error left from a previous failed attempt
func (p *Payment) MarkAsCompleted(transactionID string, now time.Time) error {
	if transactionID == "" {
		return ErrMissingTransactionID
	}
	if err := p.transition(StatusCompleted); err != nil {
		return err
	}
	p.TransactionID = transactionID
	p.ErrorMessage = ""
	p.ProcessedAt = &now
	return nil
}

// MarkAsFailed records the failure reason
func (p *Payment) MarkAsFailed(reason string, now time.Time) error {
	if err := p.transition(StatusFailed); err != nil {
		return err
	}
	p.ErrorMessage = reason
	p.ProcessedAt = &now
	return nil
}

// Cancel aborts a pending payment
func (p *Payment) Cancel() error {
	return p.transition(StatusCancelled)
}

// Retry returns a failed payment to pending, clearing the stale failure
func (p *Payment) Retry() error {
	if err := p.transition(StatusPending); err != nil {
		return err
	}
	p.ErrorMessage = ""
	p.ProcessedAt = nil
	return nil
}
