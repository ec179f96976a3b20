package payment

import (
	"fmt"
	"time"

	"github.com/eddiespino/aliento-pay/distribution"
)

// FromCalculated turns a distribution result into pending payments from a
// single sender, preserving the distribution order
func FromCalculated(from, currency string, calculated []distribution.CalculatedPayment, now time.Time) ([]*Payment, error) {
	payments := make([]*Payment, 0, len(calculated))
	for _, c := range calculated {
		p, err := NewPayment(from, c.Recipient, c.Amount, currency, c.Memo, TypeBatch, now)
		if err != nil {
			return nil, fmt.Errorf("payment for %s: %w", c.Recipient, err)
		}
		payments = append(payments, p)
	}
	return payments, nil
}

// ToBatches splits the payments into contiguous batches of at most maxSize,
// preserving the input order. Flattening the batches in order yields the
// input sequence exactly.
func ToBatches(createdBy string, payments []*Payment, maxSize int, now time.Time) ([]*Batch, error) {
	if maxSize <= 0 || maxSize > MaxBatchSize {
		maxSize = MaxBatchSize
	}

	batches := make([]*Batch, 0, (len(payments)+maxSize-1)/maxSize)
	for start := 0; start < len(payments); start += maxSize {
		end := start + maxSize
		if end > len(payments) {
			end = len(payments)
		}
		b, err := NewBatch(createdBy, payments[start:end], now)
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w", len(batches)+1, err)
		}
		batches = append(batches, b)
	}
	return batches, nil
}
