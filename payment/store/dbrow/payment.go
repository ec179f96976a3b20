// Package dbrow maps payment domain entities to their database row shapes.
package dbrow

import (
	"time"

	"github.com/eddiespino/aliento-pay/payment"
)

// Payment represents a payment record as stored in the database
type Payment struct {
	ID            string     `db:"id"`
	BatchID       *string    `db:"batch_id"`
	Position      int32      `db:"position"`
	Sender        string     `db:"sender"`
	Recipient     string     `db:"recipient"`
	Amount        float64    `db:"amount"`
	Currency      string     `db:"currency"`
	Memo          string     `db:"memo"`
	Type          string     `db:"type"`
	Status        string     `db:"status"`
	CreatedAt     time.Time  `db:"created_at"`
	ProcessedAt   *time.Time `db:"processed_at"`
	TransactionID string     `db:"transaction_id"`
	ErrorMessage  string     `db:"error_message"`
}

// Batch represents a payment batch record as stored in the database
type Batch struct {
	ID            string    `db:"id"`
	CreatedBy     string    `db:"created_by"`
	Status        string    `db:"status"`
	CreatedAt     time.Time `db:"created_at"`
	TransactionID string    `db:"transaction_id"`
	ErrorMessage  string    `db:"error_message"`
}

// PaymentColumns lists the payment columns in CopyFrom order
var PaymentColumns = []string{
	"id", "batch_id", "position", "sender", "recipient", "amount",
	"currency", "memo", "type", "status", "created_at", "processed_at",
	"transaction_id", "error_message",
}

// BatchPaymentsToRows converts the batch member payments directly to
// [][]any for pgx.CopyFromRows, recording each payment's position within
// the batch
func BatchPaymentsToRows(b *payment.Batch) [][]any {
	rows := make([][]any, len(b.Payments))

	for i, p := range b.Payments {
		rows[i] = []any{
			p.ID,
			&b.ID,
			int32(i),
			p.From,
			p.To,
			p.Amount,
			p.Currency,
			p.Memo,
			string(p.Type),
			string(p.Status),
			p.CreatedAt,
			p.ProcessedAt,
			p.TransactionID,
			p.ErrorMessage,
		}
	}

	return rows
}

// ToPayment converts a database row to the domain model
func (r Payment) ToPayment() payment.Payment {
	return payment.Payment{
		ID:            r.ID,
		From:          r.Sender,
		To:            r.Recipient,
		Amount:        r.Amount,
		Currency:      r.Currency,
		Memo:          r.Memo,
		Type:          payment.Type(r.Type),
		Status:        payment.Status(r.Status),
		CreatedAt:     r.CreatedAt,
		ProcessedAt:   r.ProcessedAt,
		TransactionID: r.TransactionID,
		ErrorMessage:  r.ErrorMessage,
	}
}

// ToBatch converts a batch row and its member payment rows to the domain
// model
func (r Batch) ToBatch(members []Payment) *payment.Batch {
	payments := make([]*payment.Payment, len(members))
	for i, m := range members {
		p := m.ToPayment()
		payments[i] = &p
	}

	return &payment.Batch{
		ID:            r.ID,
		CreatedBy:     r.CreatedBy,
		Payments:      payments,
		Status:        payment.BatchStatus(r.Status),
		CreatedAt:     r.CreatedAt,
		TransactionID: r.TransactionID,
		ErrorMessage:  r.ErrorMessage,
	}
}
