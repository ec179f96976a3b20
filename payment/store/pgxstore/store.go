// Package pgxstore persists payments and batches in PostgreSQL using pgx.
package pgxstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxcollect "github.com/zolstein/pgx-collect"

	"github.com/eddiespino/aliento-pay/payment"
	"github.com/eddiespino/aliento-pay/payment/store/dbrow"
)

// Sentinel errors for store operations
var (
	ErrQueryFailed       = errors.New("payment query failed")
	ErrTransactionFailed = errors.New("transaction failed")
	ErrTempTableFailed   = errors.New("temporary table operation failed")
	ErrCopyFailed        = errors.New("bulk copy operation failed")
	ErrUpsertFailed      = errors.New("upsert operation failed")
)

const (
	basePaymentsQuery = "SELECT id, batch_id, position, sender, recipient, amount, currency, memo, type, status, created_at, processed_at, transaction_id, error_message FROM payments"
	baseBatchesQuery  = "SELECT id, created_by, status, created_at, transaction_id, error_message FROM payment_batches"
)

// Store implements payment persistence and querying using pgx
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL payment store with an existing connection pool
// Returns the store and a closer function
func New(pool *pgxpool.Pool) (*Store, func()) {
	store := &Store{pool: pool}
	closer := func() {
		pool.Close()
	}
	return store, closer
}

// SaveBatch upserts the batch row and all member payments in one
// transaction. Member payments go through a temporary table with CopyFrom,
// then merge into the payments table, so a 30-payment batch costs one round
// trip instead of thirty.
func (s *Store) SaveBatch(ctx context.Context, b *payment.Batch) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // No-op if commit succeeds

	_, err = tx.Exec(ctx, `
		INSERT INTO payment_batches (id, created_by, status, created_at, transaction_id, error_message)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			transaction_id = EXCLUDED.transaction_id,
			error_message = EXCLUDED.error_message
	`, b.ID, b.CreatedBy, string(b.Status), b.CreatedAt, b.TransactionID, b.ErrorMessage)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpsertFailed, err)
	}

	_, err = tx.Exec(ctx, `
		CREATE TEMPORARY TABLE temp_payments (
			id TEXT,
			batch_id TEXT,
			position INTEGER,
			sender TEXT,
			recipient TEXT,
			amount DOUBLE PRECISION,
			currency TEXT,
			memo TEXT,
			type TEXT,
			status TEXT,
			created_at TIMESTAMP WITH TIME ZONE,
			processed_at TIMESTAMP WITH TIME ZONE,
			transaction_id TEXT,
			error_message TEXT
		) ON COMMIT DROP
	`)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTempTableFailed, err)
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"temp_payments"},
		dbrow.PaymentColumns,
		pgx.CopyFromRows(dbrow.BatchPaymentsToRows(b)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO payments (id, batch_id, position, sender, recipient, amount, currency, memo, type, status, created_at, processed_at, transaction_id, error_message)
		SELECT id, batch_id, position, sender, recipient, amount, currency, memo, type, status, created_at, processed_at, transaction_id, error_message
		FROM temp_payments
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			processed_at = EXCLUDED.processed_at,
			transaction_id = EXCLUDED.transaction_id,
			error_message = EXCLUDED.error_message
	`)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpsertFailed, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}

	return nil
}

// SavePayment upserts a single payment that is not part of any batch
func (s *Store) SavePayment(ctx context.Context, p *payment.Payment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO payments (id, batch_id, position, sender, recipient, amount, currency, memo, type, status, created_at, processed_at, transaction_id, error_message)
		VALUES ($1, NULL, 0, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			processed_at = EXCLUDED.processed_at,
			transaction_id = EXCLUDED.transaction_id,
			error_message = EXCLUDED.error_message
	`, p.ID, p.From, p.To, p.Amount, p.Currency, p.Memo, string(p.Type), string(p.Status), p.CreatedAt, p.ProcessedAt, p.TransactionID, p.ErrorMessage)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpsertFailed, err)
	}
	return nil
}

// FindPayment loads one payment by id
func (s *Store) FindPayment(ctx context.Context, id string) (*payment.Payment, error) {
	rows, err := s.pool.Query(ctx, basePaymentsQuery+" WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	row, err := pgxcollect.CollectOneRow(rows, pgxcollect.RowToStructByName[dbrow.Payment])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: payment %s", payment.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	p := row.ToPayment()
	return &p, nil
}

// FindBatch loads one batch and its member payments in batch order
func (s *Store) FindBatch(ctx context.Context, id string) (*payment.Batch, error) {
	rows, err := s.pool.Query(ctx, baseBatchesQuery+" WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	batchRow, err := pgxcollect.CollectOneRow(rows, pgxcollect.RowToStructByName[dbrow.Batch])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: batch %s", payment.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	rows, err = s.pool.Query(ctx, basePaymentsQuery+" WHERE batch_id = $1 ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	members, err := pgxcollect.CollectRows(rows, pgxcollect.RowToStructByName[dbrow.Payment])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	return batchRow.ToBatch(members), nil
}

// FindPayments queries payments based on the provided criteria
// Uses LIMIT n+1 technique for efficient pagination without separate count query
func (s *Store) FindPayments(ctx context.Context, criteria payment.ListCriteria) (*payment.PaymentsPage, error) {
	query, args := NewPaymentsQuery().ForCriteria(criteria).Build()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	dbRows, err := pgxcollect.CollectRows(rows, pgxcollect.RowToStructByName[dbrow.Payment])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	payments := make([]payment.Payment, 0, len(dbRows))
	for _, r := range dbRows {
		payments = append(payments, r.ToPayment())
	}

	// Determine if there are more pages using LIMIT n+1 technique
	hasMore := uint64(len(payments)) > criteria.ItemsPerPage()
	if hasMore {
		// Remove the extra record we requested to detect "has more"
		payments = payments[:criteria.ItemsPerPage()]
	}

	return &payment.PaymentsPage{
		Payments: payments,
		HasMore:  hasMore,
		Number:   criteria.Page,
		Size:     criteria.Size,
	}, nil
}

// CountByUser counts the payments a user participates in, on either side
// of the transfer. An empty user counts every payment.
func (s *Store) CountByUser(ctx context.Context, user string) (uint64, error) {
	query := "SELECT COUNT(*) FROM payments"
	var args []any
	if user != "" {
		query += " WHERE (sender = $1 OR recipient = $1)"
		args = append(args, user)
	}

	var count uint64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return count, nil
}
