//go:build acceptance

package pgxstore_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddiespino/aliento-pay/payment"
	"github.com/eddiespino/aliento-pay/payment/store/pgxstore"
	"github.com/eddiespino/aliento-pay/pkg/pgxdb/pgxdbtest"
)

const migrationsDir = "../../../migrator/migrations"

// TestPaymentStoreAcceptance tests payment persistence against real PostgreSQL
func TestPaymentStoreAcceptance(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("it round trips a batch with its payments", func(t *testing.T) {
		t.Parallel()

		// Arrange
		pool, _ := pgxdbtest.CreateTestDatabase(t, migrationsDir)
		store, _ := pgxstore.New(pool)
		batch := demoBatch(t, now, "alice", "bob", "carol")

		// Act
		require.NoError(t, store.SaveBatch(t.Context(), batch))
		loaded, err := store.FindBatch(t.Context(), batch.ID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, batch.ID, loaded.ID)
		assert.Equal(t, batch.Status, loaded.Status)
		require.Len(t, loaded.Payments, 3)
		assert.Equal(t, "alice", loaded.Payments[0].To)
		assert.Equal(t, "bob", loaded.Payments[1].To)
		assert.Equal(t, "carol", loaded.Payments[2].To)
	})

	t.Run("it persists lifecycle changes on resave", func(t *testing.T) {
		t.Parallel()

		pool, _ := pgxdbtest.CreateTestDatabase(t, migrationsDir)
		store, _ := pgxstore.New(pool)
		batch := demoBatch(t, now, "alice", "bob")
		require.NoError(t, store.SaveBatch(t.Context(), batch))

		require.NoError(t, batch.MarkAsProcessing())
		require.NoError(t, batch.MarkAsCompleted("tx-42", now))
		require.NoError(t, store.SaveBatch(t.Context(), batch))

		loaded, err := store.FindBatch(t.Context(), batch.ID)
		require.NoError(t, err)
		assert.Equal(t, payment.BatchStatusCompleted, loaded.Status)
		assert.Equal(t, "tx-42", loaded.TransactionID)
		for _, p := range loaded.Payments {
			assert.Equal(t, payment.StatusCompleted, p.Status)
			assert.Equal(t, "tx-42", p.TransactionID)
			require.NotNil(t, p.ProcessedAt)
		}
	})

	t.Run("it finds a single payment by id", func(t *testing.T) {
		t.Parallel()

		pool, _ := pgxdbtest.CreateTestDatabase(t, migrationsDir)
		store, _ := pgxstore.New(pool)
		single, err := payment.NewPayment("aliento", "dave", 2.5, payment.DefaultCurrency, "tip", payment.TypeSingle, now)
		require.NoError(t, err)
		require.NoError(t, store.SavePayment(t.Context(), single))

		loaded, err := store.FindPayment(t.Context(), single.ID)

		require.NoError(t, err)
		assert.Equal(t, single.ID, loaded.ID)
		assert.Equal(t, "dave", loaded.To)
		assert.InDelta(t, 2.5, loaded.Amount, 1e-9)
	})

	t.Run("it reports not found for an unknown id", func(t *testing.T) {
		t.Parallel()

		pool, _ := pgxdbtest.CreateTestDatabase(t, migrationsDir)
		store, _ := pgxstore.New(pool)

		_, err := store.FindPayment(t.Context(), "no-such-id")

		assert.ErrorIs(t, err, payment.ErrNotFound)
	})

	t.Run("it filters payments by user and status with pagination", func(t *testing.T) {
		t.Parallel()

		// Arrange
		pool, _ := pgxdbtest.CreateTestDatabase(t, migrationsDir)
		store, _ := pgxstore.New(pool)
		batch := demoBatch(t, now, "alice", "bob", "carol")
		require.NoError(t, store.SaveBatch(t.Context(), batch))

		criteria, err := payment.NewListCriteria("alice", string(payment.StatusPending), 1, 2)
		require.NoError(t, err)

		// Act
		page, err := store.FindPayments(t.Context(), criteria)

		// Assert
		require.NoError(t, err)
		require.Len(t, page.Payments, 1)
		assert.Equal(t, "alice", page.Payments[0].To)
		assert.False(t, page.HasMore)
	})

	t.Run("it detects more pages with the n plus one query", func(t *testing.T) {
		t.Parallel()

		pool, _ := pgxdbtest.CreateTestDatabase(t, migrationsDir)
		store, _ := pgxstore.New(pool)
		batch := demoBatch(t, now, "alice", "bob", "carol")
		require.NoError(t, store.SaveBatch(t.Context(), batch))

		criteria, err := payment.NewListCriteria("", "", 1, 2)
		require.NoError(t, err)

		page, err := store.FindPayments(t.Context(), criteria)

		require.NoError(t, err)
		assert.Len(t, page.Payments, 2)
		assert.True(t, page.HasMore)
	})

	t.Run("it counts payments per user", func(t *testing.T) {
		t.Parallel()

		pool, _ := pgxdbtest.CreateTestDatabase(t, migrationsDir)
		store, _ := pgxstore.New(pool)
		batch := demoBatch(t, now, "alice", "bob", "carol")
		require.NoError(t, store.SaveBatch(t.Context(), batch))

		senderCount, err := store.CountByUser(t.Context(), batch.Sender())
		require.NoError(t, err)
		assert.Equal(t, uint64(3), senderCount)

		recipientCount, err := store.CountByUser(t.Context(), "alice")
		require.NoError(t, err)
		assert.Equal(t, uint64(1), recipientCount)

		allCount, err := store.CountByUser(t.Context(), "")
		require.NoError(t, err)
		assert.Equal(t, uint64(3), allCount)
	})
}

func demoBatch(t *testing.T, now time.Time, recipients ...string) *payment.Batch {
	t.Helper()

	payments := make([]*payment.Payment, 0, len(recipients))
	for i, to := range recipients {
		p, err := payment.NewPayment("aliento", to, float64(i+1)*0.5, payment.DefaultCurrency, "rewards", payment.TypeBatch, now)
		require.NoError(t, err)
		payments = append(payments, p)
	}

	batch, err := payment.NewBatch("aliento", payments, now)
	require.NoError(t, err)
	return batch
}
