package payment_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddiespino/aliento-pay/payment"
)

func TestNewBatch(t *testing.T) {
	t.Parallel()

	t.Run("it creates a pending batch", func(t *testing.T) {
		t.Parallel()

		// Arrange
		payments := pendingPayments(t, "alice", "bob", "carol")

		// Act
		b, err := payment.NewBatch("aliento", payments, testNow)

		// Assert
		require.NoError(t, err)
		assert.NotEmpty(t, b.ID)
		assert.Equal(t, payment.BatchStatusPending, b.Status)
		assert.Equal(t, "aliento", b.Sender())
		assert.Equal(t, payment.DefaultCurrency, b.Currency())
		assert.InDelta(t, 3.0, b.TotalAmount(), 1e-9)
	})

	t.Run("it rejects an empty batch", func(t *testing.T) {
		t.Parallel()

		_, err := payment.NewBatch("aliento", nil, testNow)

		assert.ErrorIs(t, err, payment.ErrEmptyBatch)
	})

	t.Run("it rejects more than the maximum size", func(t *testing.T) {
		t.Parallel()

		payments := numberedPayments(t, payment.MaxBatchSize+1)

		_, err := payment.NewBatch("aliento", payments, testNow)

		assert.ErrorIs(t, err, payment.ErrBatchTooLarge)
	})

	t.Run("it accepts exactly the maximum size", func(t *testing.T) {
		t.Parallel()

		payments := numberedPayments(t, payment.MaxBatchSize)

		_, err := payment.NewBatch("aliento", payments, testNow)

		assert.NoError(t, err)
	})

	t.Run("it rejects mixed senders", func(t *testing.T) {
		t.Parallel()

		payments := pendingPayments(t, "alice", "bob")
		other, err := payment.NewPayment("someoneelse", "dave", 1.0, payment.DefaultCurrency, "", payment.TypeBatch, testNow)
		require.NoError(t, err)
		payments = append(payments, other)

		_, err = payment.NewBatch("aliento", payments, testNow)

		assert.ErrorIs(t, err, payment.ErrMixedSenders)
	})

	t.Run("it rejects mixed currencies", func(t *testing.T) {
		t.Parallel()

		payments := pendingPayments(t, "alice", "bob")
		other, err := payment.NewPayment("aliento", "dave", 1.0, "HBD", "", payment.TypeBatch, testNow)
		require.NoError(t, err)
		payments = append(payments, other)

		_, err = payment.NewBatch("aliento", payments, testNow)

		assert.ErrorIs(t, err, payment.ErrMixedCurrencies)
	})

	t.Run("it rejects non pending payments", func(t *testing.T) {
		t.Parallel()

		payments := pendingPayments(t, "alice", "bob")
		require.NoError(t, payments[1].MarkAsProcessing())

		_, err := payment.NewBatch("aliento", payments, testNow)

		assert.ErrorIs(t, err, payment.ErrPaymentNotPending)
	})

	t.Run("it rejects duplicate recipients", func(t *testing.T) {
		t.Parallel()

		payments := pendingPayments(t, "alice", "bob", "alice")

		_, err := payment.NewBatch("aliento", payments, testNow)

		assert.ErrorIs(t, err, payment.ErrDuplicateRecipient)
	})
}

func TestBatchLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("it cascades processing to member payments", func(t *testing.T) {
		t.Parallel()

		b := pendingBatch(t, "alice", "bob")

		require.NoError(t, b.MarkAsProcessing())

		assert.Equal(t, payment.BatchStatusProcessing, b.Status)
		for _, p := range b.Payments {
			assert.Equal(t, payment.StatusProcessing, p.Status)
		}
	})

	t.Run("it cascades completion with the transaction id", func(t *testing.T) {
		t.Parallel()

		b := pendingBatch(t, "alice", "bob")
		require.NoError(t, b.MarkAsProcessing())

		require.NoError(t, b.MarkAsCompleted("tx-9", testNow))

		assert.Equal(t, payment.BatchStatusCompleted, b.Status)
		assert.Equal(t, "tx-9", b.TransactionID)
		for _, p := range b.Payments {
			assert.Equal(t, payment.StatusCompleted, p.Status)
			assert.Equal(t, "tx-9", p.TransactionID)
		}
	})

	t.Run("it fails all processing payments on full failure", func(t *testing.T) {
		t.Parallel()

		b := pendingBatch(t, "alice", "bob")
		require.NoError(t, b.MarkAsProcessing())

		require.NoError(t, b.MarkAsFailed("broadcast rejected", testNow))

		assert.Equal(t, payment.BatchStatusFailed, b.Status)
		assert.Equal(t, "broadcast rejected", b.ErrorMessage)
		for _, p := range b.Payments {
			assert.Equal(t, payment.StatusFailed, p.Status)
			assert.Equal(t, "broadcast rejected", p.ErrorMessage)
		}
	})

	t.Run("it cascades cancellation of a pending batch", func(t *testing.T) {
		t.Parallel()

		b := pendingBatch(t, "alice", "bob")

		require.NoError(t, b.Cancel())

		assert.Equal(t, payment.BatchStatusCancelled, b.Status)
		for _, p := range b.Payments {
			assert.Equal(t, payment.StatusCancelled, p.Status)
		}
	})

	t.Run("it rejects completing a pending batch", func(t *testing.T) {
		t.Parallel()

		b := pendingBatch(t, "alice", "bob")

		err := b.MarkAsCompleted("tx", testNow)

		assert.ErrorIs(t, err, payment.ErrInvalidStatusTransition)
	})

	t.Run("it rejects cancelling a processing batch", func(t *testing.T) {
		t.Parallel()

		b := pendingBatch(t, "alice", "bob")
		require.NoError(t, b.MarkAsProcessing())

		assert.ErrorIs(t, b.Cancel(), payment.ErrInvalidStatusTransition)
	})
}

func TestBatchPartialFailure(t *testing.T) {
	t.Parallel()

	t.Run("it applies the caller partition to member payments", func(t *testing.T) {
		t.Parallel()

		// Arrange
		b := pendingBatch(t, "alice", "bob", "carol")
		require.NoError(t, b.MarkAsProcessing())

		// Act
		err := b.MarkAsPartiallyFailed("tx-5", []string{"alice", "bob"}, []string{"carol"}, "insufficient funds", testNow)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, payment.BatchStatusPartiallyFailed, b.Status)
		assert.Equal(t, "tx-5", b.TransactionID)
		assert.Equal(t, payment.StatusCompleted, paymentTo(b, "alice").Status)
		assert.Equal(t, payment.StatusCompleted, paymentTo(b, "bob").Status)
		assert.Equal(t, payment.StatusFailed, paymentTo(b, "carol").Status)
		assert.Equal(t, "insufficient funds", paymentTo(b, "carol").ErrorMessage)
	})

	t.Run("it rejects a partition that misses a payment", func(t *testing.T) {
		t.Parallel()

		b := pendingBatch(t, "alice", "bob", "carol")
		require.NoError(t, b.MarkAsProcessing())

		err := b.MarkAsPartiallyFailed("tx-5", []string{"alice"}, []string{"carol"}, "boom", testNow)

		assert.ErrorIs(t, err, payment.ErrIncompletePartition)
		assert.Equal(t, payment.BatchStatusProcessing, b.Status)
	})

	t.Run("it rejects a recipient listed on both sides", func(t *testing.T) {
		t.Parallel()

		b := pendingBatch(t, "alice", "bob")
		require.NoError(t, b.MarkAsProcessing())

		err := b.MarkAsPartiallyFailed("tx-5", []string{"alice", "bob"}, []string{"bob"}, "boom", testNow)

		assert.ErrorIs(t, err, payment.ErrIncompletePartition)
	})

	t.Run("it rejects an unknown recipient", func(t *testing.T) {
		t.Parallel()

		b := pendingBatch(t, "alice", "bob")
		require.NoError(t, b.MarkAsProcessing())

		err := b.MarkAsPartiallyFailed("tx-5", []string{"alice", "mallory"}, []string{"bob"}, "boom", testNow)

		assert.ErrorIs(t, err, payment.ErrUnknownRecipient)
	})
}

func TestBatchOperations(t *testing.T) {
	t.Parallel()

	t.Run("it renders wallet transfer operations in batch order", func(t *testing.T) {
		t.Parallel()

		b := pendingBatch(t, "alice", "bob")

		ops := b.Operations()

		require.Len(t, ops, 2)
		assert.Equal(t, "aliento", ops[0].From)
		assert.Equal(t, "alice", ops[0].To)
		assert.Equal(t, "1.000 HIVE", ops[0].Amount)
		assert.Equal(t, "bob", ops[1].To)
	})
}

func pendingPayments(t *testing.T, recipients ...string) []*payment.Payment {
	t.Helper()

	payments := make([]*payment.Payment, 0, len(recipients))
	for _, to := range recipients {
		payments = append(payments, pendingPayment(t, to, 1.0))
	}
	return payments
}

func numberedPayments(t *testing.T, n int) []*payment.Payment {
	t.Helper()

	payments := make([]*payment.Payment, 0, n)
	for i := 0; i < n; i++ {
		payments = append(payments, pendingPayment(t, recipientName(i), 1.0))
	}
	return payments
}

func recipientName(i int) string {
	return fmt.Sprintf("delegator-%03d", i)
}

func pendingBatch(t *testing.T, recipients ...string) *payment.Batch {
	t.Helper()

	b, err := payment.NewBatch("aliento", pendingPayments(t, recipients...), testNow)
	require.NoError(t, err)
	return b
}

func paymentTo(b *payment.Batch, recipient string) *payment.Payment {
	for _, p := range b.Payments {
		if p.To == recipient {
			return p
		}
	}
	return nil
}
