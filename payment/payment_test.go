package payment_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddiespino/aliento-pay/payment"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNewPayment(t *testing.T) {
	t.Parallel()

	t.Run("it creates a pending payment with a generated id", func(t *testing.T) {
		t.Parallel()

		// Act
		p, err := payment.NewPayment("aliento", "alice", 1.5, payment.DefaultCurrency, "thanks", payment.TypeBatch, testNow)

		// Assert
		require.NoError(t, err)
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, payment.StatusPending, p.Status)
		assert.Equal(t, "aliento", p.From)
		assert.Equal(t, "alice", p.To)
		assert.Equal(t, testNow, p.CreatedAt)
		assert.Nil(t, p.ProcessedAt)
	})

	t.Run("it rejects an empty sender", func(t *testing.T) {
		t.Parallel()

		_, err := payment.NewPayment("", "alice", 1.0, payment.DefaultCurrency, "", payment.TypeSingle, testNow)

		assert.ErrorIs(t, err, payment.ErrEmptySender)
	})

	t.Run("it rejects an empty recipient", func(t *testing.T) {
		t.Parallel()

		_, err := payment.NewPayment("aliento", "", 1.0, payment.DefaultCurrency, "", payment.TypeSingle, testNow)

		assert.ErrorIs(t, err, payment.ErrEmptyRecipient)
	})

	t.Run("it rejects a self transfer", func(t *testing.T) {
		t.Parallel()

		_, err := payment.NewPayment("aliento", "aliento", 1.0, payment.DefaultCurrency, "", payment.TypeSingle, testNow)

		assert.ErrorIs(t, err, payment.ErrSelfTransfer)
	})

	t.Run("it rejects an amount below the minimum unit", func(t *testing.T) {
		t.Parallel()

		_, err := payment.NewPayment("aliento", "alice", 0.0005, payment.DefaultCurrency, "", payment.TypeSingle, testNow)

		assert.ErrorIs(t, err, payment.ErrAmountTooSmall)
	})

	t.Run("it accepts exactly the minimum amount", func(t *testing.T) {
		t.Parallel()

		_, err := payment.NewPayment("aliento", "alice", payment.MinAmount, payment.DefaultCurrency, "", payment.TypeSingle, testNow)

		assert.NoError(t, err)
	})

	t.Run("it rejects an amount above the sanity ceiling", func(t *testing.T) {
		t.Parallel()

		_, err := payment.NewPayment("aliento", "alice", payment.MaxAmount+1, payment.DefaultCurrency, "", payment.TypeSingle, testNow)

		assert.ErrorIs(t, err, payment.ErrAmountTooLarge)
	})

	t.Run("it rejects a missing currency", func(t *testing.T) {
		t.Parallel()

		_, err := payment.NewPayment("aliento", "alice", 1.0, "", "", payment.TypeSingle, testNow)

		assert.ErrorIs(t, err, payment.ErrMissingCurrency)
	})
}

func TestPaymentLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("it walks the happy path to completed", func(t *testing.T) {
		t.Parallel()

		// Arrange
		p := pendingPayment(t, "alice", 1.0)

		// Act
		require.NoError(t, p.MarkAsProcessing())
		require.NoError(t, p.MarkAsCompleted("tx-1", testNow))

		// Assert
		assert.Equal(t, payment.StatusCompleted, p.Status)
		assert.Equal(t, "tx-1", p.TransactionID)
		require.NotNil(t, p.ProcessedAt)
		assert.Equal(t, testNow, *p.ProcessedAt)
	})

	t.Run("it requires a transaction id to complete", func(t *testing.T) {
		t.Parallel()

		p := pendingPayment(t, "alice", 1.0)
		require.NoError(t, p.MarkAsProcessing())

		err := p.MarkAsCompleted("", testNow)

		assert.ErrorIs(t, err, payment.ErrMissingTransactionID)
		assert.Equal(t, payment.StatusProcessing, p.Status)
	})

	t.Run("it records the failure reason", func(t *testing.T) {
		t.Parallel()

		p := pendingPayment(t, "alice", 1.0)
		require.NoError(t, p.MarkAsProcessing())

		require.NoError(t, p.MarkAsFailed("node timeout", testNow))

		assert.Equal(t, payment.StatusFailed, p.Status)
		assert.Equal(t, "node timeout", p.ErrorMessage)
	})

	t.Run("it retries a failed payment back to pending", func(t *testing.T) {
		t.Parallel()

		p := pendingPayment(t, "alice", 1.0)
		require.NoError(t, p.MarkAsProcessing())
		require.NoError(t, p.MarkAsFailed("node timeout", testNow))

		require.NoError(t, p.Retry())

		assert.Equal(t, payment.StatusPending, p.Status)
		assert.Empty(t, p.ErrorMessage)
		assert.Nil(t, p.ProcessedAt)
	})

	t.Run("it clears a stale error on completion after retry", func(t *testing.T) {
		t.Parallel()

		p := pendingPayment(t, "alice", 1.0)
		require.NoError(t, p.MarkAsProcessing())
		require.NoError(t, p.MarkAsFailed("node timeout", testNow))
		require.NoError(t, p.Retry())
		require.NoError(t, p.MarkAsProcessing())

		require.NoError(t, p.MarkAsCompleted("tx-2", testNow))

		assert.Empty(t, p.ErrorMessage)
		assert.Equal(t, "tx-2", p.TransactionID)
	})

	t.Run("it cancels a pending payment", func(t *testing.T) {
		t.Parallel()

		p := pendingPayment(t, "alice", 1.0)

		require.NoError(t, p.Cancel())

		assert.Equal(t, payment.StatusCancelled, p.Status)
	})

	t.Run("it rejects invalid transitions", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			name string
			run  func(p *payment.Payment) error
		}{
			{"pending to completed", func(p *payment.Payment) error {
				return p.MarkAsCompleted("tx", testNow)
			}},
			{"pending to failed", func(p *payment.Payment) error {
				return p.MarkAsFailed("boom", testNow)
			}},
			{"processing to cancelled", func(p *payment.Payment) error {
				_ = p.MarkAsProcessing()
				return p.Cancel()
			}},
			{"completed to anything", func(p *payment.Payment) error {
				_ = p.MarkAsProcessing()
				_ = p.MarkAsCompleted("tx", testNow)
				return p.MarkAsProcessing()
			}},
			{"cancelled to anything", func(p *payment.Payment) error {
				_ = p.Cancel()
				return p.MarkAsProcessing()
			}},
			{"pending retry", func(p *payment.Payment) error {
				return p.Retry()
			}},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				p := pendingPayment(t, "alice", 1.0)

				assert.ErrorIs(t, tc.run(p), payment.ErrInvalidStatusTransition)
			})
		}
	})
}

func pendingPayment(t *testing.T, to string, amount float64) *payment.Payment {
	t.Helper()

	p, err := payment.NewPayment("aliento", to, amount, payment.DefaultCurrency, "memo", payment.TypeBatch, testNow)
	require.NoError(t, err)
	return p
}
