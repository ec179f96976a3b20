package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddiespino/aliento-pay/distribution"
	"github.com/eddiespino/aliento-pay/payment"
	"github.com/eddiespino/aliento-pay/web/api"
	"github.com/eddiespino/aliento-pay/web/handler"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestGetPaymentsHandler(t *testing.T) {
	t.Parallel()

	t.Run("it returns payments as JSON", func(t *testing.T) {
		t.Parallel()

		// Arrange
		finder := &fakeFinder{page: &payment.PaymentsPage{
			Payments: []payment.Payment{*pendingPayment(t, "alice", 1.5)},
			Number:   1,
			Size:     50,
		}, total: 1}
		mux := muxWith(handler.NewGetPayments(finder))

		// Act
		rec := doRequest(mux, http.MethodGet, "/payments?user=alice", "")

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.PaymentsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "alice", resp.Data[0].To)
		assert.Equal(t, "1.500", resp.Data[0].Amount)
		assert.Equal(t, "pending", resp.Data[0].Status)
		assert.Equal(t, "alice", finder.gotCriteria.User)
		assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	})

	t.Run("it links the next page when more results exist", func(t *testing.T) {
		t.Parallel()

		finder := &fakeFinder{page: &payment.PaymentsPage{
			Payments: []payment.Payment{*pendingPayment(t, "alice", 1.0)},
			HasMore:  true,
			Number:   2,
			Size:     1,
		}}
		mux := muxWith(handler.NewGetPayments(finder))

		rec := doRequest(mux, http.MethodGet, "/payments?page=2&per_page=1", "")

		require.Equal(t, http.StatusOK, rec.Code)
		link := rec.Header().Get("Link")
		assert.Contains(t, link, `rel="next"`)
		assert.Contains(t, link, `rel="prev"`)
		assert.Contains(t, link, "page=3")
	})

	t.Run("it rejects an invalid per_page", func(t *testing.T) {
		t.Parallel()

		mux := muxWith(handler.NewGetPayments(&fakeFinder{}))

		rec := doRequest(mux, http.MethodGet, "/payments?per_page=bogus", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("it rejects an unknown status filter", func(t *testing.T) {
		t.Parallel()

		mux := muxWith(handler.NewGetPayments(&fakeFinder{}))

		rec := doRequest(mux, http.MethodGet, "/payments?status=exploded", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("it hides store failures behind a generic error", func(t *testing.T) {
		t.Parallel()

		finder := &fakeFinder{err: errors.New("password authentication failed")}
		mux := muxWith(handler.NewGetPayments(finder))

		rec := doRequest(mux, http.MethodGet, "/payments", "")

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "password")
	})
}

func TestGetPaymentHandler(t *testing.T) {
	t.Parallel()

	t.Run("it returns one payment by id", func(t *testing.T) {
		t.Parallel()

		p := pendingPayment(t, "alice", 2.0)
		finder := &fakeFinder{payment: p}
		mux := muxWith(handler.NewGetPayment(finder))

		rec := doRequest(mux, http.MethodGet, "/payments/"+p.ID, "")

		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.Payment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, p.ID, resp.ID)
		assert.Equal(t, "2.000", resp.Amount)
	})

	t.Run("it reports 404 for an unknown payment", func(t *testing.T) {
		t.Parallel()

		finder := &fakeFinder{err: fmt.Errorf("%w: payment nope", payment.ErrNotFound)}
		mux := muxWith(handler.NewGetPayment(finder))

		rec := doRequest(mux, http.MethodGet, "/payments/nope", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetBatchHandler(t *testing.T) {
	t.Parallel()

	t.Run("it returns the batch with its payments", func(t *testing.T) {
		t.Parallel()

		b := pendingBatch(t, "alice", "bob")
		finder := &fakeFinder{batch: b}
		mux := muxWith(handler.NewGetBatch(finder))

		rec := doRequest(mux, http.MethodGet, "/batches/"+b.ID, "")

		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.Batch
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, b.ID, resp.ID)
		assert.Equal(t, "pending", resp.Status)
		assert.Equal(t, "2.000", resp.TotalAmount)
		require.Len(t, resp.Payments, 2)
		assert.Equal(t, "alice", resp.Payments[0].To)
	})

	t.Run("it reports 404 for an unknown batch", func(t *testing.T) {
		t.Parallel()

		finder := &fakeFinder{err: fmt.Errorf("%w: batch nope", payment.ErrNotFound)}
		mux := muxWith(handler.NewGetBatch(finder))

		rec := doRequest(mux, http.MethodGet, "/batches/nope", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPostBatchResultHandler(t *testing.T) {
	t.Parallel()

	t.Run("it completes the batch on a successful result", func(t *testing.T) {
		t.Parallel()

		// Arrange
		b := pendingBatch(t, "alice", "bob")
		store := &fakeBatchStore{batch: b}
		mux := muxWith(handler.NewPostBatchResult(store, handler.WithClock(stoppedClock{})))

		// Act
		rec := doRequest(mux, http.MethodPost, "/batches/"+b.ID+"/result",
			`{"success": true, "transaction_id": "tx-77"}`)

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, payment.BatchStatusCompleted, b.Status)
		assert.Equal(t, "tx-77", b.TransactionID)
		require.NotNil(t, store.saved)
		assert.Equal(t, payment.BatchStatusCompleted, store.saved.Status)
	})

	t.Run("it applies a partial failure partition", func(t *testing.T) {
		t.Parallel()

		b := pendingBatch(t, "alice", "bob")
		store := &fakeBatchStore{batch: b}
		mux := muxWith(handler.NewPostBatchResult(store, handler.WithClock(stoppedClock{})))

		rec := doRequest(mux, http.MethodPost, "/batches/"+b.ID+"/result",
			`{"success": false, "transaction_id": "tx-78", "completed": ["alice"], "failed": ["bob"], "error_message": "out of funds"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, payment.BatchStatusPartiallyFailed, b.Status)

		var resp api.Batch
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "partially_failed", resp.Status)
	})

	t.Run("it fails the batch on a failed result", func(t *testing.T) {
		t.Parallel()

		b := pendingBatch(t, "alice", "bob")
		store := &fakeBatchStore{batch: b}
		mux := muxWith(handler.NewPostBatchResult(store, handler.WithClock(stoppedClock{})))

		rec := doRequest(mux, http.MethodPost, "/batches/"+b.ID+"/result",
			`{"success": false, "error_message": "signature invalid"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, payment.BatchStatusFailed, b.Status)
		assert.Equal(t, "signature invalid", b.ErrorMessage)
	})

	t.Run("it rejects a result for a finished batch", func(t *testing.T) {
		t.Parallel()

		b := pendingBatch(t, "alice", "bob")
		require.NoError(t, b.MarkAsProcessing())
		require.NoError(t, b.MarkAsCompleted("tx-1", testNow))
		store := &fakeBatchStore{batch: b}
		mux := muxWith(handler.NewPostBatchResult(store, handler.WithClock(stoppedClock{})))

		rec := doRequest(mux, http.MethodPost, "/batches/"+b.ID+"/result",
			`{"success": true, "transaction_id": "tx-2"}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Nil(t, store.saved)
	})

	t.Run("it rejects a success report without a transaction id", func(t *testing.T) {
		t.Parallel()

		b := pendingBatch(t, "alice", "bob")
		mux := muxWith(handler.NewPostBatchResult(&fakeBatchStore{batch: b}, handler.WithClock(stoppedClock{})))

		rec := doRequest(mux, http.MethodPost, "/batches/"+b.ID+"/result", `{"success": true}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("it reports 404 for an unknown batch", func(t *testing.T) {
		t.Parallel()

		mux := muxWith(handler.NewPostBatchResult(&fakeBatchStore{}, handler.WithClock(stoppedClock{})))

		rec := doRequest(mux, http.MethodPost, "/batches/nope/result",
			`{"success": false, "error_message": "boom"}`)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetDistributionPreviewHandler(t *testing.T) {
	t.Parallel()

	t.Run("it returns the calculated preview", func(t *testing.T) {
		t.Parallel()

		// Arrange
		calc := &fakeCalculator{out: distribution.Output{
			Delegators: []distribution.DelegatorShare{
				{Delegator: "alice", HP: 100, Percentage: 50, Amount: 30, SourceBlock: 9000},
				{Delegator: "bob", HP: 100, Percentage: 50, Amount: 30, SourceBlock: 9001},
			},
			TotalHP:          200,
			TotalDistributed: 60,
			CutoffDate:       testNow,
			EventsProcessed:  12,
			Summary:          distribution.Summary{Count: 2, Min: 30, Max: 30, Mean: 30, Median: 30},
		}}
		mux := muxWith(handler.NewGetDistributionPreview(calc))

		// Act
		rec := doRequest(mux, http.MethodGet, "/distributions/preview?period=7d&min_hp=50&exclude=carol,dave", "")

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.DistributionPreviewResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Delegators, 2)
		assert.Equal(t, "alice", resp.Delegators[0].Delegator)
		assert.Equal(t, "30.000", resp.Delegators[0].Amount)
		assert.Equal(t, "60.000", resp.TotalDistributed)
		assert.Equal(t, 12, resp.EventsProcessed)

		assert.Equal(t, "7d", calc.gotFilters.PeriodSelector)
		assert.Equal(t, 50.0, calc.gotFilters.MinimumHP)
		assert.Equal(t, []string{"carol", "dave"}, calc.gotFilters.ExcludedDelegators)
		assert.Equal(t, distribution.ReturnEmpty, calc.gotPolicy)
	})

	t.Run("it passes an explicit pool through to the calculator", func(t *testing.T) {
		t.Parallel()

		calc := &fakeCalculator{}
		mux := muxWith(handler.NewGetDistributionPreview(calc))

		rec := doRequest(mux, http.MethodGet, "/distributions/preview?pool=42.5", "")

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, calc.gotFilters.ExplicitPoolValue)
		assert.Equal(t, 42.5, *calc.gotFilters.ExplicitPoolValue)
	})

	t.Run("it rejects a non numeric pool", func(t *testing.T) {
		t.Parallel()

		mux := muxWith(handler.NewGetDistributionPreview(&fakeCalculator{}))

		rec := doRequest(mux, http.MethodGet, "/distributions/preview?pool=lots", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("it maps invalid filters to a 400", func(t *testing.T) {
		t.Parallel()

		calc := &fakeCalculator{err: fmt.Errorf("%w: unknown period", distribution.ErrInvalidFilters)}
		mux := muxWith(handler.NewGetDistributionPreview(calc))

		rec := doRequest(mux, http.MethodGet, "/distributions/preview?period=eternity", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// Test plumbing

type routable interface {
	AddRoutes(m *http.ServeMux)
}

func muxWith(handlers ...routable) *http.ServeMux {
	mux := http.NewServeMux()
	for _, h := range handlers {
		h.AddRoutes(mux)
	}
	return mux
}

func doRequest(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)
	return rec
}

func pendingPayment(t *testing.T, to string, amount float64) *payment.Payment {
	t.Helper()

	p, err := payment.NewPayment("aliento", to, amount, payment.DefaultCurrency, "rewards", payment.TypeBatch, testNow)
	require.NoError(t, err)
	return p
}

func pendingBatch(t *testing.T, recipients ...string) *payment.Batch {
	t.Helper()

	payments := make([]*payment.Payment, 0, len(recipients))
	for _, to := range recipients {
		payments = append(payments, pendingPayment(t, to, 1.0))
	}
	b, err := payment.NewBatch("aliento", payments, testNow)
	require.NoError(t, err)
	return b
}

type fakeFinder struct {
	page        *payment.PaymentsPage
	payment     *payment.Payment
	batch       *payment.Batch
	total       uint64
	err         error
	gotCriteria payment.ListCriteria
}

func (f *fakeFinder) FindPayments(_ context.Context, criteria payment.ListCriteria) (*payment.PaymentsPage, error) {
	f.gotCriteria = criteria
	return f.page, f.err
}

func (f *fakeFinder) FindPayment(context.Context, string) (*payment.Payment, error) {
	return f.payment, f.err
}

func (f *fakeFinder) FindBatch(context.Context, string) (*payment.Batch, error) {
	return f.batch, f.err
}

func (f *fakeFinder) CountByUser(context.Context, string) (uint64, error) {
	return f.total, f.err
}

type fakeBatchStore struct {
	batch *payment.Batch
	saved *payment.Batch
}

func (s *fakeBatchStore) FindBatch(_ context.Context, id string) (*payment.Batch, error) {
	if s.batch == nil || s.batch.ID != id {
		return nil, fmt.Errorf("%w: batch %s", payment.ErrNotFound, id)
	}
	return s.batch, nil
}

func (s *fakeBatchStore) SaveBatch(_ context.Context, b *payment.Batch) error {
	s.saved = b
	return nil
}

type fakeCalculator struct {
	out        distribution.Output
	err        error
	gotFilters distribution.Filters
	gotPolicy  distribution.ZeroTotalPolicy
}

func (c *fakeCalculator) Calculate(_ context.Context, filters distribution.Filters, policy distribution.ZeroTotalPolicy) (distribution.Output, error) {
	c.gotFilters = filters
	c.gotPolicy = policy
	return c.out, c.err
}

type stoppedClock struct{}

func (stoppedClock) Now() time.Time { return testNow }
