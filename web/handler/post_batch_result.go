package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/eddiespino/aliento-pay/payment"
	"github.com/eddiespino/aliento-pay/pkg/clock"
	"github.com/eddiespino/aliento-pay/pkg/httpkit"
	"github.com/eddiespino/aliento-pay/web/api"
	"github.com/eddiespino/aliento-pay/web/handler/bind"
)

const PostBatchResultRoute = http.MethodPost + " " + "/batches/{id}/result"

var ErrSaveFailed = errors.New("failed to save batch")

// BatchResultStore loads and persists batches for result reporting
type BatchResultStore interface {
	FindBatch(ctx context.Context, id string) (*payment.Batch, error)
	SaveBatch(ctx context.Context, batch *payment.Batch) error
}

// Clock abstracts time for result timestamps
type Clock interface {
	Now() time.Time
}

// PostBatchResultOption configures the handler
type PostBatchResultOption func(*PostBatchResult)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) PostBatchResultOption {
	return func(h *PostBatchResult) { h.clock = c }
}

// PostBatchResult applies a wallet client's submission outcome to a batch.
// The wallet holds the signing keys, so batch execution happens outside
// this service; this route is how the outcome comes back.
type PostBatchResult struct {
	store BatchResultStore
	clock Clock
}

func NewPostBatchResult(store BatchResultStore, opts ...PostBatchResultOption) *PostBatchResult {
	h := &PostBatchResult{
		store: store,
		clock: clock.SystemClock{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *PostBatchResult) AddRoutes(m *http.ServeMux) {
	m.Handle(PostBatchResultRoute, httpkit.HandlerFunc(h.PostBatchResult))
}

func (h *PostBatchResult) PostBatchResult(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	id := r.PathValue("id")

	req, err := bind.PostBatchResultRequest(r)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	b, err := h.store.FindBatch(r.Context(), id)
	if isNotFound(err) {
		return httpkit.JsonError(api.NotFound(fmt.Errorf("%w: %s", ErrBatchNotFound, id)))
	}
	if err != nil {
		return httpkit.JsonError(api.InternalServerError(fmt.Errorf("%w: %w", ErrQueryFailed, err)))
	}

	if err := h.applyResult(b, req); err != nil {
		return httpkit.JsonError(api.Conflict(err))
	}

	if err := h.store.SaveBatch(r.Context(), b); err != nil {
		return httpkit.JsonError(api.InternalServerError(fmt.Errorf("%w: %w", ErrSaveFailed, err)))
	}

	return httpkit.JSON(bind.BatchResponse(b))
}

// applyResult drives the batch lifecycle according to the reported outcome
func (h *PostBatchResult) applyResult(b *payment.Batch, req api.BatchResultRequest) error {
	// The wallet picked the batch up before executing it, so a still
	// pending batch moves through processing first
	if b.Status == payment.BatchStatusPending {
		if err := b.MarkAsProcessing(); err != nil {
			return err
		}
	}

	now := h.clock.Now()
	switch {
	case req.Success:
		return b.MarkAsCompleted(req.TransactionID, now)
	case len(req.Completed) > 0:
		return b.MarkAsPartiallyFailed(req.TransactionID, req.Completed, req.Failed, req.ErrorMessage, now)
	default:
		return b.MarkAsFailed(req.ErrorMessage, now)
	}
}
