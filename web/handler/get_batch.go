package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/eddiespino/aliento-pay/payment"
	"github.com/eddiespino/aliento-pay/pkg/httpkit"
	"github.com/eddiespino/aliento-pay/web/api"
	"github.com/eddiespino/aliento-pay/web/handler/bind"
)

const GetBatchRoute = http.MethodGet + " " + "/batches/{id}"

var ErrBatchNotFound = errors.New("batch not found")

type GetBatch struct {
	finder payment.Finder
}

func NewGetBatch(finder payment.Finder) *GetBatch {
	return &GetBatch{
		finder: finder,
	}
}

func (h *GetBatch) AddRoutes(m *http.ServeMux) {
	m.Handle(GetBatchRoute, httpkit.HandlerFunc(h.GetBatch))
}

func (h *GetBatch) GetBatch(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	id := r.PathValue("id")

	b, err := h.finder.FindBatch(r.Context(), id)
	if isNotFound(err) {
		return httpkit.JsonError(api.NotFound(fmt.Errorf("%w: %s", ErrBatchNotFound, id)))
	}
	if err != nil {
		return httpkit.JsonError(api.InternalServerError(fmt.Errorf("%w: %w", ErrQueryFailed, err)))
	}

	return httpkit.JSON(bind.BatchResponse(b))
}
