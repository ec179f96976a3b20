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

const GetPaymentRoute = http.MethodGet + " " + "/payments/{id}"

var ErrPaymentNotFound = errors.New("payment not found")

type GetPayment struct {
	finder payment.Finder
}

func NewGetPayment(finder payment.Finder) *GetPayment {
	return &GetPayment{
		finder: finder,
	}
}

func (h *GetPayment) AddRoutes(m *http.ServeMux) {
	m.Handle(GetPaymentRoute, httpkit.HandlerFunc(h.GetPayment))
}

func (h *GetPayment) GetPayment(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	id := r.PathValue("id")

	p, err := h.finder.FindPayment(r.Context(), id)
	if isNotFound(err) {
		return httpkit.JsonError(api.NotFound(fmt.Errorf("%w: %s", ErrPaymentNotFound, id)))
	}
	if err != nil {
		return httpkit.JsonError(api.InternalServerError(fmt.Errorf("%w: %w", ErrQueryFailed, err)))
	}

	return httpkit.JSON(bind.PaymentResponse(*p))
}

func isNotFound(err error) bool {
	return errors.Is(err, payment.ErrNotFound)
}
