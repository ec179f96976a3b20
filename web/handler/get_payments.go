// Package handler wires the HTTP routes to the payment and distribution
// domain.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/eddiespino/aliento-pay/payment"
	"github.com/eddiespino/aliento-pay/pkg/httpkit"
	"github.com/eddiespino/aliento-pay/web/api"
	"github.com/eddiespino/aliento-pay/web/handler/bind"
)

const GetPaymentsRoute = http.MethodGet + " " + "/payments"

// Sentinel errors
var (
	ErrQueryFailed = errors.New("failed to query payments")
)

type GetPayments struct {
	finder payment.Finder
}

func NewGetPayments(finder payment.Finder) *GetPayments {
	return &GetPayments{
		finder: finder,
	}
}

func (h *GetPayments) AddRoutes(m *http.ServeMux) {
	m.Handle(GetPaymentsRoute, httpkit.HandlerFunc(h.GetPayments))
}

func (h *GetPayments) GetPayments(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	// Parse query parameters using bind layer
	req, err := bind.GetPaymentsRequest(r)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	// Create domain criteria with validation
	criteria, err := payment.NewListCriteria(req.User, req.Status, req.Page, req.PerPage)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	// Query payments
	page, err := h.finder.FindPayments(r.Context(), criteria)
	if err != nil {
		return httpkit.JsonError(api.InternalServerError(fmt.Errorf("%w: %w", ErrQueryFailed, err)))
	}

	total, err := h.finder.CountByUser(r.Context(), criteria.User)
	if err != nil {
		return httpkit.JsonError(api.InternalServerError(fmt.Errorf("%w: %w", ErrQueryFailed, err)))
	}
	w.Header().Set("X-Total-Count", fmt.Sprintf("%d", total))

	// Build GitHub-style Link header for navigation
	if linkHeader := buildPaginationLinks(page, r.URL); linkHeader != "" {
		w.Header().Set("Link", linkHeader)
	}

	resp := bind.GetPaymentsResponse(page.Payments)
	return httpkit.JSON(resp)
}

// buildPaginationLinks creates GitHub-style Link header for pagination navigation
func buildPaginationLinks(page *payment.PaymentsPage, baseURL *url.URL) string {
	var links []string

	// Build base URL with existing query params (like user filter)
	u := *baseURL
	query := u.Query()

	// Previous page link
	if page.HasPrevious() {
		query.Set("page", fmt.Sprintf("%d", page.Number-1))
		query.Set("per_page", fmt.Sprintf("%d", page.Size))
		u.RawQuery = query.Encode()
		links = append(links, fmt.Sprintf(`<%s>; rel="prev"`, u.String()))
	}

	// Next page link, only when we know there are more pages
	if page.HasNext() {
		query.Set("page", fmt.Sprintf("%d", page.Number+1))
		query.Set("per_page", fmt.Sprintf("%d", page.Size))
		u.RawQuery = query.Encode()
		links = append(links, fmt.Sprintf(`<%s>; rel="next"`, u.String()))
	}

	// rel="first" is redundant (always page=1) and rel="last" would need a
	// count(*) query; prev/next is enough for navigation

	return strings.Join(links, ", ")
}
