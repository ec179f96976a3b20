package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/eddiespino/aliento-pay/distribution"
	"github.com/eddiespino/aliento-pay/pkg/httpkit"
	"github.com/eddiespino/aliento-pay/web/api"
	"github.com/eddiespino/aliento-pay/web/handler/bind"
)

const GetDistributionPreviewRoute = http.MethodGet + " " + "/distributions/preview"

var ErrPreviewFailed = errors.New("failed to calculate distribution preview")

// PreviewCalculator computes a reward distribution without creating payments
type PreviewCalculator interface {
	Calculate(ctx context.Context, filters distribution.Filters, policy distribution.ZeroTotalPolicy) (distribution.Output, error)
}

type GetDistributionPreview struct {
	calculator PreviewCalculator
}

func NewGetDistributionPreview(calculator PreviewCalculator) *GetDistributionPreview {
	return &GetDistributionPreview{
		calculator: calculator,
	}
}

func (h *GetDistributionPreview) AddRoutes(m *http.ServeMux) {
	m.Handle(GetDistributionPreviewRoute, httpkit.HandlerFunc(h.GetDistributionPreview))
}

func (h *GetDistributionPreview) GetDistributionPreview(w http.ResponseWriter, r *http.Request) http.HandlerFunc {
	req, err := bind.GetDistributionPreviewRequest(r)
	if err != nil {
		return httpkit.JsonError(api.BadRequest(err))
	}

	filters := distribution.Filters{
		LookbackDays:   int(req.LookbackDays),
		MinimumHP:      req.MinHP,
		PeriodSelector: req.Period,
	}
	if req.Exclude != "" {
		filters.ExcludedDelegators = strings.Split(req.Exclude, ",")
	}
	if req.Pool != "" {
		// Already validated by the bind layer
		pool, _ := strconv.ParseFloat(req.Pool, 64)
		filters.ExplicitPoolValue = &pool
	}

	// A preview of an account without delegators is a valid empty answer
	out, err := h.calculator.Calculate(r.Context(), filters, distribution.ReturnEmpty)
	if errors.Is(err, distribution.ErrInvalidFilters) {
		return httpkit.JsonError(api.BadRequest(err))
	}
	if err != nil {
		return httpkit.JsonError(api.InternalServerError(fmt.Errorf("%w: %w", ErrPreviewFailed, err)))
	}

	return httpkit.JSON(bind.DistributionPreviewResponse(out))
}
