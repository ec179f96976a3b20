// Package bind translates between HTTP requests/responses and domain types.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/eddiespino/aliento-pay/distribution"
	"github.com/eddiespino/aliento-pay/payment"
	"github.com/eddiespino/aliento-pay/web/api"
)

// Sentinel errors for request binding
var (
	ErrInvalidPage         = errors.New("invalid page parameter")
	ErrInvalidPerPage      = errors.New("invalid per_page parameter")
	ErrInvalidLookbackDays = errors.New("invalid lookback_days parameter")
	ErrInvalidMinHP        = errors.New("invalid min_hp parameter")
	ErrInvalidPool         = errors.New("invalid pool parameter")
	ErrInvalidBody         = errors.New("invalid request body")

	ErrPageNotNumeric     = errors.New("page must be numeric")
	ErrPageNotPositive    = errors.New("page must be positive")
	ErrPerPageNotNumeric  = errors.New("per_page must be numeric")
	ErrPerPageNotPositive = errors.New("per_page must be positive")

	ErrLookbackNotNumeric  = errors.New("lookback_days must be numeric")
	ErrLookbackNotPositive = errors.New("lookback_days must be positive")
	ErrMinHPNotNumeric     = errors.New("min_hp must be numeric")
	ErrMinHPNegative       = errors.New("min_hp must not be negative")
	ErrPoolNotNumeric      = errors.New("pool must be numeric")
	ErrPoolNegative        = errors.New("pool must not be negative")
)

// GetPaymentsRequest binds HTTP request to PaymentsRequest with defaults
func GetPaymentsRequest(r *http.Request) (api.PaymentsRequest, error) {
	req := api.PaymentsRequest{
		Page:    1,  // Default to first page
		PerPage: 50, // Default pagination size
	}

	query := r.URL.Query()
	req.User = query.Get("user")
	req.Status = query.Get("status")

	if pageParam := query.Get("page"); pageParam != "" {
		page, err := parsePositiveUint(pageParam, ErrPageNotNumeric, ErrPageNotPositive)
		if err != nil {
			return req, fmt.Errorf("%w: %w", ErrInvalidPage, err)
		}
		req.Page = page
	}

	if perPageParam := query.Get("per_page"); perPageParam != "" {
		perPage, err := parsePositiveUint(perPageParam, ErrPerPageNotNumeric, ErrPerPageNotPositive)
		if err != nil {
			return req, fmt.Errorf("%w: %w", ErrInvalidPerPage, err)
		}
		req.PerPage = perPage
	}

	return req, nil
}

// GetDistributionPreviewRequest binds HTTP request to
// DistributionPreviewRequest with defaults
func GetDistributionPreviewRequest(r *http.Request) (api.DistributionPreviewRequest, error) {
	req := api.DistributionPreviewRequest{
		Period:       "7d", // Default reward window
		LookbackDays: 84,   // Default delegation history window
	}

	query := r.URL.Query()
	if period := query.Get("period"); period != "" {
		req.Period = period
	}
	req.Exclude = query.Get("exclude")
	req.Pool = query.Get("pool")

	if lookbackParam := query.Get("lookback_days"); lookbackParam != "" {
		days, err := parsePositiveUint(lookbackParam, ErrLookbackNotNumeric, ErrLookbackNotPositive)
		if err != nil {
			return req, fmt.Errorf("%w: %w", ErrInvalidLookbackDays, err)
		}
		req.LookbackDays = days
	}

	if minHPParam := query.Get("min_hp"); minHPParam != "" {
		minHP, err := strconv.ParseFloat(minHPParam, 64)
		if err != nil {
			return req, fmt.Errorf("%w: %w", ErrInvalidMinHP, ErrMinHPNotNumeric)
		}
		if minHP < 0 {
			return req, fmt.Errorf("%w: %w", ErrInvalidMinHP, ErrMinHPNegative)
		}
		req.MinHP = minHP
	}

	if req.Pool != "" {
		pool, err := strconv.ParseFloat(req.Pool, 64)
		if err != nil {
			return req, fmt.Errorf("%w: %w", ErrInvalidPool, ErrPoolNotNumeric)
		}
		if pool < 0 {
			return req, fmt.Errorf("%w: %w", ErrInvalidPool, ErrPoolNegative)
		}
	}

	return req, nil
}

// PostBatchResultRequest decodes and validates the batch result body
func PostBatchResultRequest(r *http.Request) (api.BatchResultRequest, error) {
	var req api.BatchResultRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	if req.TransactionID == "" && (req.Success || len(req.Completed) > 0) {
		return req, fmt.Errorf("%w: transaction_id is required when any payment succeeded", ErrInvalidBody)
	}
	return req, nil
}

// parsePositiveUint parses a strictly positive decimal parameter
func parsePositiveUint(param string, notNumeric, notPositive error) (uint64, error) {
	v, err := strconv.ParseUint(param, 10, 64)
	if err != nil {
		return 0, notNumeric
	}
	if v == 0 {
		return 0, notPositive
	}
	return v, nil
}

// PaymentResponse converts a domain payment to its API representation
func PaymentResponse(p payment.Payment) api.Payment {
	resp := api.Payment{
		ID:            p.ID,
		From:          p.From,
		To:            p.To,
		Amount:        formatAmount(p.Amount),
		Currency:      p.Currency,
		Memo:          p.Memo,
		Type:          string(p.Type),
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		TransactionID: p.TransactionID,
		ErrorMessage:  p.ErrorMessage,
	}
	if p.ProcessedAt != nil {
		resp.ProcessedAt = p.ProcessedAt.Format(time.RFC3339)
	}
	return resp
}

// GetPaymentsResponse converts domain payments to the API response format
func GetPaymentsResponse(payments []payment.Payment) api.PaymentsResponse {
	data := make([]api.Payment, 0, len(payments))
	for _, p := range payments {
		data = append(data, PaymentResponse(p))
	}
	return api.PaymentsResponse{Data: data}
}

// BatchResponse converts a domain batch to its API representation
func BatchResponse(b *payment.Batch) api.Batch {
	payments := make([]api.Payment, 0, len(b.Payments))
	for _, p := range b.Payments {
		payments = append(payments, PaymentResponse(*p))
	}

	return api.Batch{
		ID:            b.ID,
		CreatedBy:     b.CreatedBy,
		Status:        string(b.Status),
		TotalAmount:   formatAmount(b.TotalAmount()),
		Currency:      b.Currency(),
		CreatedAt:     b.CreatedAt.Format(time.RFC3339),
		TransactionID: b.TransactionID,
		ErrorMessage:  b.ErrorMessage,
		Payments:      payments,
	}
}

// DistributionPreviewResponse converts a calculation output to the API
// response format
func DistributionPreviewResponse(out distribution.Output) api.DistributionPreviewResponse {
	delegators := make([]api.DelegatorShare, 0, len(out.Delegators))
	for _, d := range out.Delegators {
		delegators = append(delegators, api.DelegatorShare{
			Delegator:  d.Delegator,
			HP:         formatAmount(d.HP),
			Percentage: strconv.FormatFloat(d.Percentage, 'f', 2, 64),
			Amount:     formatAmount(d.Amount),
			Block:      strconv.FormatInt(d.SourceBlock, 10),
		})
	}

	return api.DistributionPreviewResponse{
		Delegators:       delegators,
		TotalHP:          formatAmount(out.TotalHP),
		TotalDistributed: formatAmount(out.TotalDistributed),
		CutoffDate:       out.CutoffDate.Format(time.RFC3339),
		EventsProcessed:  out.EventsProcessed,
		Summary: api.DistributionSummary{
			Count:  out.Summary.Count,
			Min:    formatAmount(out.Summary.Min),
			Max:    formatAmount(out.Summary.Max),
			Mean:   formatAmount(out.Summary.Mean),
			Median: formatAmount(out.Summary.Median),
			StdDev: formatAmount(out.Summary.StdDev),
		},
	}
}

// formatAmount renders amounts with the payment rounding precision
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', distribution.AmountDecimals, 64)
}
