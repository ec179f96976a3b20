package distribution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eddiespino/aliento-pay/delegation"
	"github.com/eddiespino/aliento-pay/pkg/clock"
	"github.com/eddiespino/aliento-pay/rewards"
)

// Sentinel errors for the calculator
var (
	ErrHistoryFetchFailed = errors.New("delegation history fetch failed")
	ErrResolutionFailed   = errors.New("delegation resolution failed")
	ErrPoolSizingFailed   = errors.New("pool sizing failed")
)

// DefaultMemo is attached to payments unless overridden
const DefaultMemo = "Thank you for delegating to @aliento!"

// DefaultPercentageConfig bounds the dynamic return percentage
var DefaultPercentageConfig = rewards.PercentageConfig{
	Base:        10,
	Min:         1,
	Max:         15,
	FullScaleHP: 100,
}

// HistorySource provides the delegation change events of an account
type HistorySource interface {
	DelegationEvents(ctx context.Context, delegatee string, since time.Time) ([]delegation.Event, int, error)
}

// RewardAggregator provides the realized reward over a period
type RewardAggregator interface {
	RealizedRewardHP(ctx context.Context, account string, period rewards.Period) (float64, error)
}

// Clock abstracts time for cutoff calculation
type Clock interface {
	Now() time.Time
}

// CalculatorOption configures the Calculator
type CalculatorOption func(*Calculator)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) CalculatorOption {
	return func(calc *Calculator) { calc.clock = c }
}

// WithMemo sets the memo attached to calculated payments
func WithMemo(memo string) CalculatorOption {
	return func(calc *Calculator) { calc.memo = memo }
}

// WithPercentageConfig sets the dynamic percentage bounds
func WithPercentageConfig(cfg rewards.PercentageConfig) CalculatorOption {
	return func(calc *Calculator) { calc.pct = cfg }
}

// Calculator runs the full pipeline: fetch delegation history, resolve the
// active set, size the pool from realized rewards, distribute.
type Calculator struct {
	account string
	history HistorySource
	conv    delegation.Converter
	rewards RewardAggregator
	clock   Clock
	memo    string
	pct     rewards.PercentageConfig
}

// NewCalculator constructs a Calculator for the distributor account
func NewCalculator(account string, history HistorySource, conv delegation.Converter, agg RewardAggregator, opts ...CalculatorOption) *Calculator {
	calc := &Calculator{
		account: account,
		history: history,
		conv:    conv,
		rewards: agg,
		clock:   clock.SystemClock{},
		memo:    DefaultMemo,
		pct:     DefaultPercentageConfig,
	}
	for _, opt := range opts {
		opt(calc)
	}
	return calc
}

// Calculate produces the full distribution for the current filters.
// The policy decides whether an empty delegator set is an answer or an error.
func (c *Calculator) Calculate(ctx context.Context, filters Filters, policy ZeroTotalPolicy) (Output, error) {
	if err := filters.Validate(); err != nil {
		return Output{}, err
	}

	period, err := rewards.ParsePeriod(filters.PeriodSelector)
	if err != nil {
		return Output{}, fmt.Errorf("%w: %w", ErrInvalidFilters, err)
	}

	cutoff := c.clock.Now()
	since := cutoff.AddDate(0, 0, -filters.LookbackDays)

	events, processed, err := c.history.DelegationEvents(ctx, c.account, since)
	if err != nil {
		return Output{}, fmt.Errorf("%w: %w", ErrHistoryFetchFailed, err)
	}

	states, err := delegation.ResolveActiveDelegations(ctx, c.conv, events, c.account, cutoff)
	if err != nil {
		return Output{}, fmt.Errorf("%w: %w", ErrResolutionFailed, err)
	}

	pool, err := c.poolAmount(ctx, filters, period)
	if err != nil {
		return Output{}, err
	}

	result, err := Distribute(states, filters, pool, c.memo, policy)
	if err != nil {
		return Output{}, err
	}

	return Output{
		Delegators:       joinStates(result.Payments, states),
		TotalHP:          result.TotalHP,
		TotalDistributed: result.TotalDistributed,
		CutoffDate:       cutoff,
		EventsProcessed:  processed,
		Summary:          result.Summary,
	}, nil
}

// poolAmount sizes the distributable pool: an explicit value wins,
// otherwise realized rewards scaled by the dynamic percentage
func (c *Calculator) poolAmount(ctx context.Context, filters Filters, period rewards.Period) (float64, error) {
	if filters.ExplicitPoolValue != nil {
		return *filters.ExplicitPoolValue, nil
	}

	realized, err := c.rewards.RealizedRewardHP(ctx, c.account, period)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPoolSizingFailed, err)
	}

	pct := rewards.ComputePercentage(realized, c.pct)
	return realized * pct / 100, nil
}

// joinStates attaches source block/timestamp to each payment row
func joinStates(payments []CalculatedPayment, states map[string]delegation.State) []DelegatorShare {
	shares := make([]DelegatorShare, len(payments))
	for i, p := range payments {
		state := states[p.Recipient]
		shares[i] = DelegatorShare{
			Delegator:       p.Recipient,
			HP:              p.WeightHP,
			Percentage:      p.Percentage,
			Amount:          p.Amount,
			SourceBlock:     state.LastBlock,
			SourceTimestamp: state.LastTimestamp,
		}
	}
	return shares
}
