// Package distribution allocates a reward pool across delegators in
// proportion to their delegated HP.
package distribution

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for distribution
var (
	ErrInvalidFilters   = errors.New("invalid distribution filters")
	ErrZeroTotalWeight  = errors.New("zero total delegation weight")
	ErrNegativePool     = errors.New("pool amount must not be negative")
	ErrCalculationError = errors.New("distribution calculation failed")
)

// AmountDecimals is the rounding precision of payment amounts
const AmountDecimals = 3

// ZeroTotalPolicy selects what a zero total weight means to the caller
type ZeroTotalPolicy int

const (
	// ReturnEmpty yields an empty result; used by read-only previews where
	// an account without delegators is a valid answer
	ReturnEmpty ZeroTotalPolicy = iota

	// FailOnZeroTotal raises ErrZeroTotalWeight; used by distribution runs
	// that expected a non-empty recipient set
	FailOnZeroTotal
)

// Filters narrow the delegator set and select the reward period
type Filters struct {
	LookbackDays       int
	MinimumHP          float64
	ExcludedDelegators []string
	PeriodSelector     string
	ExplicitPoolValue  *float64
}

// Validate checks filter invariants
func (f Filters) Validate() error {
	if f.LookbackDays <= 0 {
		return fmt.Errorf("%w: lookback days must be positive", ErrInvalidFilters)
	}
	if f.MinimumHP < 0 {
		return fmt.Errorf("%w: minimum HP must not be negative", ErrInvalidFilters)
	}
	if f.ExplicitPoolValue != nil && *f.ExplicitPoolValue < 0 {
		return fmt.Errorf("%w: explicit pool value must not be negative", ErrInvalidFilters)
	}
	return nil
}

// excludedSet builds a lookup set from the exclusion list
func (f Filters) excludedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(f.ExcludedDelegators))
	for _, name := range f.ExcludedDelegators {
		set[name] = struct{}{}
	}
	return set
}

// CalculatedPayment is one recipient's allocation of the pool
type CalculatedPayment struct {
	Recipient  string
	WeightHP   float64
	Percentage float64
	Amount     float64 // rounded to AmountDecimals
	Memo       string
}

// Summary holds descriptive statistics over the final amount list
type Summary struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	StdDev float64
}

// Result is the outcome of one proportional distribution
type Result struct {
	Payments         []CalculatedPayment
	TotalHP          float64
	TotalDistributed float64
	Summary          Summary
}

// DelegatorShare is one row of the calculator output, a payment joined
// with the delegation state it derived from
type DelegatorShare struct {
	Delegator       string
	HP              float64
	Percentage      float64
	Amount          float64
	SourceBlock     int64
	SourceTimestamp time.Time
}

// Output is the full calculation result exposed to callers
type Output struct {
	Delegators       []DelegatorShare
	TotalHP          float64
	TotalDistributed float64
	CutoffDate       time.Time
	EventsProcessed  int
	Summary          Summary
}
