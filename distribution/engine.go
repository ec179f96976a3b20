package distribution

import (
	"math"
	"sort"

	"github.com/eddiespino/aliento-pay/delegation"
)

// Distribute allocates pool across the states proportionally to HP.
// It filters by minimum HP and the exclusion list, computes per-recipient
// percentage and rounded amount, sorts descending by amount and attaches
// summary statistics. It is a pure function of its inputs: re-running it
// with narrower filters against the same resolved states is how cheap
// re-filtering works, no event history is touched.
func Distribute(states map[string]delegation.State, filters Filters, pool float64, memo string, policy ZeroTotalPolicy) (Result, error) {
	if err := filters.Validate(); err != nil {
		return Result{}, err
	}
	if pool < 0 {
		return Result{}, ErrNegativePool
	}

	excluded := filters.excludedSet()

	survivors := make([]delegation.State, 0, len(states))
	totalHP := 0.0
	for _, state := range states {
		if state.HP < filters.MinimumHP {
			continue
		}
		if _, ok := excluded[state.Delegator]; ok {
			continue
		}
		survivors = append(survivors, state)
		totalHP += state.HP
	}

	if totalHP == 0 {
		if policy == FailOnZeroTotal {
			return Result{}, ErrZeroTotalWeight
		}
		return Result{Payments: []CalculatedPayment{}}, nil
	}

	payments := make([]CalculatedPayment, len(survivors))
	totalDistributed := 0.0
	for i, state := range survivors {
		amount := round(state.HP / totalHP * pool)
		payments[i] = CalculatedPayment{
			Recipient:  state.Delegator,
			WeightHP:   state.HP,
			Percentage: state.HP / totalHP * 100,
			Amount:     amount,
			Memo:       memo,
		}
		totalDistributed += amount
	}

	// Descending by amount; recipient name breaks ties so identical inputs
	// always yield identical output.
	sort.Slice(payments, func(i, j int) bool {
		if payments[i].Amount != payments[j].Amount {
			return payments[i].Amount > payments[j].Amount
		}
		return payments[i].Recipient < payments[j].Recipient
	})

	return Result{
		Payments:         payments,
		TotalHP:          totalHP,
		TotalDistributed: round(totalDistributed),
		Summary:          summarize(payments),
	}, nil
}

// round rounds to AmountDecimals decimal places
func round(v float64) float64 {
	shift := math.Pow10(AmountDecimals)
	return math.Round(v*shift) / shift
}

// summarize computes descriptive statistics over the sorted payment amounts
func summarize(payments []CalculatedPayment) Summary {
	n := len(payments)
	if n == 0 {
		return Summary{}
	}

	// payments arrive sorted descending by amount
	sum := 0.0
	for _, p := range payments {
		sum += p.Amount
	}
	mean := sum / float64(n)

	variance := 0.0
	for _, p := range payments {
		d := p.Amount - mean
		variance += d * d
	}
	variance /= float64(n)

	median := payments[n/2].Amount
	if n%2 == 0 {
		median = (payments[n/2-1].Amount + payments[n/2].Amount) / 2
	}

	return Summary{
		Count:  n,
		Min:    payments[n-1].Amount,
		Max:    payments[0].Amount,
		Mean:   mean,
		Median: median,
		StdDev: math.Sqrt(variance),
	}
}
