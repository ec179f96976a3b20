package delegation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eddiespino/aliento-pay/vests"
)

// Sentinel errors for resolution
var (
	ErrConversionFailed = errors.New("delegation conversion failed")
)

// Converter turns raw staked amounts into HP
type Converter interface {
	ToHPBatch(ctx context.Context, raws []vests.RawAmount) ([]float64, error)
}

// ResolveActiveDelegations reduces an event history to the single latest
// state per delegator as of the cutoff. Only events at or before asOf count;
// per delegator the event with the greatest block wins (later timestamp on
// block ties). Delegators whose latest kept event carries zero stake are
// dropped, as is the delegatee delegating to itself. All surviving raw
// amounts are converted through one batch call so they share one ratio.
func ResolveActiveDelegations(ctx context.Context, conv Converter, events []Event, delegatee string, asOf time.Time) (map[string]State, error) {
	latest := make(map[string]Event)
	for _, ev := range events {
		if ev.Timestamp.After(asOf) {
			continue
		}
		if ev.Delegator == delegatee {
			continue // self-delegation never participates
		}

		kept, ok := latest[ev.Delegator]
		if !ok || newer(ev, kept) {
			latest[ev.Delegator] = ev
		}
	}

	// Drop delegators whose latest state is zero, keep the rest in a
	// stable order for the batch conversion.
	delegators := make([]string, 0, len(latest))
	raws := make([]vests.RawAmount, 0, len(latest))
	for delegator, ev := range latest {
		value, err := ev.Stake.Normalize()
		if err != nil {
			return nil, fmt.Errorf("%w: delegator %s: %w", ErrConversionFailed, delegator, err)
		}
		if value == 0 {
			continue
		}
		delegators = append(delegators, delegator)
		raws = append(raws, ev.Stake)
	}

	hps, err := conv.ToHPBatch(ctx, raws)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}

	states := make(map[string]State, len(delegators))
	for i, delegator := range delegators {
		ev := latest[delegator]
		states[delegator] = State{
			Delegator:     delegator,
			HP:            hps[i],
			LastBlock:     ev.Block,
			LastTimestamp: ev.Timestamp,
		}
	}
	return states, nil
}

// newer reports whether a supersedes b for the same delegator
func newer(a, b Event) bool {
	if a.Block != b.Block {
		return a.Block > b.Block
	}
	return a.Timestamp.After(b.Timestamp)
}
