package rewards

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eddiespino/aliento-pay/pkg/clock"
	"github.com/eddiespino/aliento-pay/vests"
)

// Sentinel errors for aggregation
var (
	ErrRewardFetchFailed = errors.New("reward history fetch failed")
)

// RewardEvent is one realized curation reward of the distributor account
type RewardEvent struct {
	Timestamp time.Time
	Reward    vests.RawAmount
}

// Source provides individual realized reward events
type Source interface {
	CurationRewards(ctx context.Context, account string, since time.Time) ([]RewardEvent, error)
}

// RollingStats optionally provides precomputed rolling reward sums for the
// named periods. The bool result reports whether a value was available.
type RollingStats interface {
	RollingRewardHP(ctx context.Context, account string, period Period) (float64, bool, error)
}

// Converter turns raw reward amounts into HP
type Converter interface {
	ToHPBatch(ctx context.Context, raws []vests.RawAmount) ([]float64, error)
}

// Clock abstracts time for window calculation
type Clock interface {
	Now() time.Time
}

// AggregatorOption configures the Aggregator
type AggregatorOption func(*Aggregator)

// WithRollingStats injects a precomputed rolling statistic source
func WithRollingStats(stats RollingStats) AggregatorOption {
	return func(a *Aggregator) { a.stats = stats }
}

// WithAggregatorClock injects a custom Clock (e.g., for testing)
func WithAggregatorClock(c Clock) AggregatorOption {
	return func(a *Aggregator) { a.clock = c }
}

// Aggregator sums realized curation rewards over a lookback window.
// For named periods it prefers a precomputed rolling statistic when one is
// available; custom windows always sum individual events.
type Aggregator struct {
	source Source
	conv   Converter
	stats  RollingStats
	clock  Clock
}

// NewAggregator constructs an Aggregator
func NewAggregator(source Source, conv Converter, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		source: source,
		conv:   conv,
		clock:  clock.SystemClock{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RealizedRewardHP returns the account's realized reward over the period, in HP
func (a *Aggregator) RealizedRewardHP(ctx context.Context, account string, period Period) (float64, error) {
	if a.stats != nil && period.Named() {
		hp, ok, err := a.stats.RollingRewardHP(ctx, account, period)
		if err == nil && ok {
			return hp, nil
		}
		// fall through to the event sum; a broken stats source must not
		// block the calculation
	}

	since := a.clock.Now().Add(-period.Window)
	events, err := a.source.CurationRewards(ctx, account, since)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRewardFetchFailed, err)
	}

	raws := make([]vests.RawAmount, 0, len(events))
	for _, ev := range events {
		if ev.Timestamp.Before(since) {
			continue
		}
		raws = append(raws, ev.Reward)
	}

	hps, err := a.conv.ToHPBatch(ctx, raws)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRewardFetchFailed, err)
	}

	var total float64
	for _, hp := range hps {
		total += hp
	}
	return total, nil
}
