package vests

import (
	"context"
	"sync"
	"time"

	"github.com/eddiespino/aliento-pay/pkg/clock"
)

// Default cache behaviour
const (
	// DefaultTTL is how long a fetched ratio stays fresh
	DefaultTTL = 5 * time.Minute

	// DefaultHPPerVests is the last-resort ratio used when no refresh has
	// ever succeeded. Approximate by construction; availability wins over
	// precision here.
	DefaultHPPerVests = 0.0005
)

// GlobalRatio is the chain-wide VESTS to HP conversion ratio
type GlobalRatio struct {
	TotalVestingFundHive float64
	TotalVestingShares   float64
	HPPerVests           float64
	CachedAt             time.Time
}

// RatioSource fetches the current ratio from the chain
type RatioSource interface {
	GlobalRatio(ctx context.Context) (GlobalRatio, error)
}

// Clock abstracts time for TTL checks
type Clock interface {
	Now() time.Time
}

// RatioCacheOption configures the RatioCache
type RatioCacheOption func(*RatioCache)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) RatioCacheOption {
	return func(rc *RatioCache) { rc.clock = c }
}

// WithTTL sets how long a fetched ratio stays fresh
func WithTTL(ttl time.Duration) RatioCacheOption {
	return func(rc *RatioCache) { rc.ttl = ttl }
}

// RatioCache serves the global ratio with TTL-based refresh.
// A refresh failure serves the previous value even when expired; only if no
// value was ever cached does it fall back to DefaultHPPerVests.
type RatioCache struct {
	source RatioSource
	clock  Clock
	ttl    time.Duration

	mu     sync.Mutex
	cached *GlobalRatio
}

// NewRatioCache constructs a RatioCache with the given source and options
func NewRatioCache(source RatioSource, opts ...RatioCacheOption) *RatioCache {
	rc := &RatioCache{
		source: source,
		clock:  clock.SystemClock{},
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// Ratio returns the cached ratio, refreshing it when the TTL has elapsed.
// It never fails: refresh errors fall back to the stale value, or to the
// fixed default when nothing was ever cached. The whole check-refresh-store
// sequence runs under the lock so concurrent callers cannot trigger
// duplicate refreshes.
func (rc *RatioCache) Ratio(ctx context.Context) GlobalRatio {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	now := rc.clock.Now()
	if rc.cached != nil && now.Sub(rc.cached.CachedAt) <= rc.ttl {
		return *rc.cached
	}

	fresh, err := rc.source.GlobalRatio(ctx)
	if err != nil || fresh.TotalVestingShares <= 0 {
		if rc.cached != nil {
			return *rc.cached // expired but usable
		}
		return GlobalRatio{HPPerVests: DefaultHPPerVests, CachedAt: now}
	}

	fresh.HPPerVests = fresh.TotalVestingFundHive / fresh.TotalVestingShares
	fresh.CachedAt = now
	rc.cached = &fresh
	return fresh
}
