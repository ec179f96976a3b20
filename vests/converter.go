package vests

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for conversion
var (
	ErrNormalizeFailed = errors.New("raw amount normalization failed")
)

// Converter converts raw VESTS amounts into HP using the cached global ratio
type Converter struct {
	cache *RatioCache
}

// NewConverter constructs a Converter on top of a RatioCache
func NewConverter(cache *RatioCache) *Converter {
	return &Converter{cache: cache}
}

// Ratio exposes the current global ratio (cached)
func (c *Converter) Ratio(ctx context.Context) GlobalRatio {
	return c.cache.Ratio(ctx)
}

// ToHP converts a single raw amount to HP
func (c *Converter) ToHP(ctx context.Context, raw RawAmount) (float64, error) {
	hps, err := c.ToHPBatch(ctx, []RawAmount{raw})
	if err != nil {
		return 0, err
	}
	return hps[0], nil
}

// ToHPBatch converts many raw amounts to HP under a single ratio fetch,
// so every element of one batch shares the same ratio even if the cache
// refreshes concurrently.
func (c *Converter) ToHPBatch(ctx context.Context, raws []RawAmount) ([]float64, error) {
	ratio := c.cache.Ratio(ctx)

	hps := make([]float64, len(raws))
	for i, raw := range raws {
		value, err := raw.Normalize()
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %w", ErrNormalizeFailed, i, err)
		}
		hps[i] = value * ratio.HPPerVests
	}
	return hps, nil
}
