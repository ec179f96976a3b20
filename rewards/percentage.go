package rewards

import (
	"errors"
	"fmt"
)

// Sentinel errors for percentage configuration
var (
	ErrInvalidPercentageConfig = errors.New("invalid percentage config")
)

// PercentageConfig bounds the dynamic return percentage.
// Base is the nominal return at full scale; FullScaleHP is the realized
// reward at which Base applies in full. The result is always clamped to
// [Min, Max].
type PercentageConfig struct {
	Base        float64
	Min         float64
	Max         float64
	FullScaleHP float64
}

// Validate checks the config invariants
func (c PercentageConfig) Validate() error {
	if c.Min < 0 || c.Max < c.Min {
		return fmt.Errorf("%w: min %.2f, max %.2f", ErrInvalidPercentageConfig, c.Min, c.Max)
	}
	if c.FullScaleHP <= 0 {
		return fmt.Errorf("%w: full-scale reward must be positive", ErrInvalidPercentageConfig)
	}
	return nil
}

// ComputePercentage maps a realized reward into a bounded return percentage.
// Zero or negative reward floors at Min. Positive reward scales Base
// linearly against FullScaleHP, capped at Base, then clamps to [Min, Max].
func ComputePercentage(realizedRewardHP float64, cfg PercentageConfig) float64 {
	if realizedRewardHP <= 0 {
		return cfg.Min
	}

	scale := realizedRewardHP / cfg.FullScaleHP
	if scale > 1 {
		scale = 1
	}

	pct := cfg.Base * scale
	if pct < cfg.Min {
		return cfg.Min
	}
	if pct > cfg.Max {
		return cfg.Max
	}
	return pct
}
