// Package rewards sizes the distributable pool from realized curation
// reward history.
package rewards

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for period parsing
var (
	ErrInvalidPeriod = errors.New("invalid period")
)

// Period is a lookback window over realized rewards
type Period struct {
	Name   string
	Window time.Duration
}

// Named periods with precomputed rolling statistics upstream
var (
	Day   = Period{Name: "24h", Window: 24 * time.Hour}
	Week  = Period{Name: "7d", Window: 7 * 24 * time.Hour}
	Month = Period{Name: "30d", Window: 30 * 24 * time.Hour}
)

// Named reports whether the period is one of the precomputed ones
func (p Period) Named() bool {
	switch p.Name {
	case Day.Name, Week.Name, Month.Name:
		return true
	}
	return false
}

// ParsePeriod maps a selector string to a Period. Besides the named
// selectors it accepts any Go duration string as a custom window.
func ParsePeriod(selector string) (Period, error) {
	switch selector {
	case Day.Name:
		return Day, nil
	case Week.Name:
		return Week, nil
	case Month.Name:
		return Month, nil
	}

	window, err := time.ParseDuration(selector)
	if err != nil || window <= 0 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, selector)
	}
	return Period{Name: selector, Window: window}, nil
}
