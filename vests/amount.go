// Package vests converts raw vesting shares into Hive Power through a
// cached chain-wide ratio.
package vests

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Sentinel errors for amount normalization
var (
	ErrMalformedAsset   = errors.New("malformed asset string")
	ErrNotFinite        = errors.New("amount is not a finite number")
	ErrInvalidPrecision = errors.New("invalid amount precision")
)

// RawAmount is a raw ledger amount in one of the three encodings the
// upstream feed produces. Normalize returns the plain numeric value.
type RawAmount interface {
	Normalize() (float64, error)
}

// AssetString is a decimal string with a unit suffix, e.g. "123.456789 VESTS"
type AssetString string

// Normalize parses the numeric part of the asset string
func (a AssetString) Normalize() (float64, error) {
	value, _, err := ParseAsset(string(a))
	return value, err
}

// PlainNumber is an already-numeric raw amount
type PlainNumber float64

// Normalize validates that the number is finite
func (n PlainNumber) Normalize() (float64, error) {
	v := float64(n)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotFinite
	}
	return v, nil
}

// AmountPrecision is an integer amount with a decimal precision,
// e.g. {1234567, 6} meaning 1.234567
type AmountPrecision struct {
	Amount    int64
	Precision int
}

// Normalize scales the integer amount by its precision
func (p AmountPrecision) Normalize() (float64, error) {
	if p.Precision < 0 || p.Precision > 12 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPrecision, p.Precision)
	}
	return float64(p.Amount) / math.Pow10(p.Precision), nil
}

// ParseAsset splits an asset string like "123.456 HIVE" into value and symbol
func ParseAsset(s string) (float64, string, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, "", fmt.Errorf("%w: %q", ErrMalformedAsset, s)
	}

	value, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %q: %w", ErrMalformedAsset, s, err)
	}

	return value, fields[1], nil
}

// FormatAsset renders a value as the 3-decimal asset string the wallet
// payload expects, e.g. "10.000 HIVE"
func FormatAsset(value float64, symbol string) string {
	return fmt.Sprintf("%.3f %s", value, symbol)
}
