package vests

import (
	"context"
	"errors"
	"fmt"

	"github.com/eddiespino/aliento-pay/pkg/hiveapi"
)

// Sentinel errors for the chain ratio source
var (
	ErrPropsRequestFailed = errors.New("dynamic global properties request failed")
)

// PropsClient fetches dynamic global properties from a Hive node
type PropsClient interface {
	DynamicGlobalProperties(ctx context.Context) (hiveapi.DynamicGlobalProperties, error)
}

// HiveRatioSource derives the global ratio from the chain-wide vesting totals
type HiveRatioSource struct {
	api PropsClient
}

// NewHiveRatioSource constructs a RatioSource backed by a Hive node
func NewHiveRatioSource(api PropsClient) *HiveRatioSource {
	return &HiveRatioSource{api: api}
}

// GlobalRatio fetches and parses the vesting totals
func (s *HiveRatioSource) GlobalRatio(ctx context.Context) (GlobalRatio, error) {
	props, err := s.api.DynamicGlobalProperties(ctx)
	if err != nil {
		return GlobalRatio{}, fmt.Errorf("%w: %w", ErrPropsRequestFailed, err)
	}

	fund, _, err := ParseAsset(props.TotalVestingFundHive)
	if err != nil {
		return GlobalRatio{}, fmt.Errorf("%w: %w", ErrPropsRequestFailed, err)
	}

	shares, _, err := ParseAsset(props.TotalVestingShares)
	if err != nil {
		return GlobalRatio{}, fmt.Errorf("%w: %w", ErrPropsRequestFailed, err)
	}

	return GlobalRatio{
		TotalVestingFundHive: fund,
		TotalVestingShares:   shares,
	}, nil
}
