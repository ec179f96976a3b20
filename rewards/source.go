package rewards

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/eddiespino/aliento-pay/pkg/hiveapi"
	"github.com/eddiespino/aliento-pay/vests"
)

// Default paging behaviour for the chain-backed source
const (
	DefaultPageSize     = uint32(1000)
	DefaultPageInterval = 150 * time.Millisecond
)

// Client fetches account history pages from a Hive node
type Client interface {
	AccountHistory(ctx context.Context, req hiveapi.AccountHistoryRequest) ([]hiveapi.HistoryItem, error)
}

// HiveSourceOption configures the HiveSource
type HiveSourceOption func(*HiveSource)

// WithSourcePageSize sets the number of history items requested per page
func WithSourcePageSize(n uint32) HiveSourceOption {
	return func(s *HiveSource) { s.pageSize = n }
}

// WithSourcePageInterval sets the minimum delay between page fetches
func WithSourcePageInterval(d time.Duration) HiveSourceOption {
	return func(s *HiveSource) { s.limiter = rate.NewLimiter(rate.Every(d), 1) }
}

// WithSourceLogger injects a logger for skipped-page warnings
func WithSourceLogger(log *slog.Logger) HiveSourceOption {
	return func(s *HiveSource) { s.log = log }
}

// HiveSource extracts curation reward events from an account's history,
// paced and best-effort the same way the delegation history fetch is.
type HiveSource struct {
	api      Client
	log      *slog.Logger
	limiter  *rate.Limiter
	pageSize uint32
}

// NewHiveSource constructs a chain-backed reward Source
func NewHiveSource(api Client, opts ...HiveSourceOption) *HiveSource {
	s := &HiveSource{
		api:      api,
		log:      slog.Default(),
		limiter:  rate.NewLimiter(rate.Every(DefaultPageInterval), 1),
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurationRewards returns the account's curation reward events at or after since
func (s *HiveSource) CurationRewards(ctx context.Context, account string, since time.Time) ([]RewardEvent, error) {
	var events []RewardEvent

	start := int64(-1)
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRewardFetchFailed, err)
		}

		limit := s.pageSize
		if start >= 0 && int64(limit) > start+1 {
			limit = uint32(start + 1)
		}

		page, err := s.api.AccountHistory(ctx, hiveapi.AccountHistoryRequest{
			Account: account,
			Start:   start,
			Limit:   limit,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", ErrRewardFetchFailed, ctx.Err())
			}

			s.log.WarnContext(ctx, "skipping failed reward history page",
				slog.String("account", account),
				slog.Int64("start", start),
				slog.Any("error", err),
			)
			start -= int64(limit)
			if start < 0 {
				break
			}
			continue
		}
		if len(page) == 0 {
			break
		}

		reachedSince := false
		for _, item := range page {
			if item.Timestamp.Before(since) {
				reachedSince = true
				continue
			}
			if item.OpType != hiveapi.OpCurationReward {
				continue
			}

			op, err := item.CurationReward()
			if err != nil {
				s.log.WarnContext(ctx, "skipping undecodable curation reward",
					slog.Int64("index", item.Index),
					slog.Any("error", err),
				)
				continue
			}
			events = append(events, RewardEvent{
				Timestamp: item.Timestamp,
				Reward:    vests.AssetString(op.Reward),
			})
		}

		oldest := page[0].Index
		if reachedSince || oldest == 0 {
			break
		}
		start = oldest - 1
		if start < 0 {
			break
		}
	}

	return events, nil
}
