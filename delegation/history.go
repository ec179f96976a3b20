package delegation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/eddiespino/aliento-pay/pkg/hiveapi"
	"github.com/eddiespino/aliento-pay/vests"
)

// Sentinel errors for history fetching
var (
	ErrHistoryRequestFailed = errors.New("account history request failed")
)

// Default paging behaviour
const (
	DefaultPageSize     = uint32(1000)
	DefaultPageInterval = 150 * time.Millisecond
)

// Client fetches account history pages from a Hive node
type Client interface {
	AccountHistory(ctx context.Context, req hiveapi.AccountHistoryRequest) ([]hiveapi.HistoryItem, error)
}

// HistoryOption configures the History service
type HistoryOption func(*History)

// WithPageSize sets the number of history items requested per page
func WithPageSize(n uint32) HistoryOption {
	return func(h *History) { h.pageSize = n }
}

// WithPageInterval sets the minimum delay between page fetches
func WithPageInterval(d time.Duration) HistoryOption {
	return func(h *History) { h.limiter = rate.NewLimiter(rate.Every(d), 1) }
}

// WithLogger injects a logger for skipped-page warnings
func WithLogger(log *slog.Logger) HistoryOption {
	return func(h *History) { h.log = log }
}

// History pages backwards through an account's operation history and
// extracts delegation change events. Page fetches are paced through a rate
// limiter to respect upstream node limits. A failed page is logged and
// skipped rather than aborting the whole resolution, so the reconstructed
// set can be conservative but is never spuriously inflated.
type History struct {
	api      Client
	log      *slog.Logger
	limiter  *rate.Limiter
	pageSize uint32
}

// NewHistory constructs a History service with defaults
func NewHistory(api Client, opts ...HistoryOption) *History {
	h := &History{
		api:      api,
		log:      slog.Default(),
		limiter:  rate.NewLimiter(rate.Every(DefaultPageInterval), 1),
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// DelegationEvents returns the delegation changes toward delegatee whose
// timestamp is at or after since, oldest first, together with the number of
// history items scanned.
func (h *History) DelegationEvents(ctx context.Context, delegatee string, since time.Time) ([]Event, int, error) {
	var (
		events  []Event
		scanned int
	)

	start := int64(-1) // newest entry
	for {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, scanned, fmt.Errorf("%w: %w", ErrHistoryRequestFailed, err)
		}

		limit := h.pageSize
		if start >= 0 && int64(limit) > start+1 {
			// the node rejects limit > start+1
			limit = uint32(start + 1)
		}

		page, err := h.api.AccountHistory(ctx, hiveapi.AccountHistoryRequest{
			Account: delegatee,
			Start:   start,
			Limit:   limit,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, scanned, fmt.Errorf("%w: %w", ErrHistoryRequestFailed, ctx.Err())
			}

			// Best-effort reconstruction: skip the failed page and move on.
			h.log.WarnContext(ctx, "skipping failed history page",
				slog.String("account", delegatee),
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

		scanned += len(page)
		reachedSince := false
		for _, item := range page {
			if item.Timestamp.Before(since) {
				reachedSince = true
				continue
			}
			ev, ok := h.toEvent(ctx, item, delegatee)
			if ok {
				events = append(events, ev)
			}
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

	sort.Slice(events, func(i, j int) bool {
		if events[i].Block != events[j].Block {
			return events[i].Block < events[j].Block
		}
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, scanned, nil
}

// toEvent converts a history item into a delegation Event when it is a
// delegation change toward the delegatee
func (h *History) toEvent(ctx context.Context, item hiveapi.HistoryItem, delegatee string) (Event, bool) {
	if item.OpType != hiveapi.OpDelegateVestingShares {
		return Event{}, false
	}

	op, err := item.DelegateVestingShares()
	if err != nil {
		h.log.WarnContext(ctx, "skipping undecodable delegation operation",
			slog.Int64("index", item.Index),
			slog.Any("error", err),
		)
		return Event{}, false
	}
	if op.Delegatee != delegatee {
		return Event{}, false
	}

	return Event{
		Delegator: op.Delegator,
		Delegatee: op.Delegatee,
		Stake:     vests.AssetString(op.VestingShares),
		Block:     item.Block,
		Timestamp: item.Timestamp,
		TrxID:     item.TrxID,
	}, true
}
