// Package delegation reconstructs the active delegation set of an account
// from its raw change-event history.
package delegation

import (
	"time"

	"github.com/eddiespino/aliento-pay/vests"
)

// Event is a single delegation change from the ledger feed.
// Events are append-only; the latest one per delegator wins.
type Event struct {
	Delegator string
	Delegatee string
	Stake     vests.RawAmount
	Block     int64
	Timestamp time.Time
	TrxID     string
}

// State is the resolved current delegation of one delegator,
// overwritten whenever a newer event for that delegator arrives
type State struct {
	Delegator     string
	HP            float64
	LastBlock     int64
	LastTimestamp time.Time
}
