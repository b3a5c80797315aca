// Package rates keeps the exchange-rate table used for balance conversion.
//
// A Provider fetches a fresh table, the Store holds the last good one in memory and in
// the exchange_rates table, and a cron job refreshes it on a schedule.
package rates

import (
	"context"
	"time"

	"github.com/fkhayef/splitledger/pkg/currency"
)

// Snapshot is a rate table together with its anchor and fetch time.
// Rates are units of each currency per one unit of Base.
type Snapshot struct {
	Base  currency.Code
	Rates currency.RateTable
	AsOf  time.Time
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{Base: s.Base, Rates: s.Rates.Clone(), AsOf: s.AsOf}
}

// Provider fetches the current reference rates from an external source.
type Provider interface {
	Fetch(ctx context.Context) (Snapshot, error)
}
