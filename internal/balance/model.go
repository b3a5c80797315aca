// Package balance serves group balances, settlement plans and personal net positions.
// It loads one consistent snapshot of a group's records and hands it to the ledger.
package balance

import (
	"sort"

	"github.com/fkhayef/splitledger/internal/ledger"
	"github.com/fkhayef/splitledger/pkg/currency"
)

// Records is one consistent read of the ledger inputs.
type Records struct {
	Members  []int64
	Expenses []ledger.Expense
	Payments []ledger.Payment
}

// Currencies lists every currency the records are denominated in, sorted.
func (r *Records) Currencies() []currency.Code {
	seen := make(map[currency.Code]struct{})
	for _, e := range r.Expenses {
		seen[e.Currency] = struct{}{}
	}
	for _, p := range r.Payments {
		seen[p.Currency] = struct{}{}
	}

	out := make([]currency.Code, 0, len(seen))
	for code := range seen {
		out = append(out, code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// missingRates returns the record currencies that cannot be converted into view.
// Amounts in these currencies are counted unconverted.
func missingRates(r *Records, view currency.Code, rates currency.RateTable) []currency.Code {
	var missing []currency.Code
	viewRate, viewKnown := rates[view]
	for _, code := range r.Currencies() {
		if code == view {
			continue
		}
		rate, ok := rates[code]
		if !ok || rate.IsZero() || !viewKnown || viewRate.IsZero() {
			missing = append(missing, code)
		}
	}
	return missing
}
