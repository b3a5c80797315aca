package ledger

import (
	"github.com/fkhayef/splitledger/pkg/currency"
)

// Pairwise returns userID's net position against each counterparty it shares records with.
// Positive means the counterparty owes userID.
//
// Expense amounts are converted exactly as ComputeBalances converts them, so summing the
// result gives the same figure as userID's balance over the same records.
func Pairwise(userID int64, expenses []Expense, payments []Payment, base currency.Code, rates currency.RateTable) Balances {
	out := make(Balances)

	for _, e := range expenses {
		if e.IsSelfExpense() {
			continue
		}

		_, debits := convertExpense(e, base, rates)
		for i, s := range e.Splits {
			switch {
			case s.UserID == e.PaidBy:
				continue
			case e.PaidBy == userID:
				out[s.UserID] += debits[i]
			case s.UserID == userID:
				out[e.PaidBy] -= debits[i]
			}
		}
	}

	for _, p := range payments {
		if p.From == p.To {
			continue
		}
		amount := currency.Convert(p.Amount, p.Currency, base, rates)
		switch userID {
		case p.From:
			out[p.To] += amount
		case p.To:
			out[p.From] -= amount
		}
	}

	return out
}
