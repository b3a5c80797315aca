package ledger

import (
	"sort"

	"github.com/fkhayef/splitledger/pkg/money"
)

type position struct {
	userID  int64
	balance money.Money
}

// PlanSettlement proposes transfers that bring every balance to zero.
//
// It is the greedy two-pointer match: debtors sorted from most negative, creditors from
// most positive, and at each step the current debtor pays the current creditor the smaller
// of what one owes and the other is owed. Equal balances are ordered by user id so the
// plan is deterministic. The result has at most len(debtors)+len(creditors)-1 transfers
// but is not always the minimum possible.
func PlanSettlement(balances Balances) []Transfer {
	var debtors, creditors []position
	for id, b := range balances {
		switch {
		case b.IsNegative():
			debtors = append(debtors, position{userID: id, balance: b})
		case b.IsPositive():
			creditors = append(creditors, position{userID: id, balance: b})
		}
	}

	sort.Slice(debtors, func(i, j int) bool {
		if debtors[i].balance != debtors[j].balance {
			return debtors[i].balance < debtors[j].balance
		}
		return debtors[i].userID < debtors[j].userID
	})
	sort.Slice(creditors, func(i, j int) bool {
		if creditors[i].balance != creditors[j].balance {
			return creditors[i].balance > creditors[j].balance
		}
		return creditors[i].userID < creditors[j].userID
	})

	transfers := []Transfer{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]

		amount := money.Min(-d.balance, c.balance)
		if !amount.IsZero() {
			transfers = append(transfers, Transfer{From: d.userID, To: c.userID, Amount: amount})
		}

		d.balance += amount
		c.balance -= amount

		if d.balance.IsZero() {
			i++
		}
		if c.balance.IsZero() {
			j++
		}
	}

	return transfers
}

// Apply returns a copy of balances with every transfer paid.
func Apply(balances Balances, transfers []Transfer) Balances {
	out := make(Balances, len(balances))
	for id, b := range balances {
		out[id] = b
	}
	for _, t := range transfers {
		out[t.From] += t.Amount
		out[t.To] -= t.Amount
	}
	return out
}
