// Package ledger turns expenses and payments into balances and a settlement plan.
//
// Everything here is pure: callers hand in one consistent snapshot of records and a rate
// table, and get fresh values back. Nothing is cached and no input is modified.
package ledger

import (
	"github.com/fkhayef/splitledger/pkg/currency"
	"github.com/fkhayef/splitledger/pkg/money"
)

// Split is the share one member owes on an expense.
type Split struct {
	UserID     int64
	AmountOwed money.Money
}

// Expense is the part of an expense record the ledger reads.
type Expense struct {
	ID       int64
	Amount   money.Money
	Currency currency.Code
	PaidBy   int64
	Splits   []Split
}

// IsSelfExpense reports whether e moves no money between members: either it has no splits
// at all or its only split belongs to the payer.
func (e Expense) IsSelfExpense() bool {
	switch len(e.Splits) {
	case 0:
		return true
	case 1:
		return e.Splits[0].UserID == e.PaidBy
	}
	return false
}

// Payment is a recorded transfer from one member to another.
type Payment struct {
	ID       int64
	From     int64
	To       int64
	Amount   money.Money
	Currency currency.Code
}

// Balances maps a member to their net position. Positive means the member is owed money,
// negative means they owe.
type Balances map[int64]money.Money

// Total returns the sum of every balance. It is zero up to cent-level rounding noise:
// at most one cent per split, from PERCENT rounding and currency conversion.
func (b Balances) Total() money.Money {
	var total money.Money
	for _, v := range b {
		total += v
	}
	return total
}

// Settled reports whether every balance is zero.
func (b Balances) Settled() bool {
	for _, v := range b {
		if !v.IsZero() {
			return false
		}
	}
	return true
}

// Transfer is a suggested payment that moves a debtor toward zero.
type Transfer struct {
	From   int64       `json:"from_user_id"`
	To     int64       `json:"to_user_id"`
	Amount money.Money `json:"amount"`
}

// convertExpense converts an expense into base and returns the payer credit and one debit
// per split. Each debit is exactly the converted amount owed; a total that the splits miss
// by a cent or two is left as is.
func convertExpense(e Expense, base currency.Code, rates currency.RateTable) (money.Money, []money.Money) {
	credit := currency.Convert(e.Amount, e.Currency, base, rates)

	debits := make([]money.Money, len(e.Splits))
	for i, s := range e.Splits {
		debits[i] = currency.Convert(s.AmountOwed, e.Currency, base, rates)
	}

	return credit, debits
}
