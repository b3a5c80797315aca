package ledger

import (
	"sort"

	"github.com/fkhayef/splitledger/pkg/currency"
	"github.com/fkhayef/splitledger/pkg/money"
)

// MemberSummary breaks a member's balance down into what produced it.
// Net = Paid - Share + Sent - Received.
type MemberSummary struct {
	UserID   int64       `json:"user_id"`
	Paid     money.Money `json:"paid"`
	Share    money.Money `json:"share"`
	Sent     money.Money `json:"payments_sent"`
	Received money.Money `json:"payments_received"`
	Net      money.Money `json:"net"`
}

// Summary is a group's totals in one currency.
type Summary struct {
	Currency     currency.Code   `json:"currency"`
	TotalSpent   money.Money     `json:"total_spent"`
	ExpenseCount int             `json:"expense_count"`
	PaymentCount int             `json:"payment_count"`
	Members      []MemberSummary `json:"members"`
}

// Balances returns each member's net position.
func (s Summary) Balances() Balances {
	out := make(Balances, len(s.Members))
	for _, m := range s.Members {
		out[m.UserID] = m.Net
	}
	return out
}

// ComputeBalances folds expenses and payments into one net balance per member, in base.
//
// Every member starts at zero. Self-expenses are skipped. The payer of an expense is
// credited its converted amount and every split member is debited their converted share.
// A payment credits the sender and debits the receiver. Records that mention someone
// outside members only affect the members they do mention.
func ComputeBalances(members []int64, expenses []Expense, payments []Payment, base currency.Code, rates currency.RateTable) Balances {
	return Summarize(members, expenses, payments, base, rates).Balances()
}

// Summarize is ComputeBalances with the per-member breakdown kept.
// Members come back ordered by user id.
func Summarize(members []int64, expenses []Expense, payments []Payment, base currency.Code, rates currency.RateTable) Summary {
	rows := make(map[int64]*MemberSummary, len(members))
	for _, id := range members {
		rows[id] = &MemberSummary{UserID: id}
	}

	summary := Summary{Currency: base}

	for _, e := range expenses {
		if e.IsSelfExpense() {
			continue
		}

		credit, debits := convertExpense(e, base, rates)
		summary.TotalSpent += credit
		summary.ExpenseCount++

		if row, ok := rows[e.PaidBy]; ok {
			row.Paid += credit
		}
		for i, s := range e.Splits {
			if row, ok := rows[s.UserID]; ok {
				row.Share += debits[i]
			}
		}
	}

	for _, p := range payments {
		amount := currency.Convert(p.Amount, p.Currency, base, rates)
		summary.PaymentCount++

		if row, ok := rows[p.From]; ok {
			row.Sent += amount
		}
		if row, ok := rows[p.To]; ok {
			row.Received += amount
		}
	}

	summary.Members = make([]MemberSummary, 0, len(rows))
	for _, row := range rows {
		row.Net = row.Paid - row.Share + row.Sent - row.Received
		summary.Members = append(summary.Members, *row)
	}
	sort.Slice(summary.Members, func(i, j int) bool {
		return summary.Members[i].UserID < summary.Members[j].UserID
	})

	return summary
}
