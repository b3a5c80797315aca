package balance

import (
	"fmt"
	"time"

	"github.com/fkhayef/splitledger/internal/ledger"
	"github.com/fkhayef/splitledger/pkg/currency"
	"github.com/fkhayef/splitledger/pkg/money"
)

// MemberBalanceResponse is one member's net position in a group.
type MemberBalanceResponse struct {
	UserID   int64       `json:"user_id"`
	Username string      `json:"username"`
	Balance  money.Money `json:"balance"` // Positive = is owed, Negative = owes
	Message  string      `json:"message"`
}

// GroupBalancesResponse lists every member's balance in one currency.
type GroupBalancesResponse struct {
	GroupID      int64                    `json:"group_id"`
	Currency     currency.Code            `json:"currency"`
	RatesAsOf    time.Time                `json:"rates_as_of"`
	Settled      bool                     `json:"settled"`
	Balances     []*MemberBalanceResponse `json:"balances"`
	MissingRates []currency.Code          `json:"missing_rates,omitempty"`
}

// TransferResponse is one suggested payment.
type TransferResponse struct {
	FromUserID   int64       `json:"from_user_id"`
	FromUsername string      `json:"from_username"`
	ToUserID     int64       `json:"to_user_id"`
	ToUsername   string      `json:"to_username"`
	Amount       money.Money `json:"amount"`
	Message      string      `json:"message"`
}

// SettlementPlanResponse is the suggested set of payments that settles a group.
type SettlementPlanResponse struct {
	GroupID      int64               `json:"group_id"`
	Currency     currency.Code       `json:"currency"`
	RatesAsOf    time.Time           `json:"rates_as_of"`
	Transfers    []*TransferResponse `json:"transfers"`
	MissingRates []currency.Code     `json:"missing_rates,omitempty"`
}

// MemberSummaryResponse is a member's paid/share breakdown.
type MemberSummaryResponse struct {
	ledger.MemberSummary
	Username string `json:"username"`
}

// SummaryResponse is the group dashboard.
type SummaryResponse struct {
	GroupID      int64                    `json:"group_id"`
	GroupName    string                   `json:"group_name"`
	Currency     currency.Code            `json:"currency"`
	RatesAsOf    time.Time                `json:"rates_as_of"`
	TotalSpent   money.Money              `json:"total_spent"`
	ExpenseCount int                      `json:"expense_count"`
	PaymentCount int                      `json:"payment_count"`
	Members      []*MemberSummaryResponse `json:"members"`
	MissingRates []currency.Code          `json:"missing_rates,omitempty"`
}

// NetBalanceResponse is the caller's position against one other user.
type NetBalanceResponse struct {
	UserID   int64       `json:"user_id"`
	Username string      `json:"username"`
	Amount   money.Money `json:"amount"` // Positive = they owe you, Negative = you owe them
	Message  string      `json:"message"`
}

// MyBalancesResponse lists the caller's net positions across all groups.
type MyBalancesResponse struct {
	Currency     currency.Code         `json:"currency"`
	RatesAsOf    time.Time             `json:"rates_as_of"`
	Net          money.Money           `json:"net"`
	Balances     []*NetBalanceResponse `json:"balances"`
	MissingRates []currency.Code       `json:"missing_rates,omitempty"`
}

func memberMessage(name string, self bool, b money.Money, code currency.Code) string {
	switch {
	case self && b.IsPositive():
		return fmt.Sprintf("You are owed %s %s", b, code)
	case self && b.IsNegative():
		return fmt.Sprintf("You owe %s %s", b.Abs(), code)
	case self:
		return "You are settled up"
	case b.IsPositive():
		return fmt.Sprintf("%s is owed %s %s", name, b, code)
	case b.IsNegative():
		return fmt.Sprintf("%s owes %s %s", name, b.Abs(), code)
	}
	return fmt.Sprintf("%s is settled up", name)
}

func pairMessage(name string, amount money.Money, code currency.Code) string {
	switch {
	case amount.IsPositive():
		return fmt.Sprintf("%s owes you %s %s", name, amount, code)
	case amount.IsNegative():
		return fmt.Sprintf("You owe %s %s %s", name, amount.Abs(), code)
	}
	return fmt.Sprintf("You and %s are settled up", name)
}
