package expense

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/pkg/currency"
	"github.com/fkhayef/splitledger/pkg/money"
)

// Expense represents an expense in the system. Expenses are immutable once recorded.
type Expense struct {
	ID          int64           `db:"id" json:"id"`
	GroupID     int64           `db:"group_id" json:"group_id"`
	PayerID     int64           `db:"payer_id" json:"payer_id"`
	Description string          `db:"description" json:"description"`
	Amount      money.Money     `db:"amount" json:"amount"`
	Currency    currency.Code   `db:"currency" json:"currency"`
	ImageURL    *string         `db:"image_url" json:"image_url,omitempty"`
	SplitType   split.SplitType `db:"split_type" json:"split_type"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`

	// Populated via JOIN
	PayerUsername string `db:"payer_username" json:"payer_username,omitempty"`
}

// Split is one participant's owed share of an expense. Position keeps the order the
// participants were listed in.
type Split struct {
	ID         int64       `db:"id" json:"id"`
	ExpenseID  int64       `db:"expense_id" json:"expense_id"`
	UserID     int64       `db:"user_id" json:"user_id"`
	Position   int         `db:"position" json:"position"`
	AmountOwed money.Money `db:"amount_owed" json:"amount_owed"`

	// Populated via JOIN
	Username string `db:"username" json:"username,omitempty"`
}

// ExpenseWithSplits combines an expense with its calculated splits
type ExpenseWithSplits struct {
	Expense *Expense
	Splits  []*Split
}

// SplitParticipant is used when creating an expense with splits
type SplitParticipant struct {
	UserID     int64            `json:"user_id"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"` // For PERCENT split
	Amount     *money.Money     `json:"amount,omitempty"`     // For EXACT split
}

// ToSplitInput converts to the split package's input type
func (p *SplitParticipant) ToSplitInput() split.SplitInput {
	return split.SplitInput{
		UserID:     p.UserID,
		Percentage: p.Percentage,
		Amount:     p.Amount,
	}
}
