package settlement

import (
	"time"

	"github.com/fkhayef/splitledger/pkg/currency"
	"github.com/fkhayef/splitledger/pkg/money"
)

// Settlement is a recorded payment from one member to another inside a group.
// Payments are immutable; a mistaken payment is corrected by recording one in the
// opposite direction.
type Settlement struct {
	ID          int64         `db:"id" json:"id"`
	GroupID     int64         `db:"group_id" json:"group_id"`
	FromUserID  int64         `db:"from_user_id" json:"from_user_id"`
	ToUserID    int64         `db:"to_user_id" json:"to_user_id"`
	Amount      money.Money   `db:"amount" json:"amount"`
	Currency    currency.Code `db:"currency" json:"currency"`
	PaymentDate time.Time     `db:"payment_date" json:"payment_date"`
	Note        *string       `db:"note" json:"note,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`

	// Populated via JOIN
	FromUsername string `db:"from_username" json:"from_username,omitempty"`
	ToUsername   string `db:"to_username" json:"to_username,omitempty"`
}
