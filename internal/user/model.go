package user

import (
	"time"

	"github.com/fkhayef/splitledger/pkg/currency"
)

// User represents a user in the system
type User struct {
	ID              int64         `db:"id" json:"id"`
	Username        string        `db:"username" json:"username"`
	Email           string        `db:"email" json:"email"`
	AvatarURL       *string       `db:"avatar_url" json:"avatar_url,omitempty"`
	DefaultCurrency currency.Code `db:"default_currency" json:"default_currency"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
}
