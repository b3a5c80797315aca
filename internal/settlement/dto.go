package settlement

import (
	"errors"
	"strings"
	"time"

	"github.com/fkhayef/splitledger/pkg/currency"
	"github.com/fkhayef/splitledger/pkg/money"
)

// RecordPaymentRequest represents the request to record a payment
type RecordPaymentRequest struct {
	GroupID     int64         `json:"group_id" validate:"required"`
	FromUserID  *int64        `json:"from_user_id,omitempty"` // defaults to the caller
	ToUserID    int64         `json:"to_user_id" validate:"required"`
	Amount      money.Money   `json:"amount" validate:"required,gt=0" swaggertype:"number"`
	Currency    currency.Code `json:"currency,omitempty"` // defaults to the group's base currency
	PaymentDate *time.Time    `json:"payment_date,omitempty"`
	Note        *string       `json:"note,omitempty" validate:"omitempty,max=500"`
}

// Validate checks the request shape and canonicalizes the currency.
func (r *RecordPaymentRequest) Validate() error {
	r.Currency = currency.Normalize(string(r.Currency))
	if r.Note != nil {
		note := strings.TrimSpace(*r.Note)
		r.Note = &note
	}

	switch {
	case r.GroupID <= 0:
		return errors.New("group_id is required")
	case r.ToUserID <= 0:
		return errors.New("to_user_id is required")
	case r.FromUserID != nil && *r.FromUserID <= 0:
		return errors.New("from_user_id is invalid")
	case !r.Amount.IsPositive():
		return errors.New("amount must be greater than zero")
	case r.Currency != "" && !r.Currency.Valid():
		return errors.New("currency must be a three-letter code")
	case r.Note != nil && len(*r.Note) > 500:
		return errors.New("note must be at most 500 characters")
	}
	return nil
}

// SettlementResponse represents the response for a settlement
type SettlementResponse struct {
	ID           int64         `json:"id"`
	GroupID      int64         `json:"group_id"`
	FromUserID   int64         `json:"from_user_id"`
	FromUsername string        `json:"from_username,omitempty"`
	ToUserID     int64         `json:"to_user_id"`
	ToUsername   string        `json:"to_username,omitempty"`
	Amount       money.Money   `json:"amount" swaggertype:"number"`
	Currency     currency.Code `json:"currency"`
	PaymentDate  string        `json:"payment_date"`
	Note         *string       `json:"note,omitempty"`
	CreatedAt    string        `json:"created_at"`
}

// ToResponse converts a Settlement model to a SettlementResponse DTO
func (s *Settlement) ToResponse() *SettlementResponse {
	return &SettlementResponse{
		ID:           s.ID,
		GroupID:      s.GroupID,
		FromUserID:   s.FromUserID,
		FromUsername: s.FromUsername,
		ToUserID:     s.ToUserID,
		ToUsername:   s.ToUsername,
		Amount:       s.Amount,
		Currency:     s.Currency,
		PaymentDate:  s.PaymentDate.Format("2006-01-02T15:04:05Z"),
		Note:         s.Note,
		CreatedAt:    s.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
