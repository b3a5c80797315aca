package expense

import (
	"errors"
	"strings"

	"github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/pkg/currency"
	"github.com/fkhayef/splitledger/pkg/money"
)

// CreateExpenseRequest represents the request to create an expense
type CreateExpenseRequest struct {
	GroupID      int64               `json:"group_id" validate:"required"`
	PaidBy       *int64              `json:"paid_by,omitempty"` // defaults to the caller
	Description  string              `json:"description" validate:"required,min=1,max=255"`
	Amount       money.Money         `json:"amount" validate:"required,gt=0" swaggertype:"number"`
	Currency     currency.Code       `json:"currency,omitempty"` // defaults to the group's base currency
	ImageURL     *string             `json:"image_url,omitempty"`
	SplitType    split.SplitType     `json:"split_type" validate:"required,oneof=EQUAL PERCENT EXACT"`
	Participants []*SplitParticipant `json:"participants" validate:"required,min=1"`
}

// Validate checks the request shape. Split-specific rules are checked by the split strategy.
func (r *CreateExpenseRequest) Validate() error {
	r.Description = strings.TrimSpace(r.Description)
	r.Currency = currency.Normalize(string(r.Currency))
	r.SplitType = split.SplitType(strings.ToUpper(strings.TrimSpace(string(r.SplitType))))

	switch {
	case r.GroupID <= 0:
		return errors.New("group_id is required")
	case r.Description == "" || len(r.Description) > 255:
		return errors.New("description must be between 1 and 255 characters")
	case !r.Amount.IsPositive():
		return errors.New("amount must be greater than zero")
	case r.Currency != "" && !r.Currency.Valid():
		return errors.New("currency must be a three-letter code")
	case !r.SplitType.Valid():
		return errors.New("split_type must be one of EQUAL, PERCENT, EXACT")
	case len(r.Participants) == 0:
		return errors.New("at least one participant is required")
	}

	for _, p := range r.Participants {
		if p == nil || p.UserID <= 0 {
			return errors.New("every participant needs a user_id")
		}
	}
	return nil
}

// ExpenseResponse represents the response for an expense
type ExpenseResponse struct {
	ID            int64            `json:"id"`
	GroupID       int64            `json:"group_id"`
	PayerID       int64            `json:"payer_id"`
	PayerUsername string           `json:"payer_username,omitempty"`
	Description   string           `json:"description"`
	Amount        money.Money      `json:"amount" swaggertype:"number"`
	Currency      currency.Code    `json:"currency"`
	ImageURL      *string          `json:"image_url,omitempty"`
	SplitType     split.SplitType  `json:"split_type"`
	CreatedAt     string           `json:"created_at"`
	Splits        []*SplitResponse `json:"splits,omitempty"`
}

// SplitResponse represents the response for a split
type SplitResponse struct {
	UserID     int64       `json:"user_id"`
	Username   string      `json:"username,omitempty"`
	AmountOwed money.Money `json:"amount_owed" swaggertype:"number"`
}

// ToResponse converts an Expense model to an ExpenseResponse DTO
func (e *Expense) ToResponse() *ExpenseResponse {
	return &ExpenseResponse{
		ID:            e.ID,
		GroupID:       e.GroupID,
		PayerID:       e.PayerID,
		PayerUsername: e.PayerUsername,
		Description:   e.Description,
		Amount:        e.Amount,
		Currency:      e.Currency,
		ImageURL:      e.ImageURL,
		SplitType:     e.SplitType,
		CreatedAt:     e.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ToResponse converts a Split model to a SplitResponse DTO
func (s *Split) ToResponse() *SplitResponse {
	return &SplitResponse{
		UserID:     s.UserID,
		Username:   s.Username,
		AmountOwed: s.AmountOwed,
	}
}

// ToResponse converts an expense and its splits into one response
func (e *ExpenseWithSplits) ToResponse() *ExpenseResponse {
	resp := e.Expense.ToResponse()
	resp.Splits = make([]*SplitResponse, len(e.Splits))
	for i, s := range e.Splits {
		resp.Splits[i] = s.ToResponse()
	}
	return resp
}
