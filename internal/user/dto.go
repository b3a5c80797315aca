package user

import (
	"errors"
	"strings"

	"github.com/fkhayef/splitledger/pkg/currency"
)

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	Username        string        `json:"username" validate:"required,min=3,max=50"`
	Email           string        `json:"email" validate:"required,email"`
	AvatarURL       *string       `json:"avatar_url,omitempty"`
	DefaultCurrency currency.Code `json:"default_currency,omitempty"`
}

// Normalize trims free text and canonicalizes the currency code.
func (r *CreateUserRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.DefaultCurrency = currency.Normalize(string(r.DefaultCurrency))
}

// Validate checks the request after Normalize.
func (r *CreateUserRequest) Validate() error {
	if n := len(r.Username); n < 3 || n > 50 {
		return errors.New("username must be between 3 and 50 characters")
	}
	if !strings.Contains(r.Email, "@") {
		return errors.New("email is invalid")
	}
	if r.DefaultCurrency != "" && !r.DefaultCurrency.Valid() {
		return errors.New("default_currency must be a three-letter code")
	}
	return nil
}

// UpdateUserRequest represents the request body for updating a user
type UpdateUserRequest struct {
	Username        *string        `json:"username,omitempty" validate:"omitempty,min=3,max=50"`
	AvatarURL       *string        `json:"avatar_url,omitempty"`
	DefaultCurrency *currency.Code `json:"default_currency,omitempty"`
}

// Validate normalizes and checks the fields that are present.
func (r *UpdateUserRequest) Validate() error {
	if r.Username != nil {
		name := strings.TrimSpace(*r.Username)
		if n := len(name); n < 3 || n > 50 {
			return errors.New("username must be between 3 and 50 characters")
		}
		r.Username = &name
	}
	if r.DefaultCurrency != nil {
		code := currency.Normalize(string(*r.DefaultCurrency))
		if !code.Valid() {
			return errors.New("default_currency must be a three-letter code")
		}
		r.DefaultCurrency = &code
	}
	return nil
}

// UserResponse represents the response for a single user
type UserResponse struct {
	ID              int64         `json:"id"`
	Username        string        `json:"username"`
	Email           string        `json:"email"`
	AvatarURL       *string       `json:"avatar_url,omitempty"`
	DefaultCurrency currency.Code `json:"default_currency"`
	CreatedAt       string        `json:"created_at"`
}

// ToResponse converts a User model to a UserResponse DTO
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		AvatarURL:       u.AvatarURL,
		DefaultCurrency: u.DefaultCurrency,
		CreatedAt:       u.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
