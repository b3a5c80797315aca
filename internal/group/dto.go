package group

import (
	"errors"
	"strings"

	"github.com/fkhayef/splitledger/pkg/currency"
)

// CreateGroupRequest represents the request to create a new group
type CreateGroupRequest struct {
	Name         string        `json:"name" validate:"required,min=1,max=100"`
	Description  *string       `json:"description,omitempty"`
	BaseCurrency currency.Code `json:"base_currency,omitempty"`
}

// Validate trims the name and canonicalizes the base currency.
func (r *CreateGroupRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if n := len(r.Name); n < 1 || n > 100 {
		return errors.New("name must be between 1 and 100 characters")
	}
	r.BaseCurrency = currency.Normalize(string(r.BaseCurrency))
	if r.BaseCurrency != "" && !r.BaseCurrency.Valid() {
		return errors.New("base_currency must be a three-letter code")
	}
	return nil
}

// UpdateGroupRequest represents the request to update a group
type UpdateGroupRequest struct {
	Name         *string        `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description  *string        `json:"description,omitempty"`
	BaseCurrency *currency.Code `json:"base_currency,omitempty"`
}

// Validate checks the fields that are present.
func (r *UpdateGroupRequest) Validate() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if n := len(name); n < 1 || n > 100 {
			return errors.New("name must be between 1 and 100 characters")
		}
		r.Name = &name
	}
	if r.BaseCurrency != nil {
		code := currency.Normalize(string(*r.BaseCurrency))
		if !code.Valid() {
			return errors.New("base_currency must be a three-letter code")
		}
		r.BaseCurrency = &code
	}
	return nil
}

// AddMemberRequest represents the request to add a member to a group
type AddMemberRequest struct {
	UserID int64      `json:"user_id" validate:"required"`
	Role   MemberRole `json:"role"`
}

// Validate defaults the role to MEMBER.
func (r *AddMemberRequest) Validate() error {
	if r.UserID <= 0 {
		return errors.New("user_id is required")
	}
	if r.Role == "" {
		r.Role = MemberRoleMember
	}
	if !r.Role.Valid() {
		return errors.New("role must be ADMIN or MEMBER")
	}
	return nil
}

// UpdateMemberRequest represents the request to update a member's status or role
type UpdateMemberRequest struct {
	Status *MemberStatus `json:"status,omitempty"`
	Role   *MemberRole   `json:"role,omitempty"`
}

// Validate rejects unknown statuses and roles.
func (r *UpdateMemberRequest) Validate() error {
	if r.Status != nil && !r.Status.Valid() {
		return errors.New("status must be INVITED or JOINED")
	}
	if r.Role != nil && !r.Role.Valid() {
		return errors.New("role must be ADMIN or MEMBER")
	}
	return nil
}

// GroupResponse represents the response for a group
type GroupResponse struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Description  *string           `json:"description,omitempty"`
	BaseCurrency currency.Code     `json:"base_currency"`
	CreatedAt    string            `json:"created_at"`
	Members      []*MemberResponse `json:"members,omitempty"`
}

// MemberResponse represents a member in a group response
type MemberResponse struct {
	ID       int64        `json:"id"`
	UserID   int64        `json:"user_id"`
	Username string       `json:"username"`
	Email    string       `json:"email"`
	Status   MemberStatus `json:"status"`
	Role     MemberRole   `json:"role"`
	JoinedAt string       `json:"joined_at"`
}

// ToResponse converts a Group model to a GroupResponse DTO
func (g *Group) ToResponse() *GroupResponse {
	return &GroupResponse{
		ID:           g.ID,
		Name:         g.Name,
		Description:  g.Description,
		BaseCurrency: g.BaseCurrency,
		CreatedAt:    g.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ToResponse converts a GroupMember model to a MemberResponse DTO
func (m *GroupMember) ToResponse() *MemberResponse {
	return &MemberResponse{
		ID:       m.ID,
		UserID:   m.UserID,
		Username: m.Username,
		Email:    m.Email,
		Status:   m.Status,
		Role:     m.Role,
		JoinedAt: m.JoinedAt.Format("2006-01-02T15:04:05Z"),
	}
}
