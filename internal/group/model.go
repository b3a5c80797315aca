package group

import (
	"time"

	"github.com/fkhayef/splitledger/pkg/currency"
)

// MemberStatus represents the status of a group member
type MemberStatus string

const (
	MemberStatusInvited MemberStatus = "INVITED"
	MemberStatusJoined  MemberStatus = "JOINED"
)

// Valid reports whether s is a known status.
func (s MemberStatus) Valid() bool {
	return s == MemberStatusInvited || s == MemberStatusJoined
}

// MemberRole represents the role of a group member
type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "ADMIN"
	MemberRoleMember MemberRole = "MEMBER"
)

// Valid reports whether r is a known role.
func (r MemberRole) Valid() bool {
	return r == MemberRoleAdmin || r == MemberRoleMember
}

// Group represents a group of people sharing expenses
type Group struct {
	ID           int64         `db:"id" json:"id"`
	Name         string        `db:"name" json:"name"`
	Description  *string       `db:"description" json:"description,omitempty"`
	BaseCurrency currency.Code `db:"base_currency" json:"base_currency"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// GroupMember represents a user's membership in a group
type GroupMember struct {
	ID       int64        `db:"id" json:"id"`
	GroupID  int64        `db:"group_id" json:"group_id"`
	UserID   int64        `db:"user_id" json:"user_id"`
	Status   MemberStatus `db:"status" json:"status"`
	Role     MemberRole   `db:"role" json:"role"`
	JoinedAt time.Time    `db:"joined_at" json:"joined_at"`

	// Populated from JOIN
	Username string `db:"username" json:"username,omitempty"`
	Email    string `db:"email" json:"email,omitempty"`
}
