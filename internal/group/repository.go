package group

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fkhayef/splitledger/internal/database"
	"github.com/fkhayef/splitledger/pkg/currency"
)

const (
	groupColumns  = `id, name, description, base_currency, created_at`
	memberColumns = `id, group_id, user_id, status, role, joined_at`
)

// PostgreSQL error codes
const (
	pgForeignKeyViolation pq.ErrorCode = "23503"
	pgUniqueViolation     pq.ErrorCode = "23505"
)

const memberSelect = `
	SELECT gm.id, gm.group_id, gm.user_id, gm.status, gm.role, gm.joined_at, u.username, u.email
	FROM group_members gm
	JOIN users u ON gm.user_id = u.id
`

// Repository handles group data persistence
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new group repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a group and its creator as a JOINED admin in one transaction.
func (r *Repository) Create(ctx context.Context, creatorID int64, req *CreateGroupRequest, base currency.Code) (*Group, error) {
	group := &Group{}
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO groups (name, description, base_currency)
			VALUES ($1, $2, $3)
			RETURNING ` + groupColumns
		if err := tx.GetContext(ctx, group, query, req.Name, req.Description, base); err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO group_members (group_id, user_id, status, role)
			VALUES ($1, $2, $3, $4)`,
			group.ID, creatorID, MemberStatusJoined, MemberRoleAdmin)
		if err != nil {
			return fmt.Errorf("failed to add group creator: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return group, nil
}

// GetByID retrieves a group by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Group, error) {
	group := &Group{}
	err := r.db.GetContext(ctx, group, `SELECT `+groupColumns+` FROM groups WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return group, nil
}

// ListByUserID retrieves all groups for a user
func (r *Repository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Group, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(DISTINCT g.id)
		FROM groups g
		JOIN group_members gm ON g.id = gm.group_id
		WHERE gm.user_id = $1
	`
	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	query := `
		SELECT g.id, g.name, g.description, g.base_currency, g.created_at
		FROM groups g
		JOIN group_members gm ON g.id = gm.group_id
		WHERE gm.user_id = $1
		ORDER BY g.created_at DESC, g.id DESC
		LIMIT $2 OFFSET $3
	`

	groups := []*Group{}
	if err := r.db.SelectContext(ctx, &groups, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}

	return groups, total, nil
}

// Update modifies an existing group
func (r *Repository) Update(ctx context.Context, id int64, req *UpdateGroupRequest) (*Group, error) {
	query := `
		UPDATE groups
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    base_currency = COALESCE($4, base_currency)
		WHERE id = $1
		RETURNING ` + groupColumns

	group := &Group{}
	err := r.db.GetContext(ctx, group, query, id, req.Name, req.Description, req.BaseCurrency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update group: %w", err)
	}

	return group, nil
}

// Delete removes a group and, by cascade, its expenses and payments
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrGroupNotFound
	}

	return nil
}

// AddMember adds a user to a group as INVITED
func (r *Repository) AddMember(ctx context.Context, groupID int64, req *AddMemberRequest) (*GroupMember, error) {
	query := `
		INSERT INTO group_members (group_id, user_id, status, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + memberColumns

	member := &GroupMember{}
	if err := r.db.GetContext(ctx, member, query, groupID, req.UserID, MemberStatusInvited, req.Role); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case pgForeignKeyViolation:
				return nil, ErrUserNotFound
			case pgUniqueViolation:
				return nil, ErrMemberAlreadyExists
			}
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return member, nil
}

// GetMembers retrieves all members of a group
func (r *Repository) GetMembers(ctx context.Context, groupID int64) ([]*GroupMember, error) {
	members := []*GroupMember{}
	query := memberSelect + ` WHERE gm.group_id = $1 ORDER BY gm.joined_at, gm.user_id`
	if err := r.db.SelectContext(ctx, &members, query, groupID); err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}

	return members, nil
}

// MemberIDs returns the user ids of every JOINED or INVITED member, ascending.
func (r *Repository) MemberIDs(ctx context.Context, groupID int64) ([]int64, error) {
	ids := []int64{}
	query := `
		SELECT user_id FROM group_members
		WHERE group_id = $1 AND status IN ($2, $3)
		ORDER BY user_id
	`
	if err := r.db.SelectContext(ctx, &ids, query, groupID, MemberStatusJoined, MemberStatusInvited); err != nil {
		return nil, fmt.Errorf("failed to get member ids: %w", err)
	}
	return ids, nil
}

// GetMember retrieves a specific member from a group
func (r *Repository) GetMember(ctx context.Context, groupID, userID int64) (*GroupMember, error) {
	member := &GroupMember{}
	err := r.db.GetContext(ctx, member, memberSelect+` WHERE gm.group_id = $1 AND gm.user_id = $2`, groupID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

// UpdateMember updates a member's status or role
func (r *Repository) UpdateMember(ctx context.Context, groupID, userID int64, req *UpdateMemberRequest) (*GroupMember, error) {
	query := `
		UPDATE group_members
		SET status = COALESCE($3, status),
		    role = COALESCE($4, role)
		WHERE group_id = $1 AND user_id = $2
		RETURNING ` + memberColumns

	member := &GroupMember{}
	err := r.db.GetContext(ctx, member, query, groupID, userID, req.Status, req.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update member: %w", err)
	}

	return member, nil
}

// HasActivity reports whether the user paid, owes or moved money in the group.
func (r *Repository) HasActivity(ctx context.Context, groupID, userID int64) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM expenses WHERE group_id = $1 AND payer_id = $2)
		    OR EXISTS (SELECT 1 FROM splits s JOIN expenses e ON e.id = s.expense_id
		               WHERE e.group_id = $1 AND s.user_id = $2)
		    OR EXISTS (SELECT 1 FROM settlements WHERE group_id = $1
		               AND (from_user_id = $2 OR to_user_id = $2))
	`
	var active bool
	if err := r.db.GetContext(ctx, &active, query, groupID, userID); err != nil {
		return false, fmt.Errorf("failed to check member activity: %w", err)
	}
	return active, nil
}

// RemoveMember removes a user from a group
func (r *Repository) RemoveMember(ctx context.Context, groupID, userID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrMemberNotFound
	}

	return nil
}
