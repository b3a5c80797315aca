package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const settlementSelect = `
	SELECT s.id, s.group_id, s.from_user_id, s.to_user_id, s.amount, s.currency,
	       s.payment_date, s.note, s.created_at,
	       pu.username AS from_username, ru.username AS to_username
	FROM settlements s
	JOIN users pu ON s.from_user_id = pu.id
	JOIN users ru ON s.to_user_id = ru.id
`

// Repository handles settlement data persistence
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new settlement repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a payment. A zero paymentDate means now.
func (r *Repository) Create(ctx context.Context, s *Settlement) (*Settlement, error) {
	var paymentDate interface{}
	if !s.PaymentDate.IsZero() {
		paymentDate = s.PaymentDate.UTC().Truncate(time.Microsecond)
	}

	query := `
		INSERT INTO settlements (group_id, from_user_id, to_user_id, amount, currency, payment_date, note)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()), $7)
		RETURNING id, group_id, from_user_id, to_user_id, amount, currency, payment_date, note, created_at
	`

	created := &Settlement{}
	err := r.db.GetContext(ctx, created, query,
		s.GroupID, s.FromUserID, s.ToUserID, s.Amount, s.Currency, paymentDate, s.Note)
	if err != nil {
		return nil, fmt.Errorf("failed to create settlement: %w", err)
	}

	return created, nil
}

// GetByID retrieves a settlement by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Settlement, error) {
	s := &Settlement{}
	if err := r.db.GetContext(ctx, s, settlementSelect+` WHERE s.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	return s, nil
}

// ListByGroupID retrieves payments in a group, most recent first
func (r *Repository) ListByGroupID(ctx context.Context, groupID int64, limit, offset int) ([]*Settlement, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM settlements WHERE group_id = $1`, groupID); err != nil {
		return nil, 0, fmt.Errorf("failed to count settlements: %w", err)
	}

	query := settlementSelect + ` WHERE s.group_id = $1 ORDER BY s.payment_date DESC, s.id DESC LIMIT $2 OFFSET $3`

	settlements := []*Settlement{}
	if err := r.db.SelectContext(ctx, &settlements, query, groupID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list settlements: %w", err)
	}

	return settlements, total, nil
}

// ListByUserID retrieves payments the user sent or received across all groups
func (r *Repository) ListByUserID(ctx context.Context, userID int64, limit, offset int) ([]*Settlement, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM settlements WHERE from_user_id = $1 OR to_user_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count settlements: %w", err)
	}

	query := settlementSelect + `
		WHERE s.from_user_id = $1 OR s.to_user_id = $1
		ORDER BY s.payment_date DESC, s.id DESC
		LIMIT $2 OFFSET $3`

	settlements := []*Settlement{}
	if err := r.db.SelectContext(ctx, &settlements, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list settlements: %w", err)
	}

	return settlements, total, nil
}
