package expense

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fkhayef/splitledger/internal/database"
	"github.com/fkhayef/splitledger/internal/expense/split"
)

const expenseSelect = `
	SELECT e.id, e.group_id, e.payer_id, e.description, e.amount, e.currency, e.image_url,
	       e.split_type, e.created_at, u.username AS payer_username
	FROM expenses e
	JOIN users u ON e.payer_id = u.id
`

// Repository handles expense and split data persistence
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new expense repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// CreateWithSplits inserts an expense and its splits in one transaction.
// Splits keep the order of outputs in their position column.
func (r *Repository) CreateWithSplits(ctx context.Context, e *Expense, outputs []split.SplitOutput) (*ExpenseWithSplits, error) {
	result := &ExpenseWithSplits{Expense: &Expense{}, Splits: make([]*Split, 0, len(outputs))}

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO expenses (group_id, payer_id, description, amount, currency, image_url, split_type)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, group_id, payer_id, description, amount, currency, image_url, split_type, created_at
		`
		err := tx.GetContext(ctx, result.Expense, query,
			e.GroupID, e.PayerID, e.Description, e.Amount, e.Currency, e.ImageURL, e.SplitType)
		if err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}

		for i, out := range outputs {
			s := &Split{}
			err := tx.GetContext(ctx, s, `
				INSERT INTO splits (expense_id, user_id, position, amount_owed)
				VALUES ($1, $2, $3, $4)
				RETURNING id, expense_id, user_id, position, amount_owed`,
				result.Expense.ID, out.UserID, i, out.AmountOwed)
			if err != nil {
				return fmt.Errorf("failed to create split: %w", err)
			}
			result.Splits = append(result.Splits, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetExpenseByID retrieves an expense by its ID
func (r *Repository) GetExpenseByID(ctx context.Context, id int64) (*Expense, error) {
	expense := &Expense{}
	if err := r.db.GetContext(ctx, expense, expenseSelect+` WHERE e.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return expense, nil
}

// GetSplitsByExpenseID retrieves all splits for an expense in participant order
func (r *Repository) GetSplitsByExpenseID(ctx context.Context, expenseID int64) ([]*Split, error) {
	query := `
		SELECT s.id, s.expense_id, s.user_id, s.position, s.amount_owed, u.username
		FROM splits s
		JOIN users u ON s.user_id = u.id
		WHERE s.expense_id = $1
		ORDER BY s.position
	`

	splits := []*Split{}
	if err := r.db.SelectContext(ctx, &splits, query, expenseID); err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}

	return splits, nil
}

// ListExpensesByGroupID retrieves expenses for a group, newest first
func (r *Repository) ListExpensesByGroupID(ctx context.Context, groupID int64, limit, offset int) ([]*Expense, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM expenses WHERE group_id = $1`, groupID); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	query := expenseSelect + ` WHERE e.group_id = $1 ORDER BY e.created_at DESC, e.id DESC LIMIT $2 OFFSET $3`

	expenses := []*Expense{}
	if err := r.db.SelectContext(ctx, &expenses, query, groupID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list expenses: %w", err)
	}

	return expenses, total, nil
}

// DeleteExpense deletes an expense; its splits go with it by cascade
func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrExpenseNotFound
	}

	return nil
}
