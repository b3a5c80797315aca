package balance

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fkhayef/splitledger/internal/database"
	"github.com/fkhayef/splitledger/internal/group"
	"github.com/fkhayef/splitledger/internal/ledger"
	"github.com/fkhayef/splitledger/pkg/currency"
	"github.com/fkhayef/splitledger/pkg/money"
)

type expenseRow struct {
	ID       int64         `db:"id"`
	PayerID  int64         `db:"payer_id"`
	Amount   money.Money   `db:"amount"`
	Currency currency.Code `db:"currency"`
}

type splitRow struct {
	ExpenseID  int64       `db:"expense_id"`
	UserID     int64       `db:"user_id"`
	AmountOwed money.Money `db:"amount_owed"`
}

type paymentRow struct {
	ID         int64         `db:"id"`
	FromUserID int64         `db:"from_user_id"`
	ToUserID   int64         `db:"to_user_id"`
	Amount     money.Money   `db:"amount"`
	Currency   currency.Code `db:"currency"`
}

// filter narrows the three record queries to one scope.
type filter struct {
	expenses string
	payments string
}

var (
	groupScope = filter{
		expenses: `e.group_id = $1`,
		payments: `group_id = $1`,
	}
	userScope = filter{
		expenses: `e.payer_id = $1 OR EXISTS (SELECT 1 FROM splits x WHERE x.expense_id = e.id AND x.user_id = $1)`,
		payments: `from_user_id = $1 OR to_user_id = $1`,
	}
)

// Repository reads ledger records
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new balance repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GroupRecords reads a group's members, expenses and payments in one snapshot.
func (r *Repository) GroupRecords(ctx context.Context, groupID int64) (*Records, error) {
	recs := &Records{}
	err := database.WithReadSnapshot(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			SELECT user_id FROM group_members
			WHERE group_id = $1 AND status IN ($2, $3)
			ORDER BY user_id
		`
		recs.Members = []int64{}
		if err := tx.SelectContext(ctx, &recs.Members, query, groupID, group.MemberStatusJoined, group.MemberStatusInvited); err != nil {
			return fmt.Errorf("failed to load members: %w", err)
		}
		return loadRecords(ctx, tx, groupScope, groupID, recs)
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// UserRecords reads every expense and payment userID takes part in, across groups.
// Members is left empty.
func (r *Repository) UserRecords(ctx context.Context, userID int64) (*Records, error) {
	recs := &Records{}
	err := database.WithReadSnapshot(ctx, r.db, func(tx *sqlx.Tx) error {
		return loadRecords(ctx, tx, userScope, userID, recs)
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func loadRecords(ctx context.Context, tx *sqlx.Tx, f filter, id int64, recs *Records) error {
	expenses := []expenseRow{}
	query := `SELECT e.id, e.payer_id, e.amount, e.currency FROM expenses e WHERE (` + f.expenses + `) ORDER BY e.id`
	if err := tx.SelectContext(ctx, &expenses, query, id); err != nil {
		return fmt.Errorf("failed to load expenses: %w", err)
	}

	splits := []splitRow{}
	query = `
		SELECT s.expense_id, s.user_id, s.amount_owed
		FROM splits s
		JOIN expenses e ON e.id = s.expense_id
		WHERE (` + f.expenses + `)
		ORDER BY s.expense_id, s.position
	`
	if err := tx.SelectContext(ctx, &splits, query, id); err != nil {
		return fmt.Errorf("failed to load splits: %w", err)
	}

	payments := []paymentRow{}
	query = `SELECT id, from_user_id, to_user_id, amount, currency FROM settlements WHERE (` + f.payments + `) ORDER BY id`
	if err := tx.SelectContext(ctx, &payments, query, id); err != nil {
		return fmt.Errorf("failed to load payments: %w", err)
	}

	recs.Expenses = assemble(expenses, splits)
	recs.Payments = make([]ledger.Payment, len(payments))
	for i, p := range payments {
		recs.Payments[i] = ledger.Payment{
			ID:       p.ID,
			From:     p.FromUserID,
			To:       p.ToUserID,
			Amount:   p.Amount,
			Currency: p.Currency,
		}
	}
	return nil
}

// assemble attaches splits, already ordered by position, to their expenses.
func assemble(expenses []expenseRow, splits []splitRow) []ledger.Expense {
	byID := make(map[int64][]ledger.Split, len(expenses))
	for _, s := range splits {
		byID[s.ExpenseID] = append(byID[s.ExpenseID], ledger.Split{UserID: s.UserID, AmountOwed: s.AmountOwed})
	}

	out := make([]ledger.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = ledger.Expense{
			ID:       e.ID,
			Amount:   e.Amount,
			Currency: e.Currency,
			PaidBy:   e.PayerID,
			Splits:   byID[e.ID],
		}
	}
	return out
}
