package rates

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/fkhayef/splitledger/internal/database"
	"github.com/fkhayef/splitledger/pkg/currency"
)

type rateRow struct {
	Currency  currency.Code   `db:"currency"`
	Rate      decimal.Decimal `db:"rate"`
	FetchedAt time.Time       `db:"fetched_at"`
}

// Repository persists the last good rate table
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new rates repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Load returns the stored table. An empty table means nothing was stored yet.
func (r *Repository) Load(ctx context.Context) (Snapshot, error) {
	rows := []rateRow{}
	if err := r.db.SelectContext(ctx, &rows, `SELECT currency, rate, fetched_at FROM exchange_rates ORDER BY currency`); err != nil {
		return Snapshot{}, fmt.Errorf("failed to load exchange rates: %w", err)
	}

	snap := Snapshot{Rates: make(currency.RateTable, len(rows))}
	for _, row := range rows {
		snap.Rates[row.Currency] = row.Rate
		if row.FetchedAt.After(snap.AsOf) {
			snap.AsOf = row.FetchedAt
		}
		if row.Rate.Equal(decimal.NewFromInt(1)) && snap.Base == "" {
			snap.Base = row.Currency
		}
	}
	return snap, nil
}

// Save replaces the stored table in one transaction
func (r *Repository) Save(ctx context.Context, snap Snapshot) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM exchange_rates`); err != nil {
			return fmt.Errorf("failed to clear exchange rates: %w", err)
		}
		for code, rate := range snap.Rates {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO exchange_rates (currency, rate, fetched_at) VALUES ($1, $2, $3)`,
				code, rate, snap.AsOf)
			if err != nil {
				return fmt.Errorf("failed to save rate for %s: %w", code, err)
			}
		}
		return nil
	})
}
