package rates

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/fkhayef/splitledger/pkg/currency"
)

// Persistence is where the last good table survives restarts. *Repository implements it.
type Persistence interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}

// Store holds the current rate table in memory.
// Readers always see a complete table; a failed refresh keeps the previous one.
type Store struct {
	provider Provider
	repo     Persistence
	log      logrus.FieldLogger

	mu   sync.RWMutex
	snap Snapshot
}

// NewStore creates an empty store. Call Load and Refresh to fill it.
func NewStore(provider Provider, repo Persistence, log logrus.FieldLogger) *Store {
	return &Store{
		provider: provider,
		repo:     repo,
		log:      log,
		snap:     Snapshot{Rates: currency.RateTable{}},
	}
}

// Load restores the table saved by the last successful refresh.
func (s *Store) Load(ctx context.Context) error {
	snap, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	if len(snap.Rates) == 0 {
		s.log.Info("no stored exchange rates")
		return nil
	}

	s.set(snap)
	s.log.WithFields(logrus.Fields{
		"currencies": len(snap.Rates),
		"as_of":      snap.AsOf,
	}).Info("exchange rates restored")
	return nil
}

// Refresh fetches a new table and persists it.
func (s *Store) Refresh(ctx context.Context) error {
	snap, err := s.provider.Fetch(ctx)
	if err != nil {
		s.log.WithError(err).Warn("exchange rate refresh failed, keeping previous rates")
		return err
	}

	s.set(snap)

	if err := s.repo.Save(ctx, snap); err != nil {
		s.log.WithError(err).Warn("failed to persist exchange rates")
	}

	s.log.WithFields(logrus.Fields{
		"base":       snap.Base,
		"currencies": len(snap.Rates),
		"as_of":      snap.AsOf,
	}).Info("exchange rates refreshed")
	return nil
}

// Snapshot returns a copy of the current table.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

func (s *Store) set(snap Snapshot) {
	snap = snap.Clone()
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}
