package rates

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Refresher is the part of the Store the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler refreshes the rates on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	store   Refresher
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewScheduler registers a refresh job for a standard five-field cron schedule.
// Each run is bounded by timeout.
func NewScheduler(schedule string, store Refresher, timeout time.Duration, log logrus.FieldLogger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		store:   store,
		timeout: timeout,
		log:     log,
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid rates refresh schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs the schedule in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("exchange rate scheduler started")
}

// Stop halts the schedule and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("exchange rate scheduler stopped")
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	// Refresh already logs its failure.
	_ = s.store.Refresh(ctx)
}
