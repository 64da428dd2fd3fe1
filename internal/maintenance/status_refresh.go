// Package maintenance runs periodic upkeep jobs.
package maintenance

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/MacJediWizard/subdash/internal/metrics"
)

// DefaultStatusRefreshSchedule runs five minutes past every hour.
const DefaultStatusRefreshSchedule = "5 * * * *"

// StatusRefresher recomputes stored customer statuses.
type StatusRefresher interface {
	RefreshAllStatuses(ctx context.Context) (int, error)
}

// StatusRefreshScheduler periodically refreshes customer statuses.
type StatusRefreshScheduler struct {
	refresher StatusRefresher
	schedule  string
	timeout   time.Duration
	cron      *cron.Cron
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	mu        sync.Mutex
	running   bool
	sweepMu   sync.Mutex
}

// NewStatusRefreshScheduler creates a scheduler. An empty schedule uses
// DefaultStatusRefreshSchedule; m may be nil.
func NewStatusRefreshScheduler(refresher StatusRefresher, schedule string, m *metrics.Metrics, logger zerolog.Logger) *StatusRefreshScheduler {
	if schedule == "" {
		schedule = DefaultStatusRefreshSchedule
	}
	return &StatusRefreshScheduler{
		refresher: refresher,
		schedule:  schedule,
		timeout:   5 * time.Minute,
		cron:      cron.New(),
		metrics:   m,
		logger:    logger.With().Str("component", "status_refresh").Logger(),
	}
}

// Start validates the schedule and begins running sweeps.
func (s *StatusRefreshScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("status refresh scheduler already running")
	}

	if _, err := s.cron.AddFunc(s.schedule, func() { s.run("scheduled") }); err != nil {
		return err
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().Str("schedule", s.schedule).Msg("status refresh scheduler started")
	return nil
}

// Stop stops scheduling. The returned context is done once a running sweep
// has finished.
func (s *StatusRefreshScheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	s.running = false
	s.logger.Info().Msg("stopping status refresh scheduler")
	return s.cron.Stop()
}

// RunNow performs a sweep immediately and returns the number of customers
// whose status changed.
func (s *StatusRefreshScheduler) RunNow() (int, error) {
	return s.run("manual")
}

// run serializes sweeps so a slow one is never overlapped.
func (s *StatusRefreshScheduler) run(trigger string) (int, error) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	updated, err := s.refresher.RefreshAllStatuses(ctx)
	elapsed := time.Since(start)
	s.metrics.ObserveRefresh(trigger, elapsed.Seconds())

	if err != nil {
		s.logger.Error().Err(err).Str("trigger", trigger).Int("updated", updated).Msg("status refresh failed")
		return updated, err
	}

	s.logger.Info().
		Str("trigger", trigger).
		Int("updated", updated).
		Dur("elapsed", elapsed).
		Msg("status refresh completed")
	return updated, nil
}
