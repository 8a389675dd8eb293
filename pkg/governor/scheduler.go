package governor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nadi-pro/browser/pkg/config"
)

// Scheduler resets the adaptive sampling window on a cron schedule, so the
// adaptive rate follows recent errors rather than lifetime totals.
type Scheduler struct {
	gov     *Governor
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	entry   cron.EntryID
	spec    string
	running bool
}

// NewScheduler creates a scheduler for gov.
func NewScheduler(gov *Governor, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		gov:    gov,
		cron:   cron.New(),
		logger: logger.With("component", "governor.scheduler"),
	}
}

// Start schedules window resets using the adaptive section of the current
// configuration. Nothing is scheduled when adaptive sampling is disabled
// or the schedule is empty. The scheduler stops when ctx is cancelled.
//
// Common schedules:
//   - "*/5 * * * *": every five minutes
//   - "@hourly": at the start of every hour
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.schedule(s.gov.Config().Sampling.Adaptive); err != nil {
		return err
	}

	s.cron.Start()
	s.running = true

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Reschedule replaces the schedule after a configuration reload.
func (s *Scheduler) Reschedule(cfg config.AdaptiveConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule(cfg)
}

// schedule installs the reset job for cfg. Callers hold the mutex.
func (s *Scheduler) schedule(cfg config.AdaptiveConfig) error {
	spec := ""
	if cfg.Enabled {
		spec = cfg.WindowSchedule
	}
	if spec == s.spec {
		return nil
	}

	var parsed cron.Schedule
	if spec != "" {
		var err error
		if parsed, err = config.ParseSchedule(spec); err != nil {
			return fmt.Errorf("invalid adaptive window schedule %q: %w", spec, err)
		}
	}

	if s.entry != 0 {
		s.cron.Remove(s.entry)
		s.entry = 0
	}
	s.spec = spec

	if parsed == nil {
		s.logger.Info("adaptive window schedule not configured")
		return nil
	}

	s.entry = s.cron.Schedule(parsed, cron.FuncJob(s.resetWindow))
	s.logger.Info("adaptive window scheduled", "schedule", spec)
	return nil
}

func (s *Scheduler) resetWindow() {
	s.gov.ResetAdaptive()
}

// Stop stops the scheduler and waits for a running reset to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("adaptive window scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled reset, or nil when none is scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry == 0 {
		return nil
	}
	next := s.cron.Entry(s.entry).Next
	if next.IsZero() {
		return nil
	}
	return &next
}
