/*
scheduler.go - Automated agreed-day seeding

PURPOSE:
  Adds next year's agreed-day template ahead of the new year so HR only
  has to review and activate it. Seeded days start inactive and do not
  affect any balance until activated.

DESIGN:
  - Runs on a cron schedule (robfig/cron, standard 5-field expression)
  - Seeding skips dates that already exist, so re-runs are harmless
  - A panicking run is recovered and logged; overlapping runs are skipped

CONFIGURATION:
  - Schedule: cron expression (default "0 3 1 12 *", from config)
  - Enabled:  whether the scheduler starts (default: true)

USAGE:
  scheduler := NewAgreedDayScheduler(service, "0 3 1 12 *", logger)
  if err := scheduler.Start(); err != nil { ... }
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: SeedAgreedDays endpoint (manual seeding)
  - leave/defaults.go: The yearly template
*/
package api

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/warp/leave-engine/leave"
)

// AgreedDayScheduler seeds the following year's agreed days.
type AgreedDayScheduler struct {
	Service  *leave.Service
	Schedule string
	Enabled  bool
	Timeout  time.Duration
	Logger   *slog.Logger
	Clock    func() time.Time

	cron *cron.Cron
	mu   sync.Mutex
}

// NewAgreedDayScheduler creates a new scheduler.
func NewAgreedDayScheduler(svc *leave.Service, schedule string, logger *slog.Logger) *AgreedDayScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AgreedDayScheduler{
		Service:  svc,
		Schedule: schedule,
		Enabled:  true,
		Timeout:  time.Minute,
		Logger:   logger.With("component", "scheduler"),
		Clock:    time.Now,
	}
}

// Start registers the job and begins the scheduler.
func (s *AgreedDayScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.Logger.Info("disabled, not starting")
		return nil
	}
	if s.cron != nil {
		return nil
	}

	logger := cronLogger{s.Logger}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	))
	if _, err := c.AddFunc(s.Schedule, s.run); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.Schedule, err)
	}
	c.Start()
	s.cron = c

	s.Logger.Info("started", "schedule", s.Schedule, "next", s.nextRunLocked())
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *AgreedDayScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
	s.Logger.Info("stopped")
}

// NextRun returns when the next seeding will occur, or the zero time
// when stopped.
func (s *AgreedDayScheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRunLocked()
}

func (s *AgreedDayScheduler) nextRunLocked() time.Time {
	if s.cron == nil {
		return time.Time{}
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *AgreedDayScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.Logger.Error("seeding failed", "error", err)
	}
}

// RunOnce seeds the year after the current one and returns the days added.
func (s *AgreedDayScheduler) RunOnce(ctx context.Context) ([]leave.AgreedDay, error) {
	now := time.Now
	if s.Clock != nil {
		now = s.Clock
	}
	year := now().Year() + 1

	added, err := s.Service.SeedAgreedDays(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("seed %d: %w", year, err)
	}
	s.Logger.Info("seeded agreed days", "year", year, "added", len(added))
	return added, nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
