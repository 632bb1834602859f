package usecase

import (
	"context"
	"log/slog"
	"time"

	"MaterialityScanner/internal/jobs"
	"MaterialityScanner/internal/ports"
)

// Sweeper wires the ticking driver with the job tracker retention sweep.
type Sweeper struct {
	driver  ports.Scheduler
	tracker *jobs.Tracker
	logger  *slog.Logger
}

// NewSweeper returns a helper to start/stop the periodic sweep.
func NewSweeper(driver ports.Scheduler, tracker *jobs.Tracker, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sweeper{driver: driver, tracker: tracker, logger: logger.With("component", "sweeper")}
}

// Start registers the sweep with the provided scheduler.
func (s *Sweeper) Start(ctx context.Context) error {
	if s.driver == nil || s.tracker == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if removed := s.tracker.Sweep(trigger); removed > 0 {
			s.logger.Info("expired jobs removed", "count", removed, "remaining", s.tracker.Len())
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Sweeper) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
