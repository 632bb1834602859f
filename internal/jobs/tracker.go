package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"MaterialityScanner/internal/domain"
)

// DefaultRetention is how long a job is kept after it started.
const DefaultRetention = 24 * time.Hour

var (
	// ErrJobNotFound is returned for unknown or swept job IDs.
	ErrJobNotFound = errors.New("job not found")
	// ErrInvalidTransition is returned when a job is no longer running.
	ErrInvalidTransition = errors.New("invalid job transition")
)

type entry struct {
	job    domain.Job
	cancel context.CancelFunc
}

// Tracker is an in-memory job store owned by one assessor.
type Tracker struct {
	mu        sync.RWMutex
	jobs      map[string]*entry
	retention time.Duration
	now       func() time.Time
	newID     func() string
}

// Option customizes the tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTracker creates an empty tracker; retention <= 0 uses DefaultRetention.
func NewTracker(retention time.Duration, opts ...Option) *Tracker {
	if retention <= 0 {
		retention = DefaultRetention
	}
	t := &Tracker{
		jobs:      make(map[string]*entry),
		retention: retention,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Create registers a running job with progress 0. cancel, when set, is
// invoked if the job is swept while still running.
func (t *Tracker) Create(message string, cancel context.CancelFunc) domain.Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	job := domain.Job{
		ID:        t.newID(),
		Status:    domain.JobRunning,
		Progress:  0,
		Message:   message,
		StartTime: t.now(),
	}
	t.jobs[job.ID] = &entry{job: job, cancel: cancel}
	return job
}

// Progress records a milestone. Progress never moves backwards.
func (t *Tracker) Progress(id string, progress int, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, err := t.running(id)
	if err != nil {
		return err
	}
	progress = min(max(progress, 0), 99)
	if progress > e.job.Progress {
		e.job.Progress = progress
	}
	if message != "" {
		e.job.Message = message
	}
	return nil
}

// Complete moves a running job to completed.
func (t *Tracker) Complete(id string, result *domain.AssessmentResult) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, err := t.running(id)
	if err != nil {
		return err
	}
	end := t.now()
	e.job.Status = domain.JobCompleted
	e.job.Progress = 100
	e.job.Message = "completed"
	e.job.EndTime = &end
	e.job.Result = result
	e.release()
	return nil
}

// Fail moves a running job to failed.
func (t *Tracker) Fail(id string, cause error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, err := t.running(id)
	if err != nil {
		return err
	}
	end := t.now()
	e.job.Status = domain.JobFailed
	e.job.Message = "failed"
	e.job.EndTime = &end
	if cause != nil {
		e.job.Error = cause.Error()
	} else {
		e.job.Error = "unknown error"
	}
	e.release()
	return nil
}

// Get returns a snapshot of the job.
func (t *Tracker) Get(id string) (domain.Job, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.jobs[id]
	if !ok {
		return domain.Job{}, ErrJobNotFound
	}
	job := e.job
	if job.EndTime != nil {
		end := *job.EndTime
		job.EndTime = &end
	}
	return job, nil
}

// Len reports how many jobs are tracked.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.jobs)
}

// Sweep removes every job that started more than the retention window before
// now, whatever its status. Running jobs are cancelled, not resumed.
func (t *Tracker) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := now.Add(-t.retention)
	removed := 0
	for id, e := range t.jobs {
		if !e.job.StartTime.Before(cutoff) {
			continue
		}
		if e.job.Status == domain.JobRunning && e.cancel != nil {
			e.cancel()
		}
		delete(t.jobs, id)
		removed++
	}
	return removed
}

func (t *Tracker) running(id string) (*entry, error) {
	e, ok := t.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	if e.job.Status != domain.JobRunning {
		return nil, fmt.Errorf("job %s is %s: %w", id, e.job.Status, ErrInvalidTransition)
	}
	return e, nil
}

func (e *entry) release() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}
