package newsapi

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// throttle hands out request slots at least interval apart. The slot is
// reserved under the lock, jitter included, and the caller sleeps outside it,
// so concurrent callers can never compute overlapping windows.
type throttle struct {
	mu       sync.Mutex
	last     time.Time
	interval time.Duration
	jitter   func() time.Duration
	now      func() time.Time
}

func newThrottle(interval, jitterMin, jitterMax time.Duration) *throttle {
	return &throttle{
		interval: interval,
		jitter:   uniformJitter(jitterMin, jitterMax),
		now:      time.Now,
	}
}

// reserve books the next slot and returns it.
func (t *throttle) reserve() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot := t.now()
	if !t.last.IsZero() {
		if next := t.last.Add(t.interval); next.After(slot) {
			slot = next
		}
	}
	if t.jitter != nil {
		slot = slot.Add(t.jitter())
	}
	t.last = slot
	return slot
}

// wait blocks until the caller's slot arrives or ctx is done.
func (t *throttle) wait(ctx context.Context) error {
	slot := t.reserve()
	return sleepCtx(ctx, slot.Sub(t.now()))
}

func uniformJitter(lo, hi time.Duration) func() time.Duration {
	if lo < 0 {
		lo = 0
	}
	return func() time.Duration {
		if hi <= lo {
			return lo
		}
		return lo + rand.N(hi-lo+1)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
