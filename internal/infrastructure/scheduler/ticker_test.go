package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTickerRunsJobUntilStopped(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	ticker := NewTicker(10 * time.Millisecond)
	if err := ticker.Start(context.Background(), func(time.Time) { runs.Add(1) }); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if runs.Load() < 2 {
		t.Fatalf("expected at least two runs, got %d", runs.Load())
	}

	if err := ticker.Stop(context.Background()); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	after := runs.Load()
	time.Sleep(40 * time.Millisecond)
	if runs.Load() != after {
		t.Fatalf("job ran after Stop")
	}
	if err := ticker.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop must be a no-op: %v", err)
	}
}

func TestTickerStopsWithContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	ticker := NewTicker(time.Hour)
	if err := ticker.Start(ctx, func(time.Time) {}); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := ticker.Stop(stopCtx); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
}
