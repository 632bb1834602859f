package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"MaterialityScanner/internal/domain"
	"MaterialityScanner/internal/ports"
)

type fakeSearcher struct {
	pages map[string][]domain.NewsItem
	fail  map[string]error
	delay time.Duration

	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	keywords []string
}

func (f *fakeSearcher) Search(ctx context.Context, keyword string, _ int, _ string, _ int) (ports.SearchPage, error) {
	return f.SearchByDateRange(ctx, keyword, time.Time{}, time.Time{}, 0)
}

func (f *fakeSearcher) SearchByDateRange(ctx context.Context, keyword string, _, _ time.Time, _ int) (ports.SearchPage, error) {
	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if current <= peak || f.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	f.mu.Lock()
	f.keywords = append(f.keywords, keyword)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return ports.SearchPage{}, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if err := f.fail[keyword]; err != nil {
		return ports.SearchPage{}, err
	}
	items := f.pages[keyword]
	return ports.SearchPage{Items: items, Total: len(items)}, nil
}

type fakeStore struct {
	corporation domain.Corporation
	categories  []domain.Category
	issues      domain.CorporationIssues
	err         error
	block       chan struct{}

	mu        sync.Mutex
	poolYears []int
}

func (f *fakeStore) GetCorporation(ctx context.Context, id int64) (domain.Corporation, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return domain.Corporation{}, ctx.Err()
		}
	}
	if f.err != nil {
		return domain.Corporation{}, f.err
	}
	if id != f.corporation.ID {
		return domain.Corporation{}, errors.New("not found")
	}
	return f.corporation, nil
}

func (f *fakeStore) GetAllCategories(context.Context) ([]domain.Category, error) {
	return f.categories, nil
}

func (f *fakeStore) GetCorporationIssues(_ context.Context, _ int64, year int) (domain.CorporationIssues, error) {
	f.mu.Lock()
	f.poolYears = append(f.poolYears, year)
	f.mu.Unlock()
	return f.issues, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, digest)
	return nil
}

type manualScheduler struct {
	job     func(time.Time)
	stopped bool
}

func (m *manualScheduler) Start(_ context.Context, job func(time.Time)) error {
	m.job = job
	return nil
}

func (m *manualScheduler) Stop(context.Context) error {
	m.stopped = true
	return nil
}
