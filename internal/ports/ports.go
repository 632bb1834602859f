package ports

import (
	"context"
	"time"

	"MaterialityScanner/internal/domain"
)

// SearchPage is a batch of upstream news items.
type SearchPage struct {
	Items []domain.NewsItem
	Total int
}

// NewsSearcher queries the third-party news search API.
type NewsSearcher interface {
	Search(ctx context.Context, keyword string, display int, sort string, start int) (SearchPage, error)
	SearchByDateRange(ctx context.Context, keyword string, from, to time.Time, maxResults int) (SearchPage, error)
}

// SearchCache stores raw API pages so repeated runs spare upstream quota.
type SearchCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Prediction is the classifier output for one text.
type Prediction struct {
	Label         string             `json:"label"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// Classifier is the offline-trained sentiment model, treated as a black box.
type Classifier interface {
	Classify(ctx context.Context, text string) (Prediction, error)
}

// ReferenceStore serves read-only corporation, category and issue-pool data.
type ReferenceStore interface {
	GetCorporation(ctx context.Context, id int64) (domain.Corporation, error)
	GetAllCategories(ctx context.Context) ([]domain.Category, error)
	GetCorporationIssues(ctx context.Context, corporationID int64, year int) (domain.CorporationIssues, error)
}

// Notifier streams a finished ranking digest to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
