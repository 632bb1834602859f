package usecase

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"MaterialityScanner/internal/domain"
	"MaterialityScanner/internal/ports"
)

const defaultFetchConcurrency = 4

// FetchReport is the merged outcome of one fan-out.
type FetchReport struct {
	Articles  []domain.RawArticle
	Succeeded int
	Failed    int
}

// FetcherDeps wires the search client into the orchestrator.
type FetcherDeps struct {
	Searcher    ports.NewsSearcher
	Concurrency int
	Logger      *slog.Logger
}

// Fetcher runs planned queries with bounded concurrency.
type Fetcher struct {
	searcher    ports.NewsSearcher
	concurrency int
	logger      *slog.Logger
}

// NewFetcher builds the orchestrator; concurrency <= 0 uses 4.
func NewFetcher(deps FetcherDeps) *Fetcher {
	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = defaultFetchConcurrency
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Fetcher{
		searcher:    deps.Searcher,
		concurrency: concurrency,
		logger:      logger.With("component", "fetcher"),
	}
}

// Fetch runs every query and merges the articles in completion order.
func (f *Fetcher) Fetch(ctx context.Context, queries []domain.SearchQuery, period domain.ReportPeriod) (FetchReport, error) {
	return f.FetchWithProgress(ctx, queries, period, nil)
}

// FetchWithProgress is Fetch with a callback invoked after each finished query.
// A failing query is logged and contributes nothing; only cancellation of ctx
// is returned as an error.
func (f *Fetcher) FetchWithProgress(ctx context.Context, queries []domain.SearchQuery, period domain.ReportPeriod, onDone func(done, total int)) (FetchReport, error) {
	report := FetchReport{Articles: make([]domain.RawArticle, 0)}
	if f.searcher == nil || len(queries) == 0 {
		return report, ctx.Err()
	}

	var (
		mu   sync.Mutex
		done int
		g    errgroup.Group
	)
	g.SetLimit(f.concurrency)

	for _, query := range queries {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			page, err := f.searcher.SearchByDateRange(ctx, query.Keyword, period.Start, period.End, query.MaxResults)

			mu.Lock()
			defer mu.Unlock()
			done++
			if err != nil {
				report.Failed++
				if ctx.Err() == nil {
					f.logger.Warn("query failed", "keyword", query.Keyword, "kind", query.Kind, "error", err)
				}
			} else {
				report.Succeeded++
				for _, item := range page.Items {
					report.Articles = append(report.Articles, toRawArticle(query, item))
				}
				f.logger.Debug("query finished", "keyword", query.Keyword, "articles", len(page.Items))
			}
			if onDone != nil {
				onDone(done, len(queries))
			}
			return nil
		})
	}
	// Query failures are counted in the report; workers never return an error.
	if err := g.Wait(); err != nil {
		return report, err
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}

	f.logger.Info("fetch finished",
		"queries", len(queries),
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"articles", len(report.Articles))
	return report, nil
}

func toRawArticle(query domain.SearchQuery, item domain.NewsItem) domain.RawArticle {
	return domain.RawArticle{
		Title:         item.Title,
		Description:   item.Description,
		PubDate:       item.PubDate,
		OriginalLink:  item.URL(),
		Company:       query.Company,
		Issue:         query.Issue,
		IssueOriginal: query.IssueOriginal,
		Kind:          query.Kind,
		Keyword:       query.Keyword,
	}
}
