package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"MaterialityScanner/internal/dedup"
	"MaterialityScanner/internal/domain"
	"MaterialityScanner/internal/jobs"
	"MaterialityScanner/internal/lexicon"
	"MaterialityScanner/internal/planner"
	"MaterialityScanner/internal/ports"
	"MaterialityScanner/internal/relevance"
	"MaterialityScanner/internal/scoring"
	"MaterialityScanner/internal/sentiment"
)

// Progress milestones reported to the job tracker.
const (
	progressReference = 10
	progressFetch     = 20
	progressDedup     = 60
	progressSentiment = 70
	progressScoring   = 90
)

const defaultDigestTopN = 5

// ErrInvalidPeriod is returned when the report period ends before it starts.
var ErrInvalidPeriod = errors.New("invalid report period")

// AssessorDeps wires all driven adapters into the materiality pipeline.
type AssessorDeps struct {
	Store      ports.ReferenceStore
	Searcher   ports.NewsSearcher
	Classifier ports.Classifier
	Notifier   ports.Notifier
	Tracker    *jobs.Tracker
	Lexicon    *lexicon.Lexicon
	Logger     *slog.Logger
	Location   *time.Location

	Limits             planner.Limits
	FetchConcurrency   int
	LabelerConcurrency int
	NegativeLabel      string
	DigestTopN         int
}

// Assessor runs the materiality pipeline, synchronously or as a tracked job.
type Assessor struct {
	store     ports.ReferenceStore
	notifier  ports.Notifier
	tracker   *jobs.Tracker
	fetcher   *Fetcher
	noise     *dedup.NoiseFilter
	sentiment *sentiment.Labeler
	limits    planner.Limits
	location  *time.Location
	digestTop int
	logger    *slog.Logger
}

// NewAssessor constructs the pipeline.
func NewAssessor(deps AssessorDeps) *Assessor {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	lex := deps.Lexicon
	if lex == nil {
		lex = lexicon.Default()
	}
	tracker := deps.Tracker
	if tracker == nil {
		tracker = jobs.NewTracker(jobs.DefaultRetention)
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	topN := deps.DigestTopN
	if topN <= 0 {
		topN = defaultDigestTopN
	}

	return &Assessor{
		store:    deps.Store,
		notifier: deps.Notifier,
		tracker:  tracker,
		fetcher: NewFetcher(FetcherDeps{
			Searcher:    deps.Searcher,
			Concurrency: deps.FetchConcurrency,
			Logger:      logger,
		}),
		noise: dedup.NewNoiseFilter(lex),
		sentiment: sentiment.New(sentiment.Deps{
			Lexicon:       lex,
			Classifier:    deps.Classifier,
			NegativeLabel: deps.NegativeLabel,
			Concurrency:   deps.LabelerConcurrency,
			Logger:        logger,
		}),
		limits:    deps.Limits,
		location:  loc,
		digestTop: topN,
		logger:    logger.With("component", "assessor"),
	}
}

// Tracker exposes the job store, mainly for the periodic sweep.
func (a *Assessor) Tracker() *jobs.Tracker {
	return a.tracker
}

// Start launches an assessment in the background and returns its job ID.
// The job outlives ctx; it stops when swept or when the run finishes.
func (a *Assessor) Start(ctx context.Context, companyID int64, period domain.ReportPeriod) (string, error) {
	if err := validatePeriod(period); err != nil {
		return "", err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	job := a.tracker.Create("queued", cancel)
	log := a.logger.With("job", job.ID, "company_id", companyID)

	go func() {
		defer cancel()

		progress := func(pct int, message string) {
			if err := a.tracker.Progress(job.ID, pct, message); err != nil {
				log.Debug("progress update dropped", "error", err)
			}
		}

		result, err := a.execute(runCtx, companyID, period, progress)
		if err != nil {
			log.Error("assessment failed", "error", err)
			if tErr := a.tracker.Fail(job.ID, err); tErr != nil {
				log.Debug("job not updated", "error", tErr)
			}
			return
		}
		if tErr := a.tracker.Complete(job.ID, result); tErr != nil {
			log.Debug("job not updated", "error", tErr)
		}
	}()

	return job.ID, nil
}

// Status returns a snapshot of the job.
func (a *Assessor) Status(jobID string) (domain.Job, error) {
	return a.tracker.Get(jobID)
}

// Run executes the pipeline synchronously.
func (a *Assessor) Run(ctx context.Context, companyID int64, period domain.ReportPeriod) (*domain.AssessmentResult, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}
	return a.execute(ctx, companyID, period, func(int, string) {})
}

func validatePeriod(period domain.ReportPeriod) error {
	if period.Start.IsZero() || period.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidPeriod)
	}
	if period.End.Before(period.Start) {
		return fmt.Errorf("%w: end %s is before start %s", ErrInvalidPeriod,
			period.End.Format(time.DateOnly), period.Start.Format(time.DateOnly))
	}
	return nil
}

func (a *Assessor) execute(ctx context.Context, companyID int64, period domain.ReportPeriod, progress func(int, string)) (*domain.AssessmentResult, error) {
	if a.store == nil {
		return nil, fmt.Errorf("reference store is not configured")
	}

	corporation, err := a.store.GetCorporation(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("load corporation %d: %w", companyID, err)
	}
	categories, err := a.store.GetAllCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	issues, err := a.store.GetCorporationIssues(ctx, companyID, period.PoolYear())
	if err != nil {
		return nil, fmt.Errorf("load issue pool: %w", err)
	}
	progress(progressReference, "reference data loaded")

	plan, err := planner.Build(corporation.Name, categoryNames(categories), a.limits)
	if err != nil {
		return nil, fmt.Errorf("plan queries: %w", err)
	}

	progress(progressFetch, fmt.Sprintf("fetching %d queries", len(plan.Queries)))
	span := progressDedup - progressFetch
	report, err := a.fetcher.FetchWithProgress(ctx, plan.Queries, period, func(done, total int) {
		progress(progressFetch+span*done/total, fmt.Sprintf("fetched %d/%d queries", done, total))
	})
	if err != nil {
		return nil, fmt.Errorf("fetch articles: %w", err)
	}

	progress(progressDedup, "deduplicating")
	articles, stats := dedup.Process(report.Articles, a.noise, plan)
	a.logger.Info("articles filtered",
		"company", corporation.Name,
		"input", stats.Input,
		"noise", stats.Noise,
		"duplicates", stats.Duplicates,
		"output", stats.Output)

	progress(progressSentiment, "labeling sentiment")
	labeled := make([]domain.LabeledArticle, len(articles))
	for i, article := range articles {
		labeled[i] = domain.LabeledArticle{
			RawArticle:   article,
			CanonicalURL: dedup.CanonicalURL(article.OriginalLink),
		}
	}
	labeled, degraded, err := a.sentiment.LabelAll(ctx, labeled)
	if err != nil {
		return nil, fmt.Errorf("label sentiment: %w", err)
	}

	searchDate := period.End.In(a.location)
	labeled = relevance.New(relevance.Options{
		Company:          corporation.Name,
		SearchDate:       searchDate,
		YearCategories:   issueCategories(issues.YearIssues),
		CommonCategories: issueCategories(issues.CommonIssues),
		Location:         a.location,
	}).LabelAll(labeled)

	progress(progressScoring, "scoring categories")
	rankings := scoring.Score(labeled)

	result := &domain.AssessmentResult{
		CompanyID:       corporation.ID,
		Company:         corporation.Name,
		Period:          period,
		SearchDate:      searchDate,
		Queries:         len(plan.Queries),
		FailedQueries:   report.Failed,
		FetchedArticles: len(report.Articles),
		Articles:        len(labeled),
		Degraded:        degraded > 0,
		Rankings:        rankings,
	}

	a.publish(ctx, result)
	return result, nil
}

func (a *Assessor) publish(ctx context.Context, result *domain.AssessmentResult) {
	if a.notifier == nil || len(result.Rankings) == 0 {
		return
	}
	message := buildDigestMessage(result, a.digestTop)
	if err := a.notifier.PublishDigest(ctx, message); err != nil {
		a.logger.Warn("digest not delivered", "company", result.Company, "error", err)
	}
}

func buildDigestMessage(result *domain.AssessmentResult, topN int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* materiality %s ~ %s\n",
		result.Company,
		result.Period.Start.Format(time.DateOnly),
		result.Period.End.Format(time.DateOnly))

	for i, score := range result.Rankings {
		if i >= topN {
			break
		}
		fmt.Fprintf(&b, "%d. %s  final %.3f  (n=%d, negative %.2f)\n",
			i+1, score.Category, score.Final, score.Count, score.Negative)
	}
	if result.Degraded {
		b.WriteString("_sentiment: keyword fallback used_\n")
	}
	return b.String()
}

func categoryNames(categories []domain.Category) []string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return names
}

func issueCategories(issues []domain.Issue) []string {
	seen := make(map[string]struct{}, len(issues))
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		if issue.Category == "" {
			continue
		}
		if _, ok := seen[issue.Category]; ok {
			continue
		}
		seen[issue.Category] = struct{}{}
		out = append(out, issue.Category)
	}
	sort.Strings(out)
	return out
}
