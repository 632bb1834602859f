package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"MaterialityScanner/internal/config"
	"MaterialityScanner/internal/domain"
	"MaterialityScanner/internal/httpapi"
	"MaterialityScanner/internal/infrastructure/cache"
	"MaterialityScanner/internal/infrastructure/ml"
	"MaterialityScanner/internal/infrastructure/newsapi"
	"MaterialityScanner/internal/infrastructure/scheduler"
	"MaterialityScanner/internal/infrastructure/storage"
	"MaterialityScanner/internal/infrastructure/telegram"
	"MaterialityScanner/internal/jobs"
	"MaterialityScanner/internal/lexicon"
	"MaterialityScanner/internal/logging"
	"MaterialityScanner/internal/planner"
	"MaterialityScanner/internal/ports"
	"MaterialityScanner/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	assessor *usecase.Assessor
	sweeper  *usecase.Sweeper
	closers  []func() error
}

// New builds the application and connects its adapters.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	lex, err := lexicon.Load(cfg.Lexicon.Path)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	baseLogger.Info("lexicon loaded", "version", lex.Version,
		"negative", len(lex.Negative), "positive", len(lex.Positive), "noise", len(lex.Noise))

	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open reference store: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	if cfg.Database.Driver == storage.DriverSQLite {
		if err := storage.EnsureSchema(ctx, db); err != nil {
			a.Close()
			return nil, err
		}
	}
	store := storage.NewReferenceRepository(db, cfg.Database.Driver)

	opts := []newsapi.Option{
		newsapi.WithLogger(baseLogger),
		newsapi.WithLocation(cfg.Location()),
	}
	if cfg.Redis.Addr != "" {
		pageCache, err := cache.NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			baseLogger.Warn("search cache disabled", "error", err)
		} else {
			a.closers = append(a.closers, pageCache.Close)
			opts = append(opts, newsapi.WithCache(pageCache))
		}
	}

	searcher, err := newsapi.NewClient(cfg.NewsAPI, opts...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("news api client: %w", err)
	}

	var classifier ports.Classifier
	if cfg.Classifier.InferenceURL != "" {
		classifier = ml.NewClient(cfg.Classifier.InferenceURL, cfg.Classifier.APIKey, cfg.Classifier.Timeout)
	} else {
		baseLogger.Warn("classifier not configured, sentiment uses keyword heuristic")
	}

	var notifier ports.Notifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}

	tracker := jobs.NewTracker(cfg.Jobs.Retention)

	a.assessor = usecase.NewAssessor(usecase.AssessorDeps{
		Store:      store,
		Searcher:   searcher,
		Classifier: classifier,
		Notifier:   notifier,
		Tracker:    tracker,
		Lexicon:    lex,
		Logger:     baseLogger,
		Location:   cfg.Location(),
		Limits: planner.Limits{
			PerIssue:    cfg.Fetch.MaxPerIssue,
			CompanyOnly: cfg.Fetch.MaxCompanyOnly,
		},
		FetchConcurrency:   cfg.Fetch.Concurrency,
		LabelerConcurrency: cfg.Fetch.LabelerConcurrency,
		NegativeLabel:      cfg.Classifier.NegativeLabel,
		DigestTopN:         cfg.Telegram.TopN,
	})
	a.sweeper = usecase.NewSweeper(scheduler.NewTicker(cfg.Jobs.SweepInterval), tracker, baseLogger)

	return a, nil
}

// RunOnce executes a single assessment synchronously.
func (a *Application) RunOnce(ctx context.Context, companyID int64, period domain.ReportPeriod) (*domain.AssessmentResult, error) {
	return a.assessor.Run(ctx, companyID, period)
}

// Serve exposes the HTTP API and runs the job sweep until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}

	handler := httpapi.NewHandler(a.assessor, a.cfg.Location(), a.logger)
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           httpapi.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		serveErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown", "error", err)
	}
	if err := a.sweeper.Stop(shutdownCtx); err != nil {
		a.logger.Warn("sweeper stop", "error", err)
	}

	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	return nil
}

// Close releases database and cache connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
