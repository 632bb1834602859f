package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"MaterialityScanner/internal/app"
	"MaterialityScanner/internal/config"
	"MaterialityScanner/internal/domain"
	"MaterialityScanner/internal/logging"
)

type options struct {
	Config  string `long:"config" short:"c" env:"MATERIALITY_CONFIG" description:"Path to YAML config file"`
	Serve   bool   `long:"serve" description:"Run the HTTP API instead of a single assessment"`
	Company int64  `long:"company" description:"Corporation id to assess"`
	Start   string `long:"start" description:"Report period start (YYYY-MM-DD)"`
	End     string `long:"end" description:"Report period end (YYYY-MM-DD)"`
	Pretty  bool   `long:"pretty" description:"Indent JSON output"`
}

// errHelp signals that usage was printed and the process should exit cleanly.
var errHelp = errors.New("help requested")

func parseOptions(args []string) (options, error) {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return options{}, errHelp
		}
		return options{}, fmt.Errorf("parse flags: %w", err)
	}
	if !opts.Serve && (opts.Company == 0 || opts.Start == "" || opts.End == "") {
		return options{}, errors.New("--company, --start and --end are required unless --serve is set")
	}
	return opts, nil
}

func parsePeriod(start, end string, loc *time.Location) (domain.ReportPeriod, error) {
	s, err := time.ParseInLocation(time.DateOnly, start, loc)
	if err != nil {
		return domain.ReportPeriod{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	e, err := time.ParseInLocation(time.DateOnly, end, loc)
	if err != nil {
		return domain.ReportPeriod{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	return domain.ReportPeriod{Start: s, End: e}, nil
}

func writeResult(w io.Writer, result *domain.AssessmentResult, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

func run(ctx context.Context, opts options) error {
	cfg := config.LoadFile(opts.Config)
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close application", "error", err)
		}
	}()

	if opts.Serve {
		return application.Serve(ctx)
	}

	period, err := parsePeriod(opts.Start, opts.End, cfg.Location())
	if err != nil {
		return err
	}
	result, err := application.RunOnce(ctx, opts.Company, period)
	if err != nil {
		return err
	}
	return writeResult(os.Stdout, result, opts.Pretty)
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if errors.Is(err, errHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintln(os.Stderr, "materiality:", err)
		stop()
		os.Exit(1)
	}
}
