package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/subsidy-tracker/internal/async"
	"github.com/joseph-ayodele/subsidy-tracker/internal/common"
	"github.com/joseph-ayodele/subsidy-tracker/internal/core"
	"github.com/joseph-ayodele/subsidy-tracker/internal/export"
	"github.com/joseph-ayodele/subsidy-tracker/internal/ingest"
	repo "github.com/joseph-ayodele/subsidy-tracker/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		inmem   = flag.Bool("inmem", false, "use in-memory SQLite database")
		input   = flag.String("input", "", "JSONL file of raw extraction payloads (required)")
		out     = flag.String("out", "", "output XLSX file path (optional)")
		workers = flag.Int("workers", 0, "worker pool size (overrides BATCH_WORKERS)")
	)
	flag.Parse()

	if *input == "" {
		printError("Error: --input is required\n")
		os.Exit(1)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded .env file")
	}

	cfg := common.LoadConfig()
	if *inmem {
		cfg.Database.DSN = ":memory:"
	}
	if *workers > 0 {
		cfg.Batch.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, pool, err := repo.Open(ctx, repo.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		printError("Error: opening DB: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close(db, pool, logger)

	if err := repo.Migrate(ctx, db, logger); err != nil {
		printError("Error: migrating DB: %v\n", err)
		os.Exit(1)
	}

	subsidies := repo.NewSubsidyRepository(db, logger)
	rawLogs := repo.NewRawLogRepository(db, logger)
	proc := core.NewProcessor(logger, subsidies, rawLogs)

	queue := async.NewProcessorQueue(proc, logger,
		async.WithWorkers(cfg.Batch.Workers),
		async.WithQueueSize(cfg.Batch.QueueSize),
		async.WithProcessTimeout(cfg.Batch.ProcessTimeout),
	)

	f, err := os.Open(*input)
	if err != nil {
		printError("Error: opening input: %v\n", err)
		os.Exit(1)
	}

	reader := ingest.NewReader(logger)
	count, err := reader.Read(ctx, f, func(in core.RawInput) error {
		return queue.Enqueue(ctx, async.Job{Input: in, SubmittedAt: time.Now()})
	})
	_ = f.Close()
	if err != nil {
		printError("Error: reading input: %v\n", err)
	}
	logger.Info("batch enqueued", "payloads", count)

	// wait for the workers to drain before exporting
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	queue.Shutdown(shutdownCtx)
	cancel()

	if *out != "" {
		svc := export.NewService(subsidies, logger)
		data, err := svc.ExportSubsidiesXLSX(ctx)
		if err != nil {
			printError("Error: exporting: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			printError("Error: writing %s: %v\n", *out, err)
			os.Exit(1)
		}
		logger.Info("export written", "path", *out)
	}
}
