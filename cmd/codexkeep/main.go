// Command codexkeep runs one full manifest ingestion: fetch the current
// manifest, normalize every definition component into relational rows, load
// them in bounded transactional batches, and validate the result.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/Into-The-Grey/CodexKeep/internal/bungie"
	"github.com/Into-The-Grey/CodexKeep/internal/config"
	"github.com/Into-The-Grey/CodexKeep/internal/core"
	_ "github.com/Into-The-Grey/CodexKeep/internal/core/tables" // Register all tables
	"github.com/Into-The-Grey/CodexKeep/internal/diag"
	"github.com/Into-The-Grey/CodexKeep/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded",
		"batch_size", cfg.Pipeline.BatchSize,
		"locale", cfg.Pipeline.Locale,
		"run_timeout", cfg.Pipeline.RunTimeout,
		"tables", core.TableCount(),
	)

	// One run, bounded; SIGINT/SIGTERM cancels between batches.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Pipeline.RunTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		return 1
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		return 1
	}
	defer pool.Close()

	client := bungie.NewClient(cfg.API, cfg.Pipeline.Locale)

	// Pre-flight: both endpoints must answer before any work starts.
	if err := pool.Ping(ctx); err != nil {
		slog.Error("database ping failed", "error", err)
		return 1
	}
	if err := client.Ping(ctx); err != nil {
		slog.Error("api ping failed", "error", err)
		return 1
	}

	sink, err := diag.Open(cfg.Diagnostics.ErrorLog, cfg.Diagnostics.FindingsLog)
	if err != nil {
		slog.Error("failed to open diagnostics sink", "error", err)
		return 1
	}
	defer sink.Close()

	pipeline := core.NewPipeline(client, core.PoolDB{Pool: pool}, cfg.Pipeline.BatchSize, sink)
	report := pipeline.Run(ctx)

	switch report.Outcome() {
	case core.OutcomeFatal:
		return 1
	case core.OutcomeWithWarnings:
		slog.Warn("run completed with warnings",
			"error_log", cfg.Diagnostics.ErrorLog,
			"findings_log", cfg.Diagnostics.FindingsLog,
		)
		return 0
	default:
		return 0
	}
}
