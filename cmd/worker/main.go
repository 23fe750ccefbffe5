package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baserisk/scanguard/internal/config"
	"github.com/baserisk/scanguard/internal/dbx"
	"github.com/baserisk/scanguard/internal/evidence"
	"github.com/baserisk/scanguard/internal/llmbridge"
	"github.com/baserisk/scanguard/internal/obs"
	"github.com/baserisk/scanguard/internal/obslog"
	"github.com/baserisk/scanguard/internal/pipeline"
	"github.com/baserisk/scanguard/internal/queue"
	"github.com/baserisk/scanguard/internal/store"
)

// pollInterval is the backstop cadence at which this process checks for
// pending jobs left behind by a server instance (or a prior worker) that
// exited before draining the queue. The server also calls Trigger directly
// on enqueue, so this is a safety net, not the primary dispatch path.
const pollInterval = 3 * time.Second

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := obs.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}
	obslog.Setup(cfg)

	slog.InfoContext(ctx, "scanguard worker starting", "env", cfg.Env)

	if !cfg.LLMConfigured() {
		slog.WarnContext(ctx, "LLM_API_KEY not set; runs will use deterministic planner/assessor fallbacks")
	}

	database, err := dbx.New(ctx, dbx.Config(cfg.DB))
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	stores := store.NewStores(database.Pool())

	registry := evidence.BuildRegistry(cfg, evidence.BuildClients(cfg))
	bridge := llmbridge.NewBridge(cfg)
	runner := pipeline.NewRunner(stores.Scans(), stores.Events(), registry, bridge, cfg)

	worker := queue.NewWorker(stores.Jobs(), runner)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	worker.Trigger()
	slog.InfoContext(ctx, "worker loop started", "poll_interval", pollInterval)

pollLoop:
	for {
		select {
		case <-ticker.C:
			worker.Trigger()
		case <-quit:
			break pollLoop
		}
	}

	slog.InfoContext(ctx, "shutdown signal received, waiting for in-flight run to finish...")

	shutdownDeadline := time.Now().Add(30 * time.Second)
	for worker.IsRunning() && time.Now().Before(shutdownDeadline) {
		time.Sleep(200 * time.Millisecond)
	}
	if worker.IsRunning() {
		slog.WarnContext(ctx, "shutdown timeout exceeded with a run still in flight")
	}

	if telemetry != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "shutdown complete")
}
