package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/baserisk/scanguard/internal/config"
	"github.com/baserisk/scanguard/internal/dbx"
	"github.com/baserisk/scanguard/internal/evidence"
	"github.com/baserisk/scanguard/internal/httpapi/handler"
	"github.com/baserisk/scanguard/internal/httpapi/router"
	"github.com/baserisk/scanguard/internal/llmbridge"
	"github.com/baserisk/scanguard/internal/obs"
	"github.com/baserisk/scanguard/internal/obslog"
	"github.com/baserisk/scanguard/internal/pipeline"
	"github.com/baserisk/scanguard/internal/providers"
	"github.com/baserisk/scanguard/internal/queue"
	"github.com/baserisk/scanguard/internal/store"
	"github.com/baserisk/scanguard/internal/stream"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger: the production handler ships logs
	// through the OTel log provider.
	telemetry, err := obs.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}
	obslog.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "scanguard server starting", "env", cfg.Env, "port", cfg.Port)

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
	streamer := stream.NewStreamer(stores.Scans(), stores.Events())
	rpcClient := providers.NewRPCClient(cfg.ChainRPCURL)

	scanHandler := handler.NewScanHandler(stores.Scans(), stores.Events(), stores.Jobs(), rpcClient, worker, streamer, bridge, cfg)

	// Pick up any jobs left behind by a prior process (e.g. after a crash
	// between enqueue and claim) as soon as the server comes up.
	worker.Trigger()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if cfg.OTel.Enabled() {
		engine.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.SetupRoutes(engine, scanHandler, cfg.TraceHeaderName)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}
