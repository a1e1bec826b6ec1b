package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/vinvit-2/exp-ai-account/catalog"
	"github.com/vinvit-2/exp-ai-account/internal/config"
	"github.com/vinvit-2/exp-ai-account/telemetry"
	"github.com/vinvit-2/exp-ai-account/ui"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	// The task must never start against a partial candidate set.
	candidates, err := catalog.Load(cfg.Experiment.CandidatesFile, cfg.Experiment.Candidates)
	if err != nil {
		logger.Fatal("failed to load candidate catalog", zap.Error(err))
	}
	logger.Info("candidate catalog loaded",
		zap.String("file", cfg.Experiment.CandidatesFile),
		zap.Int("candidates", len(candidates)))

	sink := buildSink(cfg, logger)

	server, err := ui.NewServer(cfg, candidates, sink, logger)
	if err != nil {
		logger.Fatal("failed to build server", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting hiring task UI", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

// buildSink picks the telemetry destination: webhook when LOG_URL/LOG_KEY
// are set, the local Postgres event store when only DATABASE_URL is set,
// and a no-op otherwise. Absent configuration disables logging silently,
// which is the supported local-testing mode.
func buildSink(cfg *config.Config, logger *zap.Logger) telemetry.Sink {
	if cfg.Telemetry.URL != "" && cfg.Telemetry.Key != "" {
		logger.Info("telemetry via webhook", zap.String("url", cfg.Telemetry.URL))
		return telemetry.NewWebhookSink(cfg.Telemetry.URL)
	}
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			logger.Warn("telemetry disabled: cannot connect to event store", zap.Error(err))
			return telemetry.NopSink{}
		}
		sink := telemetry.NewPostgresSink(db)
		if err := sink.EnsureSchema(context.Background()); err != nil {
			logger.Warn("telemetry disabled: cannot prepare event table", zap.Error(err))
			return telemetry.NopSink{}
		}
		logger.Info("telemetry via local event store")
		return sink
	}
	logger.Warn("telemetry disabled: LOG_URL/LOG_KEY not configured")
	return telemetry.NopSink{}
}

func newLogger() *zap.Logger {
	logConfig := zap.NewProductionConfig()
	if os.Getenv("LOG_LEVEL") == "debug" {
		logConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := logConfig.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
