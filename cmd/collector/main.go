// The collector serves the telemetry endpoint contract for self-hosted
// deployments: it authenticates the shared key and stores events in
// Postgres (DATABASE_URL) or a JSONL file (EVENTS_FILE).
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
	"golang.org/x/sync/errgroup"

	"github.com/vinvit-2/exp-ai-account/internal/collector"
	"github.com/vinvit-2/exp-ai-account/telemetry"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	key := os.Getenv("LOG_KEY")
	if key == "" {
		logger.Fatal("LOG_KEY is required")
	}

	store, cleanup, err := buildStore(logger)
	if err != nil {
		logger.Fatal("failed to set up event store", zap.Error(err))
	}
	defer cleanup()

	app := collector.NewApp(key, store, logger)

	port := os.Getenv("COLLECTOR_PORT")
	if port == "" {
		port = "8090"
	}
	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: app.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting telemetry collector", zap.String("addr", httpServer.Addr))
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
		logger.Fatal("collector failed", zap.Error(err))
	}
}

func buildStore(logger *zap.Logger) (telemetry.Sink, func(), error) {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		db, err := sqlx.Connect("postgres", dbURL)
		if err != nil {
			return nil, nil, err
		}
		sink := telemetry.NewPostgresSink(db)
		if err := sink.EnsureSchema(context.Background()); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("storing events in postgres")
		return sink, func() { db.Close() }, nil
	}

	path := os.Getenv("EVENTS_FILE")
	if path == "" {
		path = "events.jsonl"
	}
	store, err := collector.NewJSONLStore(path)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("storing events in jsonl file", zap.String("path", path))
	return store, func() { store.Close() }, nil
}
