// Package collector implements the telemetry endpoint contract for labs
// that self-host event logging instead of pointing LOG_URL at a
// spreadsheet web-app. It validates the shared key and stores envelopes
// in Postgres or a JSONL file.
package collector

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/vinvit-2/exp-ai-account/telemetry"
)

// App is the collector HTTP application.
type App struct {
	router *chi.Mux
	key    string
	store  telemetry.Sink
	logger *zap.Logger
}

// NewApp creates a collector that authenticates incoming envelopes against
// key and persists them through store.
func NewApp(key string, store telemetry.Sink, logger *zap.Logger) *App {
	app := &App{
		router: chi.NewRouter(),
		key:    key,
		store:  store,
		logger: logger,
	}
	app.router.Use(middleware.Logger)
	app.router.Use(middleware.Recoverer)

	app.router.Post("/log", app.handleLog)
	app.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return app
}

// Handler returns the router for serving and for httptest.
func (a *App) Handler() http.Handler {
	return a.router
}

func (a *App) handleLog(w http.ResponseWriter, r *http.Request) {
	var env telemetry.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if a.key == "" || env.Key != a.key {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	// The shared key authenticates the sender; it has no place in storage.
	env.Key = ""

	if err := a.store.Deliver(r.Context(), env); err != nil {
		a.logger.Error("failed to store event",
			zap.String("event_type", env.EventType),
			zap.Error(err))
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
