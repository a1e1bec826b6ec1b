package telemetry

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"github.com/vinvit-2/exp-ai-account/internal/errors"
)

// PostgresSink stores envelopes in a local event table instead of posting
// to a webhook. Used by labs that run their own collector.
type PostgresSink struct {
	db *sqlx.DB
}

// NewPostgresSink creates a sink writing to db.
func NewPostgresSink(db *sqlx.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

// EnsureSchema creates the event table if it does not exist.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS telemetry_events (
			id BIGSERIAL PRIMARY KEY,
			ts_ms BIGINT NOT NULL,
			participant_id TEXT NOT NULL,
			condition_api TEXT NOT NULL,
			condition_alg TEXT NOT NULL,
			trial_index INT,
			candidate_id TEXT,
			event_type TEXT NOT NULL,
			payload JSONB NOT NULL DEFAULT '{}',
			received_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to create telemetry_events table")
	}
	return nil
}

// Deliver inserts one envelope.
func (s *PostgresSink) Deliver(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env.Payload)
	if err != nil {
		return errors.Wrap(err, "failed to encode payload")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO telemetry_events (ts_ms, participant_id, condition_api, condition_alg, trial_index, candidate_id, event_type, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, env.TsMs, env.ParticipantID, env.ConditionAPI, env.ConditionALG, env.TrialIndex, env.CandidateID, env.EventType, payload)
	if err != nil {
		return errors.Wrap(err, "failed to insert telemetry event")
	}
	return nil
}
