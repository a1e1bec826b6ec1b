// Package telemetry ships interaction events to the configured logging
// endpoint. Delivery is best-effort: a missing configuration
// disables logging, and any delivery failure is swallowed so the task flow
// is never interrupted by a slow or unreachable backend.
package telemetry

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vinvit-2/exp-ai-account/domain/assign"
	"github.com/vinvit-2/exp-ai-account/domain/trial"
	"github.com/vinvit-2/exp-ai-account/internal/metrics"
)

// Envelope is the wire format of one logged event. TrialIndex and
// CandidateID are null for session-level events.
type Envelope struct {
	Key           string         `json:"key"`
	TsMs          int64          `json:"ts_ms"`
	ParticipantID string         `json:"participant_id"`
	ConditionAPI  string         `json:"condition_api"`
	ConditionALG  string         `json:"condition_alg"`
	TrialIndex    *int           `json:"trial_index"`
	CandidateID   *string        `json:"candidate_id"`
	EventType     string         `json:"event_type"`
	Payload       map[string]any `json:"payload"`
}

// Sink delivers one envelope. Implementations own their transport and
// timeout; the returned error is logged and discarded by the emitter.
type Sink interface {
	Deliver(ctx context.Context, env Envelope) error
}

// NopSink drops every event. Used when logging is not configured.
type NopSink struct{}

// Deliver discards the envelope.
func (NopSink) Deliver(ctx context.Context, env Envelope) error { return nil }

// Emitter stamps events with the session identity and condition and writes
// them through a sink. It implements trial.Recorder.
type Emitter struct {
	sink          Sink
	key           string
	participantID string
	condition     assign.Condition
	timeout       time.Duration
	logger        *zap.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

// NewEmitter builds an emitter for one session. sink may be NopSink{} when
// logging is disabled; logger must not be nil (use zap.NewNop in tests).
func NewEmitter(sink Sink, key, participantID string, cond assign.Condition, timeout time.Duration, logger *zap.Logger) *Emitter {
	return &Emitter{
		sink:          sink,
		key:           key,
		participantID: participantID,
		condition:     cond,
		timeout:       timeout,
		logger:        logger,
		metrics:       metrics.NewMetrics(),
		now:           time.Now,
	}
}

// Record implements trial.Recorder. Failures are counted and logged at
// debug, never surfaced: losing an event degrades logging completeness but
// must not block decision-making.
func (e *Emitter) Record(event trial.Event) {
	env := Envelope{
		Key:           e.key,
		TsMs:          e.now().UnixMilli(),
		ParticipantID: e.participantID,
		ConditionAPI:  string(e.condition.Disclosure),
		ConditionALG:  string(e.condition.Algorithm),
		TrialIndex:    event.TrialIndex,
		EventType:     string(event.Type),
		Payload:       event.Payload,
	}
	if event.CandidateID != "" {
		id := event.CandidateID
		env.CandidateID = &id
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	if err := e.sink.Deliver(ctx, env); err != nil {
		e.metrics.EventsDropped.WithLabelValues(env.EventType).Inc()
		e.logger.Debug("telemetry delivery failed",
			zap.String("event_type", env.EventType),
			zap.Error(err))
		return
	}
	e.metrics.EventsDelivered.WithLabelValues(env.EventType).Inc()
}
