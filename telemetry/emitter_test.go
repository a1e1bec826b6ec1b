package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vinvit-2/exp-ai-account/domain/assign"
	"github.com/vinvit-2/exp-ai-account/domain/trial"
)

func testCondition() assign.Condition {
	return assign.Condition{Disclosure: assign.DisclosureHigh, Algorithm: assign.AlgorithmBiased}
}

func TestWebhookSinkDelivers(t *testing.T) {
	received := make(chan Envelope, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		var env Envelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			t.Errorf("bad body: %v", err)
		}
		received <- env
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	emitter := NewEmitter(NewWebhookSink(server.URL), "shared-key", "00000004000000000000000000000000",
		testCondition(), 2*time.Second, zap.NewNop())

	idx := 3
	emitter.Record(trial.Event{
		Type:        trial.EventDecision,
		TrialIndex:  &idx,
		CandidateID: "c07",
		Payload:     map[string]any{"decision": "INVITE"},
	})

	select {
	case env := <-received:
		if env.Key != "shared-key" {
			t.Errorf("key = %q", env.Key)
		}
		if env.ParticipantID != "00000004000000000000000000000000" {
			t.Errorf("participant = %q", env.ParticipantID)
		}
		if env.ConditionAPI != "HIGH_API" || env.ConditionALG != "BIASED" {
			t.Errorf("condition = %s/%s", env.ConditionAPI, env.ConditionALG)
		}
		if env.TrialIndex == nil || *env.TrialIndex != 3 {
			t.Errorf("trial index = %v", env.TrialIndex)
		}
		if env.CandidateID == nil || *env.CandidateID != "c07" {
			t.Errorf("candidate id = %v", env.CandidateID)
		}
		if env.EventType != "decision" {
			t.Errorf("event type = %q", env.EventType)
		}
		if env.TsMs == 0 {
			t.Errorf("missing timestamp")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("event never delivered")
	}
}

func TestSessionEventHasNullTrialFields(t *testing.T) {
	bodies := make(chan []byte, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := make([]byte, r.ContentLength)
		_, _ = io.ReadFull(r.Body, raw)
		bodies <- raw
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	emitter := NewEmitter(NewWebhookSink(server.URL), "k", "00000004000000000000000000000000",
		testCondition(), 2*time.Second, zap.NewNop())
	emitter.Record(trial.Event{Type: trial.EventSessionStart, Payload: map[string]any{}})

	var decoded map[string]any
	if err := json.Unmarshal(<-bodies, &decoded); err != nil {
		t.Fatalf("bad round-trip: %v", err)
	}
	if v, ok := decoded["trial_index"]; !ok || v != nil {
		t.Errorf("trial_index should be present and null, got %v", v)
	}
	if v, ok := decoded["candidate_id"]; !ok || v != nil {
		t.Errorf("candidate_id should be present and null, got %v", v)
	}
}

func TestDeliveryFailuresAreSwallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	emitter := NewEmitter(NewWebhookSink(server.URL), "k", "00000004000000000000000000000000",
		testCondition(), time.Second, zap.NewNop())

	// Must not panic or surface anything.
	emitter.Record(trial.Event{Type: trial.EventTrialStart, Payload: map[string]any{}})

	// Unreachable endpoint: same contract.
	dead := NewEmitter(NewWebhookSink("http://127.0.0.1:1/log"), "k", "00000004000000000000000000000000",
		testCondition(), 100*time.Millisecond, zap.NewNop())
	dead.Record(trial.Event{Type: trial.EventTrialStart, Payload: map[string]any{}})
}

func TestNopSink(t *testing.T) {
	if err := (NopSink{}).Deliver(context.Background(), Envelope{}); err != nil {
		t.Errorf("NopSink must never fail: %v", err)
	}
}
