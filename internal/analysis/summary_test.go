package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/vinvit-2/exp-ai-account/telemetry"
)

func decisionEvent(pid, api, alg string, score float64, decision string, override, rubricErr bool, rt float64) telemetry.Envelope {
	idx := 0
	cid := "c01"
	return telemetry.Envelope{
		ParticipantID: pid,
		ConditionAPI:  api,
		ConditionALG:  alg,
		TrialIndex:    &idx,
		CandidateID:   &cid,
		EventType:     "decision",
		Payload: map[string]any{
			"decision":     decision,
			"ai_score":     score,
			"override":     override,
			"rubric_error": rubricErr,
			"rt_ms":        rt,
		},
	}
}

func sessionEvent(pid, api, alg, eventType string) telemetry.Envelope {
	return telemetry.Envelope{
		ParticipantID: pid,
		ConditionAPI:  api,
		ConditionALG:  alg,
		EventType:     eventType,
		Payload:       map[string]any{},
	}
}

// Summarize buckets decision events per condition cell and ignores
// everything that is not a decision.
func TestSummarizeCells(t *testing.T) {
	events := []telemetry.Envelope{
		sessionEvent("p1", "HIGH_API", "BIASED", "session_start"),
		decisionEvent("p1", "HIGH_API", "BIASED", 103, "INVITE", false, false, 1000),
		decisionEvent("p1", "HIGH_API", "BIASED", 39, "NO_INVITE", false, false, 2000),
		decisionEvent("p1", "HIGH_API", "BIASED", 71, "NO_INVITE", true, true, 3000),
		sessionEvent("p1", "HIGH_API", "BIASED", "session_end"),
		sessionEvent("p2", "LOW_API", "JOB_MATCH", "session_start"),
		decisionEvent("p2", "LOW_API", "JOB_MATCH", 65, "INVITE", true, false, 500),
	}

	s := Summarize(events)

	if s.Events != 7 {
		t.Errorf("Events = %d, want 7", s.Events)
	}
	if s.Participants != 2 {
		t.Errorf("Participants = %d, want 2", s.Participants)
	}
	if s.Sessions != 1 {
		t.Errorf("Sessions = %d, want 1", s.Sessions)
	}
	if len(s.Cells) != 2 {
		t.Fatalf("got %d cells, want 2", len(s.Cells))
	}

	// Cells are sorted by disclosure then algorithm.
	high := s.Cells[0]
	if high.ConditionAPI != "HIGH_API" || high.ConditionALG != "BIASED" {
		t.Fatalf("unexpected cell order: %+v", s.Cells)
	}
	if high.Participants != 1 || high.Decisions != 3 {
		t.Errorf("high cell counts: %+v", high)
	}
	if got, want := high.InviteRate, 1.0/3.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("InviteRate = %v, want %v", got, want)
	}
	if got, want := high.OverrideRate, 1.0/3.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("OverrideRate = %v, want %v", got, want)
	}
	if got, want := high.RubricErrorRate, 1.0/3.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("RubricErrorRate = %v, want %v", got, want)
	}
	if got, want := high.MeanRTms, 2000.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("MeanRTms = %v, want %v", got, want)
	}
	if got, want := high.MedianRTms, 2000.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("MedianRTms = %v, want %v", got, want)
	}

	low := s.Cells[1]
	if low.Decisions != 1 || low.InviteRate != 1.0 {
		t.Errorf("low cell counts: %+v", low)
	}
}

// A score-aligned decision pattern produces a positive point-biserial
// correlation; a single decision produces 0 rather than NaN.
func TestScoreDecisionCorrelation(t *testing.T) {
	events := []telemetry.Envelope{
		decisionEvent("p1", "HIGH_API", "BIASED", 100, "INVITE", false, false, 1000),
		decisionEvent("p1", "HIGH_API", "BIASED", 90, "INVITE", false, false, 1000),
		decisionEvent("p1", "HIGH_API", "BIASED", 40, "NO_INVITE", false, false, 1000),
		decisionEvent("p1", "HIGH_API", "BIASED", 45, "NO_INVITE", false, false, 1000),
	}
	s := Summarize(events)
	if corr := s.Cells[0].ScoreDecisionCorr; corr <= 0.9 {
		t.Errorf("ScoreDecisionCorr = %v, want strongly positive", corr)
	}

	single := Summarize(events[:1])
	if corr := single.Cells[0].ScoreDecisionCorr; corr != 0 {
		t.Errorf("degenerate correlation = %v, want 0", corr)
	}

	// Constant invite series must not produce NaN either.
	constant := Summarize(events[:2])
	if corr := constant.Cells[0].ScoreDecisionCorr; math.IsNaN(corr) {
		t.Error("constant series produced NaN correlation")
	}
}

func TestReadEventsFailsOnMalformedLine(t *testing.T) {
	input := `{"event_type":"decision","participant_id":"p1","condition_api":"HIGH_API","condition_alg":"BIASED","trial_index":0,"payload":{}}

{not json`
	_, err := ReadEvents(strings.NewReader(input))
	if err == nil {
		t.Fatal("expected error for malformed line")
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("error should name the offending line, got %v", err)
	}
}

func TestReadEventsSkipsBlankLines(t *testing.T) {
	input := `{"event_type":"session_start","participant_id":"p1","payload":{}}

{"event_type":"session_end","participant_id":"p1","payload":{}}
`
	events, err := ReadEvents(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("read %d events, want 2", len(events))
	}
}

func TestDescribeMentionsEveryCell(t *testing.T) {
	s := Summarize([]telemetry.Envelope{
		decisionEvent("p1", "HIGH_API", "BIASED", 70, "INVITE", false, false, 100),
		decisionEvent("p2", "LOW_API", "JOB_MATCH", 70, "NO_INVITE", false, false, 100),
	})
	out := Describe(s)
	for _, want := range []string{"HIGH_API x BIASED", "LOW_API x JOB_MATCH", "participants: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("Describe output missing %q:\n%s", want, out)
		}
	}
}
