// Package analysis computes post-hoc summaries over a telemetry event
// export. It consumes the JSONL format the collector writes and produces
// per-condition-cell decision statistics for the research team.
package analysis

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/vinvit-2/exp-ai-account/internal/errors"
	"github.com/vinvit-2/exp-ai-account/telemetry"
)

// CellSummary aggregates decision events for one cell of the 2x2 design.
type CellSummary struct {
	ConditionAPI string
	ConditionALG string

	Participants int
	Decisions    int

	InviteRate      float64
	OverrideRate    float64
	RubricErrorRate float64

	MeanRTms   float64
	MedianRTms float64

	// ScoreDecisionCorr is the point-biserial correlation between the AI
	// score and the human invite decision: how strongly the shown score
	// pulled the decision.
	ScoreDecisionCorr float64
}

// Summary is the full report over one event export.
type Summary struct {
	Events       int
	Participants int
	Sessions     int
	Cells        []CellSummary
}

// ReadEvents parses a JSONL event export. Blank lines are skipped; a
// malformed line fails the whole read since a partial analysis is worse
// than none.
func ReadEvents(r io.Reader) ([]telemetry.Envelope, error) {
	var events []telemetry.Envelope
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var env telemetry.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, errors.Wrapf(err, "malformed event on line %d", line)
		}
		events = append(events, env)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read event export")
	}
	return events, nil
}

type cellKey struct {
	api string
	alg string
}

// Summarize aggregates decision events per condition cell.
func Summarize(events []telemetry.Envelope) Summary {
	summary := Summary{Events: len(events)}

	participants := make(map[string]bool)
	sessions := 0
	type cellData struct {
		participants map[string]bool
		invites      int
		overrides    int
		rubricErrors int
		rts          []float64
		scores       []float64
		invited      []float64
	}
	cells := make(map[cellKey]*cellData)

	for _, env := range events {
		participants[env.ParticipantID] = true
		if env.EventType == "session_end" {
			sessions++
		}
		if env.EventType != "decision" {
			continue
		}
		key := cellKey{api: env.ConditionAPI, alg: env.ConditionALG}
		cell, ok := cells[key]
		if !ok {
			cell = &cellData{participants: make(map[string]bool)}
			cells[key] = cell
		}
		cell.participants[env.ParticipantID] = true

		decision := payloadString(env.Payload, "decision")
		invited := 0.0
		if decision == "INVITE" {
			cell.invites++
			invited = 1.0
		}
		if payloadBool(env.Payload, "override") {
			cell.overrides++
		}
		if payloadBool(env.Payload, "rubric_error") {
			cell.rubricErrors++
		}
		cell.rts = append(cell.rts, payloadFloat(env.Payload, "rt_ms"))
		cell.scores = append(cell.scores, payloadFloat(env.Payload, "ai_score"))
		cell.invited = append(cell.invited, invited)
	}

	keys := make([]cellKey, 0, len(cells))
	for key := range cells {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].api != keys[j].api {
			return keys[i].api < keys[j].api
		}
		return keys[i].alg < keys[j].alg
	})

	for _, key := range keys {
		cell := cells[key]
		n := len(cell.rts)
		cs := CellSummary{
			ConditionAPI: key.api,
			ConditionALG: key.alg,
			Participants: len(cell.participants),
			Decisions:    n,
		}
		if n > 0 {
			cs.InviteRate = float64(cell.invites) / float64(n)
			cs.OverrideRate = float64(cell.overrides) / float64(n)
			cs.RubricErrorRate = float64(cell.rubricErrors) / float64(n)
			cs.MeanRTms, _ = stats.Mean(cell.rts)
			cs.MedianRTms, _ = stats.Median(cell.rts)
			cs.ScoreDecisionCorr = safeCorrelation(cell.scores, cell.invited)
		}
		summary.Cells = append(summary.Cells, cs)
	}

	summary.Participants = len(participants)
	summary.Sessions = sessions
	return summary
}

// safeCorrelation guards gonum against degenerate inputs: fewer than two
// observations or a constant series yields 0 rather than NaN.
func safeCorrelation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

func payloadString(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func payloadBool(payload map[string]any, key string) bool {
	if v, ok := payload[key].(bool); ok {
		return v
	}
	return false
}

func payloadFloat(payload map[string]any, key string) float64 {
	switch v := payload[key].(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	case int:
		return float64(v)
	}
	return 0
}

// Describe renders a short plain-text report, used by the CLI.
func Describe(s Summary) string {
	out := fmt.Sprintf("events: %d, participants: %d, completed sessions: %d\n", s.Events, s.Participants, s.Sessions)
	for _, c := range s.Cells {
		out += fmt.Sprintf("%s x %s: n=%d decisions=%d invite=%.2f override=%.2f rubric_err=%.2f mean_rt=%.0fms corr=%.2f\n",
			c.ConditionAPI, c.ConditionALG, c.Participants, c.Decisions,
			c.InviteRate, c.OverrideRate, c.RubricErrorRate, c.MeanRTms, c.ScoreDecisionCorr)
	}
	return out
}
