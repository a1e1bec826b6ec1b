// Package trial holds the per-session state machine for the hiring task.
//
// A Session is the single source of truth for one participant: condition,
// trial order, current trial state, and the shortlist counter. There are no
// package-level globals; handlers thread the session through every call.
// Each trial moves through: awaiting decision -> decision locked
// [-> awaiting justification -> justified] -> advancing.
package trial

import (
	"strings"
	"time"

	"github.com/vinvit-2/exp-ai-account/catalog"
	"github.com/vinvit-2/exp-ai-account/domain/assign"
	"github.com/vinvit-2/exp-ai-account/domain/scoring"
	"github.com/vinvit-2/exp-ai-account/internal/errors"
)

// EventType names one telemetry event.
type EventType string

const (
	EventSessionStart          EventType = "session_start"
	EventSessionEnd            EventType = "session_end"
	EventTrialStart            EventType = "trial_start"
	EventDecision              EventType = "decision"
	EventOverrideJustification EventType = "override_justification"
	EventDetailOpen            EventType = "detail_open"
	EventDetailClose           EventType = "detail_close"
	EventFlagReview            EventType = "flag_review"
)

// Event is one observed transition. TrialIndex is nil for session-level
// events (session_start, session_end).
type Event struct {
	Type        EventType
	TrialIndex  *int
	CandidateID string
	Payload     map[string]any
}

// Recorder receives every event the state machine produces. Implementations
// must never fail the caller; delivery problems are theirs to swallow.
type Recorder interface {
	Record(event Event)
}

// Params fixes the experiment design constants for a session.
type Params struct {
	ShortlistCap    int
	ExpectedMinutes int
	Scoring         scoring.Params
}

// Session is the complete state for one participant working through the
// trial sequence. Not safe for concurrent use; the serving layer serializes
// access per participant.
type Session struct {
	participantID string
	seed          int64
	condition     assign.Condition
	candidates    []catalog.Candidate
	order         []int
	params        Params
	recorder      Recorder

	index       int
	shortlisted int
	taskStart   time.Time
	trialStart  time.Time

	locked               bool
	pendingJustification bool
	detailsOpenedAt      time.Time
	lastCandidateID      string
	ai                   scoring.Result
	truth                scoring.Decision
	ended                bool
}

// NewSession derives the deterministic assignment for participantID and
// emits session_start. The candidate slice is the validated catalog.
func NewSession(participantID string, candidates []catalog.Candidate, params Params, recorder Recorder, now time.Time) (*Session, error) {
	seed, err := assign.DeriveSeed(participantID)
	if err != nil {
		return nil, err
	}
	s := &Session{
		participantID: participantID,
		seed:          seed,
		condition:     assign.AssignCondition(seed),
		candidates:    candidates,
		order:         assign.ShuffleOrder(seed, len(candidates)),
		params:        params,
		recorder:      recorder,
		taskStart:     now,
		trialStart:    now,
	}
	s.record(EventSessionStart, nil, "", map[string]any{
		"soft_expected_minutes": params.ExpectedMinutes,
	})
	return s, nil
}

// ParticipantID returns the stable participant identifier.
func (s *Session) ParticipantID() string { return s.participantID }

// Seed returns the derived assignment seed.
func (s *Session) Seed() int64 { return s.seed }

// Condition returns the fixed condition cell for this session.
func (s *Session) Condition() assign.Condition { return s.condition }

// TrialIndex returns the zero-based index of the current trial.
func (s *Session) TrialIndex() int { return s.index }

// TrialCount returns the total number of trials.
func (s *Session) TrialCount() int { return len(s.candidates) }

// Shortlisted returns how many candidates have been invited so far.
func (s *Session) Shortlisted() int { return s.shortlisted }

// ShortlistCap returns the maximum number of invites.
func (s *Session) ShortlistCap() int { return s.params.ShortlistCap }

// Completed reports whether all trials are done.
func (s *Session) Completed() bool { return s.index >= len(s.candidates) }

// Current returns the candidate under review. ok is false once the
// sequence is complete.
func (s *Session) Current() (c catalog.Candidate, ok bool) {
	if s.Completed() {
		return catalog.Candidate{}, false
	}
	return s.candidates[s.order[s.index]], true
}

// Enter registers the first render of the current trial: it resets the
// trial clock, caches the AI output and rubric truth, clears the detail
// timestamp, and emits trial_start. Re-rendering the same candidate is a
// no-op, so refreshes neither recompute the AI output nor duplicate events.
func (s *Session) Enter(now time.Time) {
	cand, ok := s.Current()
	if !ok || s.lastCandidateID == cand.CandidateID {
		return
	}
	s.trialStart = now
	s.ai = scoring.Score(cand, s.condition.Algorithm, s.params.Scoring)
	s.truth = scoring.RubricTruth(cand)
	s.lastCandidateID = cand.CandidateID
	s.detailsOpenedAt = time.Time{}
	s.recordTrial(EventTrialStart, cand.CandidateID, map[string]any{
		"case_type":    cand.CaseType,
		"pair_id":      cand.PairID,
		"demo_group":   cand.DemoGroup,
		"ai_score":     s.ai.Score,
		"ai_rec":       string(s.ai.Recommendation),
		"rubric_truth": string(s.truth),
	})
}

// AI returns the cached AI output for the current trial.
func (s *Session) AI() scoring.Result { return s.ai }

// Truth returns the cached rubric ground truth for the current trial.
func (s *Session) Truth() scoring.Decision { return s.truth }

// DecisionLocked reports whether a decision has been made on this trial.
func (s *Session) DecisionLocked() bool { return s.locked }

// PendingJustification reports whether an override justification is owed.
func (s *Session) PendingJustification() bool { return s.pendingJustification }

// ShortlistFull reports whether the invite cap has been reached.
func (s *Session) ShortlistFull() bool { return s.shortlisted >= s.params.ShortlistCap }

// CanInvite reports whether the invite control is enabled.
func (s *Session) CanInvite() bool { return !s.locked && !s.ShortlistFull() }

// CanReject reports whether the reject control is enabled.
func (s *Session) CanReject() bool { return !s.locked }

// CanAdvance reports whether the next-candidate control is enabled.
func (s *Session) CanAdvance() bool { return s.locked && !s.pendingJustification }

// Decide records the participant's decision for the current trial. Invite
// is rejected once the shortlist cap is reached; either decision is
// rejected after the trial is locked. In the high-disclosure condition a
// decision that overrides the AI recommendation opens the justification
// gate, which blocks advancing until satisfied.
func (s *Session) Decide(decision scoring.Decision, now time.Time) error {
	cand, ok := s.Current()
	if !ok {
		return errors.SessionInvalid("session already completed")
	}
	if s.locked {
		return errors.SessionInvalid("decision already locked for this trial")
	}
	if decision == scoring.Invite && s.ShortlistFull() {
		return errors.SessionInvalid("shortlist cap reached")
	}
	if decision != scoring.Invite && decision != scoring.NoInvite {
		return errors.ValidationError("unknown decision")
	}

	rt := now.Sub(s.trialStart).Milliseconds()
	agree := decision == s.ai.Recommendation
	if decision == scoring.Invite {
		s.shortlisted++
	}
	s.recordTrial(EventDecision, cand.CandidateID, map[string]any{
		"decision":     string(decision),
		"ai_rec":       string(s.ai.Recommendation),
		"agree":        agree,
		"override":     !agree,
		"rt_ms":        rt,
		"ai_score":     s.ai.Score,
		"rubric_truth": string(s.truth),
		"rubric_error": decision != s.truth,
		"case_type":    cand.CaseType,
		"pair_id":      cand.PairID,
		"demo_group":   cand.DemoGroup,
	})
	s.locked = true
	if s.condition.Disclosure == assign.DisclosureHigh && !agree {
		s.pendingJustification = true
	}
	return nil
}

// SubmitJustification accepts the override justification text. Anything
// shorter than 5 characters after trimming is rejected and the gate stays
// open.
func (s *Session) SubmitJustification(text string, now time.Time) error {
	if !s.pendingJustification {
		return errors.SessionInvalid("no justification pending")
	}
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 5 {
		return errors.ValidationError("please write one short sentence")
	}
	cand, _ := s.Current()
	s.recordTrial(EventOverrideJustification, cand.CandidateID, map[string]any{
		"text": trimmed,
	})
	s.pendingJustification = false
	return nil
}

// DetailsOpen reports whether the full-CV panel is open.
func (s *Session) DetailsOpen() bool { return !s.detailsOpenedAt.IsZero() }

// OpenDetails opens the full-CV panel, recording the open timestamp and
// emitting detail_open the first time per trial.
func (s *Session) OpenDetails(now time.Time) {
	if s.DetailsOpen() {
		return
	}
	cand, ok := s.Current()
	if !ok {
		return
	}
	s.detailsOpenedAt = now
	s.recordTrial(EventDetailOpen, cand.CandidateID, map[string]any{})
}

// CloseDetails closes the full-CV panel and emits detail_close with the
// open duration. auto marks closes forced by advancing to the next trial.
func (s *Session) CloseDetails(now time.Time, auto bool) {
	if !s.DetailsOpen() {
		return
	}
	cand, ok := s.Current()
	if !ok {
		return
	}
	payload := map[string]any{
		"duration_ms": now.Sub(s.detailsOpenedAt).Milliseconds(),
	}
	if auto {
		payload["auto_closed_on_next"] = true
	}
	s.detailsOpenedAt = time.Time{}
	s.recordTrial(EventDetailClose, cand.CandidateID, payload)
}

// FlagForReview emits a flag_review event. The flag control only exists in
// the high-disclosure condition.
func (s *Session) FlagForReview(now time.Time) error {
	if s.condition.Disclosure != assign.DisclosureHigh {
		return errors.SessionInvalid("flagging is not available in this condition")
	}
	cand, ok := s.Current()
	if !ok {
		return errors.SessionInvalid("session already completed")
	}
	s.recordTrial(EventFlagReview, cand.CandidateID, map[string]any{
		"reason": "user_flag",
	})
	return nil
}

// Advance moves to the next trial. It requires a locked decision and no
// pending justification, auto-closes an open detail panel so its duration
// is not lost, and resets all per-trial state so the next render enters
// the next candidate fresh.
func (s *Session) Advance(now time.Time) error {
	if !s.CanAdvance() {
		if s.pendingJustification {
			return errors.SessionInvalid("justification required before advancing")
		}
		return errors.SessionInvalid("decision required before advancing")
	}
	s.CloseDetails(now, true)
	s.index++
	s.locked = false
	s.pendingJustification = false
	s.lastCandidateID = ""
	return nil
}

// ElapsedMinutes returns wall-clock minutes since session start.
func (s *Session) ElapsedMinutes(now time.Time) float64 {
	return now.Sub(s.taskStart).Minutes()
}

// OverTime reports whether the soft expected duration has passed. The
// nudge is advisory only and never disables a control.
func (s *Session) OverTime(now time.Time) bool {
	return s.ElapsedMinutes(now) > float64(s.params.ExpectedMinutes)
}

// CompletionCode returns the deterministic completion code for this
// participant.
func (s *Session) CompletionCode() string {
	return assign.CompletionCode(s.participantID)
}

// End emits session_end exactly once, after the last trial. Repeat renders
// of the completion page are no-ops.
func (s *Session) End(now time.Time) {
	if !s.Completed() || s.ended {
		return
	}
	s.ended = true
	s.record(EventSessionEnd, nil, "", map[string]any{
		"completion_code": s.CompletionCode(),
		"elapsed_min":     s.ElapsedMinutes(now),
	})
}

// Ended reports whether session_end has been emitted.
func (s *Session) Ended() bool { return s.ended }

func (s *Session) recordTrial(t EventType, candidateID string, payload map[string]any) {
	idx := s.index
	s.record(t, &idx, candidateID, payload)
}

func (s *Session) record(t EventType, trialIndex *int, candidateID string, payload map[string]any) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(Event{
		Type:        t,
		TrialIndex:  trialIndex,
		CandidateID: candidateID,
		Payload:     payload,
	})
}
