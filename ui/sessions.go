package ui

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vinvit-2/exp-ai-account/domain/assign"
	"github.com/vinvit-2/exp-ai-account/domain/scoring"
	"github.com/vinvit-2/exp-ai-account/domain/trial"
	"github.com/vinvit-2/exp-ai-account/telemetry"
)

const participantCookie = "participant_id"

// sessionEntry pairs a session with its own lock. Session methods assume
// a single caller; the lock serializes a participant's requests
// (double-submits, parallel tabs).
type sessionEntry struct {
	mu      sync.Mutex
	session *trial.Session
}

// Registry keeps in-flight sessions by participant id, in memory only.
// A process restart clears it, while condition and order survive through
// the deterministic assignment.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*sessionEntry
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*sessionEntry)}
}

func (r *Registry) get(participantID string) (*sessionEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[participantID]
	return e, ok
}

func (r *Registry) put(participantID string, session *trial.Session) *sessionEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[participantID]; ok {
		return e
	}
	e := &sessionEntry{session: session}
	r.entries[participantID] = e
	return e
}

// currentSession returns the session for the requesting participant,
// creating participant id and session on first contact. The participant id
// lives in a cookie so a refresh reconstructs the same condition and order.
func (s *Server) currentSession(c *gin.Context) (*sessionEntry, error) {
	participantID, err := c.Cookie(participantCookie)
	if err != nil || len(participantID) < 8 {
		participantID = assign.NewParticipantID()
		c.SetCookie(participantCookie, participantID, 0, "/", "", false, true)
	}

	if entry, ok := s.sessions.get(participantID); ok {
		return entry, nil
	}

	seed, err := assign.DeriveSeed(participantID)
	if err != nil {
		// A tampered cookie gets a fresh identity rather than an error page.
		participantID = assign.NewParticipantID()
		c.SetCookie(participantCookie, participantID, 0, "/", "", false, true)
		seed, _ = assign.DeriveSeed(participantID)
	}
	cond := assign.AssignCondition(seed)

	emitter := telemetry.NewEmitter(s.sink, s.cfg.Telemetry.Key, participantID, cond, s.cfg.Telemetry.Timeout, s.logger)
	session, err := trial.NewSession(participantID, s.candidates, trial.Params{
		ShortlistCap:    s.cfg.Experiment.ShortlistCap,
		ExpectedMinutes: s.cfg.Experiment.ExpectedMinutes,
		Scoring: scoring.Params{
			BiasDelta:      s.cfg.Experiment.BiasDelta,
			Threshold:      s.cfg.Experiment.AIThreshold,
			OnlyBorderline: s.cfg.Experiment.BiasOnlyBorderline,
		},
	}, emitter, time.Now())
	if err != nil {
		return nil, err
	}
	s.metrics.SessionsStarted.Inc()
	s.logger.Info("session started",
		zap.String("participant_id", participantID),
		zap.String("condition_api", string(cond.Disclosure)),
		zap.String("condition_alg", string(cond.Algorithm)))
	return s.sessions.put(participantID, session), nil
}

// sessionHandle is the locked session passed to action handlers.
type sessionHandle = *trial.Session

// withSession runs fn with the participant's session locked and then
// redirects to the path fn returns (post/redirect/get).
func (s *Server) withSession(c *gin.Context, fn func(c *gin.Context, sess sessionHandle) string) {
	entry, err := s.currentSession(c)
	if err != nil {
		c.String(500, "failed to start session")
		return
	}
	entry.mu.Lock()
	redirect := fn(c, entry.session)
	entry.mu.Unlock()
	c.Redirect(303, redirect)
}
