package ui

import (
	"html/template"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vinvit-2/exp-ai-account/catalog"
	"github.com/vinvit-2/exp-ai-account/domain/assign"
	"github.com/vinvit-2/exp-ai-account/domain/scoring"
	"github.com/vinvit-2/exp-ai-account/internal/errors"
)

// cardRow is one key/value line of the candidate card.
type cardRow struct {
	Key   string
	Value string
}

// preferredCardOrder pins the fields participants compare across
// candidates to the top of the card; anything else follows alphabetically.
var preferredCardOrder = []string{
	"Name",
	"RequirementsMet",
	"Portfolio",
	"YearsExperience",
	"Education",
	"Certifications",
}

func cardRows(c catalog.Candidate) []cardRow {
	rows := make([]cardRow, 0, len(c.Card))
	seen := make(map[string]bool, len(c.Card))
	for _, key := range preferredCardOrder {
		if _, ok := c.Card[key]; ok {
			rows = append(rows, cardRow{Key: key, Value: c.CardString(key)})
			seen[key] = true
		}
	}
	rest := make([]string, 0, len(c.Card))
	for key := range c.Card {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		rows = append(rows, cardRow{Key: key, Value: c.CardString(key)})
	}
	return rows
}

// trialView is the template model for the three-column trial page.
type trialView struct {
	TrialNumber  int
	TrialCount   int
	Shortlisted  int
	ShortlistCap int
	ElapsedMin   float64
	OverTime     bool

	CandidateID string
	CardRows    []cardRow
	Summary     string
	DetailsOpen bool
	FullCV      template.HTML

	Score          int
	Recommendation string
	TopFactors     []string
	HighDisclosure bool

	Locked               bool
	CanInvite            bool
	CanReject            bool
	CanAdvance           bool
	ShortlistFull        bool
	PendingJustification bool

	JustificationWarn bool
	Flagged           bool
}

// completeView is the template model for the completion page.
type completeView struct {
	CompletionCode string
	ElapsedMin     float64
}

func (s *Server) handleTrial(c *gin.Context) {
	entry, err := s.currentSession(c)
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to start session")
		return
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	sess := entry.session
	now := time.Now()

	if sess.Completed() {
		alreadyEnded := sess.Ended()
		sess.End(now)
		if !alreadyEnded {
			s.metrics.SessionsEnded.Inc()
		}
		s.renderTemplate(c, "complete.html", completeView{
			CompletionCode: sess.CompletionCode(),
			ElapsedMin:     sess.ElapsedMinutes(now),
		})
		return
	}

	sess.Enter(now)
	cand, _ := sess.Current()
	ai := sess.AI()

	recommendation := "Not interview"
	if ai.Recommendation == scoring.Invite {
		recommendation = "Interview"
	}

	view := trialView{
		TrialNumber:  sess.TrialIndex() + 1,
		TrialCount:   sess.TrialCount(),
		Shortlisted:  sess.Shortlisted(),
		ShortlistCap: sess.ShortlistCap(),
		ElapsedMin:   sess.ElapsedMinutes(now),
		OverTime:     sess.OverTime(now),

		CandidateID: cand.CandidateID,
		CardRows:    cardRows(cand),
		Summary:     cand.SummaryParagraph,
		DetailsOpen: sess.DetailsOpen(),

		Score:          ai.Score,
		Recommendation: recommendation,
		TopFactors:     ai.TopFactors,
		HighDisclosure: sess.Condition().Disclosure == assign.DisclosureHigh,

		Locked:               sess.DecisionLocked(),
		CanInvite:            sess.CanInvite(),
		CanReject:            sess.CanReject(),
		CanAdvance:           sess.CanAdvance(),
		ShortlistFull:        sess.ShortlistFull(),
		PendingJustification: sess.PendingJustification(),

		JustificationWarn: c.Query("warn") == "justification",
		Flagged:           c.Query("flagged") == "1",
	}
	if sess.DetailsOpen() {
		view.FullCV = renderMarkdown(cand.FullCV)
	}

	s.renderTemplate(c, "trial.html", view)
}

func (s *Server) handleDecision(c *gin.Context) {
	s.withSession(c, func(c *gin.Context, sess sessionHandle) string {
		decision := scoring.NoInvite
		if c.PostForm("decision") == "invite" {
			decision = scoring.Invite
		}
		if err := sess.Decide(decision, time.Now()); err != nil {
			// Gated controls are disabled in the UI; a rejected action here
			// is a stale double-submit and the re-render shows the truth.
			s.logger.Debug("decision rejected: " + err.Error())
		}
		return "/"
	})
}

func (s *Server) handleJustification(c *gin.Context) {
	s.withSession(c, func(c *gin.Context, sess sessionHandle) string {
		if err := sess.SubmitJustification(c.PostForm("text"), time.Now()); err != nil {
			if errors.GetCode(err) == errors.CodeValidationError {
				return "/?warn=justification"
			}
		}
		return "/"
	})
}

func (s *Server) handleDetailsOpen(c *gin.Context) {
	s.withSession(c, func(c *gin.Context, sess sessionHandle) string {
		sess.OpenDetails(time.Now())
		return "/"
	})
}

func (s *Server) handleDetailsClose(c *gin.Context) {
	s.withSession(c, func(c *gin.Context, sess sessionHandle) string {
		sess.CloseDetails(time.Now(), false)
		return "/"
	})
}

func (s *Server) handleAdvance(c *gin.Context) {
	s.withSession(c, func(c *gin.Context, sess sessionHandle) string {
		if err := sess.Advance(time.Now()); err != nil {
			s.logger.Debug("advance rejected: " + err.Error())
		}
		return "/"
	})
}

func (s *Server) handleFlag(c *gin.Context) {
	s.withSession(c, func(c *gin.Context, sess sessionHandle) string {
		if err := sess.FlagForReview(time.Now()); err != nil {
			return "/"
		}
		return "/?flagged=1"
	})
}
