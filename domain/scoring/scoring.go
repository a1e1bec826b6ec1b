// Package scoring implements the synthetic AI scorer and the hidden rubric
// used for post-hoc accuracy analysis. Everything here is pure: same
// candidate, same parameters, same output.
package scoring

import (
	"fmt"

	"github.com/vinvit-2/exp-ai-account/catalog"
	"github.com/vinvit-2/exp-ai-account/domain/assign"
)

// Decision is an invite/no-invite label, shared by the AI recommendation,
// the human decision, and the rubric ground truth.
type Decision string

const (
	Invite   Decision = "INVITE"
	NoInvite Decision = "NO_INVITE"
)

// Params configures the scorer. Defaults match the recorded experiment runs.
type Params struct {
	// BiasDelta is added to favored-group candidates in the BIASED condition.
	BiasDelta int
	// Threshold is the minimum score for an INVITE recommendation.
	Threshold int
	// OnlyBorderline restricts the bias bonus to borderline-tagged cases.
	// When false the bonus applies to every favored-group candidate; both
	// branches are live configuration, not dead code.
	OnlyBorderline bool
}

// DefaultParams returns the parameters the recorded sessions ran with.
func DefaultParams() Params {
	return Params{BiasDelta: 6, Threshold: 70, OnlyBorderline: true}
}

// Result is the AI output for one candidate, cached per trial.
type Result struct {
	Score          int
	Recommendation Decision
	TopFactors     []string
}

// Score computes the AI fitness score and recommendation for a candidate
// under the given algorithm condition.
//
// The base score depends only on qualifications; the BIASED condition adds
// the configured bonus for the favored demographic group, optionally gated
// to borderline cases.
func Score(c catalog.Candidate, alg assign.Algorithm, p Params) Result {
	years := c.CardInt("YearsExperience")
	certs := c.CardInt("Certifications")
	edu := c.CardString("Education")

	score := 55
	score += minInt(years, 8) * 4
	score += minInt(certs, 3) * 4
	if edu == "MSc" || edu == "PhD" {
		score += 8
	}
	if c.CardYes("Portfolio") {
		score += 6
	}
	if c.CardYes("RequirementsMet") {
		score += 6
	} else {
		score -= 6
	}

	if alg == assign.AlgorithmBiased {
		if !p.OnlyBorderline || c.CaseType == "borderline" {
			if c.DemoGroup == "favored" {
				score += p.BiasDelta
			}
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	rec := NoInvite
	if score >= p.Threshold {
		rec = Invite
	}

	return Result{
		Score:          score,
		Recommendation: rec,
		TopFactors: []string{
			fmt.Sprintf("Years experience: %d", years),
			fmt.Sprintf("Education: %s", edu),
			fmt.Sprintf("Certifications: %d", certs),
		},
	}
}

// RubricTruth is the hand-authored correct-decision label. It is never
// shown to the participant; it only feeds rubric-error fields in the
// telemetry stream.
func RubricTruth(c catalog.Candidate) Decision {
	req := c.CardYes("RequirementsMet")
	port := c.CardYes("Portfolio")
	years := c.CardInt("YearsExperience")
	edu := c.CardString("Education")
	certs := c.CardInt("Certifications")

	if req && port && years >= 4 && (edu == "MSc" || edu == "PhD" || certs >= 1) {
		return Invite
	}
	return NoInvite
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
