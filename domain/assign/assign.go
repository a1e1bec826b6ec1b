// Package assign derives everything that must stay stable for a participant
// across page refreshes: the integer seed, the 2x2 condition cell, and the
// trial order. All functions are pure; the same participant identifier
// always reproduces the same assignment.
package assign

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/vinvit-2/exp-ai-account/internal/errors"
)

// Disclosure is the explanation-level factor.
type Disclosure string

// Algorithm is the scorer-behavior factor.
type Algorithm string

const (
	DisclosureHigh Disclosure = "HIGH_API"
	DisclosureLow  Disclosure = "LOW_API"

	AlgorithmBiased   Algorithm = "BIASED"
	AlgorithmJobMatch Algorithm = "JOB_MATCH"
)

// Condition is one cell of the 2x2 design, fixed for a whole session.
type Condition struct {
	Disclosure Disclosure
	Algorithm  Algorithm
}

// NewParticipantID returns a fresh random participant identifier:
// a 128-bit token rendered as 32 lowercase hex characters.
func NewParticipantID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")
}

// DeriveSeed parses the first 8 hex characters of the participant
// identifier as a 32-bit integer. Deterministic, so a refreshed page keeps
// the same condition and order.
func DeriveSeed(participantID string) (int64, error) {
	if len(participantID) < 8 {
		return 0, errors.ValidationError("participant id must be at least 8 hex characters")
	}
	seed, err := strconv.ParseUint(participantID[:8], 16, 64)
	if err != nil {
		return 0, errors.Wrap(err, "participant id is not hex")
	}
	return int64(seed), nil
}

// AssignCondition maps a seed onto one of the four design cells. Across many
// random seeds the low bits are close to uniform, giving an equal-ish split.
func AssignCondition(seed int64) Condition {
	cond := Condition{Disclosure: DisclosureLow, Algorithm: AlgorithmJobMatch}
	if seed%2 == 0 {
		cond.Disclosure = DisclosureHigh
	}
	if (seed/2)%2 == 0 {
		cond.Algorithm = AlgorithmBiased
	}
	return cond
}

// ShuffleOrder returns a deterministic permutation of [0..n-1] via a
// backward Fisher-Yates driven by a fixed linear congruential generator.
// The generator constants and the iteration order are frozen: recorded
// sessions were produced with exactly this sequence, so any change breaks
// replay against existing data.
func ShuffleOrder(seed int64, n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rnd := seed
	for i := n - 1; i > 0; i-- {
		rnd = (1103515245*rnd + 12345) & 0x7fffffff
		j := int(rnd % int64(i+1))
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// CompletionCode derives the human-presentable completion code from the
// participant identifier: its last 8 characters, upper-cased.
func CompletionCode(participantID string) string {
	if len(participantID) < 8 {
		return strings.ToUpper(participantID)
	}
	return strings.ToUpper(participantID[len(participantID)-8:])
}
