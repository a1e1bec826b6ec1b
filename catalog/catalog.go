// Package catalog loads the fixed candidate profiles shown during the task.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vinvit-2/exp-ai-account/internal/errors"
)

// Candidate is one catalog entry. The card is a flat key/value map as
// authored in the data file; values arrive as strings or numbers depending
// on the author, so access goes through the coercing helpers below.
type Candidate struct {
	CandidateID      string         `json:"candidate_id"`
	Card             map[string]any `json:"card"`
	SummaryParagraph string         `json:"summary_paragraph"`
	FullCV           string         `json:"full_cv"`
	CaseType         string         `json:"case_type"`
	PairID           string         `json:"pair_id"`
	DemoGroup        string         `json:"demo_group"`
}

// CardString returns a card field as a string, or "" when absent.
func (c Candidate) CardString(key string) string {
	v, ok := c.Card[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// CardInt returns a card field as an int, or 0 when absent or unparseable.
func (c Candidate) CardInt(key string) int {
	v, ok := c.Card[key]
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return parsed
		}
	}
	return 0
}

// CardYes reports whether a card field holds an affirmative value.
func (c Candidate) CardYes(key string) bool {
	return strings.EqualFold(strings.TrimSpace(c.CardString(key)), "yes")
}

// Load reads the candidate catalog from path and enforces the expected
// cardinality. A wrong count aborts session start, so the experiment never
// runs against a partial or over-full catalog.
func Load(path string, want int) ([]Candidate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read candidate catalog %s", path)
	}
	return Parse(raw, want)
}

// Parse decodes a catalog document and enforces the expected cardinality.
func Parse(raw []byte, want int) ([]Candidate, error) {
	var candidates []Candidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		return nil, errors.Wrap(err, "failed to parse candidate catalog")
	}
	if len(candidates) != want {
		return nil, errors.CatalogInvalid(
			fmt.Sprintf("candidate catalog must contain exactly %d candidates; got %d", want, len(candidates)))
	}
	for i, c := range candidates {
		if strings.TrimSpace(c.CandidateID) == "" {
			return nil, errors.CatalogInvalid(fmt.Sprintf("candidate at index %d has no candidate_id", i))
		}
	}
	return candidates, nil
}
