package catalog

import (
	"fmt"
	"strings"
	"testing"

	apperrors "github.com/vinvit-2/exp-ai-account/internal/errors"
)

const entryTemplate = `{
	"candidate_id": "c%02d",
	"card": {"RequirementsMet": "Yes", "Portfolio": "No", "YearsExperience": 3, "Education": "BSc", "Certifications": "2"},
	"summary_paragraph": "summary",
	"full_cv": "cv",
	"case_type": "clear_pos",
	"pair_id": "p1",
	"demo_group": "other"
}`

func catalogJSON(t *testing.T, n int) []byte {
	t.Helper()
	entries := make([]string, n)
	for i := range entries {
		entries[i] = fmt.Sprintf(entryTemplate, i+1)
	}
	return []byte("[" + strings.Join(entries, ",") + "]")
}

func TestParseExactCardinality(t *testing.T) {
	candidates, err := Parse(catalogJSON(t, 12), 12)
	if err != nil {
		t.Fatalf("Parse failed on valid catalog: %v", err)
	}
	if len(candidates) != 12 {
		t.Fatalf("expected 12 candidates, got %d", len(candidates))
	}
}

func TestParseWrongCardinality(t *testing.T) {
	for _, n := range []int{0, 5, 11} {
		_, err := Parse(catalogJSON(t, n), 12)
		if err == nil {
			t.Errorf("catalog with %d entries must be rejected", n)
			continue
		}
		if apperrors.GetCode(err) != apperrors.CodeCatalogInvalid {
			t.Errorf("expected CATALOG_INVALID, got %s", apperrors.GetCode(err))
		}
		if !strings.Contains(err.Error(), "exactly 12") {
			t.Errorf("error should name the expected count: %v", err)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte("{not json"), 12); err == nil {
		t.Errorf("malformed catalog must be rejected")
	}
}

func TestParseMissingID(t *testing.T) {
	raw := []byte(`[{"candidate_id": "  ", "card": {}}]`)
	if _, err := Parse(raw, 1); err == nil {
		t.Errorf("blank candidate_id must be rejected")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("does-not-exist.json", 12); err == nil {
		t.Errorf("missing file must be an error")
	}
}

func TestCardCoercion(t *testing.T) {
	c := Candidate{Card: map[string]any{
		"YearsAsNumber": float64(7),
		"YearsAsString": " 4 ",
		"Flag":          "yes",
		"FlagUpper":     "YES",
		"FlagNo":        "No",
		"Float":         2.5,
	}}

	if got := c.CardInt("YearsAsNumber"); got != 7 {
		t.Errorf("CardInt number = %d, want 7", got)
	}
	if got := c.CardInt("YearsAsString"); got != 4 {
		t.Errorf("CardInt string = %d, want 4", got)
	}
	if got := c.CardInt("Missing"); got != 0 {
		t.Errorf("CardInt missing = %d, want 0", got)
	}
	if !c.CardYes("Flag") || !c.CardYes("FlagUpper") {
		t.Errorf("CardYes should accept yes in any case")
	}
	if c.CardYes("FlagNo") || c.CardYes("Missing") {
		t.Errorf("CardYes false positives")
	}
	if got := c.CardString("YearsAsNumber"); got != "7" {
		t.Errorf("CardString integer number = %q, want \"7\"", got)
	}
	if got := c.CardString("Float"); got != "2.5" {
		t.Errorf("CardString float = %q, want \"2.5\"", got)
	}
}
