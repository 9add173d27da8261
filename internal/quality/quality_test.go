package quality

import (
	"strings"
	"testing"

	"github.com/hazyhaar/mdforge/internal/meta"
)

func TestValidate_EmptyDocumentIsLow(t *testing.T) {
	// WHAT: Empty title, no description, no headings, <50 words → low.
	// WHY: The floor of the scoring model; everything else builds on it.
	report := Validate("just a few words here", meta.Metadata{Title: ""})
	if report.Level != LevelLow {
		t.Fatalf("level = %q (score %d), want low", report.Level, report.Score)
	}
	for _, want := range []string{"missing-title", "missing-description", "no-headings"} {
		if !hasIssue(report, want) {
			t.Errorf("expected issue %q, got %v", want, report.Issues)
		}
	}
}

func TestValidate_CompleteDocumentIsHigh(t *testing.T) {
	body := "# Title\n\n" + strings.Repeat("meaningful prose content here ", 40) +
		"\n\n## Section\n\nmore text\n"
	m := meta.Metadata{
		Title:       "A Proper Title",
		Description: "A description with more than twenty characters in it.",
	}
	report := Validate(body, m)
	if report.Level != LevelHigh {
		t.Errorf("level = %q (score %d), want high; issues: %v",
			report.Level, report.Score, report.Issues)
	}
}

func TestValidate_HeadingSkipFlagged(t *testing.T) {
	body := "# One\n\ntext\n\n### Jumped\n\ntext\n"
	report := Validate(body, meta.Metadata{Title: "T", Description: strings.Repeat("d", 30)})
	if !hasIssue(report, "heading-skip") {
		t.Errorf("expected heading-skip issue: %v", report.Issues)
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	content := "# X\n\nbody\n"
	before := content
	_ = Validate(content, meta.Metadata{})
	if content != before {
		t.Error("validation must not mutate content")
	}
}

func TestValidate_SeverityBounds(t *testing.T) {
	report := Validate("", meta.Metadata{})
	for _, is := range report.Issues {
		if is.Severity < 1 || is.Severity > 10 {
			t.Errorf("severity %d out of range for %q", is.Severity, is.Message)
		}
	}
	if report.Score < 0 || report.Score > 100 {
		t.Errorf("score %d out of range", report.Score)
	}
}

func TestLevelThresholds(t *testing.T) {
	tests := []struct {
		score int
		want  Level
	}{
		{100, LevelHigh}, {80, LevelHigh}, {79, LevelMedium},
		{60, LevelMedium}, {59, LevelLow}, {0, LevelLow},
	}
	for _, tt := range tests {
		if got := levelFor(tt.score); got != tt.want {
			t.Errorf("levelFor(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func hasIssue(r *Report, substr string) bool {
	for _, is := range r.Issues {
		if strings.Contains(is.Message, substr) {
			return true
		}
	}
	return false
}
