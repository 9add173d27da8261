// Package quality scores document content and metadata completeness.
//
// Validation never mutates content; it produces a fresh Report per call
// with a 0-100 score, a coarse level, and an ordered issue list.
package quality

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/mdforge/internal/markdown"
	"github.com/hazyhaar/mdforge/internal/meta"
)

// Level buckets a numeric score.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Issue types.
const (
	TypeError   = "error"
	TypeWarning = "warning"
	TypeInfo    = "info"
)

// Issue is a single validation finding. Severity ranges 1 (cosmetic)
// to 10 (blocking).
type Issue struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity int    `json:"severity"`
}

// Report is the outcome of one validation pass.
type Report struct {
	Score       int      `json:"score"`
	Level       Level    `json:"level"`
	Issues      []Issue  `json:"issues"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (r *Report) issue(typ, msg string, severity, penalty int, score *int) {
	r.Issues = append(r.Issues, Issue{Type: typ, Message: msg, Severity: severity})
	*score -= penalty
}

// levelFor maps a score to its bucket: >=80 high, >=60 medium, else low.
func levelFor(score int) Level {
	switch {
	case score >= 80:
		return LevelHigh
	case score >= 60:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Validate scores content plus metadata. Weights: title presence is the
// heaviest signal, then description, heading hierarchy, and structural
// completeness.
func Validate(content string, m meta.Metadata) *Report {
	report := &Report{}
	score := 100
	body := meta.StripFrontmatter(content)

	// Title.
	switch {
	case m.Title == "":
		report.issue(TypeError, "missing-title: no title in frontmatter", 9, 30, &score)
		report.Suggestions = append(report.Suggestions, "add a title to the frontmatter block")
	case len(m.Title) < 3:
		report.issue(TypeWarning, "short-title: title under 3 characters", 5, 10, &score)
	case len(m.Title) > 100:
		report.issue(TypeWarning, "long-title: title over 100 characters", 4, 5, &score)
	}

	// Description.
	switch {
	case m.Description == "":
		report.issue(TypeWarning, "missing-description: no description in frontmatter", 6, 20, &score)
		report.Suggestions = append(report.Suggestions, "add a one-sentence description")
	case len(m.Description) < 20:
		report.issue(TypeInfo, "short-description: description under 20 characters", 3, 5, &score)
	case len(m.Description) > meta.MaxDescriptionLen+3:
		report.issue(TypeWarning, "long-description: description exceeds limit", 4, 10, &score)
	}

	// Heading structure.
	headings := markdown.Headings([]byte(body))
	if len(headings) == 0 {
		report.issue(TypeWarning, "no-headings: document has no headings", 5, 15, &score)
		report.Suggestions = append(report.Suggestions, "structure the document with headings")
	} else {
		prev := 0
		for _, h := range headings {
			if prev > 0 && h.Level > prev+1 {
				report.issue(TypeWarning,
					fmt.Sprintf("heading-skip: level %d follows level %d (%q)", h.Level, prev, h.Text),
					4, 5, &score)
			}
			prev = h.Level
		}
	}

	// Structural completeness.
	words := len(strings.Fields(body))
	switch {
	case words < 50:
		report.issue(TypeWarning, "thin-content: fewer than 50 words", 5, 15, &score)
	case words < 150:
		report.issue(TypeInfo, "light-content: fewer than 150 words", 2, 5, &score)
	}

	if score < 0 {
		score = 0
	}
	report.Score = score
	report.Level = levelFor(score)
	return report
}
