package meta

import (
	"path/filepath"
	"strings"
)

// contentSignals are disjoint keyword sets scored against the body when
// no path segment matched. Checked in declaration order on tie.
var contentSignals = []struct {
	category string
	keywords []string
}{
	{"api", []string{"endpoint", "request", "response", "http method", "status code", "api key", "curl"}},
	{"tutorials", []string{"step 1", "step 2", "first,", "next,", "finally,", "let's", "walkthrough"}},
	{"business", []string{"revenue", "customer", "stakeholder", "roadmap", "pricing", "contract"}},
	{"architecture", []string{"component", "diagram", "scalab", "microservice", "data flow", "system design"}},
	{"configuration", []string{"environment variable", "config file", "settings", "yaml", "toml", ".env"}},
}

// Category infers a category in two phases: path-segment patterns first
// (first match wins, segments in path order), then content keyword
// scoring, then the configured default.
//
// Path signals deliberately take precedence over content signals when
// both would match.
func (s *Synthesizer) Category(body, path string) string {
	if c := s.pathCategory(path); c != "" {
		return c
	}
	if c := contentCategory(body); c != "" {
		return c
	}
	return s.cfg.DefaultCategory
}

func (s *Synthesizer) pathCategory(path string) string {
	segments := strings.Split(filepath.ToSlash(path), "/")
	for _, seg := range segments {
		seg = strings.ToLower(seg)
		if seg == "" {
			continue
		}
		for _, p := range s.cfg.CategoryPatterns {
			if strings.Contains(seg, p.Substr) {
				return p.Category
			}
		}
	}
	return ""
}

func contentCategory(body string) string {
	lower := strings.ToLower(body)
	best := ""
	bestScore := 0
	for _, sig := range contentSignals {
		score := 0
		for _, kw := range sig.keywords {
			score += strings.Count(lower, kw)
		}
		if score > bestScore {
			best = sig.category
			bestScore = score
		}
	}
	return best
}
