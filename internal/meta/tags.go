package meta

import (
	"path/filepath"
	"strings"
)

// contentTypeTags map body keywords to coarse topic tags.
var contentTypeTags = []struct {
	keyword string
	tag     string
}{
	{"install", "setup"},
	{"setup", "setup"},
	{"deploy", "deployment"},
	{"security", "security"},
	{"authenticat", "security"},
	{"performance", "performance"},
	{"optimiz", "performance"},
	{"test", "testing"},
	{"debug", "debugging"},
	{"troubleshoot", "debugging"},
}

// filenameTags map filename substrings to tags.
var filenameTags = []struct {
	substr string
	tag    string
}{
	{"readme", "overview"},
	{"changelog", "changelog"},
	{"contributing", "contributing"},
	{"license", "license"},
}

// Tags derives a tag list from technology patterns, the category,
// content-type keywords, the filename, and coarse complexity signals.
// The result is capped at the configured maximum; every tag is longer
// than two characters. Order follows first-match insertion.
func (s *Synthesizer) Tags(body, path, category string) []string {
	lower := strings.ToLower(body)
	name := strings.ToLower(filepath.Base(path))

	var tags []string
	seen := make(map[string]bool)
	add := func(t string) {
		t = strings.ToLower(strings.TrimSpace(t))
		if len(t) <= 2 || seen[t] || len(tags) >= s.cfg.MaxTags {
			return
		}
		seen[t] = true
		tags = append(tags, t)
	}

	for _, p := range s.cfg.TagPatterns {
		if strings.Contains(lower, p.Substr) {
			add(p.Tag)
		}
	}
	add(category)
	for _, ct := range contentTypeTags {
		if strings.Contains(lower, ct.keyword) {
			add(ct.tag)
		}
	}
	for _, fn := range filenameTags {
		if strings.Contains(name, fn.substr) {
			add(fn.tag)
		}
	}
	if strings.Count(body, "```")/2 > 3 {
		add("code-heavy")
	}
	if len(body) > 5000 {
		add("comprehensive")
	}
	return tags
}

// WordCount counts whitespace-separated tokens in the body, excluding a
// frontmatter block.
func WordCount(body string) int {
	return len(strings.Fields(StripFrontmatter(body)))
}

// ReadingTime estimates minutes to read at 200 words per minute,
// rounding up. Zero for an empty body.
func ReadingTime(body string) int {
	words := WordCount(body)
	if words == 0 {
		return 0
	}
	return (words + 199) / 200
}
