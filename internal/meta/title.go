package meta

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

var (
	htmlTitleRe   = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	h1Re          = regexp.MustCompile(`(?m)^#\s+(.+?)\s*$`)
	anyHeadingRe  = regexp.MustCompile(`(?m)^#{1,6}\s+(.+?)\s*$`)
	camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// Title extracts a document title.
//
// Precedence: HTML <title> leftover in the body, a title-like first line
// (short, single line, no trailing period), the first H1, the first
// heading of any level, then a humanized filename.
func (s *Synthesizer) Title(body, path string) string {
	if m := htmlTitleRe.FindStringSubmatch(body); m != nil {
		if t := strings.TrimSpace(m[1]); t != "" {
			return t
		}
	}

	stripped := StripFrontmatter(body)
	if t := titleLikeFirstLine(stripped); t != "" {
		return t
	}
	if m := h1Re.FindStringSubmatch(stripped); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := anyHeadingRe.FindStringSubmatch(stripped); m != nil {
		return strings.TrimSpace(m[1])
	}
	return HumanizeFilename(path)
}

// titleLikeFirstLine returns the first line when it reads like a title:
// shorter than 100 chars, not a heading or list item, no terminal period.
func titleLikeFirstLine(body string) string {
	line := ""
	for _, l := range strings.Split(body, "\n") {
		if strings.TrimSpace(l) != "" {
			line = strings.TrimSpace(l)
			break
		}
	}
	if line == "" || len(line) >= 100 {
		return ""
	}
	if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") ||
		strings.HasPrefix(line, "*") || strings.HasPrefix(line, ">") ||
		strings.HasPrefix(line, "```") || strings.HasPrefix(line, "|") {
		return ""
	}
	if strings.HasSuffix(line, ".") {
		return ""
	}
	return line
}

// HumanizeFilename converts a file path into a presentable title:
// "api-reference_guide.md" → "Api Reference Guide",
// "gettingStarted.md" → "Getting Started".
func HumanizeFilename(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	name = camelBoundary.ReplaceAllString(name, "$1 $2")
	return titleCase(name)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
