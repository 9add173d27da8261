package meta

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxDescriptionLen is the visible-character limit for derived
// descriptions, before the optional ellipsis.
const MaxDescriptionLen = 150

var (
	frontmatterRe = regexp.MustCompile(`(?s)\A---\s*\n.*?\n---\s*\n?`)
	paragraphRe   = regexp.MustCompile(`\n\s*\n`)
	imageRe       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkRe        = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	emphasisRe    = regexp.MustCompile("[*_`~]+")
	spaceRe       = regexp.MustCompile(`\s+`)
)

// StripFrontmatter removes a leading ----delimited block, if present.
func StripFrontmatter(body string) string {
	return frontmatterRe.ReplaceAllString(body, "")
}

// Description derives a short summary from the first substantial
// paragraph of the body. The result is at most MaxDescriptionLen visible
// characters (word-boundary truncated with an ellipsis) and always ends
// in terminal punctuation.
func (s *Synthesizer) Description(body string) string {
	stripped := StripFrontmatter(body)
	paragraphs := paragraphRe.Split(stripped, -1)

	first := true
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if first {
			first = false
			if looksLikeTitle(p) {
				continue
			}
		}
		if skipParagraph(p) {
			continue
		}
		text := cleanInlineMarkup(p)
		if len(text) < 20 {
			continue
		}
		return finishDescription(text)
	}
	return ""
}

// looksLikeTitle reports whether a leading paragraph duplicates a title:
// one short line without terminal punctuation.
func looksLikeTitle(p string) bool {
	if strings.Contains(p, "\n") {
		return false
	}
	if len(p) >= 100 {
		return false
	}
	return !strings.HasSuffix(p, ".") && !strings.HasSuffix(p, "!") &&
		!strings.HasSuffix(p, "?")
}

func skipParagraph(p string) bool {
	switch {
	case strings.HasPrefix(p, "#"),
		strings.HasPrefix(p, "-"),
		strings.HasPrefix(p, "*"),
		strings.HasPrefix(p, ">"),
		strings.HasPrefix(p, "|"),
		strings.HasPrefix(p, "```"),
		strings.HasPrefix(p, "!["):
		return true
	}
	return len(p) < 20
}

// cleanInlineMarkup reduces markdown to plain text: images dropped, links
// replaced with their text, emphasis markers removed.
func cleanInlineMarkup(p string) string {
	p = imageRe.ReplaceAllString(p, "$1")
	p = linkRe.ReplaceAllString(p, "$1")
	p = emphasisRe.ReplaceAllString(p, "")
	p = spaceRe.ReplaceAllString(p, " ")
	return strings.TrimSpace(p)
}

func finishDescription(text string) string {
	if len(text) > MaxDescriptionLen {
		cut := text[:runeBoundary(text, MaxDescriptionLen)]
		if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
			cut = cut[:idx]
		}
		cut = strings.TrimRight(cut, " ,;:-")
		return cut + "..."
	}
	if !strings.HasSuffix(text, ".") && !strings.HasSuffix(text, "!") &&
		!strings.HasSuffix(text, "?") {
		text += "."
	}
	return text
}

// runeBoundary backs a byte offset up to the start of the rune it
// falls inside, so slicing never splits a multi-byte character.
func runeBoundary(s string, n int) int {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}
