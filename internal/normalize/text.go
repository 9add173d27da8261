package normalize

import (
	"regexp"
	"strings"
)

var bulletGlyphs = []string{"* ", "• ", "· ", "‣ ", "– ", "— "}

// textToMarkdown applies the plain-text structure heuristic:
// indented (4-space or tab) runs become fenced code blocks, a line
// ending in ":" followed later by non-blank content becomes a level-2
// heading, and bullet glyphs are normalized to "-".
func textToMarkdown(input string) string {
	input = strings.ReplaceAll(input, "\r\n", "\n")
	lines := strings.Split(input, "\n")
	var out []string
	inCode := false

	closeCode := func() {
		if inCode {
			out = append(out, "```")
			inCode = false
		}
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		indented := strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t")
		if indented && trimmed != "" {
			if !inCode {
				out = append(out, "```")
				inCode = true
			}
			out = append(out, dedent(line))
			continue
		}
		if trimmed == "" {
			if inCode && nextIndented(lines, i) {
				out = append(out, "")
				continue
			}
			closeCode()
			out = append(out, "")
			continue
		}
		closeCode()

		if bullet, ok := normalizeBullet(trimmed); ok {
			out = append(out, bullet)
			continue
		}
		if isLabelHeading(trimmed, lines, i) {
			out = append(out, "## "+strings.TrimSuffix(trimmed, ":"))
			continue
		}
		out = append(out, trimmed)
	}
	closeCode()

	joined := strings.TrimRight(strings.Join(out, "\n"), "\n")
	if joined == "" {
		return ""
	}
	return joined + "\n"
}

func dedent(line string) string {
	if strings.HasPrefix(line, "\t") {
		return line[1:]
	}
	return strings.TrimPrefix(line, "    ")
}

func nextIndented(lines []string, i int) bool {
	for j := i + 1; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) == "" {
			continue
		}
		return strings.HasPrefix(lines[j], "    ") || strings.HasPrefix(lines[j], "\t")
	}
	return false
}

func normalizeBullet(trimmed string) (string, bool) {
	for _, glyph := range bulletGlyphs {
		if strings.HasPrefix(trimmed, glyph) {
			return "- " + strings.TrimSpace(strings.TrimPrefix(trimmed, glyph)), true
		}
	}
	return "", false
}

// isLabelHeading reports whether a "Label:" line introduces following
// content and should be promoted to a heading.
func isLabelHeading(trimmed string, lines []string, i int) bool {
	if !strings.HasSuffix(trimmed, ":") || len(trimmed) < 2 || len(trimmed) > 80 {
		return false
	}
	for j := i + 1; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) != "" {
			return true
		}
	}
	return false
}

var (
	rtfPardRe    = regexp.MustCompile(`\\pard\b`)
	rtfParRe     = regexp.MustCompile(`\\par\b`)
	rtfHexRe     = regexp.MustCompile(`\\'[0-9a-fA-F]{2}`)
	rtfControlRe = regexp.MustCompile(`\\[a-zA-Z]+-?\d* ?`)
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
)

// rtfToText strips RTF control words, groups, and hex escapes, keeping
// paragraph breaks. The result feeds the plain-text heuristic.
func rtfToText(src string) string {
	s := rtfPardRe.ReplaceAllString(src, "")
	s = rtfParRe.ReplaceAllString(s, "\n\n")
	s = rtfHexRe.ReplaceAllString(s, "")
	s = rtfControlRe.ReplaceAllString(s, "")
	s = strings.NewReplacer("{", "", "}", "", "\\", "").Replace(s)
	s = blankRunRe.ReplaceAllString(s, "\n\n")

	var out []string
	for _, line := range strings.Split(s, "\n") {
		out = append(out, strings.TrimSpace(line))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
