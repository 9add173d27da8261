// Package markdown provides shared markdown introspection helpers built
// on the goldmark AST: heading extraction and anchor slugs.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Heading is one ATX/setext heading found in a document.
type Heading struct {
	Level int
	Text  string
}

// Headings parses src and returns its headings in document order.
// Fenced code blocks are handled correctly since this walks the parsed
// AST rather than scanning lines.
func Headings(src []byte) []Heading {
	root := goldmark.New().Parser().Parse(text.NewReader(src))
	var out []Heading
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			if t := strings.TrimSpace(nodeText(h, src)); t != "" {
				out = append(out, Heading{Level: h.Level, Text: t})
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return out
}

func nodeText(n ast.Node, src []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
		case *ast.String:
			sb.Write(t.Value)
		default:
			sb.WriteString(nodeText(c, src))
		}
	}
	return sb.String()
}

// Slugify turns heading text into an anchor: lowercased, non-alphanumeric
// characters stripped, spaces to hyphens, runs of hyphens collapsed.
// The rules must stay in sync with the documentation site's renderer.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			sb.WriteByte('-')
		}
	}
	out := sb.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	return strings.Trim(out, "-")
}
