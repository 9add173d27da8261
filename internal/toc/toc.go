// Package toc generates and inserts a table-of-contents section.
//
// The tree is rebuilt from scratch on every call; there is no
// incremental update. Anchors are deterministic slugs of heading text.
package toc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hazyhaar/mdforge/internal/markdown"
	"github.com/hazyhaar/mdforge/internal/meta"
)

// Entry is one node of the contents tree, mirroring heading nesting.
type Entry struct {
	Level    int
	Title    string
	Anchor   string
	Children []*Entry
}

// Config configures generation.
type Config struct {
	// MaxDepth is the deepest heading level included (default: 3).
	MaxDepth int
	// MinHeadings is the threshold below which no TOC is emitted
	// (default: 2).
	MinHeadings int
}

func (c *Config) defaults() {
	if c.MaxDepth <= 0 {
		c.MaxDepth = 3
	}
	if c.MinHeadings <= 0 {
		c.MinHeadings = 2
	}
}

// existingTOCRe matches heading text that already announces a contents
// section.
var existingTOCRe = regexp.MustCompile(`(?i)^(table of contents|contents|toc)$`)

// Generator builds and inserts contents sections.
type Generator struct {
	cfg Config
}

// New creates a Generator.
func New(cfg Config) *Generator {
	cfg.defaults()
	return &Generator{cfg: cfg}
}

// Build extracts headings up to MaxDepth and assembles the tree. The
// document title heading (first H1) is excluded; the TOC lists the
// sections below it.
func (g *Generator) Build(body string) []*Entry {
	headings := markdown.Headings([]byte(meta.StripFrontmatter(body)))

	var entries []*Entry
	var stack []*Entry
	seenH1 := false
	for _, h := range headings {
		if h.Level == 1 && !seenH1 {
			seenH1 = true
			continue
		}
		if h.Level > g.cfg.MaxDepth {
			continue
		}
		e := &Entry{Level: h.Level, Title: h.Text, Anchor: markdown.Slugify(h.Text)}

		// Pop ancestors at or below this level before attaching.
		for len(stack) > 0 && stack[len(stack)-1].Level >= e.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			entries = append(entries, e)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, e)
		}
		stack = append(stack, e)
	}
	return entries
}

// Render writes the tree as a nested markdown list with anchor links.
func Render(entries []*Entry) string {
	var sb strings.Builder
	var walk func(es []*Entry, indent int)
	walk = func(es []*Entry, indent int) {
		for _, e := range es {
			fmt.Fprintf(&sb, "%s- [%s](#%s)\n", strings.Repeat("  ", indent), e.Title, e.Anchor)
			walk(e.Children, indent+1)
		}
	}
	walk(entries, 0)
	return sb.String()
}

// Insert returns content with a contents section added after the
// frontmatter block and leading H1. Content is returned unchanged when
// the heading count is below the minimum or a contents section already
// exists.
func (g *Generator) Insert(content string) string {
	body := meta.StripFrontmatter(content)
	headings := markdown.Headings([]byte(body))
	if len(headings) < g.cfg.MinHeadings {
		return content
	}
	for _, h := range headings {
		if existingTOCRe.MatchString(strings.TrimSpace(h.Text)) {
			return content
		}
	}
	entries := g.Build(content)
	if len(entries) == 0 {
		return content
	}

	section := "## Table of Contents\n\n" + Render(entries) + "\n"
	head, rest := splitInsertionPoint(content)
	return head + section + rest
}

// splitInsertionPoint cuts content after the frontmatter block and the
// first H1 heading (when it opens the document).
func splitInsertionPoint(content string) (string, string) {
	idx := 0
	if m := frontmatterBlockRe.FindStringIndex(content); m != nil && m[0] == 0 {
		idx = m[1]
	}
	rest := content[idx:]
	if m := leadingH1Re.FindStringIndex(rest); m != nil {
		idx += m[1]
		rest = content[idx:]
	}
	head := content[:idx]
	if head != "" && !strings.HasSuffix(head, "\n\n") {
		if strings.HasSuffix(head, "\n") {
			head += "\n"
		} else {
			head += "\n\n"
		}
	}
	return head, strings.TrimLeft(rest, "\n")
}

var (
	frontmatterBlockRe = regexp.MustCompile(`(?s)\A---\s*\n.*?\n---\s*\n?`)
	leadingH1Re        = regexp.MustCompile(`\A\s*#\s+[^\n]+\n`)
)
