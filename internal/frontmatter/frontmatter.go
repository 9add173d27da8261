// Package frontmatter parses, renders, and repairs YAML frontmatter
// blocks on markdown documents.
//
// Parsing accepts user-authored blocks with arbitrary extra keys; the
// known keys map onto meta.Metadata and everything else is preserved in
// Extra. Rendering always emits the canonical key order: title,
// description, category, tags, lastUpdated.
package frontmatter

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/mdforge/internal/meta"
)

// Delimiter opens and closes a frontmatter block.
const Delimiter = "---"

type envelope struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Category    string         `yaml:"category"`
	Tags        []string       `yaml:"tags"`
	LastUpdated string         `yaml:"lastUpdated"`
	ReadingTime int            `yaml:"readingTime"`
	WordCount   int            `yaml:"wordCount"`
	ContentType string         `yaml:"contentType"`
	Custom      map[string]any `yaml:",inline"`
}

// Split extracts the frontmatter block and returns the parsed metadata
// plus the body without delimiters. A document without frontmatter
// returns zero metadata and the unchanged body.
func Split(src []byte) (meta.Metadata, []byte, error) {
	var env envelope
	body, err := frontmatter.Parse(bytes.NewReader(src), &env)
	if err != nil {
		return meta.Metadata{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	m := meta.Metadata{
		Title:       strings.TrimSpace(env.Title),
		Description: strings.TrimSpace(env.Description),
		Category:    strings.TrimSpace(env.Category),
		Tags:        env.Tags,
		LastUpdated: strings.TrimSpace(env.LastUpdated),
		ReadingTime: env.ReadingTime,
		WordCount:   env.WordCount,
		ContentType: strings.TrimSpace(env.ContentType),
	}
	if len(env.Custom) > 0 {
		m.Extra = env.Custom
	}
	return m, body, nil
}

// Has reports whether src starts with a frontmatter block carrying at
// least one non-empty key.
func Has(src []byte) bool {
	trimmed := bytes.TrimPrefix(src, []byte{0xEF, 0xBB, 0xBF})
	trimmed = bytes.TrimLeft(trimmed, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte(Delimiter)) {
		return false
	}
	m, _, err := Split(src)
	if err != nil {
		return false
	}
	return !m.IsZero()
}

// Render builds the canonical frontmatter block, trailing blank line
// included. Descriptions longer than 80 characters use a folded block
// scalar; shorter ones are inline-quoted. Extension fields and every
// key preserved in Extra are emitted after the canonical keys, so a
// parse-render cycle never loses user-authored metadata.
func Render(m meta.Metadata) string {
	var sb strings.Builder
	sb.WriteString(Delimiter + "\n")
	sb.WriteString("title: " + yamlScalar(m.Title) + "\n")
	if m.Description != "" {
		if len(m.Description) > 80 {
			folded := strings.Join(strings.Fields(m.Description), " ")
			sb.WriteString("description: >-\n  " + folded + "\n")
		} else {
			sb.WriteString("description: " + quote(m.Description) + "\n")
		}
	}
	if m.Category != "" {
		sb.WriteString("category: " + yamlScalar(m.Category) + "\n")
	}
	if len(m.Tags) > 0 {
		sb.WriteString("tags:\n")
		for _, t := range m.Tags {
			sb.WriteString("  - " + yamlScalar(t) + "\n")
		}
	}
	if m.LastUpdated != "" {
		sb.WriteString("lastUpdated: " + m.LastUpdated + "\n")
	}
	if m.ReadingTime > 0 {
		fmt.Fprintf(&sb, "readingTime: %d\n", m.ReadingTime)
	}
	if m.WordCount > 0 {
		fmt.Fprintf(&sb, "wordCount: %d\n", m.WordCount)
	}
	if m.ContentType != "" {
		sb.WriteString("contentType: " + yamlScalar(m.ContentType) + "\n")
	}
	if len(m.Extra) > 0 {
		keys := make([]string, 0, len(m.Extra))
		for k := range m.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out, err := yaml.Marshal(map[string]any{k: m.Extra[k]})
			if err != nil {
				continue
			}
			sb.Write(out)
		}
	}
	sb.WriteString(Delimiter + "\n\n")
	return sb.String()
}

// Compose renders metadata over a body, normalizing the separating
// blank line.
func Compose(m meta.Metadata, body string) string {
	return Render(m) + strings.TrimLeft(body, "\n")
}

// ISODate formats a timestamp as the date-only form used by lastUpdated.
func ISODate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// yamlScalar quotes a string only when it contains YAML-significant
// characters.
func yamlScalar(s string) string {
	for _, c := range s {
		switch c {
		case ':', '#', '\'', '"', '{', '}', '[', ']', ',', '&', '*', '?',
			'|', '-', '<', '>', '=', '!', '%', '@', '`', '\n':
			return quote(s)
		}
	}
	if s == "" {
		return `""`
	}
	return s
}

func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteByte(s[i])
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
