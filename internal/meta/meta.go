// Package meta derives document metadata (title, description, category,
// tags) from a markdown body and its file path.
//
// All derivation is pattern-based: path segments and content keywords are
// matched against configurable tables, with no language understanding.
// Fields already present on a document always win over derived values.
package meta

import (
	"log/slog"
	"strings"
)

// Metadata is the document metadata carried through the pipeline and
// rendered into the output frontmatter block.
type Metadata struct {
	Title       string   `yaml:"title,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Category    string   `yaml:"category,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
	LastUpdated string   `yaml:"lastUpdated,omitempty"`

	// Extension fields populated by enhancers. Not all of them end up in
	// the rendered frontmatter.
	ReadingTime int            `yaml:"readingTime,omitempty"`
	WordCount   int            `yaml:"wordCount,omitempty"`
	ContentType string         `yaml:"contentType,omitempty"`
	Extra       map[string]any `yaml:",inline"`
}

// IsZero reports whether no field carries a value.
func (m Metadata) IsZero() bool {
	return m.Title == "" && m.Description == "" && m.Category == "" &&
		len(m.Tags) == 0 && m.LastUpdated == "" && m.ReadingTime == 0 &&
		m.WordCount == 0 && m.ContentType == "" && len(m.Extra) == 0
}

// Merge folds overlay into base. Existing non-empty fields on base win;
// overlay only fills gaps. Tags are unioned preserving base order first.
func Merge(base, overlay Metadata) Metadata {
	out := base
	if out.Title == "" {
		out.Title = overlay.Title
	}
	if out.Description == "" {
		out.Description = overlay.Description
	}
	if out.Category == "" {
		out.Category = overlay.Category
	}
	if out.LastUpdated == "" {
		out.LastUpdated = overlay.LastUpdated
	}
	if out.ReadingTime == 0 {
		out.ReadingTime = overlay.ReadingTime
	}
	if out.WordCount == 0 {
		out.WordCount = overlay.WordCount
	}
	if out.ContentType == "" {
		out.ContentType = overlay.ContentType
	}
	out.Tags = unionTags(out.Tags, overlay.Tags)
	if len(overlay.Extra) > 0 {
		if out.Extra == nil {
			out.Extra = make(map[string]any, len(overlay.Extra))
		}
		for k, v := range overlay.Extra {
			if _, ok := out.Extra[k]; !ok {
				out.Extra[k] = v
			}
		}
	}
	return out
}

func unionTags(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, t := range a {
		key := strings.ToLower(t)
		if !seen[key] {
			seen[key] = true
			out = append(out, t)
		}
	}
	for _, t := range b {
		key := strings.ToLower(t)
		if !seen[key] {
			seen[key] = true
			out = append(out, t)
		}
	}
	return out
}

// CategoryPattern maps a path-segment substring to a category name.
// Patterns are checked in declaration order; first match wins.
type CategoryPattern struct {
	Substr   string `yaml:"substr"`
	Category string `yaml:"category"`
}

// TagPattern maps a content substring to a tag.
type TagPattern struct {
	Substr string `yaml:"substr"`
	Tag    string `yaml:"tag"`
}

// Config configures the Synthesizer.
type Config struct {
	// CategoryPatterns are matched against path segments, in order.
	CategoryPatterns []CategoryPattern `yaml:"category_patterns"`

	// TagPatterns are matched against lowercased body content.
	TagPatterns []TagPattern `yaml:"tag_patterns"`

	// DefaultCategory is used when no signal matches (default: "general").
	DefaultCategory string `yaml:"default_category"`

	// MaxTags caps the derived tag list (default: 8).
	MaxTags int `yaml:"max_tags"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if len(c.CategoryPatterns) == 0 {
		c.CategoryPatterns = defaultCategoryPatterns()
	}
	if len(c.TagPatterns) == 0 {
		c.TagPatterns = defaultTagPatterns()
	}
	if c.DefaultCategory == "" {
		c.DefaultCategory = "general"
	}
	if c.MaxTags <= 0 {
		c.MaxTags = 8
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Synthesizer derives metadata fields that are not already present.
type Synthesizer struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Synthesizer with the given configuration.
func New(cfg Config) *Synthesizer {
	cfg.defaults()
	return &Synthesizer{cfg: cfg, logger: cfg.Logger}
}

// Synthesize derives every missing field of existing from body and path.
func (s *Synthesizer) Synthesize(body, path string, existing Metadata) Metadata {
	derived := Metadata{
		Title:       s.Title(body, path),
		Description: s.Description(body),
		Category:    s.Category(body, path),
	}
	derived.Tags = s.Tags(body, path, firstNonEmpty(existing.Category, derived.Category))
	return Merge(existing, derived)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func defaultCategoryPatterns() []CategoryPattern {
	return []CategoryPattern{
		{Substr: "api", Category: "api"},
		{Substr: "reference", Category: "api"},
		{Substr: "tutorial", Category: "tutorials"},
		{Substr: "guide", Category: "guides"},
		{Substr: "howto", Category: "guides"},
		{Substr: "how-to", Category: "guides"},
		{Substr: "architecture", Category: "architecture"},
		{Substr: "design", Category: "architecture"},
		{Substr: "config", Category: "configuration"},
		{Substr: "setup", Category: "configuration"},
		{Substr: "install", Category: "configuration"},
		{Substr: "business", Category: "business"},
		{Substr: "legal", Category: "business"},
		{Substr: "blog", Category: "blog"},
		{Substr: "news", Category: "blog"},
	}
}

func defaultTagPatterns() []TagPattern {
	return []TagPattern{
		{Substr: "javascript", Tag: "javascript"},
		{Substr: "typescript", Tag: "typescript"},
		{Substr: "python", Tag: "python"},
		{Substr: "golang", Tag: "golang"},
		{Substr: "react", Tag: "react"},
		{Substr: "vue", Tag: "vue"},
		{Substr: "docker", Tag: "docker"},
		{Substr: "kubernetes", Tag: "kubernetes"},
		{Substr: "graphql", Tag: "graphql"},
		{Substr: "postgres", Tag: "postgresql"},
		{Substr: "mysql", Tag: "mysql"},
		{Substr: "sqlite", Tag: "sqlite"},
		{Substr: "redis", Tag: "redis"},
		{Substr: "terraform", Tag: "terraform"},
		{Substr: "aws", Tag: "aws"},
		{Substr: "azure", Tag: "azure"},
		{Substr: "linux", Tag: "linux"},
		{Substr: "rest api", Tag: "api"},
		{Substr: "websocket", Tag: "websockets"},
		{Substr: "oauth", Tag: "oauth"},
		{Substr: "markdown", Tag: "markdown"},
	}
}
