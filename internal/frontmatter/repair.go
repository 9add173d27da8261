package frontmatter

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/hazyhaar/mdforge/internal/meta"
)

// Options toggles which fields Repair may synthesize.
type Options struct {
	GenerateTitle       bool
	GenerateDescription bool
	GenerateTimestamp   bool
}

// DefaultOptions enables every synthesized field.
func DefaultOptions() Options {
	return Options{GenerateTitle: true, GenerateDescription: true, GenerateTimestamp: true}
}

// Report describes what Repair changed.
type Report struct {
	Repaired bool
	Fixes    []string
}

func (r *Report) fix(msg string) {
	r.Repaired = true
	r.Fixes = append(r.Fixes, msg)
}

// Repairer synthesizes and fixes frontmatter blocks.
type Repairer struct {
	synth  *meta.Synthesizer
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// NewRepairer creates a Repairer backed by the given synthesizer.
func NewRepairer(synth *meta.Synthesizer, opts Options, logger *slog.Logger) *Repairer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repairer{synth: synth, opts: opts, logger: logger, now: time.Now}
}

// SetClock overrides the time source used for lastUpdated stamps.
func (r *Repairer) SetClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// Repair moves a document to the frontmatter-present-valid state.
//
// A document without frontmatter gets a full synthesized block. A
// document with a broken or incomplete block gets the missing required
// field (title) and recommended field (description) filled, disallowed
// control characters cleaned, an over-length description truncated, and
// a category inferred from the parent directory when absent.
//
// Repair is idempotent: already-valid content is returned unchanged and
// the report carries zero fixes.
func (r *Repairer) Repair(content, path string) (string, *Report) {
	report := &Report{}

	m, body, err := Split([]byte(content))
	if err != nil {
		// Unparseable block: rebuild from scratch off the raw body.
		r.logger.Warn("frontmatter unparseable, rebuilding", "path", path, "error", err)
		stripped := meta.StripFrontmatter(content)
		report.fix("rebuilt unparseable frontmatter block")
		return r.build(stripped, path, meta.Metadata{}, report), report
	}

	if !Has([]byte(content)) {
		report.fix("added frontmatter block")
		return r.build(string(body), path, meta.Metadata{}, report), report
	}

	cleaned, changed := cleanMeta(m)
	if changed {
		report.fix("removed disallowed characters")
	}
	m = cleaned

	if m.Title == "" && r.opts.GenerateTitle {
		m.Title = r.synth.Title(string(body), path)
		report.fix("filled missing title")
	}
	if m.Description == "" && r.opts.GenerateDescription {
		if d := r.synth.Description(string(body)); d != "" {
			m.Description = d
			report.fix("filled missing description")
		}
	}
	if len(m.Description) > meta.MaxDescriptionLen+3 {
		m.Description = truncateDescription(m.Description)
		report.fix("truncated over-length description")
	}
	if m.Category == "" {
		m.Category = parentCategory(path)
		if m.Category == "" {
			m.Category = r.synth.Category(string(body), path)
		}
		report.fix("inferred missing category")
	}
	if m.LastUpdated == "" && r.opts.GenerateTimestamp {
		m.LastUpdated = ISODate(r.now())
		report.fix("stamped lastUpdated")
	}

	if !report.Repaired {
		return content, report
	}
	return Compose(m, string(body)), report
}

// build synthesizes a complete block over a bare body.
func (r *Repairer) build(body, path string, existing meta.Metadata, report *Report) string {
	m := r.synth.Synthesize(body, path, existing)
	if !r.opts.GenerateTitle && existing.Title == "" {
		m.Title = meta.HumanizeFilename(path)
	}
	if !r.opts.GenerateDescription && existing.Description == "" {
		m.Description = ""
	}
	if r.opts.GenerateTimestamp && m.LastUpdated == "" {
		m.LastUpdated = ISODate(r.now())
	}
	return Compose(m, body)
}

// cleanMeta strips control characters from scalar fields.
func cleanMeta(m meta.Metadata) (meta.Metadata, bool) {
	changed := false
	clean := func(s string) string {
		out := strings.Map(func(r rune) rune {
			if r < 0x20 && r != '\n' && r != '\t' {
				return -1
			}
			if r == 0xFFFD {
				return -1
			}
			return r
		}, s)
		out = strings.TrimSpace(out)
		if out != s {
			changed = true
		}
		return out
	}
	m.Title = clean(m.Title)
	m.Description = clean(m.Description)
	m.Category = clean(m.Category)
	for i, t := range m.Tags {
		m.Tags[i] = clean(t)
	}
	return m, changed
}

func truncateDescription(d string) string {
	d = strings.Join(strings.Fields(d), " ")
	if len(d) <= meta.MaxDescriptionLen {
		return d
	}
	n := meta.MaxDescriptionLen
	for n > 0 && !utf8.RuneStart(d[n]) {
		n--
	}
	cut := d[:n]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:-") + "..."
}

// parentCategory derives a category from the parent directory name.
func parentCategory(path string) string {
	dir := filepath.Base(filepath.Dir(path))
	if dir == "." || dir == "/" || dir == "" {
		return ""
	}
	var sb strings.Builder
	for _, r := range strings.ToLower(dir) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
