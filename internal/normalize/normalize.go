// Package normalize converts supported input formats into a markdown
// document body.
//
// Supported formats:
//   - .docx      — Microsoft Word (archive/zip → word/document.xml)
//   - .odt       — OpenDocument Text (archive/zip → content.xml)
//   - .html .htm — HTML (sanitized, then converted to markdown)
//   - .txt .text — plain text (line-oriented structure heuristic)
//   - .rtf       — rich text (control-word stripping + text heuristic)
//   - .md .mdx   — markdown/MDX (passthrough)
//
// Binary-looking extensions are rejected by a deny-list before any read.
// The normalizer has no metadata concerns beyond surfacing a source
// title when the format carries one.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

// Sentinel errors. Both unsupported and binary formats map to a skip at
// the coordinator level, never to a conversion failure.
var (
	ErrUnsupportedFormat = errors.New("normalize: unsupported format")
	ErrBinaryFormat      = errors.New("normalize: binary format")
	ErrDecode            = errors.New("normalize: undecodable content")
)

// Format identifies an input document type.
type Format string

const (
	FormatDocx     Format = "docx"
	FormatODT      Format = "odt"
	FormatHTML     Format = "html"
	FormatText     Format = "text"
	FormatRTF      Format = "rtf"
	FormatMarkdown Format = "markdown"
	FormatMDX      Format = "mdx"
)

// binaryExtensions is the deny-list checked before attempting any read.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true,
	".ico": true, ".webp": true, ".pdf": true, ".zip": true, ".gz": true,
	".tar": true, ".exe": true, ".bin": true, ".so": true, ".dll": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".wav": true,
}

// Document is the result of normalizing one input file.
type Document struct {
	Path   string
	Format Format
	// Title is a source-native title (HTML <title>, docx Title style)
	// when the format carries one; empty otherwise.
	Title string
	// Body is the markdown body. Markdown inputs keep their frontmatter.
	Body string
}

// Config configures a Normalizer.
type Config struct {
	// MaxFileSize is the largest input accepted (default: 20 MB).
	MaxFileSize int64 `yaml:"max_file_size"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 20 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Normalizer converts raw input files into markdown bodies.
type Normalizer struct {
	cfg       Config
	logger    *slog.Logger
	sanitizer *bluemonday.Policy
	conv      *converter.Converter
}

// New creates a Normalizer.
func New(cfg Config) *Normalizer {
	cfg.defaults()
	return &Normalizer{
		cfg:       cfg,
		logger:    cfg.Logger,
		sanitizer: bluemonday.UGCPolicy(),
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Detect returns the document format for a path based on its extension.
func Detect(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if binaryExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrBinaryFormat, ext)
	}
	switch ext {
	case ".docx":
		return FormatDocx, nil
	case ".odt":
		return FormatODT, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".txt", ".text":
		return FormatText, nil
	case ".rtf":
		return FormatRTF, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".mdx":
		return FormatMDX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Normalize reads and converts one input file to a markdown body.
// Empty input yields an empty body, not an error.
func (n *Normalizer) Normalize(ctx context.Context, path string) (*Document, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > n.cfg.MaxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), n.cfg.MaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	n.logger.Debug("normalizing document", "path", path, "format", format)

	doc := &Document{Path: path, Format: format}
	switch format {
	case FormatDocx:
		doc.Title, doc.Body, err = n.wordToMarkdown(path, "word/document.xml", parseDocx)
	case FormatODT:
		doc.Title, doc.Body, err = n.wordToMarkdown(path, "content.xml", parseODT)
	case FormatHTML:
		if err = checkUTF8(data); err == nil {
			doc.Title = htmlTitle(data)
			doc.Body = n.htmlToMarkdown(string(data))
		}
	case FormatText:
		if err = checkUTF8(data); err == nil {
			doc.Body = textToMarkdown(string(data))
		}
	case FormatRTF:
		doc.Body = textToMarkdown(rtfToText(string(data)))
	case FormatMarkdown, FormatMDX:
		if err = checkUTF8(data); err == nil {
			doc.Body = string(data)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("normalize %s (%s): %w", path, format, err)
	}
	return doc, nil
}

func checkUTF8(data []byte) error {
	if !utf8.Valid(data) {
		return ErrDecode
	}
	return nil
}

// htmlToMarkdown sanitizes and converts HTML. On converter failure or
// empty output it falls back to the reduced DOM stripper, which still
// extracts headings and paragraph text.
func (n *Normalizer) htmlToMarkdown(src string) string {
	sanitized := n.sanitizer.Sanitize(src)
	out, err := n.conv.ConvertString(sanitized)
	if err != nil || strings.TrimSpace(out) == "" {
		if err != nil {
			n.logger.Warn("html conversion failed, using fallback stripper", "error", err)
		}
		return stripHTML(src)
	}
	return strings.TrimSpace(out) + "\n"
}
