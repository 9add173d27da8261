// Package links resolves and rewrites relative markdown links and
// local image references for a converted documentation tree.
package links

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// Link is one markdown link found in a document.
type Link struct {
	Text     string
	Target   string
	Resolved string
	External bool
	Anchor   bool
	Exists   bool
}

// Image is one local image reference found in a document.
type Image struct {
	Alt      string
	Source   string
	CopiedTo string
	Exists   bool
}

// Report summarizes a resolution pass over one document.
type Report struct {
	Links   []Link
	Images  []Image
	Missing []string
}

// Config configures the resolver.
type Config struct {
	// AssetsDir is where referenced images are copied, relative to the
	// output directory (default: "assets").
	AssetsDir string
	// CopyImages enables copying local images next to the output tree.
	CopyImages bool
	Logger     *slog.Logger
}

func (c *Config) defaults() {
	if c.AssetsDir == "" {
		c.AssetsDir = "assets"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Resolver rewrites document links against the filesystem.
type Resolver struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Resolver.
func New(cfg Config) *Resolver {
	cfg.defaults()
	return &Resolver{cfg: cfg, logger: cfg.Logger.With("component", "links")}
}

var (
	// linkRe matches inline links; the leading group separates images
	// from plain links.
	linkRe = regexp.MustCompile(`(!?)\[([^\]]*)\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)
)

// sourceVariants are the candidate on-disk spellings of an
// extensionless or directory link target, tried in order.
var sourceVariants = []string{"%s.md", "%s.mdx", "%s/index.md", "%s/index.mdx"}

// Resolve scans content for links and images, checks relative targets
// against the directory of srcPath, rewrites markdown links to their
// site form, and optionally copies images under the assets directory
// of outDir. Copied image references are rewritten relative to
// outPath, the document being written. The rewritten content and the
// per-document report are returned; filesystem problems during image
// copy are reported, not fatal.
func (r *Resolver) Resolve(content, srcPath, outPath, outDir string) (string, Report) {
	var report Report
	srcDir := filepath.Dir(srcPath)

	rewritten := linkRe.ReplaceAllStringFunc(content, func(m string) string {
		parts := linkRe.FindStringSubmatch(m)
		bang, text, target := parts[1], parts[2], parts[3]
		if bang == "!" {
			return r.resolveImage(m, text, target, srcDir, outPath, outDir, &report)
		}
		return r.resolveLink(m, text, target, srcDir, &report)
	})

	return rewritten, report
}

func (r *Resolver) resolveLink(raw, text, target, srcDir string, report *Report) string {
	link := Link{Text: text, Target: target}

	switch {
	case isExternal(target):
		link.External = true
		link.Exists = true
	case strings.HasPrefix(target, "#"):
		link.Anchor = true
		link.Exists = true
	default:
		resolved, exists := resolveTarget(srcDir, target)
		link.Resolved = resolved
		link.Exists = exists
		if !exists {
			report.Missing = append(report.Missing, target)
			r.logger.Warn("link target not found", "target", target, "dir", srcDir)
		}
	}
	report.Links = append(report.Links, link)

	if link.External || link.Anchor || !link.Exists {
		return raw
	}
	return fmt.Sprintf("[%s](%s)", text, siteHref(target))
}

// resolveTarget checks a relative target against its source directory,
// trying the literal path first and then the markdown spellings of an
// extensionless or directory target.
func resolveTarget(srcDir, target string) (string, bool) {
	rel, fragment, _ := strings.Cut(target, "#")
	_ = fragment
	if rel == "" {
		return "", false
	}

	literal := filepath.Join(srcDir, filepath.FromSlash(rel))
	if fileExists(literal) {
		return literal, true
	}
	if path.Ext(rel) != "" {
		return "", false
	}
	for _, variant := range sourceVariants {
		candidate := filepath.Join(srcDir, filepath.FromSlash(fmt.Sprintf(variant, rel)))
		if fileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// siteHref converts a source-tree target to its published form:
// markdown extensions are dropped and index pages collapse onto their
// directory.
func siteHref(target string) string {
	rel, fragment, hasFragment := strings.Cut(target, "#")
	for _, ext := range []string{".md", ".mdx"} {
		rel = strings.TrimSuffix(rel, ext)
	}
	rel = strings.TrimSuffix(rel, "/index")
	if rel == "" {
		rel = "."
	}
	if hasFragment {
		return rel + "#" + fragment
	}
	return rel
}

func (r *Resolver) resolveImage(raw, alt, target, srcDir, outPath, outDir string, report *Report) string {
	if isExternal(target) {
		return raw
	}
	img := Image{Alt: alt, Source: target}

	src := filepath.Join(srcDir, filepath.FromSlash(target))
	if !fileExists(src) {
		report.Missing = append(report.Missing, target)
		report.Images = append(report.Images, img)
		r.logger.Warn("image not found", "target", target, "dir", srcDir)
		return raw
	}
	img.Exists = true

	if !r.cfg.CopyImages || outDir == "" {
		report.Images = append(report.Images, img)
		return raw
	}

	name := filepath.Base(src)
	dst := filepath.Join(outDir, r.cfg.AssetsDir, name)
	if err := copyFile(src, dst); err != nil {
		r.logger.Warn("image copy failed", "source", src, "error", err)
		report.Images = append(report.Images, img)
		return raw
	}
	img.CopiedTo = dst
	report.Images = append(report.Images, img)

	return fmt.Sprintf("![%s](%s)", alt, r.assetHref(outPath, dst, name))
}

// assetHref builds the reference to a copied image, relative to the
// document being written so the link survives a site-root move.
func (r *Resolver) assetHref(outPath, dst, name string) string {
	if outPath != "" {
		if rel, err := filepath.Rel(filepath.Dir(outPath), dst); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(filepath.Join(r.cfg.AssetsDir, name))
}

func isExternal(target string) bool {
	return strings.Contains(target, "://") ||
		strings.HasPrefix(target, "mailto:") ||
		strings.HasPrefix(target, "//")
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.CreateTemp(filepath.Dir(dst), ".asset-*")
	if err != nil {
		return err
	}
	defer os.Remove(out.Name())

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(out.Name(), dst)
}
