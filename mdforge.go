// Package mdforge converts heterogeneous document trees into
// frontmatter-complete markdown or MDX for a static documentation
// site.
//
// The pipeline per file: normalize the input format to a markdown
// body, synthesize the metadata the source did not carry, run
// registered metadata enhancers, compose the frontmatter block, run
// content processors (contents section, link resolution, MDX
// components), score the result, and write it atomically.
package mdforge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/mdforge/internal/frontmatter"
	"github.com/hazyhaar/mdforge/internal/links"
	"github.com/hazyhaar/mdforge/internal/mdx"
	"github.com/hazyhaar/mdforge/internal/meta"
	"github.com/hazyhaar/mdforge/internal/normalize"
	"github.com/hazyhaar/mdforge/internal/plugin"
	"github.com/hazyhaar/mdforge/internal/quality"
	"github.com/hazyhaar/mdforge/internal/toc"
)

// Service is the conversion coordinator. It owns the format
// normalizer, the metadata synthesizer, and a plugin registry
// pre-loaded with the built-in enhancements.
type Service struct {
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
	norm     *normalize.Normalizer
	synth    *meta.Synthesizer
	repairer *frontmatter.Repairer
	registry *plugin.Registry
	resolver *links.Resolver
	stats    *Stats
}

// New creates a Service and registers the built-in plugins selected by
// the configuration.
func New(cfg Config, opts ...ServiceOption) (*Service, error) {
	cfg.defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
		stats:  newStats(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "mdforge")

	s.norm = normalize.New(normalize.Config{
		MaxFileSize: cfg.MaxFileSize,
		Logger:      s.logger,
	})
	s.synth = meta.New(meta.Config{
		CategoryPatterns: cfg.CategoryPatterns,
		TagPatterns:      cfg.TagPatterns,
		DefaultCategory:  cfg.DefaultCategory,
		Logger:           s.logger,
	})
	s.repairer = frontmatter.NewRepairer(s.synth, frontmatter.Options{
		GenerateTitle:       cfg.GenerateTitle,
		GenerateDescription: cfg.GenerateDescription,
		GenerateTimestamp:   cfg.GenerateTimestamp,
	}, s.logger)
	s.repairer.SetClock(func() time.Time { return s.now() })
	s.registry = plugin.NewRegistry(s.logger)
	s.resolver = links.New(links.Config{
		CopyImages: cfg.CopyImages,
		Logger:     s.logger,
	})

	if err := s.registerBuiltins(); err != nil {
		return nil, err
	}
	return s, nil
}

// Registry exposes the plugin registry for callers that bring their
// own processors, enhancers, or validators.
func (s *Service) Registry() *plugin.Registry {
	return s.registry
}

// Stats returns a copy of the counters accumulated over every convert
// and repair call on this Service.
func (s *Service) Stats() Stats {
	out := *s.stats
	out.Formats = make(map[string]int, len(s.stats.Formats))
	for k, v := range s.stats.Formats {
		out.Formats[k] = v
	}
	return out
}

// ConvertFile runs the pipeline for one input file. The returned
// result always carries exactly one of success, skipped, or error; the
// error return is reserved for context cancellation.
func (s *Service) ConvertFile(ctx context.Context, path string) (*ConversionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.convert(ctx, path, ""), nil
}

// ConvertDirectory walks root and converts every eligible file,
// mirroring the layout under OutputDir when PreserveStructure is set.
// The per-file results are returned in walk order; per-file failures
// are recorded in their result and do not stop the walk.
func (s *Service) ConvertDirectory(ctx context.Context, root string) ([]*ConversionResult, error) {
	var results []*ConversionResult
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		res := s.convert(ctx, path, root)
		results = append(results, res)
		s.logResult(res)
		return nil
	})
	if err != nil {
		return results, fmt.Errorf("walk %s: %w", root, err)
	}
	tally := newStats()
	for _, res := range results {
		tally.record(res)
	}
	s.logger.Info("directory converted",
		"root", root,
		"processed", tally.Processed,
		"skipped", tally.Skipped,
		"errors", tally.Errors)
	return results, nil
}

// RepairFile fixes the frontmatter of an existing markdown file in
// place. Files already in the frontmatter-present-valid state are left
// untouched.
func (s *Service) RepairFile(ctx context.Context, path string) (*ConversionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &ConversionResult{InputPath: path, OutputPath: path}
	defer func() {
		if res.Success {
			res.Format = string(normalize.FormatMarkdown)
		}
		s.stats.record(res)
	}()

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".md" && ext != ".mdx" {
		res.Skipped = true
		res.SkipReason = "not a markdown file"
		return res, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Error = err.Error()
		return res, nil
	}

	repaired, report := s.repairer.Repair(string(data), path)
	res.Fixes = report.Fixes
	if !report.Repaired {
		res.Skipped = true
		res.SkipReason = "already valid"
		return res, nil
	}
	if !s.cfg.DryRun {
		if err := atomicWrite(path, []byte(repaired)); err != nil {
			res.Error = err.Error()
			return res, nil
		}
	}
	res.Success = true
	return res, nil
}

// RepairDirectory repairs every markdown file under root and returns
// the per-file results in walk order.
func (s *Service) RepairDirectory(ctx context.Context, root string) ([]*ConversionResult, error) {
	var results []*ConversionResult
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		res, repErr := s.RepairFile(ctx, path)
		if repErr != nil {
			return repErr
		}
		results = append(results, res)
		return nil
	})
	if err != nil {
		return results, fmt.Errorf("walk %s: %w", root, err)
	}
	return results, nil
}

func (s *Service) convert(ctx context.Context, path, root string) *ConversionResult {
	res := &ConversionResult{InputPath: path}
	defer func() { s.stats.record(res) }()

	if reason := s.skipReason(path); reason != "" {
		res.Skipped = true
		res.SkipReason = reason
		return res
	}

	doc, err := s.norm.Normalize(ctx, path)
	if err != nil {
		if errors.Is(err, normalize.ErrBinaryFormat) || errors.Is(err, normalize.ErrUnsupportedFormat) {
			res.Skipped = true
			res.SkipReason = err.Error()
			return res
		}
		res.Error = err.Error()
		return res
	}
	res.Format = string(doc.Format)

	existing, body, err := frontmatter.Split([]byte(doc.Body))
	if err != nil {
		s.logger.Warn("unparseable frontmatter, resynthesizing", "path", path, "error", err)
		existing = meta.Metadata{}
		body = []byte(meta.StripFrontmatter(doc.Body))
	}
	if existing.Title == "" && doc.Title != "" {
		existing.Title = doc.Title
	}

	bodyStr := string(body)
	m := s.synth.Synthesize(bodyStr, path, existing)
	if !s.cfg.GenerateTitle && existing.Title == "" {
		m.Title = ""
	}
	if !s.cfg.GenerateDescription && existing.Description == "" {
		m.Description = ""
	}
	if s.cfg.GenerateTimestamp && m.LastUpdated == "" {
		m.LastUpdated = frontmatter.ISODate(s.now())
	}

	res.OutputPath = s.outputPath(path, root)
	pctx := plugin.Context{
		InputPath:  path,
		OutputPath: res.OutputPath,
		FileName:   filepath.Base(path),
		Extension:  strings.ToLower(filepath.Ext(path)),
		Options: plugin.Options{
			OutputDir: s.cfg.OutputDir,
			DryRun:    s.cfg.DryRun,
			Verbose:   s.cfg.Verbose,
		},
		Data: make(map[string]any),
	}

	m = s.registry.Enhance(pctx, bodyStr, m)
	res.Metadata = m

	content := frontmatter.Compose(m, bodyStr)
	content = s.registry.Process(pctx, content)
	if report, ok := pctx.Data["links.report"].(links.Report); ok {
		res.Links = report
	}

	res.Quality = s.registry.Validate(pctx, content, m)

	if !s.cfg.DryRun {
		if err := atomicWrite(res.OutputPath, []byte(content)); err != nil {
			res.Error = err.Error()
			return res
		}
	}
	res.Success = true
	return res
}

// skipReason returns a non-empty reason when the path must not be
// converted at all.
func (s *Service) skipReason(path string) string {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return "hidden file"
	}
	for _, pat := range s.cfg.IgnorePatterns {
		if ok, _ := filepath.Match(pat, base); ok {
			return fmt.Sprintf("matches ignore pattern %q", pat)
		}
	}
	return ""
}

// outputPath maps an input path to its destination. With a walk root
// and PreserveStructure the layout is mirrored; otherwise the file
// lands flat in OutputDir. The extension becomes .md, or .mdx in MDX
// mode.
func (s *Service) outputPath(path, root string) string {
	ext := ".md"
	if s.cfg.MDX {
		ext = ".mdx"
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ext

	if s.cfg.PreserveStructure && root != "" {
		if rel, err := filepath.Rel(root, path); err == nil {
			return filepath.Join(s.cfg.OutputDir, filepath.Dir(rel), name)
		}
	}
	return filepath.Join(s.cfg.OutputDir, name)
}

func (s *Service) logResult(res *ConversionResult) {
	switch {
	case res.Success:
		s.logger.Info("converted", "input", res.InputPath, "output", res.OutputPath, "format", res.Format)
	case res.Skipped:
		if s.cfg.Verbose {
			s.logger.Debug("skipped", "input", res.InputPath, "reason", res.SkipReason)
		}
	default:
		s.logger.Error("conversion failed", "input", res.InputPath, "error", res.Error)
	}
}

// atomicWrite writes via a temp file in the destination directory and
// renames over the target.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".mdforge-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// registerBuiltins loads the stock processors, enhancers, and
// validators selected by the configuration.
func (s *Service) registerBuiltins() error {
	if err := s.registry.RegisterEnhancer(plugin.MetadataEnhancer{
		Name:        "doc-stats",
		Version:     "1.0.0",
		Description: "word count and reading time",
		Priority:    10,
		Enhance: func(pctx plugin.Context, content string, m meta.Metadata) (meta.Metadata, error) {
			body := meta.StripFrontmatter(content)
			if m.WordCount == 0 {
				m.WordCount = meta.WordCount(body)
			}
			if m.ReadingTime == 0 {
				m.ReadingTime = meta.ReadingTime(body)
			}
			return m, nil
		},
	}); err != nil {
		return err
	}

	if s.cfg.GenerateTOC {
		gen := toc.New(toc.Config{})
		if err := s.registry.RegisterProcessor(plugin.FileProcessor{
			Name:        "toc",
			Version:     "1.0.0",
			Description: "contents section insertion",
			Process: func(pctx plugin.Context, content string) (string, error) {
				return gen.Insert(content), nil
			},
		}); err != nil {
			return err
		}
	}

	if s.cfg.ResolveLinks {
		if err := s.registry.RegisterProcessor(plugin.FileProcessor{
			Name:        "links",
			Version:     "1.0.0",
			Description: "relative link and image resolution",
			Process: func(pctx plugin.Context, content string) (string, error) {
				out, report := s.resolver.Resolve(content, pctx.InputPath, pctx.OutputPath, pctx.Options.OutputDir)
				pctx.Data["links.report"] = report
				return out, nil
			},
		}); err != nil {
			return err
		}
	}

	if s.cfg.MDX {
		transformer := mdx.New()
		if err := s.registry.RegisterProcessor(plugin.FileProcessor{
			Name:        "mdx-components",
			Version:     "1.0.0",
			Description: "markdown constructs to MDX components",
			Process: func(pctx plugin.Context, content string) (string, error) {
				return transformer.Transform(content), nil
			},
		}); err != nil {
			return err
		}
	}

	return s.registry.RegisterValidator(plugin.QualityValidator{
		Name:        "structure",
		Version:     "1.0.0",
		Description: "metadata and structure scoring",
		Validate: func(pctx plugin.Context, content string, m meta.Metadata) (*quality.Report, error) {
			return quality.Validate(content, m), nil
		},
	})
}
