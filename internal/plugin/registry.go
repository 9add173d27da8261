package plugin

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/hazyhaar/mdforge/internal/meta"
	"github.com/hazyhaar/mdforge/internal/quality"
)

// Registry holds the three plugin collections for one pipeline instance:
// processors in registration order, enhancers sorted by descending
// priority, validators unordered.
//
// The registry is populated at construction time and read-mostly after;
// Clear exists for test isolation and must not run mid-conversion.
type Registry struct {
	processors []FileProcessor
	enhancers  []MetadataEnhancer
	validators []QualityValidator
	logger     *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// RegisterProcessor validates and appends a file processor.
func (r *Registry) RegisterProcessor(p FileProcessor) error {
	if err := validateIdentity(p.Name, p.Version); err != nil {
		return fmt.Errorf("%w: processor %q: %v", ErrInvalidPlugin, p.Name, err)
	}
	if p.Process == nil {
		return fmt.Errorf("%w: processor %q: missing Process function", ErrInvalidPlugin, p.Name)
	}
	r.processors = append(r.processors, p)
	return nil
}

// RegisterEnhancer validates and inserts a metadata enhancer, keeping the
// collection sorted by descending priority (stable for equal priorities).
func (r *Registry) RegisterEnhancer(e MetadataEnhancer) error {
	if err := validateIdentity(e.Name, e.Version); err != nil {
		return fmt.Errorf("%w: enhancer %q: %v", ErrInvalidPlugin, e.Name, err)
	}
	if e.Enhance == nil {
		return fmt.Errorf("%w: enhancer %q: missing Enhance function", ErrInvalidPlugin, e.Name)
	}
	r.enhancers = append(r.enhancers, e)
	sort.SliceStable(r.enhancers, func(i, j int) bool {
		return r.enhancers[i].Priority > r.enhancers[j].Priority
	})
	return nil
}

// RegisterValidator validates and appends a quality validator.
func (r *Registry) RegisterValidator(v QualityValidator) error {
	if err := validateIdentity(v.Name, v.Version); err != nil {
		return fmt.Errorf("%w: validator %q: %v", ErrInvalidPlugin, v.Name, err)
	}
	if v.Validate == nil {
		return fmt.Errorf("%w: validator %q: missing Validate function", ErrInvalidPlugin, v.Name)
	}
	r.validators = append(r.validators, v)
	return nil
}

// Clear drops every registered plugin. Test isolation only.
func (r *Registry) Clear() {
	r.processors = nil
	r.enhancers = nil
	r.validators = nil
}

// Processors returns processors applicable to ext, in registration order.
func (r *Registry) Processors(ext string) []FileProcessor {
	var out []FileProcessor
	for _, p := range r.processors {
		if appliesTo(p.Extensions, ext) {
			out = append(out, p)
		}
	}
	return out
}

// Enhancers returns enhancers applicable to ext, highest priority first.
func (r *Registry) Enhancers(ext string) []MetadataEnhancer {
	var out []MetadataEnhancer
	for _, e := range r.enhancers {
		if appliesTo(e.Extensions, ext) {
			out = append(out, e)
		}
	}
	return out
}

// Validators returns all registered validators.
func (r *Registry) Validators() []QualityValidator {
	return r.validators
}

// Enhance runs every applicable enhancer in priority order, folding each
// result over the accumulated metadata. Existing non-empty fields win; a
// failing enhancer is logged and skipped without affecting the others.
func (r *Registry) Enhance(pctx Context, content string, m meta.Metadata) meta.Metadata {
	for _, e := range r.Enhancers(pctx.Extension) {
		result, err := runEnhancer(e, pctx, content, m)
		if err != nil {
			r.logger.Warn("enhancer failed, skipping", "enhancer", e.Name, "path", pctx.InputPath, "error", err)
			continue
		}
		m = meta.Merge(m, result)
	}
	return m
}

// Process runs every applicable processor in registration order. A
// processor may gate itself via Validate and wrap its work with
// Preprocess/Postprocess. Failures roll back to the content as of the
// last successful stage.
func (r *Registry) Process(pctx Context, content string) string {
	for _, p := range r.Processors(pctx.Extension) {
		if p.Validate != nil && !p.Validate(pctx, content) {
			continue
		}
		next, err := runProcessor(p, pctx, content)
		if err != nil {
			r.logger.Warn("processor failed, keeping prior content", "processor", p.Name, "path", pctx.InputPath, "error", err)
			continue
		}
		content = next
	}
	return content
}

// Validate runs every validator and collects the independent reports.
// Reports are not merged; the caller decides how to combine them.
func (r *Registry) Validate(pctx Context, content string, m meta.Metadata) []*quality.Report {
	var reports []*quality.Report
	for _, v := range r.validators {
		report, err := runValidator(v, pctx, content, m)
		if err != nil {
			r.logger.Warn("validator failed, skipping", "validator", v.Name, "path", pctx.InputPath, "error", err)
			continue
		}
		if report != nil {
			reports = append(reports, report)
		}
	}
	return reports
}

func runEnhancer(e MetadataEnhancer, pctx Context, content string, m meta.Metadata) (result meta.Metadata, err error) {
	defer recoverTo(&err)
	return e.Enhance(pctx, content, m)
}

func runProcessor(p FileProcessor, pctx Context, content string) (out string, err error) {
	defer recoverTo(&err)
	if p.Preprocess != nil {
		if content, err = p.Preprocess(pctx, content); err != nil {
			return "", err
		}
	}
	if content, err = p.Process(pctx, content); err != nil {
		return "", err
	}
	if p.Postprocess != nil {
		if content, err = p.Postprocess(pctx, content); err != nil {
			return "", err
		}
	}
	return content, nil
}

func runValidator(v QualityValidator, pctx Context, content string, m meta.Metadata) (report *quality.Report, err error) {
	defer recoverTo(&err)
	return v.Validate(pctx, content, m)
}

// recoverTo converts a plugin panic into an error so one plugin cannot
// abort the pipeline.
func recoverTo(err *error) {
	if rec := recover(); rec != nil {
		*err = fmt.Errorf("plugin panic: %v", rec)
	}
}
