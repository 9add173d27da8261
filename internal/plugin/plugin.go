// Package plugin holds the extension contract of the conversion
// pipeline: file processors transform document content, metadata
// enhancers augment metadata, quality validators score the result.
//
// A Registry is owned by one pipeline instance; there is no process-wide
// registration. Optional hooks are explicit nullable function fields,
// checked for presence before invocation.
package plugin

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hazyhaar/mdforge/internal/meta"
	"github.com/hazyhaar/mdforge/internal/quality"
)

// ErrInvalidPlugin is returned when a descriptor fails registration
// validation. Registration failures are construction errors, never
// silent skips.
var ErrInvalidPlugin = errors.New("plugin: invalid descriptor")

// Context is the immutable per-file record handed to every plugin.
// The Data bag passes intermediate artifacts between stages; plugins
// must treat the rest as read-only.
type Context struct {
	InputPath  string
	OutputPath string
	FileName   string
	Extension  string
	Options    Options
	Data       map[string]any
}

// Options is the slice of pipeline configuration plugins may consult.
type Options struct {
	OutputDir string
	DryRun    bool
	Verbose   bool
}

// FileProcessor transforms document body content. Process is required;
// Validate gates execution, Preprocess and Postprocess wrap it.
type FileProcessor struct {
	Name        string
	Version     string
	Description string
	Extensions  []string

	Process     func(pctx Context, content string) (string, error)
	Validate    func(pctx Context, content string) bool
	Preprocess  func(pctx Context, content string) (string, error)
	Postprocess func(pctx Context, content string) (string, error)
}

// MetadataEnhancer augments metadata without touching the body.
// Higher priority runs first.
type MetadataEnhancer struct {
	Name        string
	Version     string
	Description string
	Extensions  []string
	Priority    int

	Enhance func(pctx Context, content string, m meta.Metadata) (meta.Metadata, error)
}

// QualityValidator scores content and metadata without mutating either.
type QualityValidator struct {
	Name        string
	Version     string
	Description string

	Validate func(pctx Context, content string, m meta.Metadata) (*quality.Report, error)
}

func validateIdentity(name, version string) error {
	target := struct {
		Name    string
		Version string
	}{name, version}
	return validation.ValidateStruct(&target,
		validation.Field(&target.Name, validation.Required),
		validation.Field(&target.Version, validation.Required),
	)
}

// appliesTo reports whether a declared extension list covers ext.
// An empty list applies to everything.
func appliesTo(extensions []string, ext string) bool {
	if len(extensions) == 0 {
		return true
	}
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}
