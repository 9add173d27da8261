package mdforge

import (
	"github.com/hazyhaar/mdforge/internal/links"
	"github.com/hazyhaar/mdforge/internal/meta"
	"github.com/hazyhaar/mdforge/internal/quality"
)

// ConversionResult describes the outcome for one input file. Exactly
// one of Success, Skipped, or a non-empty Error holds.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Format     string

	Success    bool
	Skipped    bool
	SkipReason string
	Error      string

	Metadata meta.Metadata
	Quality  []*quality.Report
	Links    links.Report
	// Fixes lists frontmatter repairs applied by RepairFile.
	Fixes []string
}

// Stats aggregates conversion and repair outcomes over the lifetime
// of a Service.
type Stats struct {
	Processed int
	Skipped   int
	Errors    int
	// Formats counts successfully converted files per input format.
	Formats map[string]int
}

func newStats() *Stats {
	return &Stats{Formats: make(map[string]int)}
}

func (s *Stats) record(res *ConversionResult) {
	switch {
	case res.Success:
		s.Processed++
		s.Formats[res.Format]++
	case res.Skipped:
		s.Skipped++
	default:
		s.Errors++
	}
}

// Total returns the number of files seen.
func (s *Stats) Total() int {
	return s.Processed + s.Skipped + s.Errors
}
