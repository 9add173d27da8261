package mdforge

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/mdforge/internal/meta"
)

// Config is the pipeline configuration. The zero value plus defaults()
// is a working setup that converts into ./out.
type Config struct {
	// OutputDir receives converted files (default: "out").
	OutputDir string `yaml:"output_dir"`
	// PreserveStructure mirrors the input directory layout under
	// OutputDir instead of flattening.
	PreserveStructure bool `yaml:"preserve_structure"`

	// MDX switches output to .mdx with component rewriting.
	MDX bool `yaml:"mdx"`
	// GenerateTOC inserts a contents section into converted documents.
	GenerateTOC bool `yaml:"generate_toc"`
	// ResolveLinks rewrites relative links against the input tree.
	ResolveLinks bool `yaml:"resolve_links"`
	// CopyImages copies referenced local images under OutputDir.
	CopyImages bool `yaml:"copy_images"`

	GenerateTitle       bool `yaml:"generate_title"`
	GenerateDescription bool `yaml:"generate_description"`
	GenerateTimestamp   bool `yaml:"generate_timestamp"`

	// DefaultCategory is used when neither path nor content match a
	// category pattern (default: "general").
	DefaultCategory  string                 `yaml:"default_category"`
	CategoryPatterns []meta.CategoryPattern `yaml:"category_patterns"`
	TagPatterns      []meta.TagPattern      `yaml:"tag_patterns"`

	// IgnorePatterns are glob patterns matched against base names;
	// matching files are skipped.
	IgnorePatterns []string `yaml:"ignore_patterns"`

	// MaxFileSize is the largest input accepted, in bytes.
	MaxFileSize int64 `yaml:"max_file_size"`

	DryRun  bool `yaml:"dry_run"`
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns a Config with every default applied, including
// the synthesis flags, which are enabled here but not forced by
// defaults() so an explicit false survives.
func DefaultConfig() Config {
	cfg := Config{
		GenerateTitle:       true,
		GenerateDescription: true,
		GenerateTimestamp:   true,
		GenerateTOC:         true,
		ResolveLinks:        true,
	}
	cfg.defaults()
	return cfg
}

func (c *Config) defaults() {
	if c.OutputDir == "" {
		c.OutputDir = "out"
	}
	if c.DefaultCategory == "" {
		c.DefaultCategory = "general"
	}
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	for _, pat := range c.IgnorePatterns {
		if _, err := filepath.Match(pat, "probe"); err != nil {
			return fmt.Errorf("ignore pattern %q: %w", pat, err)
		}
	}
	if c.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size must not be negative: %d", c.MaxFileSize)
	}
	return nil
}

// LoadConfig reads a YAML configuration file over DefaultConfig, so
// absent keys keep their defaults, and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.defaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
