package mdforge

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testService(t *testing.T, cfg Config) *Service {
	t.Helper()
	if cfg.OutputDir == "" {
		cfg.OutputDir = t.TempDir()
	}
	s, err := New(cfg, WithClock(func() time.Time {
		return time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	}))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConvertFile_SynthesizesFrontmatter(t *testing.T) {
	in := t.TempDir()
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()
	s := testService(t, cfg)

	path := writeInput(t, in, "getting-started.md", "# Getting Started\n\nInstall the binary and run it once to generate a config.\n\n## Install\n\nSteps.\n\n## Run\n\nMore steps.\n")
	res, err := s.ConvertFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Skipped || res.Error != "" {
		t.Fatalf("result = %+v", res)
	}

	out, err := os.ReadFile(res.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	text := string(out)
	if !strings.HasPrefix(text, "---\n") {
		t.Errorf("frontmatter missing:\n%s", text)
	}
	if !strings.Contains(text, "title: Getting Started") {
		t.Errorf("title missing:\n%s", text)
	}
	if !strings.Contains(text, "lastUpdated: 2026-08-24") {
		t.Errorf("timestamp missing:\n%s", text)
	}
	if res.Metadata.Description == "" {
		t.Errorf("description not synthesized: %+v", res.Metadata)
	}
}

func TestConvertFile_BinarySkippedNoWrite(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	cfg := DefaultConfig()
	cfg.OutputDir = out
	s := testService(t, cfg)

	path := writeInput(t, in, "logo.png", "\x89PNG")
	res, err := s.ConvertFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Skipped || res.Success || res.Error != "" {
		t.Fatalf("binary input must be skipped: %+v", res)
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Errorf("nothing should be written for a skipped file: %v", entries)
	}
}

func TestConvertFile_HiddenAndIgnored(t *testing.T) {
	in := t.TempDir()
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.IgnorePatterns = []string{"draft-*"}
	s := testService(t, cfg)

	hidden := writeInput(t, in, ".secret.md", "# Hidden\n")
	res, _ := s.ConvertFile(context.Background(), hidden)
	if !res.Skipped {
		t.Errorf("hidden file should be skipped: %+v", res)
	}

	draft := writeInput(t, in, "draft-notes.md", "# Draft\n")
	res, _ = s.ConvertFile(context.Background(), draft)
	if !res.Skipped || !strings.Contains(res.SkipReason, "ignore pattern") {
		t.Errorf("ignored file should be skipped: %+v", res)
	}
}

func TestConvertFile_DryRun(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	cfg := DefaultConfig()
	cfg.OutputDir = out
	cfg.DryRun = true
	s := testService(t, cfg)

	path := writeInput(t, in, "doc.md", "# Doc\n\nBody text for the document.\n")
	res, _ := s.ConvertFile(context.Background(), path)
	if !res.Success {
		t.Fatalf("dry run should still report success: %+v", res)
	}
	if _, err := os.Stat(res.OutputPath); !os.IsNotExist(err) {
		t.Errorf("dry run must not write: %v", err)
	}
}

func TestConvertFile_MDXMode(t *testing.T) {
	in := t.TempDir()
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.MDX = true
	cfg.GenerateTOC = false
	s := testService(t, cfg)

	path := writeInput(t, in, "alerts.md", "# Alerts\n\n> [!NOTE]\n> Useful.\n")
	res, _ := s.ConvertFile(context.Background(), path)
	if !res.Success {
		t.Fatalf("result = %+v", res)
	}
	if filepath.Ext(res.OutputPath) != ".mdx" {
		t.Errorf("output should be .mdx: %s", res.OutputPath)
	}
	out, _ := os.ReadFile(res.OutputPath)
	if !strings.Contains(string(out), `<Aside type="note">`) {
		t.Errorf("components not rewritten:\n%s", out)
	}
}

func TestConvertFile_ExistingMetadataWins(t *testing.T) {
	in := t.TempDir()
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()
	s := testService(t, cfg)

	src := "---\ntitle: Kept Title\ndescription: Kept description.\n---\n\n# Different Heading\n\nBody.\n"
	path := writeInput(t, in, "doc.md", src)
	res, _ := s.ConvertFile(context.Background(), path)
	if !res.Success {
		t.Fatalf("result = %+v", res)
	}
	if res.Metadata.Title != "Kept Title" {
		t.Errorf("existing title must win: %+v", res.Metadata)
	}
	if res.Metadata.Description != "Kept description." {
		t.Errorf("existing description must win: %+v", res.Metadata)
	}
}

func TestConvertFile_QualityReported(t *testing.T) {
	in := t.TempDir()
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()
	s := testService(t, cfg)

	path := writeInput(t, in, "doc.md", "# Doc\n\nA short body.\n")
	res, _ := s.ConvertFile(context.Background(), path)
	if len(res.Quality) != 1 {
		t.Fatalf("expected one quality report, got %d", len(res.Quality))
	}
	if res.Quality[0].Score <= 0 {
		t.Errorf("score = %d", res.Quality[0].Score)
	}
}

func TestConvertDirectory_StatsAndStructure(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	cfg := DefaultConfig()
	cfg.OutputDir = out
	cfg.PreserveStructure = true
	s := testService(t, cfg)

	writeInput(t, in, "index.md", "# Home\n\nWelcome to the docs.\n")
	writeInput(t, in, filepath.Join("guides", "setup.md"), "# Setup\n\nHow to set things up.\n")
	writeInput(t, in, "image.png", "\x89PNG")
	writeInput(t, in, filepath.Join(".git", "config"), "noise")

	results, err := s.ConvertDirectory(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected one result per walked file, got %d", len(results))
	}
	stats := s.Stats()
	if stats.Processed != 2 || stats.Skipped != 1 || stats.Errors != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.Formats["markdown"] != 2 {
		t.Errorf("format counts = %+v", stats.Formats)
	}
	if _, err := os.Stat(filepath.Join(out, "guides", "setup.md")); err != nil {
		t.Errorf("structure not preserved: %v", err)
	}
}

func TestConvertDirectory_PerFileResults(t *testing.T) {
	// WHAT: the directory walk returns every file's result, in walk
	// order, with input and output paths filled in.
	// WHY: callers report per-file outcomes; an aggregate alone cannot
	// say which file failed or where a file landed.
	in := t.TempDir()
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()
	s := testService(t, cfg)

	writeInput(t, in, "a.md", "# A\n\nFirst document body.\n")
	writeInput(t, in, "b.md", "# B\n\nSecond document body.\n")

	results, err := s.ConvertDirectory(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	for _, res := range results {
		if !res.Success {
			t.Errorf("result not successful: %+v", res)
		}
		if res.InputPath == "" || res.OutputPath == "" {
			t.Errorf("paths missing: %+v", res)
		}
	}
	if filepath.Base(results[0].InputPath) != "a.md" || filepath.Base(results[1].InputPath) != "b.md" {
		t.Errorf("walk order lost: %s, %s", results[0].InputPath, results[1].InputPath)
	}
}

func TestConvertDirectory_ErrorIsolation(t *testing.T) {
	in := t.TempDir()
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()
	s := testService(t, cfg)

	writeInput(t, in, "bad.txt", string([]byte{0xff, 0xfe, 0x41}))
	writeInput(t, in, "good.md", "# Good\n\nThis one converts fine.\n")

	results, err := s.ConvertDirectory(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	stats := s.Stats()
	if stats.Errors != 1 || stats.Processed != 1 {
		t.Errorf("one failure must not stop the walk: %+v", stats)
	}
}

func TestRepairFile_InPlaceAndIdempotent(t *testing.T) {
	in := t.TempDir()
	cfg := DefaultConfig()
	s := testService(t, cfg)

	path := writeInput(t, in, "doc.md", "# Bare Document\n\nNo frontmatter here at all.\n")
	res, err := s.RepairFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || len(res.Fixes) == 0 {
		t.Fatalf("repair should fix the file: %+v", res)
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "---\n") {
		t.Errorf("frontmatter not written:\n%s", data)
	}

	res, err = s.RepairFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Skipped || res.SkipReason != "already valid" {
		t.Errorf("second repair must be a no-op: %+v", res)
	}
}

func TestRepairFile_NonMarkdownSkipped(t *testing.T) {
	in := t.TempDir()
	s := testService(t, DefaultConfig())

	path := writeInput(t, in, "doc.txt", "plain\n")
	res, _ := s.RepairFile(context.Background(), path)
	if !res.Skipped {
		t.Errorf("non-markdown must be skipped: %+v", res)
	}
}

func TestConvertFile_TOCInserted(t *testing.T) {
	in := t.TempDir()
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()
	s := testService(t, cfg)

	path := writeInput(t, in, "doc.md", "# Doc\n\nIntro.\n\n## One\n\nA.\n\n## Two\n\nB.\n")
	res, _ := s.ConvertFile(context.Background(), path)
	out, _ := os.ReadFile(res.OutputPath)
	if !strings.Contains(string(out), "## Table of Contents") {
		t.Errorf("contents section missing:\n%s", out)
	}
}

func TestConvertFile_ContextCancelled(t *testing.T) {
	s := testService(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.ConvertFile(ctx, "whatever.md"); err == nil {
		t.Fatal("cancelled context must return an error")
	}
}

func TestOutputPath_Flat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputDir = "/tmp/out"
	s := testService(t, cfg)
	got := s.outputPath("/src/docs/page.html", "")
	if got != filepath.Join("/tmp/out", "page.md") {
		t.Errorf("outputPath = %q", got)
	}
}
