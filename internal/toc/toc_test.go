package toc

import (
	"strings"
	"testing"
)

const sample = `---
title: Sample
---

# Sample

Intro paragraph.

## Install

### From Source

## Usage

Body text.
`

func TestBuild_TreeShape(t *testing.T) {
	g := New(Config{})
	entries := g.Build(sample)
	if len(entries) != 2 {
		t.Fatalf("expected 2 top-level entries, got %d", len(entries))
	}
	if entries[0].Title != "Install" || entries[1].Title != "Usage" {
		t.Errorf("top-level titles = %q, %q", entries[0].Title, entries[1].Title)
	}
	if len(entries[0].Children) != 1 || entries[0].Children[0].Title != "From Source" {
		t.Errorf("Install should nest From Source: %+v", entries[0])
	}
	if entries[0].Children[0].Anchor != "from-source" {
		t.Errorf("anchor = %q", entries[0].Children[0].Anchor)
	}
}

func TestBuild_MaxDepth(t *testing.T) {
	src := "# T\n\n## A\n\n### B\n\n#### C\n"
	g := New(Config{MaxDepth: 2})
	entries := g.Build(src)
	if len(entries) != 1 || entries[0].Title != "A" {
		t.Fatalf("entries = %+v", entries)
	}
	if len(entries[0].Children) != 0 {
		t.Errorf("depth 3+ should be excluded: %+v", entries[0].Children)
	}
}

func TestRender_NestedList(t *testing.T) {
	g := New(Config{})
	got := Render(g.Build(sample))
	want := "- [Install](#install)\n  - [From Source](#from-source)\n- [Usage](#usage)\n"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestInsert_AfterTitleHeading(t *testing.T) {
	g := New(Config{})
	got := g.Insert(sample)
	if !strings.Contains(got, "## Table of Contents") {
		t.Fatalf("contents section missing:\n%s", got)
	}
	titleIdx := strings.Index(got, "# Sample")
	tocIdx := strings.Index(got, "## Table of Contents")
	installIdx := strings.Index(got, "## Install")
	if !(titleIdx < tocIdx && tocIdx < installIdx) {
		t.Errorf("section must sit between the title and the first section:\n%s", got)
	}
	if !strings.HasPrefix(got, "---\ntitle: Sample\n---\n") {
		t.Errorf("frontmatter disturbed:\n%s", got)
	}
}

func TestInsert_BelowThresholdNoOp(t *testing.T) {
	src := "# Only Title\n\nBody.\n"
	g := New(Config{})
	if got := g.Insert(src); got != src {
		t.Errorf("single heading should not get a TOC:\n%s", got)
	}
}

func TestInsert_ExistingTOCPreserved(t *testing.T) {
	src := "# Doc\n\n## Contents\n\n- [A](#a)\n\n## A\n\n## B\n"
	g := New(Config{})
	if got := g.Insert(src); got != src {
		t.Errorf("existing contents section must suppress insertion:\n%s", got)
	}
}

func TestInsert_Idempotent(t *testing.T) {
	g := New(Config{})
	once := g.Insert(sample)
	twice := g.Insert(once)
	if once != twice {
		t.Errorf("second insert must be a no-op:\n%s", twice)
	}
}
