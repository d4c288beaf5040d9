package parser

import (
	"strings"
	"testing"
)

func TestExtractFrontMatter_InlineValues(t *testing.T) {
	fm := ExtractFrontMatter("---\nfoo: a&b\n---\nbody")

	got, ok := fm.Get("foo")
	if !ok {
		t.Fatal("expected foo to be present")
	}
	if strings.Join(got, ",") != "a,b" {
		t.Errorf("expected [a b], got %v", got)
	}
	if fm.Raw != "---\nfoo: a&b\n---\n" {
		t.Errorf("expected raw block %q, got %q", "---\nfoo: a&b\n---\n", fm.Raw)
	}
}

func TestExtractFrontMatter_ListValues(t *testing.T) {
	input := `---
catTags:
  - work
  - home
title: Weekly
empty:
---
# Heading
`
	fm := ExtractFrontMatter(input)

	tags, _ := fm.Get("catTags")
	if strings.Join(tags, ",") != "work,home" {
		t.Errorf("expected [work home], got %v", tags)
	}
	title, _ := fm.Get("title")
	if len(title) != 1 || title[0] != "Weekly" {
		t.Errorf("expected [Weekly], got %v", title)
	}
	empty, ok := fm.Get("empty")
	if !ok || len(empty) != 0 {
		t.Errorf("expected present empty list, got %v (present=%v)", empty, ok)
	}
	if len(fm.Fields) != 3 {
		t.Errorf("expected 3 fields, got %d", len(fm.Fields))
	}
}

func TestExtractFrontMatter_ScalarKeepsColons(t *testing.T) {
	fm := ExtractFrontMatter("---\nsource: https://example.com/x\n---\n")
	got, _ := fm.Get("source")
	if len(got) != 1 || got[0] != "https://example.com/x" {
		t.Errorf("expected full URL, got %v", got)
	}
}

func TestExtractFrontMatter_Missing(t *testing.T) {
	fm := ExtractFrontMatter("# Title\nno metadata here\n")
	if len(fm.Fields) != 0 {
		t.Errorf("expected no fields, got %v", fm.Fields)
	}
	if fm.Raw != "" {
		t.Errorf("expected empty raw block, got %q", fm.Raw)
	}
}

func TestExtractFrontMatter_Unterminated(t *testing.T) {
	fm := ExtractFrontMatter("---\nfoo: bar\nstill going\n")
	if len(fm.Fields) != 0 {
		t.Errorf("expected no fields for unterminated block, got %v", fm.Fields)
	}
	if fm.Raw != "" {
		t.Errorf("expected empty raw block, got %q", fm.Raw)
	}
}

func TestExtractFrontMatter_IgnoresItemsBeforeFirstKey(t *testing.T) {
	fm := ExtractFrontMatter("---\n- stray\nk: v\n---\n")
	if len(fm.Fields) != 1 {
		t.Fatalf("expected 1 field, got %v", fm.Fields)
	}
	if v, _ := fm.Get("k"); len(v) != 1 || v[0] != "v" {
		t.Errorf("expected [v], got %v", v)
	}
}
