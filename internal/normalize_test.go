package internal

import (
	"strings"
	"testing"
)

func TestNormalizeMasksHighlights(t *testing.T) {
	got, err := Normalize(`<p>keep <mark>this</mark> safe</p>`)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	if strings.Contains(got, "<mark>") {
		t.Errorf("mark element survived: %s", got)
	}
	if n := strings.Count(got, HighlightPlaceholder); n != 2 {
		t.Errorf("placeholder count = %d, want 2", n)
	}
	if !strings.Contains(got, HighlightPlaceholder+"this"+HighlightPlaceholder) {
		t.Errorf("highlighted text not framed: %s", got)
	}
}

func TestNormalizeNestedHighlight(t *testing.T) {
	got, err := Normalize(`<p><mark>a <strong>b</strong></mark></p>`)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	want := HighlightPlaceholder + "a <strong>b</strong>" + HighlightPlaceholder
	if !strings.Contains(got, want) {
		t.Errorf("normalize = %q, want it to contain %q", got, want)
	}
}

func TestNormalizeAdjacentHighlights(t *testing.T) {
	page := exportPage(memoBlock("a", "2024-01-01 12:00:00", "<p><mark>x</mark><mark>y</mark></p>", ""))

	normalized, err := Normalize(page)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	export, err := Extract(normalized)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	got := AssembleContent(export.Memos[0], ContentOptions{})
	if got != "==x== ==y==" {
		t.Errorf("content = %q, want %q", got, "==x== ==y==")
	}
}

func TestNormalizeMarkInsideMark(t *testing.T) {
	got, err := Normalize(`<p><mark>a <mark>b</mark></mark></p>`)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	if n := strings.Count(got, HighlightPlaceholder); n != 2 {
		t.Errorf("placeholder count = %d, want 2 in %q", n, got)
	}
	want := HighlightPlaceholder + "a b" + HighlightPlaceholder
	if !strings.Contains(got, want) {
		t.Errorf("normalize = %q, want it to contain %q", got, want)
	}
}

func TestNormalizeToleratesMalformed(t *testing.T) {
	got, err := Normalize(`<div class="memo"><p>unclosed <b>bold`)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !strings.Contains(got, "unclosed") || !strings.Contains(got, "</html>") {
		t.Errorf("normalize = %q, want a completed document", got)
	}
}

func TestNormalizeIsStable(t *testing.T) {
	page := exportPage(memoBlock("a", "2024-01-01 12:00:00", "<p>x &amp; y</p>", ""))

	once, err := Normalize(page)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	twice, err := Normalize(once)
	if err != nil {
		t.Fatalf("normalize twice: %v", err)
	}
	if once != twice {
		t.Errorf("normalize is not stable:\n%s\n%s", once, twice)
	}
}

func TestUnmask(t *testing.T) {
	in := "a " + HighlightPlaceholder + "b" + HighlightPlaceholder + " c"
	if got := Unmask(in); got != "a ==b== c" {
		t.Errorf("Unmask = %q, want %q", got, "a ==b== c")
	}
	if got := Unmask("no markers"); got != "no markers" {
		t.Errorf("Unmask = %q, want input unchanged", got)
	}
}

func TestHighlightRoundTrip(t *testing.T) {
	page := exportPage(memoBlock("a", "2024-01-01 12:00:00", "<p>keep <mark>this</mark> safe</p>", ""))

	normalized, err := Normalize(page)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	export, err := Extract(normalized)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(export.Memos) != 1 {
		t.Fatalf("memos = %d, want 1", len(export.Memos))
	}

	got := AssembleContent(export.Memos[0], ContentOptions{AllowBilink: true})
	if got != "keep ==this== safe" {
		t.Errorf("content = %q, want %q", got, "keep ==this== safe")
	}
	if strings.Contains(got, HighlightPlaceholder) {
		t.Errorf("placeholder leaked into %q", got)
	}
}
