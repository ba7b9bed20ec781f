package filter

import (
	"testing"

	"newsloom/internal/core"
)

func TestApplyAll_KeywordExclusion(t *testing.T) {
	f := New(Config{ExcludeKeywords: []string{"sponsored"}})
	items := []*core.Item{
		{ID: "1", Title: "Great news", Content: "this is fine"},
		{ID: "2", Title: "A Sponsored Post", Content: "buy now"},
	}
	out := f.ApplyAll(items)
	if len(out) != 1 || out[0].ID != "1" {
		t.Fatalf("expected only item 1 to survive, got %+v", out)
	}
}

func TestApplyAll_LanguageMismatch(t *testing.T) {
	f := New(Config{Languages: map[string]string{"src1": "en"}})
	items := []*core.Item{
		{ID: "1", SourceID: "src1", Language: "en"},
		{ID: "2", SourceID: "src1", Language: "fr"},
		{ID: "3", SourceID: "src2", Language: "fr"}, // no declared language for src2
	}
	out := f.ApplyAll(items)
	if len(out) != 2 {
		t.Fatalf("expected 2 surviving items, got %d", len(out))
	}
}

func TestApplyAll_PopularityThreshold(t *testing.T) {
	f := New(Config{MinPopularity: map[string]map[string]float64{
		"hn": {"points": 50},
	}})
	items := []*core.Item{
		{ID: "1", SourceID: "hn", Metadata: map[string]any{"points": 100.0}},
		{ID: "2", SourceID: "hn", Metadata: map[string]any{"points": 10.0}},
		{ID: "3", SourceID: "hn", Metadata: map[string]any{}},
	}
	out := f.ApplyAll(items)
	if len(out) != 2 {
		t.Fatalf("expected 2 surviving items (missing metric is not excluded), got %d", len(out))
	}
}
