package digest

import (
	"context"
	"testing"
	"time"

	"newsloom/internal/core"
	"newsloom/internal/dedup"
	"newsloom/internal/filter"
	"newsloom/internal/quota"
	"newsloom/internal/scoring"
)

func TestGenerate_ProducesSectionsAndSummaries(t *testing.T) {
	now := time.Now().UTC()
	items := []*core.Item{
		{ID: "1", SourceID: "a", Title: "LLM transformer breakthrough", Category: core.CategoryNews, PublishedAt: now, Language: "en"},
		{ID: "2", SourceID: "b", Title: "Prompt engineering tip", Category: core.CategoryTips, PublishedAt: now, Language: "en"},
		{ID: "3", SourceID: "c", Title: "A new paper on embeddings", Category: core.CategoryPaper, PublishedAt: now, Language: "en"},
	}

	g := NewGenerator(
		filter.New(filter.Config{}),
		dedup.New(),
		scoring.New(scoring.DefaultWeights, nil, nil, now),
		quota.New(quota.Config{DefaultQuota: 10, CategoryCaps: quota.DefaultCategoryCaps}),
		NewMockSummarizer(),
	)

	result, err := g.Generate(context.Background(), items, "2026-07-31")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.TotalItems() != 3 {
		t.Fatalf("expected 3 total items, got %d", result.TotalItems())
	}
	if len(result.News) != 1 || len(result.Tips) != 1 || len(result.Paper) != 1 {
		t.Fatalf("expected one item per section, got news=%d tips=%d paper=%d", len(result.News), len(result.Tips), len(result.Paper))
	}
	for _, e := range append(append(result.News, result.Tips...), result.Paper...) {
		if e.Summary == "" {
			t.Fatalf("expected every entry to have a mock summary, item %s had none", e.Item.ID)
		}
	}

	sections := result.BuildSections(now)
	if len(sections) != 3 {
		t.Fatalf("expected 3 rendered sections, got %d", len(sections))
	}
	for _, s := range sections {
		if s.Markdown == "" || s.JSON == "" {
			t.Fatalf("expected non-empty markdown and json for section %s", s.Section)
		}
	}
}

func TestGenerate_TiesBrokenByItemIDNotArrivalOrder(t *testing.T) {
	now := time.Now().UTC()
	// Same source and publish time, distinct URLs, and titles that are
	// neither near-duplicates of each other nor relevance-keyword matches,
	// so both items stay cluster representatives and score equally;
	// arrival order is deliberately reverse-ID to prove the sort doesn't
	// fall back to caller-side ordering on a tie.
	items := []*core.Item{
		{ID: "2", SourceID: "a", URL: "https://example.com/2", Title: "Story two", Category: core.CategoryNews, PublishedAt: now, Language: "en"},
		{ID: "1", SourceID: "a", URL: "https://example.com/1", Title: "Story one", Category: core.CategoryNews, PublishedAt: now, Language: "en"},
	}

	g := NewGenerator(
		filter.New(filter.Config{}),
		dedup.New(),
		scoring.New(scoring.DefaultWeights, nil, nil, now),
		quota.New(quota.Config{DefaultQuota: 10, CategoryCaps: quota.DefaultCategoryCaps}),
		NewMockSummarizer(),
	)

	result, err := g.Generate(context.Background(), items, "2026-07-31")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(result.News) != 2 {
		t.Fatalf("expected both equal-scored items admitted, got %d", len(result.News))
	}
	if result.News[0].Metric.Total != result.News[1].Metric.Total {
		t.Fatalf("expected equal scores for this test to be meaningful, got %v and %v", result.News[0].Metric.Total, result.News[1].Metric.Total)
	}
	if result.News[0].Item.ID != "1" || result.News[1].Item.ID != "2" {
		t.Fatalf("expected tie broken by item id ascending, got order %s, %s", result.News[0].Item.ID, result.News[1].Item.ID)
	}
}
