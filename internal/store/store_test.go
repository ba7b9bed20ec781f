package store

import (
	"path/filepath"
	"testing"
	"time"

	"newsloom/internal/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "test.db"), Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMigrate_IsIdempotent(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s1, err := Open(dbPath, Options{})
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := Open(dbPath, Options{})
	if err != nil {
		t.Fatalf("second open (re-running migrations): %v", err)
	}
	defer func() { _ = s2.Close() }()

	version, err := s2.currentVersion()
	if err != nil {
		t.Fatalf("currentVersion: %v", err)
	}
	if version != len(migrations) {
		t.Fatalf("expected schema version %d after two opens, got %d", len(migrations), version)
	}
}

func TestBatchInsertItems_RejectsDuplicateCanonicalURL(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC()

	item1 := core.Item{
		ID: "a1", SourceID: "src-a", URL: "https://example.com/post?utm_source=x",
		URLCanonical: "https://example.com/post", Title: "First", Category: core.CategoryNews,
		PublishedAt: now, IngestedAt: now,
	}
	item2 := core.Item{
		ID: "b1", SourceID: "src-b", URL: "https://example.com/post/",
		URLCanonical: "https://example.com/post", Title: "Same story, other source", Category: core.CategoryNews,
		PublishedAt: now, IngestedAt: now,
	}

	n, err := s.BatchInsertItems([]core.Item{item1})
	if err != nil || n != 1 {
		t.Fatalf("insert item1: n=%d err=%v", n, err)
	}
	exists, err := s.URLCanonicalExists(item2.URLCanonical)
	if err != nil {
		t.Fatalf("URLCanonicalExists: %v", err)
	}
	if !exists {
		t.Fatalf("expected canonical URL collision to be detectable before insert")
	}

	n, err = s.BatchInsertItems([]core.Item{item2})
	if err != nil {
		t.Fatalf("insert item2: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected cross-source duplicate to be ignored, inserted %d rows", n)
	}
}

func TestSearch_MatchesAndCountsAllHits(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC()

	items := []core.Item{
		{ID: "s1", SourceID: "src", URL: "https://e.com/1", URLCanonical: "https://e.com/1",
			Title: "GPT-5 model release", Content: "OpenAI ships a new model.",
			Category: core.CategoryNews, PublishedAt: now, IngestedAt: now},
		{ID: "s2", SourceID: "src", URL: "https://e.com/2", URLCanonical: "https://e.com/2",
			Title: "Weekly roundup", Content: "model model model model model GPT",
			Category: core.CategoryNews, PublishedAt: now, IngestedAt: now},
	}
	if _, err := s.BatchInsertItems(items); err != nil {
		t.Fatalf("BatchInsertItems: %v", err)
	}

	results, err := s.Search("model", SearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(results))
	}

	count, err := s.SearchCount("model")
	if err != nil {
		t.Fatalf("SearchCount: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
}

func TestUpsertSourceAndGetSource_RoundTrips(t *testing.T) {
	s := openTestStore(t)
	src := core.Source{
		ID: "hn", Type: "api", URL: "https://hn.example/top", Category: core.CategoryNews,
		Language: "en", Authority: 0.7, Params: map[string]string{"limit": "30"},
		Enabled: true, CreatedAt: time.Now().UTC(),
	}
	if err := s.UpsertSource(src); err != nil {
		t.Fatalf("UpsertSource: %v", err)
	}

	got, err := s.GetSource("hn")
	if err != nil {
		t.Fatalf("GetSource: %v", err)
	}
	if got == nil {
		t.Fatalf("expected source to be found")
	}
	if got.Authority != 0.7 || got.Params["limit"] != "30" {
		t.Fatalf("round-tripped source mismatch: %+v", got)
	}

	if err := s.UpdateSourceStatus("hn", nil, "timeout", true); err != nil {
		t.Fatalf("UpdateSourceStatus: %v", err)
	}
	got, _ = s.GetSource("hn")
	if got.ErrorCount != 1 || got.LastError != "timeout" {
		t.Fatalf("expected error_count=1 and last_error=timeout, got %+v", got)
	}
}

func TestGetTopItems_OrdersByTotalDescending(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC()
	items := []core.Item{
		{ID: "low", SourceID: "src", URL: "https://e.com/low", URLCanonical: "https://e.com/low",
			Title: "Low", Category: core.CategoryNews, PublishedAt: now, IngestedAt: now},
		{ID: "high", SourceID: "src", URL: "https://e.com/high", URLCanonical: "https://e.com/high",
			Title: "High", Category: core.CategoryNews, PublishedAt: now, IngestedAt: now},
	}
	if _, err := s.BatchInsertItems(items); err != nil {
		t.Fatalf("BatchInsertItems: %v", err)
	}
	metrics := []core.Metric{
		{ItemID: "low", Total: 0.2, ComputedAt: now},
		{ItemID: "high", Total: 0.9, ComputedAt: now},
	}
	if err := s.UpsertMetrics(metrics); err != nil {
		t.Fatalf("UpsertMetrics: %v", err)
	}

	top, err := s.GetTopItems("", nil, 10)
	if err != nil {
		t.Fatalf("GetTopItems: %v", err)
	}
	if len(top) != 2 || top[0].Item.ID != "high" {
		t.Fatalf("expected high-scoring item first, got %+v", top)
	}
}

func TestSaveDigestAndGetDigest_UpsertsOnDateSection(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC()
	d := core.Digest{Date: "2026-07-31", Section: core.CategoryNews, Markdown: "# Today", JSON: "{}", GeneratedAt: now}
	id1, err := s.SaveDigest(d)
	if err != nil {
		t.Fatalf("SaveDigest: %v", err)
	}

	d.Markdown = "# Today (updated)"
	id2, err := s.SaveDigest(d)
	if err != nil {
		t.Fatalf("SaveDigest (update): %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected same digest id on upsert, got %d then %d", id1, id2)
	}

	got, err := s.GetDigest("2026-07-31", core.CategoryNews)
	if err != nil {
		t.Fatalf("GetDigest: %v", err)
	}
	if len(got) != 1 || got[0].Markdown != "# Today (updated)" {
		t.Fatalf("expected updated digest markdown, got %+v", got)
	}
}
