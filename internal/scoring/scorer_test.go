package scoring

import (
	"testing"
	"time"

	"newsloom/internal/core"
)

func TestRecency_ExactDecay(t *testing.T) {
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	s := New(DefaultWeights, nil, nil, now)

	sevenDaysAgo := &core.Item{SourceID: "x", PublishedAt: now.Add(-7 * 24 * time.Hour)}
	m := s.ScoreItems([]*core.Item{sevenDaysAgo})[0]
	wantSeven := 0.3679
	if diff := m.Recency - wantSeven; diff > 1e-3 || diff < -1e-3 {
		t.Fatalf("expected recency ~%.4f for 7 days ago, got %.6f", wantSeven, m.Recency)
	}

	today := &core.Item{SourceID: "x", PublishedAt: now}
	m2 := s.ScoreItems([]*core.Item{today})[0]
	if m2.Recency != 1.0 {
		t.Fatalf("expected recency 1.0 for published-now, got %v", m2.Recency)
	}
}

func TestScoreItems_TotalsClipped(t *testing.T) {
	now := time.Now().UTC()
	s := New(DefaultWeights, map[string]float64{"a": 1.0}, nil, now)
	items := []*core.Item{
		{ID: "1", SourceID: "a", Title: "LLM RAG transformer embedding AI", PublishedAt: now},
		{ID: "2", SourceID: "a", ClusterID: "c1", IsRepresentative: false, PublishedAt: now.Add(-60 * 24 * time.Hour)},
	}
	for _, m := range s.ScoreItems(items) {
		if m.Total < 0 || m.Total > 1 {
			t.Fatalf("total %v out of [0,1] bounds", m.Total)
		}
	}
}

func TestPopularity_NormalizesPerSourceBatchMax(t *testing.T) {
	now := time.Now().UTC()
	s := New(DefaultWeights, nil, nil, now)
	items := []*core.Item{
		{ID: "1", SourceID: "hn", PublishedAt: now, Metadata: map[string]any{"points": 100.0}},
		{ID: "2", SourceID: "hn", PublishedAt: now, Metadata: map[string]any{"points": 10.0}},
	}
	metrics := s.ScoreItems(items)
	if metrics[0].Popularity != 1.0 {
		t.Fatalf("expected the batch max item to normalize to 1.0, got %v", metrics[0].Popularity)
	}
	if metrics[1].Popularity <= 0 || metrics[1].Popularity >= 1.0 {
		t.Fatalf("expected the smaller item's popularity strictly between 0 and 1, got %v", metrics[1].Popularity)
	}
}

func TestDupPenalty(t *testing.T) {
	now := time.Now().UTC()
	s := New(DefaultWeights, nil, nil, now)
	rep := &core.Item{ID: "1", SourceID: "a", ClusterID: "c1", IsRepresentative: true, PublishedAt: now}
	dup := &core.Item{ID: "2", SourceID: "a", ClusterID: "c1", IsRepresentative: false, PublishedAt: now}
	metrics := s.ScoreItems([]*core.Item{rep, dup})
	if metrics[0].DupPenalty != 0 {
		t.Fatalf("representative should have 0 dup penalty, got %v", metrics[0].DupPenalty)
	}
	if metrics[1].DupPenalty != 1.0 {
		t.Fatalf("non-representative duplicate should have dup penalty 1.0, got %v", metrics[1].DupPenalty)
	}
}
