package dedup

import (
	"testing"
	"time"

	"newsloom/internal/core"
)

func newItem(id, url, title, content string, published time.Time) *core.Item {
	return &core.Item{
		ID:           id,
		URL:          url,
		URLCanonical: CanonicalURL(url),
		Title:        title,
		Content:      content,
		PublishedAt:  published,
	}
}

func TestCanonicalURL_StripsTrackingAndDedups(t *testing.T) {
	a := CanonicalURL("https://www.Example.com/a/?utm_source=x")
	b := CanonicalURL("https://example.com/a")
	if a != b {
		t.Fatalf("expected equal canonical URLs, got %q vs %q", a, b)
	}
}

func TestCanonicalURL_Idempotent(t *testing.T) {
	u := "HTTPS://Example.com/a/b/?ref=foo&keep=1"
	once := CanonicalURL(u)
	twice := CanonicalURL(once)
	if once != twice {
		t.Fatalf("canonicalization not idempotent: %q vs %q", once, twice)
	}
}

func TestCanonicalURL_FallbackOnParseFailure(t *testing.T) {
	// An unclosed IPv6 bracket in the host makes net/url.Parse fail.
	bad := "http://[::1"
	got := CanonicalURL(bad)
	want := "http://[::1"
	if got != want {
		t.Fatalf("expected lowercased trimmed fallback %q, got %q", want, got)
	}
}

func TestSimilarity_Bounds(t *testing.T) {
	sigA := ComputeMinHash(NormalizeText("hello world this is a test"))
	sigB := ComputeMinHash(NormalizeText("hello world this is a test"))
	if sim := Similarity(sigA, sigB); sim != 1.0 {
		t.Fatalf("equal signatures should have similarity 1, got %v", sim)
	}

	sigC := ComputeMinHash(NormalizeText("completely unrelated different content entirely"))
	sim := Similarity(sigA, sigC)
	if sim < 0 || sim > 1 {
		t.Fatalf("similarity out of bounds: %v", sim)
	}
}

func TestCluster_MergesNearDuplicateTitles(t *testing.T) {
	now := time.Now().UTC()
	a := newItem("id1", "https://siteA.example.com/post1", "OpenAI releases GPT-5 model", "short body", now)
	b := newItem("id2", "https://siteB.example.com/post2", "OpenAI release of GPT-5 model announced", "a much longer body with considerably more detail than the other one here", now)

	clusters := New().Cluster([]*core.Item{a, b})
	if len(clusters) != 1 {
		t.Fatalf("expected the two near-duplicate items to merge into one cluster, got %d clusters", len(clusters))
	}
	for _, group := range clusters {
		if len(group) != 2 {
			t.Fatalf("expected 2 items in the merged cluster, got %d", len(group))
		}
	}
	if !b.IsRepresentative || a.IsRepresentative {
		t.Fatalf("expected the longer-content item to be the representative")
	}
	if a.ClusterID == "" || b.ClusterID == "" || a.ClusterID != b.ClusterID {
		t.Fatalf("expected both items to share a non-empty cluster id")
	}
}

func TestCluster_EveryClusterHasExactlyOneRepresentative(t *testing.T) {
	now := time.Now().UTC()
	items := []*core.Item{
		newItem("a", "https://x.example.com/1", "Cooking recipes for dinner", "potatoes and carrots", now),
		newItem("b", "https://x.example.com/1?utm_source=newsletter", "Cooking recipes for dinner (dup URL)", "potatoes and carrots", now),
		newItem("c", "https://y.example.com/2", "A totally different unrelated article", "nothing like the others", now),
	}
	clusters := New().Cluster(items)
	for cid, group := range clusters {
		repCount := 0
		for _, item := range group {
			if item.ClusterID != cid {
				t.Fatalf("item %s has cluster id %s, expected %s", item.ID, item.ClusterID, cid)
			}
			if item.IsRepresentative {
				repCount++
			}
		}
		if repCount != 1 {
			t.Fatalf("cluster %s: expected exactly one representative, got %d", cid, repCount)
		}
	}
}
