package connectors

import (
	"testing"

	"newsloom/internal/core"
)

func TestBuild_DefaultsUnknownTypeToRSS(t *testing.T) {
	c := Build(core.Source{Type: "something-new"})
	if _, ok := c.(*RSS); !ok {
		t.Fatalf("expected unknown source type to default to RSS connector, got %T", c)
	}
}

func TestResolveHeaders_SubstitutesEnvAndDropsBareBearer(t *testing.T) {
	t.Setenv("TEST_TOKEN", "")
	raw := map[string]string{
		"Authorization": "Bearer ${TEST_TOKEN}",
		"X-Static":      "value",
	}
	got := resolveHeaders(raw)
	if _, ok := got["Authorization"]; ok {
		t.Fatalf("expected empty-token Authorization header to be dropped, got %v", got)
	}
	if got["X-Static"] != "value" {
		t.Fatalf("expected static header preserved, got %v", got)
	}
	if got["User-Agent"] == "" {
		t.Fatalf("expected a default User-Agent to be injected")
	}
}

func TestNormalizeJSON_DetectsHNAlgoliaShape(t *testing.T) {
	body := []byte(`{"hits":[{"url":"https://example.com/a","title":"A","points":42,"objectID":"1"}]}`)
	items, err := normalizeJSON(body)
	if err != nil {
		t.Fatalf("normalizeJSON: %v", err)
	}
	if len(items) != 1 || items[0].URL != "https://example.com/a" {
		t.Fatalf("expected one HN-shaped item, got %+v", items)
	}
	if items[0].Metadata["points"] != 42.0 {
		t.Fatalf("expected points metadata preserved, got %+v", items[0].Metadata)
	}
}

func TestNormalizeJSON_DetectsGitHubReposShape(t *testing.T) {
	body := []byte(`{"items":[{"html_url":"https://github.com/a/b","full_name":"a/b","stargazers_count":10}]}`)
	items, err := normalizeJSON(body)
	if err != nil {
		t.Fatalf("normalizeJSON: %v", err)
	}
	if len(items) != 1 || items[0].Title != "a/b" {
		t.Fatalf("expected one GitHub-shaped item, got %+v", items)
	}
}

func TestNormalizeJSON_DetectsArxivFeedEntryShape(t *testing.T) {
	body := []byte(`{"feed":{"entry":[{
		"id": "http://arxiv.org/abs/1234.5678",
		"title": {"#text": "A Paper About Things"},
		"summary": {"__text__": "This paper studies things."},
		"published": "2026-01-01T00:00:00Z",
		"link": [{"href": "http://arxiv.org/abs/1234.5678", "rel": "alternate"}, {"href": "http://arxiv.org/pdf/1234.5678", "rel": "related"}],
		"author": [{"name": "Jane Doe"}]
	}]}}`)
	items, err := normalizeJSON(body)
	if err != nil {
		t.Fatalf("normalizeJSON: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one arxiv-shaped item, got %+v", items)
	}
	item := items[0]
	if item.URL != "http://arxiv.org/abs/1234.5678" {
		t.Fatalf("expected link href selected, got %q", item.URL)
	}
	if item.Title != "A Paper About Things" {
		t.Fatalf("expected #text title unwrapped, got %q", item.Title)
	}
	if item.Content != "This paper studies things." {
		t.Fatalf("expected __text__ summary unwrapped, got %q", item.Content)
	}
	if item.Author != "Jane Doe" {
		t.Fatalf("expected first author name, got %q", item.Author)
	}
}

func TestNormalizeJSON_ArxivFeedEntrySingleObjectAndLinkFallback(t *testing.T) {
	body := []byte(`{"feed":{"entry":{
		"id": "http://arxiv.org/abs/9999.0001",
		"title": "Plain title",
		"summary": "Plain summary",
		"updated": "2026-02-02T00:00:00Z"
	}}}`)
	items, err := normalizeJSON(body)
	if err != nil {
		t.Fatalf("normalizeJSON: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one arxiv-shaped item from a single entry object, got %+v", items)
	}
	item := items[0]
	if item.URL != "http://arxiv.org/abs/9999.0001" {
		t.Fatalf("expected id used as link fallback, got %q", item.URL)
	}
	if item.Title != "Plain title" || item.Content != "Plain summary" {
		t.Fatalf("expected plain string title/summary preserved, got %+v", item)
	}
	if item.PublishedAt != "2026-02-02T00:00:00Z" {
		t.Fatalf("expected updated used as published fallback, got %q", item.PublishedAt)
	}
}
