package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"newsloom/internal/core"
	"newsloom/internal/errs"
	"newsloom/internal/logger"
)

// API fetches a JSON (or, for arXiv, Atom XML) endpoint and normalizes
// the response into RawItems by detecting the response's shape: a
// source's API can be any of several well-known providers and this
// connector recognizes each without per-source code.
type API struct {
	client *http.Client
	rss    *RSS
}

// NewAPI builds an API connector sharing the RSS connector's feed parser
// for arXiv's Atom responses.
func NewAPI() *API {
	return &API{client: &http.Client{}, rss: NewRSS()}
}

// Fetch issues a GET with the source's configured params/headers and
// dispatches on response shape. 401/403 responses are treated as a soft
// auth-degraded condition (empty result, no error) rather than a hard
// failure, since a missing API token shouldn't break the rest of ingest.
func (a *API) Fetch(ctx context.Context, source core.Source) ([]core.RawItem, error) {
	target := source.URL
	if target == "" {
		return nil, nil
	}

	reqURL, err := buildURLWithParams(target, source.Params)
	if err != nil {
		return nil, fmt.Errorf("build request url: %w", err)
	}
	headers := resolveHeaders(source.Headers)

	var body []byte
	var contentType string
	err = withRetry(ctx, 3, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if reqErr != nil {
			return backoffPermanent(reqErr)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, doErr := a.client.Do(req)
		if doErr != nil {
			return doErr
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			logger.Get().Warn().Str("source_id", source.ID).Int("status", resp.StatusCode).Msg("api source auth degraded; returning no items")
			body = nil
			return nil
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: server error: status %d", errs.ErrTransport, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoffPermanent(fmt.Errorf("unexpected status %d", resp.StatusCode))
		}
		b, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return readErr
		}
		body = b
		contentType = resp.Header.Get("Content-Type")
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch api source: %w", err)
	}
	if body == nil {
		return nil, nil
	}

	if strings.Contains(strings.ToLower(target), "arxiv") || strings.Contains(contentType, "xml") {
		return a.fetchArxivAtom(ctx, source, string(body))
	}
	return normalizeJSON(body)
}

func (a *API) fetchArxivAtom(ctx context.Context, source core.Source, xmlText string) ([]core.RawItem, error) {
	feed, err := a.rss.parser.ParseString(xmlText)
	if err != nil {
		return nil, fmt.Errorf("parse arxiv atom response: %w", err)
	}
	items := make([]core.RawItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		item, ok := entryToRawItem(entry)
		if ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func buildURLWithParams(base string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return base, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// normalizeJSON detects one of several well-known JSON response shapes
// and maps it to RawItems. An unrecognized shape yields no items rather
// than an error, since the connector has no way to know the expected
// contract beyond structural sniffing.
func normalizeJSON(body []byte) ([]core.RawItem, error) {
	var generic any
	if err := json.Unmarshal(body, &generic); err != nil {
		return nil, fmt.Errorf("%w: decode json response: %v", errs.ErrParse, err)
	}

	switch v := generic.(type) {
	case map[string]any:
		if hits, ok := v["hits"].([]any); ok {
			return normalizeHNAlgolia(hits), nil
		}
		if items, ok := v["items"].([]any); ok && len(items) > 0 {
			if first, ok := items[0].(map[string]any); ok {
				if _, hasHTMLURL := first["html_url"]; hasHTMLURL {
					return normalizeGitHubRepos(items), nil
				}
			}
		}
		if feed, ok := v["feed"].(map[string]any); ok {
			if entry, ok := feed["entry"]; ok {
				return normalizeArxivJSON(entry), nil
			}
		}
	case []any:
		if len(v) > 0 {
			if first, ok := v[0].(map[string]any); ok {
				if _, hasURL := first["url"]; hasURL {
					if _, hasTitle := first["title"]; hasTitle {
						return normalizeQiita(v), nil
					}
				}
			}
		}
	}
	return nil, nil
}

func normalizeHNAlgolia(hits []any) []core.RawItem {
	out := make([]core.RawItem, 0, len(hits))
	for _, raw := range hits {
		h, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		url, _ := h["url"].(string)
		objectID, _ := h["objectID"].(string)
		if url == "" && objectID != "" {
			url = "https://news.ycombinator.com/item?id=" + objectID
		}
		if url == "" {
			continue
		}
		title, _ := h["title"].(string)
		if title == "" {
			title = "Untitled"
		}
		content, _ := h["story_text"].(string)
		author, _ := h["author"].(string)
		published, _ := h["created_at"].(string)
		points, _ := h["points"].(float64)
		out = append(out, core.RawItem{
			URL: url, ExternalID: objectID, Title: title, Content: content, Author: author,
			PublishedAt: published, Metadata: map[string]any{"points": points},
		})
	}
	return out
}

func normalizeGitHubRepos(items []any) []core.RawItem {
	out := make([]core.RawItem, 0, len(items))
	for _, raw := range items {
		r, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		htmlURL, _ := r["html_url"].(string)
		if htmlURL == "" {
			continue
		}
		title, _ := r["full_name"].(string)
		if title == "" {
			title, _ = r["name"].(string)
		}
		if title == "" {
			title = "Untitled"
		}
		description, _ := r["description"].(string)
		var author string
		if owner, ok := r["owner"].(map[string]any); ok {
			author, _ = owner["login"].(string)
		}
		createdAt, _ := r["created_at"].(string)
		stars, _ := r["stargazers_count"].(float64)
		var externalID string
		if id, ok := r["id"].(float64); ok {
			externalID = fmt.Sprintf("%.0f", id)
		}
		out = append(out, core.RawItem{
			URL: htmlURL, ExternalID: externalID, Title: title, Content: description, Author: author,
			PublishedAt: createdAt, Metadata: map[string]any{"stars": stars},
		})
	}
	return out
}

// normalizeArxivJSON handles the arXiv API's Atom-as-JSON shape
// ({"feed": {"entry": ...}}), where entry is either a single object or a
// list, link is a list of {href} objects, a single {href} object, or
// falls back to the entry's id, and title/summary/author may be plain
// strings or {"#text"/"__text__": ...} wrapper objects.
func normalizeArxivJSON(entry any) []core.RawItem {
	var entries []any
	switch e := entry.(type) {
	case []any:
		entries = e
	case map[string]any:
		entries = []any{e}
	default:
		return nil
	}

	out := make([]core.RawItem, 0, len(entries))
	for _, raw := range entries {
		e, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		link := arxivLink(e)
		if link == "" {
			continue
		}
		title := arxivText(e["title"], "Untitled")
		summary := arxivText(e["summary"], "")
		author := arxivAuthor(e["author"])
		published, _ := e["published"].(string)
		if published == "" {
			published, _ = e["updated"].(string)
		}
		externalID, _ := e["id"].(string)
		if externalID == "" {
			externalID = link
		}
		out = append(out, core.RawItem{
			URL: link, ExternalID: externalID, Title: title, Content: summary,
			Author: author, PublishedAt: published, Metadata: map[string]any{},
		})
	}
	return out
}

func arxivLink(e map[string]any) string {
	switch l := e["link"].(type) {
	case []any:
		for _, candidate := range l {
			if m, ok := candidate.(map[string]any); ok {
				if href, ok := m["href"].(string); ok && href != "" {
					return href
				}
			}
		}
		return ""
	case map[string]any:
		href, _ := l["href"].(string)
		return href
	default:
		id, _ := e["id"].(string)
		return id
	}
}

func arxivText(v any, fallback string) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if text, ok := t["#text"].(string); ok {
			return text
		}
		if text, ok := t["__text__"].(string); ok {
			return text
		}
		return fallback
	default:
		return fallback
	}
}

func arxivAuthor(v any) string {
	var authors []any
	switch a := v.(type) {
	case []any:
		authors = a
	case map[string]any:
		authors = []any{a}
	default:
		return ""
	}
	if len(authors) == 0 {
		return ""
	}
	if first, ok := authors[0].(map[string]any); ok {
		name, _ := first["name"].(string)
		return name
	}
	return ""
}

func normalizeQiita(items []any) []core.RawItem {
	const maxBodyChars = 5000
	out := make([]core.RawItem, 0, len(items))
	for _, raw := range items {
		it, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		url, _ := it["url"].(string)
		if url == "" {
			continue
		}
		title, _ := it["title"].(string)
		if title == "" {
			title = "Untitled"
		}
		body, _ := it["body"].(string)
		if len(body) > maxBodyChars {
			body = body[:maxBodyChars]
		}
		var author string
		if user, ok := it["user"].(map[string]any); ok {
			author, _ = user["id"].(string)
		}
		createdAt, _ := it["created_at"].(string)
		likes, _ := it["likes_count"].(float64)
		var externalID string
		switch id := it["id"].(type) {
		case string:
			externalID = id
		case float64:
			externalID = fmt.Sprintf("%.0f", id)
		}
		out = append(out, core.RawItem{
			URL: url, ExternalID: externalID, Title: title, Content: body, Author: author,
			PublishedAt: createdAt, Metadata: map[string]any{"likes_count": likes},
		})
	}
	return out
}
