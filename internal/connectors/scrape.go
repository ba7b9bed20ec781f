package connectors

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"newsloom/internal/core"
)

const maxScrapeLinks = 100

// noiseMarkers appear in hrefs or link text that is almost never an
// article: navigation, auth, legal, and feed/format links.
var noiseMarkers = []string{
	"login", "signup", "twitter", "facebook", "github.com", "linkedin",
	"mailto", "javascript:", "tel:", "cookie", "privacy", "terms",
	"tag/", "tags/", "category/", "author/", "page/", "search",
	"rss", "feed", ".xml", ".json", "#",
}

// Scrape fetches a page's HTML and extracts article-like anchor links
// with their titles, for sources that publish no feed at all.
type Scrape struct {
	client *http.Client
}

// NewScrape builds a bare HTML-scraping connector.
func NewScrape() *Scrape {
	return &Scrape{client: &http.Client{}}
}

// Fetch retrieves source.URL and extracts up to maxScrapeLinks distinct
// article-like anchors.
func (sc *Scrape) Fetch(ctx context.Context, source core.Source) ([]core.RawItem, error) {
	if source.URL == "" {
		return nil, nil
	}

	var html string
	err := withRetry(ctx, 2, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
		if reqErr != nil {
			return backoffPermanent(reqErr)
		}
		req.Header.Set("User-Agent", DefaultUserAgent)

		resp, doErr := sc.client.Do(req)
		if doErr != nil {
			return doErr
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("server error: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoffPermanent(fmt.Errorf("unexpected status %d", resp.StatusCode))
		}
		b, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return readErr
		}
		html = string(b)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", source.URL, err)
	}

	return extractLinks(html, source.URL)
}

func extractLinks(html, pageURL string) ([]core.RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out []core.RawItem
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(out) >= maxScrapeLinks {
			return false
		}
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") {
			return true
		}
		resolved, err := base.Parse(href)
		if err != nil {
			return true
		}
		full := resolved.String()
		if _, dup := seen[full]; dup {
			return true
		}
		title := strings.TrimSpace(sel.Text())
		if len(title) < 3 || len(title) > 500 {
			return true
		}
		if isNoiseLink(href, title) {
			return true
		}
		seen[full] = struct{}{}
		if len(title) > 500 {
			title = title[:500]
		}
		out = append(out, core.RawItem{
			URL: full, ExternalID: full, Title: title, Metadata: map[string]any{},
		})
		return true
	})
	return out, nil
}

func isNoiseLink(href, title string) bool {
	lower := strings.ToLower(href + " " + title)
	for _, marker := range noiseMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
