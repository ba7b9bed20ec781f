package connectors

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"

	"newsloom/internal/core"
)

// RSS fetches items from an RSS or Atom feed via gofeed, which already
// handles both dialects and a wide range of malformed-but-common feeds.
type RSS struct {
	parser *gofeed.Parser
}

// NewRSS builds an RSS connector with a browser-like User-Agent so feeds
// that gate on client identity still respond.
func NewRSS() *RSS {
	p := gofeed.NewParser()
	p.UserAgent = DefaultUserAgent
	return &RSS{parser: p}
}

// Fetch parses source.URL as a feed. If that fails, common feed paths off
// the URL are probed and the first one that parses is used instead. Any
// remaining parse error fails the fetch: entries of a feed that gofeed
// rejects are not salvaged. A feed with no entries yields no items and no
// error.
func (r *RSS) Fetch(ctx context.Context, source core.Source) ([]core.RawItem, error) {
	if source.URL == "" {
		return nil, nil
	}

	feedURL := source.URL
	var feed *gofeed.Feed
	err := withRetry(ctx, 3, func() error {
		f, parseErr := r.parser.ParseURLWithContext(feedURL, ctx)
		if parseErr != nil {
			return parseErr
		}
		feed = f
		return nil
	})
	if err != nil {
		discovered := r.discoverFeedURL(ctx, source.URL)
		if discovered == "" {
			return nil, fmt.Errorf("parse feed %s: %w", source.URL, err)
		}
		feedURL = discovered
		if parseErr := withRetry(ctx, 3, func() error {
			f, e := r.parser.ParseURLWithContext(feedURL, ctx)
			if e != nil {
				return e
			}
			feed = f
			return nil
		}); parseErr != nil {
			return nil, fmt.Errorf("parse discovered feed %s: %w", feedURL, parseErr)
		}
	}
	if feed == nil || len(feed.Items) == 0 {
		return nil, nil
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

// feedPathCandidates are common feed paths tried when source.URL is a
// plain site URL rather than a direct feed URL.
var feedPathCandidates = []string{
	"/feed", "/rss", "/atom.xml", "/rss.xml", "/feed.xml", "/feeds/all.atom.xml", "/index.xml",
}

// discoverFeedURL tries common feed paths off source.URL's origin and
// returns the first one gofeed can parse, or "" if none work.
func (r *RSS) discoverFeedURL(ctx context.Context, websiteURL string) string {
	trimmed := trimTrailingSlash(websiteURL)
	for _, path := range feedPathCandidates {
		candidate := trimmed + path
		if _, err := r.parser.ParseURLWithContext(candidate, ctx); err == nil {
			return candidate
		}
	}
	return ""
}

func trimTrailingSlash(s string) string {
	if len(s) > 0 && s[len(s)-1] == '/' {
		return s[:len(s)-1]
	}
	return s
}

func entryToRawItem(entry *gofeed.Item) (core.RawItem, bool) {
	if entry.Link == "" {
		return core.RawItem{}, false
	}
	title := entry.Title
	if title == "" {
		title = "Untitled"
	}
	content := entry.Description
	if content == "" {
		content = entry.Content
	}
	var author string
	if entry.Author != nil {
		author = entry.Author.Name
	} else if len(entry.Authors) > 0 {
		author = entry.Authors[0].Name
	}
	published := entry.Published
	if published == "" {
		published = entry.Updated
	}
	externalID := entry.GUID
	if externalID == "" {
		externalID = entry.Link
	}
	return core.RawItem{
		URL:         entry.Link,
		ExternalID:  externalID,
		Title:       title,
		Content:     content,
		Author:      author,
		PublishedAt: published,
		Metadata:    map[string]any{},
	}, true
}
