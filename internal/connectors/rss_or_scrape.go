package connectors

import (
	"context"

	"newsloom/internal/core"
)

// RSSOrScrape tries RSS first and falls back to scraping the page when
// the feed fails outright or yields no entries, for sources whose feed
// occasionally goes stale or disappears.
type RSSOrScrape struct {
	rss    *RSS
	scrape *Scrape
}

// NewRSSOrScrape builds the combined connector.
func NewRSSOrScrape() *RSSOrScrape {
	return &RSSOrScrape{rss: NewRSS(), scrape: NewScrape()}
}

// Fetch attempts RSS, then scrape on failure or an empty result.
func (c *RSSOrScrape) Fetch(ctx context.Context, source core.Source) ([]core.RawItem, error) {
	items, err := c.rss.Fetch(ctx, source)
	if err == nil && len(items) > 0 {
		return items, nil
	}
	return c.scrape.Fetch(ctx, source)
}
