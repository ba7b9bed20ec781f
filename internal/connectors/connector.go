// Package connectors adapts heterogeneous upstream sources (RSS/Atom
// feeds, JSON APIs, and HTML scraping) into a common RawItem shape for
// the ingest orchestrator (spec component B).
package connectors

import (
	"context"

	"newsloom/internal/core"
)

// Connector fetches raw items from a single configured source.
type Connector interface {
	Fetch(ctx context.Context, source core.Source) ([]core.RawItem, error)
}

// DefaultUserAgent is sent by every HTTP-based connector so that sources
// which gate on browser-like clients (DeepMind, Reddit, arXiv mirrors)
// still respond.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Build returns the connector for a source's configured type. Unknown
// types default to RSS so existing configs keep working after a typo.
func Build(source core.Source) Connector {
	switch source.Type {
	case "rss":
		return NewRSS()
	case "api":
		return NewAPI()
	case "rss_or_scrape":
		return NewRSSOrScrape()
	case "scrape":
		return NewScrape()
	default:
		return NewRSS()
	}
}
