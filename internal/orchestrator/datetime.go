package orchestrator

import (
	"strings"
	"time"
)

// dateLayouts covers the formats actually emitted by the feeds and APIs
// this pipeline talks to: RFC1123Z/RFC1123 from RSS pubDate, RFC3339
// from Atom/JSON APIs, and a couple of common date-only fallbacks.
var dateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

// parseDatetime tries every known layout in turn, returning ok=false if
// none parse or val is empty. Unparseable dates fall back to the
// ingest-time "now" at the call site, not here.
func parseDatetime(val string) (time.Time, bool) {
	val = strings.TrimSpace(val)
	if val == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, val); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
