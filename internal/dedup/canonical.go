package dedup

import (
	"net/url"
	"strings"
)

// trackingParams are query keys stripped during canonicalization because
// they vary per-share-link without changing the underlying resource.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"ref":          {},
	"source":       {},
	"fbclid":       {},
	"gclid":        {},
}

// CanonicalURL normalizes a URL for cross-source duplicate detection:
// scheme and host are lowercased, the trailing dot and any leading "www."
// are stripped from the host, the fragment is dropped, the path's trailing slash is collapsed
// (an empty path becomes "/"), and tracking query parameters are removed
// while the remaining parameters keep their original order.
//
// On any parse failure the entire trimmed input is lowercased and returned
// as-is; callers elsewhere in the pipeline (the orchestrator) must apply
// this exact same fallback for the cross-source uniqueness invariant to
// hold.
func CanonicalURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return strings.ToLower(trimmed)
	}

	scheme := strings.ToLower(parsed.Scheme)
	host := strings.ToLower(parsed.Host)
	host = strings.TrimSuffix(host, ".")
	for strings.HasPrefix(host, "www.") {
		host = strings.TrimPrefix(host, "www.")
	}

	path := strings.TrimSuffix(parsed.Path, "/")
	if path == "" {
		path = "/"
	}

	query := filterQuery(parsed.RawQuery)

	out := url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     path,
		RawQuery: query,
	}
	return out.String()
}

// filterQuery drops tracking parameters from a raw query string while
// preserving the original order and encoding of the surviving pairs.
func filterQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	pairs := strings.Split(rawQuery, "&")
	kept := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		key := pair
		if idx := strings.IndexByte(pair, '='); idx >= 0 {
			key = pair[:idx]
		}
		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			decodedKey = key
		}
		if _, tracked := trackingParams[strings.ToLower(decodedKey)]; tracked {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}
