// Package core holds the domain types shared across the ingest, denoise,
// scoring, and storage layers.
package core

import "time"

// Category is the fixed set of digest sections an Item can belong to.
type Category string

const (
	CategoryNews  Category = "news"
	CategoryTips  Category = "tips"
	CategoryPaper Category = "paper"
)

// Source is a configured feed. The orchestrator is the only component that
// mutates a Source after it has been created from configuration.
type Source struct {
	ID              string             `json:"id"`
	Type            string             `json:"type"` // rss, api, rss_or_scrape, scrape
	URL             string             `json:"url"`
	Params          map[string]string  `json:"params,omitempty"`
	Headers         map[string]string  `json:"headers,omitempty"`
	Category        Category           `json:"category"`
	Language        string             `json:"lang,omitempty"`
	Authority       float64            `json:"authority"`
	MinPopularity   map[string]float64 `json:"min_popularity,omitempty"`
	PopularityField string             `json:"popularity_field,omitempty"`
	RefreshHours    int                `json:"refresh_hours,omitempty"`
	Enabled         bool               `json:"enabled"`
	LastFetchAt     *time.Time         `json:"last_fetch_at,omitempty"`
	LastError       string             `json:"last_error,omitempty"`
	ErrorCount      int                `json:"error_count"`
	CreatedAt       time.Time          `json:"created_at"`
}

// RawItem is what a Connector returns: the uniform, pre-normalization shape
// of a fetched entry.
type RawItem struct {
	URL         string
	ExternalID  string
	Title       string
	Content     string
	Author      string
	PublishedAt string // ISO-8601 or other parseable date string; best-effort
	Metadata    map[string]any
}

// Item is a single piece of content, normalized and ready for storage.
type Item struct {
	ID           string // 16 hex chars: sha256(source_id:url)[:16]
	SourceID     string
	ExternalID   string
	URL          string
	URLCanonical string
	Title        string
	Content      string
	Author       string
	PublishedAt  time.Time
	IngestedAt   time.Time
	Category     Category
	Language     string
	Metadata     map[string]any
	SnapshotPath string
	FetchBatchID string

	// Populated transiently by the denoise pipeline; never written back to
	// the items table itself (they live in the metrics row instead).
	ClusterID        string
	IsRepresentative bool
}

// MetaFloat returns a numeric metadata value as float64, if present and
// numeric. JSON-decoded metadata surfaces numbers as float64 already;
// literal Go-constructed maps may hold int, so both are handled.
func (it *Item) MetaFloat(key string) (float64, bool) {
	if it.Metadata == nil {
		return 0, false
	}
	switch v := it.Metadata[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Metric is the scoring record for an Item, one row per item per digest run.
type Metric struct {
	ItemID     string
	Total      float64
	Authority  float64
	Recency    float64
	Popularity float64
	Relevance  float64
	DupPenalty float64
	ClusterID  string
	Summary    string
	ComputedAt time.Time
}

// Digest is one row per (date, section).
type Digest struct {
	ID          int64
	Date        string // YYYY-MM-DD
	Section     Category
	Markdown    string
	JSON        string
	GeneratedAt time.Time
}

// IngestResult is the per-source outcome of one orchestrator pass.
type IngestResult struct {
	SourceID        string
	Fetched         int
	Inserted        int
	Duplicates      int
	Errors          int
	ErrorMessage    string
	DurationSeconds float64
}

// IngestSummary aggregates IngestResults across an entire ingest call.
type IngestSummary struct {
	Results         []IngestResult
	TotalFetched    int
	TotalInserted   int
	TotalDuplicates int
	TotalErrors     int
	DurationSeconds float64
}

// Add folds one source's result into the running totals.
func (s *IngestSummary) Add(r IngestResult) {
	s.Results = append(s.Results, r)
	s.TotalFetched += r.Fetched
	s.TotalInserted += r.Inserted
	s.TotalDuplicates += r.Duplicates
	s.TotalErrors += r.Errors
}
