// Package digest assembles the final ranked, deduplicated, and
// summarized daily digest (spec component H): filter → cluster → score
// → sort → quota → summarize → render.
package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"newsloom/internal/core"
	"newsloom/internal/dedup"
	"newsloom/internal/filter"
	"newsloom/internal/logger"
	"newsloom/internal/quota"
	"newsloom/internal/scoring"
)

// Entry pairs a scored item with its generated summary, ready for
// rendering into a section.
type Entry struct {
	Item    *core.Item
	Metric  core.Metric
	Summary string
}

// Result is a fully assembled digest, grouped by category.
type Result struct {
	Date  string
	News  []Entry
	Tips  []Entry
	Paper []Entry
}

// TotalItems returns the number of entries across all sections.
func (r *Result) TotalItems() int {
	return len(r.News) + len(r.Tips) + len(r.Paper)
}

// Generator runs the end-to-end digest pipeline over a day's items.
type Generator struct {
	filter     *filter.HardFilter
	clusterer  *dedup.Clusterer
	scorer     *scoring.Scorer
	quota      *quota.Manager
	summarizer Summarizer
}

// NewGenerator wires the pipeline stages together.
func NewGenerator(f *filter.HardFilter, c *dedup.Clusterer, s *scoring.Scorer, q *quota.Manager, summarizer Summarizer) *Generator {
	return &Generator{filter: f, clusterer: c, scorer: s, quota: q, summarizer: summarizer}
}

// Generate runs filter, cluster, score, sort, quota, and summarize over
// items, producing a Result labeled with digestDate (YYYY-MM-DD).
func (g *Generator) Generate(ctx context.Context, items []*core.Item, digestDate string) (*Result, error) {
	logger.Get().Info().Int("items", len(items)).Str("date", digestDate).Msg("digest generation starting")

	filtered := g.filter.ApplyAll(items)
	g.clusterer.Cluster(filtered)

	metrics := g.scorer.ScoreItems(filtered)
	metricByID := make(map[string]core.Metric, len(metrics))
	for _, m := range metrics {
		metricByID[m.ItemID] = m
	}

	scored := make([]quota.Scored, 0, len(filtered))
	for _, item := range filtered {
		m := metricByID[item.ID]
		scored = append(scored, quota.Scored{Item: item, Score: m.Total})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})

	final := g.quota.Apply(scored)

	topItems := make([]*core.Item, 0, len(final))
	for _, s := range final {
		topItems = append(topItems, s.Item)
	}
	summaries, err := g.summarizer.Summarize(ctx, topItems)
	if err != nil {
		return nil, fmt.Errorf("summarize digest items: %w", err)
	}

	result := &Result{Date: digestDate}
	for _, s := range final {
		entry := Entry{Item: s.Item, Metric: metricByID[s.Item.ID], Summary: summaries[s.Item.ID]}
		switch s.Item.Category {
		case core.CategoryTips:
			result.Tips = append(result.Tips, entry)
		case core.CategoryPaper:
			result.Paper = append(result.Paper, entry)
		default:
			result.News = append(result.News, entry)
		}
	}

	logger.Get().Info().
		Int("total", result.TotalItems()).
		Int("news", len(result.News)).
		Int("tips", len(result.Tips)).
		Int("papers", len(result.Paper)).
		Msg("digest generation complete")
	return result, nil
}

// BuildSections renders one core.Digest row for each of the three category
// sections, empty ones included, each holding both a markdown rendering
// and a JSON payload.
func (r *Result) BuildSections(generatedAt time.Time) []core.Digest {
	sections := []struct {
		category core.Category
		entries  []Entry
	}{
		{core.CategoryNews, r.News},
		{core.CategoryTips, r.Tips},
		{core.CategoryPaper, r.Paper},
	}

	var digests []core.Digest
	for _, s := range sections {
		digests = append(digests, core.Digest{
			Date:        r.Date,
			Section:     s.category,
			Markdown:    renderMarkdown(s.category, s.entries),
			JSON:        renderJSON(r.Date, s.category, s.entries),
			GeneratedAt: generatedAt,
		})
	}
	return digests
}

func renderMarkdown(category core.Category, entries []Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", strings.ToUpper(string(category)))
	if len(entries) == 0 {
		b.WriteString("_No items today._\n")
		return b.String()
	}
	for _, e := range entries {
		fmt.Fprintf(&b, "### [%s](%s)\n\n", e.Item.Title, e.Item.URL)
		if e.Summary != "" {
			fmt.Fprintf(&b, "%s\n\n", e.Summary)
		}
		fmt.Fprintf(&b, "_%s · score %.2f_\n\n", e.Item.SourceID, e.Metric.Total)
	}
	return b.String()
}

type jsonEntry struct {
	ID          string  `json:"id"`
	SourceID    string  `json:"source_id"`
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	Author      string  `json:"author,omitempty"`
	PublishedAt string  `json:"published_at"`
	Category    string  `json:"category"`
	Language    string  `json:"lang,omitempty"`
	ClusterID   string  `json:"cluster_id,omitempty"`
	Summary     string  `json:"summary"`
	Total       float64 `json:"total"`
	Authority   float64 `json:"authority"`
	Recency     float64 `json:"recency"`
	Popularity  float64 `json:"popularity"`
	Relevance   float64 `json:"relevance"`
	DupPenalty  float64 `json:"dup_penalty"`
}

type jsonSection struct {
	Date    string      `json:"date"`
	Section string      `json:"section"`
	Items   []jsonEntry `json:"items"`
}

func renderJSON(date string, category core.Category, entries []Entry) string {
	section := jsonSection{Date: date, Section: string(category)}
	for _, e := range entries {
		section.Items = append(section.Items, jsonEntry{
			ID: e.Item.ID, SourceID: e.Item.SourceID, URL: e.Item.URL, Title: e.Item.Title,
			Author: e.Item.Author, PublishedAt: e.Item.PublishedAt.Format(time.RFC3339),
			Category: string(e.Item.Category), Language: e.Item.Language, ClusterID: e.Item.ClusterID,
			Summary: e.Summary, Total: e.Metric.Total, Authority: e.Metric.Authority,
			Recency: e.Metric.Recency, Popularity: e.Metric.Popularity, Relevance: e.Metric.Relevance,
			DupPenalty: e.Metric.DupPenalty,
		})
	}
	encoded, err := json.Marshal(section)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}
