// Package scoring implements the multi-factor weighted scorer (spec
// component F): authority, recency, popularity, relevance, and a
// duplicate-cluster penalty, combined into a single [0,1] total.
package scoring

import (
	"math"
	"regexp"
	"time"

	"newsloom/internal/core"
)

// Weights holds the linear combination coefficients. Defaults match
// spec.md §4.F.
type Weights struct {
	Authority  float64
	Recency    float64
	Popularity float64
	Relevance  float64
	DupPenalty float64
}

// DefaultWeights are the configured defaults absent explicit overrides.
var DefaultWeights = Weights{
	Authority:  0.30,
	Recency:    0.25,
	Popularity: 0.20,
	Relevance:  0.20,
	DupPenalty: 0.05,
}

// relevanceKeywords are the fixed domain keyword patterns counted for the
// relevance factor, word-boundary and case-insensitive.
var relevanceKeywords = []string{
	`\bLLM\b`, `\blarge language model\b`, `\bGPT\b`, `\btransformer\b`,
	`\bRAG\b`, `\bretrieval.augmented\b`, `\bagent\b`, `\bfine.?tun`,
	`\bembedding\b`, `\bvector\b`, `\bmultimodal\b`, `\bdiffusion\b`,
	`\breinforcement learning\b`, `\bneural\b`, `\bdeep learning\b`,
	`\bprompt\b`, `\bClaude\b`, `\bOpenAI\b`, `\bAnthrop`, `\bMCP\b`,
	`\bAI\b`, `\bmachine learning\b`,
}

var relevancePatterns = compileRelevancePatterns()

func compileRelevancePatterns() []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(relevanceKeywords))
	for _, p := range relevanceKeywords {
		out = append(out, regexp.MustCompile("(?i)"+p))
	}
	return out
}

// fallbackPopularityFields is the ordered list of metadata keys consulted
// when a source has no declared popularity field.
var fallbackPopularityFields = []string{"points", "score", "stars", "likes_count", "likes"}

// Scorer computes explainable, batch-normalized scores for a list of
// items. A Scorer instance is intended to live for exactly one digest run:
// its "now" is fixed at construction, and its per-source popularity maxima
// are recomputed fresh for every batch passed to ScoreItems.
type Scorer struct {
	weights             Weights
	sourceAuthority     map[string]float64
	sourcePopularityKey map[string]string
	now                 time.Time

	batchSourceMax map[string]float64
}

// New builds a Scorer. sourceAuthority maps source id -> configured
// authority in [0,1]; sourcePopularityKey maps source id -> the metadata
// key preferred for that source's popularity signal (optional). now is
// injected, not read from the system clock, so recency is deterministic
// in tests and stable across a single run.
func New(weights Weights, sourceAuthority map[string]float64, sourcePopularityKey map[string]string, now time.Time) *Scorer {
	return &Scorer{
		weights:             weights,
		sourceAuthority:     sourceAuthority,
		sourcePopularityKey: sourcePopularityKey,
		now:                 now,
		batchSourceMax:      map[string]float64{},
	}
}

// ScoreItems computes a Metric for every item. Popularity is normalized
// against each source's maximum raw value within this batch, so the whole
// batch must be scored together for the normalization to be meaningful.
func (s *Scorer) ScoreItems(items []*core.Item) []core.Metric {
	if len(items) == 0 {
		return nil
	}

	s.batchSourceMax = map[string]float64{}
	for _, item := range items {
		raw, ok := s.rawPopularity(item)
		if !ok || raw <= 0 {
			continue
		}
		if cur, exists := s.batchSourceMax[item.SourceID]; !exists || raw > cur {
			s.batchSourceMax[item.SourceID] = raw
		}
	}
	for sid, max := range s.batchSourceMax {
		if max < 1 {
			delete(s.batchSourceMax, sid)
		}
	}

	metrics := make([]core.Metric, len(items))
	for i, item := range items {
		metrics[i] = s.scoreOne(item)
	}
	return metrics
}

func (s *Scorer) scoreOne(item *core.Item) core.Metric {
	authority := s.authority(item)
	recency := s.recency(item)
	popularity := s.popularity(item)
	relevance := s.relevance(item)
	dupPenalty := s.dupPenalty(item)

	total := s.weights.Authority*authority +
		s.weights.Recency*recency +
		s.weights.Popularity*popularity +
		s.weights.Relevance*relevance -
		s.weights.DupPenalty*dupPenalty
	total = clip01(total)

	return core.Metric{
		ItemID:     item.ID,
		Total:      total,
		Authority:  authority,
		Recency:    recency,
		Popularity: popularity,
		Relevance:  relevance,
		DupPenalty: dupPenalty,
		ClusterID:  item.ClusterID,
		ComputedAt: s.now,
	}
}

func (s *Scorer) authority(item *core.Item) float64 {
	if a, ok := s.sourceAuthority[item.SourceID]; ok {
		return a
	}
	return 0.5
}

func (s *Scorer) recency(item *core.Item) float64 {
	daysAgo := 30.0
	if !item.PublishedAt.IsZero() {
		d := s.now.Sub(item.PublishedAt).Hours() / 24.0
		if d < 0 {
			d = 0
		}
		daysAgo = d
	}
	return math.Exp(-daysAgo / 7.0)
}

func (s *Scorer) rawPopularity(item *core.Item) (float64, bool) {
	if key, ok := s.sourcePopularityKey[item.SourceID]; ok && key != "" {
		if v, isNum := item.MetaFloat(key); isNum {
			return v, true
		}
	}
	for _, key := range fallbackPopularityFields {
		if v, isNum := item.MetaFloat(key); isNum {
			return v, true
		}
	}
	return 0, false
}

func (s *Scorer) popularity(item *core.Item) float64 {
	raw, ok := s.rawPopularity(item)
	if !ok || raw <= 0 {
		return 0
	}
	maxForSource, ok := s.batchSourceMax[item.SourceID]
	if !ok || maxForSource < 1 {
		return 0
	}
	v := math.Log1p(raw) / math.Log1p(maxForSource)
	return clip01(v)
}

func (s *Scorer) relevance(item *core.Item) float64 {
	text := item.Title + " " + truncateRunes(item.Content, 1000)
	matches := 0
	for _, re := range relevancePatterns {
		if re.MatchString(text) {
			matches++
		}
	}
	v := float64(matches) / 3.0
	if v > 1.0 {
		v = 1.0
	}
	return v
}

func (s *Scorer) dupPenalty(item *core.Item) float64 {
	if item.ClusterID == "" {
		return 0
	}
	if item.IsRepresentative {
		return 0
	}
	return 1.0
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// truncateRunes trims s to at most n runes, never splitting a multi-byte
// UTF-8 sequence the way a byte-index slice would.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
