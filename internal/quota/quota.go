// Package quota implements the two-phase per-source and per-category
// admission control over an already-score-sorted item list (spec
// component G).
package quota

import "newsloom/internal/core"

// Scored pairs an item with its total score for quota admission purposes.
type Scored struct {
	Item  *core.Item
	Score float64
}

// Config holds the quota/cap configuration.
type Config struct {
	// SourceQuotas maps source id -> max admitted items. DefaultQuota
	// applies to sources absent from this map.
	SourceQuotas map[string]int
	DefaultQuota int

	// CategoryCaps maps category -> max admitted items. Falls back to
	// DefaultCategoryCaps for categories absent from this map.
	CategoryCaps map[core.Category]int
}

// DefaultCategoryCaps mirror spec.md's stated defaults.
var DefaultCategoryCaps = map[core.Category]int{
	core.CategoryNews:  20,
	core.CategoryTips:  20,
	core.CategoryPaper: 10,
}

const defaultQuotaFallback = 20

// Manager applies quota then cap, stably, to a pre-sorted list.
type Manager struct {
	cfg Config
}

// New builds a Manager from configuration.
func New(cfg Config) *Manager {
	if cfg.DefaultQuota == 0 {
		cfg.DefaultQuota = defaultQuotaFallback
	}
	return &Manager{cfg: cfg}
}

// Apply runs the per-source quota pass then the per-category cap pass over
// items already sorted by score descending, preserving input order among
// admitted items.
func (m *Manager) Apply(scored []Scored) []Scored {
	sourceCounts := make(map[string]int)
	phase1 := make([]Scored, 0, len(scored))
	for _, s := range scored {
		quota := m.cfg.DefaultQuota
		if q, ok := m.cfg.SourceQuotas[s.Item.SourceID]; ok {
			quota = q
		}
		if sourceCounts[s.Item.SourceID] < quota {
			sourceCounts[s.Item.SourceID]++
			phase1 = append(phase1, s)
		}
	}

	categoryCounts := make(map[core.Category]int)
	final := make([]Scored, 0, len(phase1))
	for _, s := range phase1 {
		cap := DefaultCategoryCaps[s.Item.Category]
		if c, ok := m.cfg.CategoryCaps[s.Item.Category]; ok {
			cap = c
		}
		if categoryCounts[s.Item.Category] < cap {
			categoryCounts[s.Item.Category]++
			final = append(final, s)
		}
	}
	return final
}
