// Package filter implements the hard-filter stage of the denoise pipeline
// (spec component D): keyword exclusion, language match, and per-source
// popularity thresholds.
package filter

import (
	"regexp"
	"sync"

	"newsloom/internal/core"
)

// Config captures the subset of scoring/source configuration HardFilter
// needs: exclude keywords are global, language is per-source, and
// popularity minima are per-source-per-metric.
type Config struct {
	ExcludeKeywords []string
	// Languages maps source id -> declared language. A source absent from
	// this map, or mapped to "", has no language constraint.
	Languages map[string]string
	// MinPopularity maps source id -> metric name -> minimum value.
	MinPopularity map[string]map[string]float64
}

// HardFilter applies the three sequential, independently-optional gates.
type HardFilter struct {
	cfg      Config
	patterns []*regexp.Regexp
	once     sync.Once
}

// New builds a HardFilter from configuration.
func New(cfg Config) *HardFilter {
	return &HardFilter{cfg: cfg}
}

func (f *HardFilter) compilePatterns() {
	f.once.Do(func() {
		f.patterns = make([]*regexp.Regexp, 0, len(f.cfg.ExcludeKeywords))
		for _, kw := range f.cfg.ExcludeKeywords {
			if kw == "" {
				continue
			}
			pattern := "(?i)" + regexp.QuoteMeta(kw)
			if re, err := regexp.Compile(pattern); err == nil {
				f.patterns = append(f.patterns, re)
			}
		}
	})
}

// ApplyAll runs keyword exclusion, language match, and popularity gates in
// order and returns the surviving items, preserving input order.
func (f *HardFilter) ApplyAll(items []*core.Item) []*core.Item {
	f.compilePatterns()
	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if f.excludedByKeyword(item) {
			continue
		}
		if f.excludedByLanguage(item) {
			continue
		}
		if f.excludedByPopularity(item) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (f *HardFilter) excludedByKeyword(item *core.Item) bool {
	if len(f.patterns) == 0 {
		return false
	}
	haystack := item.Title + " " + item.Content
	for _, re := range f.patterns {
		if re.MatchString(haystack) {
			return true
		}
	}
	return false
}

func (f *HardFilter) excludedByLanguage(item *core.Item) bool {
	declared, ok := f.cfg.Languages[item.SourceID]
	if !ok || declared == "" {
		return false
	}
	return declared != item.Language
}

func (f *HardFilter) excludedByPopularity(item *core.Item) bool {
	minima, ok := f.cfg.MinPopularity[item.SourceID]
	if !ok {
		return false
	}
	for key, min := range minima {
		val, isNumeric := item.MetaFloat(key)
		if isNumeric && val < min {
			return true
		}
	}
	return false
}
