package cmd

import (
	"fmt"
	"time"

	"newsloom/internal/config"
	"newsloom/internal/core"
	"newsloom/internal/dedup"
	"newsloom/internal/digest"
	"newsloom/internal/filter"
	"newsloom/internal/llm"
	"newsloom/internal/quota"
	"newsloom/internal/scoring"
)

func filterFromConfig(cfg *config.Config) *filter.HardFilter {
	minPopularity := make(map[string]map[string]float64, len(cfg.Sources))
	languages := make(map[string]string, len(cfg.Sources))
	for _, s := range cfg.Sources {
		if len(s.MinPopularity) > 0 {
			minPopularity[s.ID] = s.MinPopularity
		}
		if s.Lang != "" {
			languages[s.ID] = s.Lang
		}
	}
	return filter.New(filter.Config{
		ExcludeKeywords: cfg.Filtering.ExcludeKeywords,
		Languages:       languages,
		MinPopularity:   minPopularity,
	})
}

func clustererFromConfig(cfg *config.Config) *dedup.Clusterer {
	return dedup.New(dedup.WithSimilarityThreshold(cfg.Digest.SimilarityThreshold))
}

func scorerFromConfig(cfg *config.Config) *scoring.Scorer {
	sourceAuthority := make(map[string]float64, len(cfg.Sources))
	sourcePopularityKey := make(map[string]string, len(cfg.Sources))
	for _, s := range cfg.Sources {
		sourceAuthority[s.ID] = s.Authority
		if s.PopularityField != "" {
			sourcePopularityKey[s.ID] = s.PopularityField
		}
	}
	weights := scoring.Weights{
		Authority:  cfg.Scoring.WeightAuthority,
		Recency:    cfg.Scoring.WeightRecency,
		Popularity: cfg.Scoring.WeightPopularity,
		Relevance:  cfg.Scoring.WeightRelevance,
		DupPenalty: cfg.Scoring.WeightDupPenalty,
	}
	if weights == (scoring.Weights{}) {
		weights = scoring.DefaultWeights
	}
	return scoring.New(weights, sourceAuthority, sourcePopularityKey, time.Now().UTC())
}

func quotaFromConfig(cfg *config.Config) *quota.Manager {
	caps := map[core.Category]int{
		core.CategoryNews:  cfg.Quota.CategoryCapNews,
		core.CategoryTips:  cfg.Quota.CategoryCapTips,
		core.CategoryPaper: cfg.Quota.CategoryCapPaper,
	}
	return quota.New(quota.Config{
		SourceQuotas: cfg.Quota.SourceQuotas,
		DefaultQuota: cfg.Quota.DefaultQuota,
		CategoryCaps: caps,
	})
}

func summarizerFromConfig(cfg *config.Config) (digest.Summarizer, error) {
	if cfg.LLM.Provider == "" || cfg.LLM.Provider == "mock" {
		return digest.NewMockSummarizer(), nil
	}
	client, err := llm.New(cfg.LLM.Provider, cfg.LLM.Model)
	if err != nil {
		return nil, fmt.Errorf("init %s llm client: %w", cfg.LLM.Provider, err)
	}
	return digest.NewLLMSummarizer(client, cfg.LLM.ConcurrentRequests), nil
}
