// Package config loads and validates the pipeline's YAML configuration
// (sources, scoring weights, quotas, LLM provider, storage paths) via
// viper, with .env support for secrets.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"newsloom/internal/core"
)

// Config holds the full application configuration.
type Config struct {
	Sources     []SourceConfig    `mapstructure:"sources"`
	Scoring     ScoringConfig     `mapstructure:"scoring"`
	Quota       QuotaConfig       `mapstructure:"quota"`
	Filtering   FilteringConfig   `mapstructure:"filtering"`
	Performance PerformanceConfig `mapstructure:"performance"`
	Digest      DigestConfig      `mapstructure:"digest"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// SourceConfig is one entry under the top-level `sources` list.
type SourceConfig struct {
	ID              string            `mapstructure:"id"`
	Type            string            `mapstructure:"type"`
	URL             string            `mapstructure:"url"`
	Category        string            `mapstructure:"category"`
	Lang            string            `mapstructure:"lang"`
	Authority       float64           `mapstructure:"authority"`
	Params          map[string]string `mapstructure:"params"`
	Headers         map[string]string `mapstructure:"headers"`
	MinPopularity   map[string]float64 `mapstructure:"min_popularity"`
	PopularityField string            `mapstructure:"popularity_field"`
	RefreshHours    int               `mapstructure:"refresh_hours"`
}

// ToSource converts a config entry into the runtime core.Source shape with
// empty status fields (no last fetch, no error, zero error count).
func (c SourceConfig) ToSource(now time.Time) core.Source {
	category := core.Category(c.Category)
	if category == "" {
		category = core.CategoryNews
	}
	lang := c.Lang
	if lang == "" {
		lang = "en"
	}
	authority := c.Authority
	if authority == 0 {
		authority = 0.5
	}
	return core.Source{
		ID: c.ID, Type: c.Type, URL: c.URL, Category: category, Language: lang,
		Authority: authority, Params: c.Params, Headers: c.Headers,
		MinPopularity: c.MinPopularity, PopularityField: c.PopularityField,
		RefreshHours: c.RefreshHours, Enabled: true, CreatedAt: now,
	}
}

// ScoringConfig holds the per-factor weights consumed by internal/scoring.
type ScoringConfig struct {
	WeightAuthority  float64 `mapstructure:"weight_authority"`
	WeightRecency    float64 `mapstructure:"weight_recency"`
	WeightPopularity float64 `mapstructure:"weight_popularity"`
	WeightRelevance  float64 `mapstructure:"weight_relevance"`
	WeightDupPenalty float64 `mapstructure:"weight_dup_penalty"`
}

// QuotaConfig holds per-source quotas and per-category caps.
type QuotaConfig struct {
	DefaultQuota    int            `mapstructure:"default_quota"`
	SourceQuotas    map[string]int `mapstructure:"source_quotas"`
	CategoryCapNews int            `mapstructure:"category_cap_news"`
	CategoryCapTips int            `mapstructure:"category_cap_tips"`
	CategoryCapPaper int           `mapstructure:"category_cap_paper"`
}

// FilteringConfig holds the hard-filter gates.
type FilteringConfig struct {
	ExcludeKeywords []string          `mapstructure:"exclude_keywords"`
	Languages       map[string]string `mapstructure:"languages"`
}

// PerformanceConfig holds ingest concurrency/timeout tuning.
type PerformanceConfig struct {
	MaxConcurrentFetches int           `mapstructure:"max_concurrent_fetches"`
	SourceTimeout        time.Duration `mapstructure:"source_timeout"`
}

// DigestConfig holds the clustering similarity threshold and the snapshot
// directory.
type DigestConfig struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	SnapshotDir         string  `mapstructure:"snapshot_dir"`
}

// LLMConfig selects and tunes the summarization provider.
type LLMConfig struct {
	Provider           string  `mapstructure:"provider"`
	Model              string  `mapstructure:"model"`
	MaxTokens          int     `mapstructure:"max_tokens"`
	Temperature        float64 `mapstructure:"temperature"`
	ConcurrentRequests int     `mapstructure:"concurrent_requests"`
	CacheSummaries     bool    `mapstructure:"cache_summaries"`
}

// StorageConfig points at the SQLite database file.
type StorageConfig struct {
	DBPath      string `mapstructure:"db_path"`
	CacheSizeMB int    `mapstructure:"cache_size_mb"`
}

// LoggingConfig holds the logging.level key. It is loaded but not read:
// internal/logger takes its level from the LOG_LEVEL environment variable.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

var globalConfig *Config

// Load reads configFile (or searches the working directory for
// config.yaml) into a validated Config, loading .env first so secrets
// like GEMINI_API_KEY are available to viper's environment binding.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("warning: error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the process-wide configuration, loading defaults if Load
// hasn't been called yet.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("failed to load configuration: %v", err))
		}
		return cfg
	}
	return globalConfig
}

// Reset clears the cached global configuration. Test-only.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

func setDefaults() {
	viper.SetDefault("scoring.weight_authority", 0.30)
	viper.SetDefault("scoring.weight_recency", 0.25)
	viper.SetDefault("scoring.weight_popularity", 0.20)
	viper.SetDefault("scoring.weight_relevance", 0.20)
	viper.SetDefault("scoring.weight_dup_penalty", 0.05)

	viper.SetDefault("quota.default_quota", 20)
	viper.SetDefault("quota.category_cap_news", 20)
	viper.SetDefault("quota.category_cap_tips", 20)
	viper.SetDefault("quota.category_cap_paper", 10)

	viper.SetDefault("performance.max_concurrent_fetches", 10)
	viper.SetDefault("performance.source_timeout", "30s")

	viper.SetDefault("digest.similarity_threshold", 0.85)
	viper.SetDefault("digest.snapshot_dir", "data/snapshots")

	viper.SetDefault("llm.provider", "mock")
	viper.SetDefault("llm.model", "gemini-flash-lite-latest")
	viper.SetDefault("llm.max_tokens", 150)
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.concurrent_requests", 10)
	viper.SetDefault("llm.cache_summaries", true)

	viper.SetDefault("storage.db_path", "data/newsloom.db")
	viper.SetDefault("storage.cache_size_mb", 64)

	viper.SetDefault("logging.level", "info")
}

func validate(cfg *Config) error {
	for i, s := range cfg.Sources {
		if s.ID == "" {
			return fmt.Errorf("sources[%d]: id is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.ID)
		}
	}
	if cfg.Performance.MaxConcurrentFetches <= 0 {
		return fmt.Errorf("performance.max_concurrent_fetches must be positive")
	}
	return nil
}
