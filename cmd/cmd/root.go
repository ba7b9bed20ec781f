/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"newsloom/internal/config"
	"newsloom/internal/core"
	"newsloom/internal/digest"
	"newsloom/internal/logger"
	"newsloom/internal/orchestrator"
	"newsloom/internal/store"
)

var cfgFile string

// rootCmd is the base command when newsloom is called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "newsloom",
	Short: "newsloom ingests, ranks, and digests AI/ML content from configured sources.",
	Long: `newsloom pulls items from RSS feeds, JSON APIs, and scraped pages,
deduplicates and scores them, and renders a ranked daily digest per
category (news, tips, paper).`,
}

// Execute adds all child commands to rootCmd and runs it. Called by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	cobra.OnInitialize(func() {
		logger.Init()
		if _, err := config.Load(cfgFile); err != nil {
			fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
			os.Exit(1)
		}
	})

	rootCmd.AddCommand(ingestCmd, statusCmd, searchCmd, digestCmd, vacuumCmd)
}

func openStore() *store.Store {
	cfg := config.Get()
	st, err := store.Open(cfg.Storage.DBPath, store.Options{CacheSizeMB: cfg.Storage.CacheSizeMB})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening store: %v\n", err)
		os.Exit(1)
	}
	return st
}

func syncSources(st *store.Store) error {
	cfg := config.Get()
	now := time.Now().UTC()
	for _, sc := range cfg.Sources {
		src := sc.ToSource(now)
		existing, err := st.GetSource(sc.ID)
		if err != nil {
			return fmt.Errorf("load source %q: %w", sc.ID, err)
		}
		if existing != nil {
			// Keep the status the orchestrator recorded on earlier runs.
			src.LastFetchAt, src.LastError, src.ErrorCount = existing.LastFetchAt, existing.LastError, existing.ErrorCount
		}
		if err := st.UpsertSource(src); err != nil {
			return fmt.Errorf("sync source %q: %w", sc.ID, err)
		}
	}
	return nil
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch content from configured sources",
	Long:  `Fetch new items from every enabled source (or a named subset), deduplicate, and store them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStore()
		defer func() { _ = st.Close() }()

		if err := syncSources(st); err != nil {
			return err
		}

		only, _ := cmd.Flags().GetStringSlice("source")
		cfg := config.Get()

		orch := orchestrator.New(st, cfg.Digest.SnapshotDir,
			orchestrator.WithMaxConcurrent(cfg.Performance.MaxConcurrentFetches),
			orchestrator.WithSourceTimeout(cfg.Performance.SourceTimeout),
		)

		ctx := context.Background()
		summary, err := orch.IngestAll(ctx, only)
		if err != nil {
			return fmt.Errorf("ingest: %w", err)
		}

		fmt.Printf("Ingest complete in %.1fs: %d fetched, %d inserted, %d duplicates, %d errors\n",
			summary.DurationSeconds, summary.TotalFetched, summary.TotalInserted, summary.TotalDuplicates, summary.TotalErrors)
		for _, r := range summary.Results {
			status := "ok"
			if r.Errors > 0 {
				status = "error: " + r.ErrorMessage
			}
			fmt.Printf("  %-20s fetched=%-4d inserted=%-4d dup=%-4d %s\n", r.SourceID, r.Fetched, r.Inserted, r.Duplicates, status)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringSlice("source", nil, "limit ingest to these source ids (default: all enabled)")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show storage and source statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStore()
		defer func() { _ = st.Close() }()

		stats, err := st.Stats()
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}

		fmt.Println("Storage:")
		fmt.Printf("  items:   %d\n", stats.TotalItems)
		fmt.Printf("  sources: %d\n", stats.TotalSources)
		fmt.Printf("  metrics: %d\n", stats.TotalMetrics)
		fmt.Printf("  digests: %d\n", stats.TotalDigests)
		fmt.Printf("  db size: %.2f MB\n", float64(stats.DBSizeBytes)/(1024*1024))

		fmt.Println("\nBy category:")
		for cat, n := range stats.ByCategory {
			fmt.Printf("  %-10s %d\n", cat, n)
		}

		fmt.Println("\nBy source:")
		for src, n := range stats.BySource {
			fmt.Printf("  %-20s %d\n", src, n)
		}

		sources, err := st.ListEnabledSources()
		if err != nil {
			return fmt.Errorf("list sources: %w", err)
		}
		fmt.Println("\nEnabled sources:")
		for _, s := range sources {
			last := "never"
			if s.LastFetchAt != nil {
				last = s.LastFetchAt.Format(time.RFC3339)
			}
			errInfo := ""
			if s.ErrorCount > 0 {
				errInfo = fmt.Sprintf(" (errors=%d last_error=%q)", s.ErrorCount, s.LastError)
			}
			fmt.Printf("  %-20s type=%-12s last_fetch=%s%s\n", s.ID, s.Type, last, errInfo)
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Full-text search stored items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStore()
		defer func() { _ = st.Close() }()

		category, _ := cmd.Flags().GetString("category")
		lang, _ := cmd.Flags().GetString("lang")
		sourceID, _ := cmd.Flags().GetString("source")
		days, _ := cmd.Flags().GetInt("days")
		limit, _ := cmd.Flags().GetInt("limit")

		opts := store.SearchOptions{
			Category: core.Category(category),
			Language: lang,
			SourceID: sourceID,
			Limit:    limit,
		}
		if days > 0 {
			since := time.Now().UTC().AddDate(0, 0, -days)
			opts.Since = &since
		}

		items, err := st.Search(args[0], opts)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		if len(items) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for _, it := range items {
			fmt.Printf("%-20s %-8s %s\n  %s\n", it.SourceID, it.Category, it.Title, it.URL)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().String("category", "", "filter by category (news, tips, paper)")
	searchCmd.Flags().String("lang", "", "filter by language code")
	searchCmd.Flags().String("source", "", "filter by source id")
	searchCmd.Flags().Int("days", 0, "only items published in the last N days")
	searchCmd.Flags().Int("limit", 20, "max results")
}

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Generate and store the ranked daily digest",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		dateStr, _ := cmd.Flags().GetString("date")
		if dateStr == "" {
			dateStr = time.Now().UTC().Format("2006-01-02")
		}

		st := openStore()
		defer func() { _ = st.Close() }()

		storedItems, err := st.GetItemsForDate(dateStr)
		if err != nil {
			return fmt.Errorf("load items for %s: %w", dateStr, err)
		}
		if len(storedItems) == 0 {
			fmt.Printf("No items ingested for %s; nothing to digest.\n", dateStr)
			return nil
		}

		items := make([]*core.Item, len(storedItems))
		for i := range storedItems {
			items[i] = &storedItems[i]
		}

		gen, err := buildGenerator(cfg)
		if err != nil {
			return err
		}

		ctx := context.Background()
		result, err := gen.Generate(ctx, items, dateStr)
		if err != nil {
			return fmt.Errorf("generate digest: %w", err)
		}

		sections := result.BuildSections(time.Now().UTC())
		for _, sec := range sections {
			if _, err := st.SaveDigest(sec); err != nil {
				return fmt.Errorf("save digest section %s: %w", sec.Section, err)
			}
		}

		fmt.Printf("Digest for %s: %d items (news=%d tips=%d paper=%d)\n",
			dateStr, result.TotalItems(), len(result.News), len(result.Tips), len(result.Paper))
		for _, sec := range sections {
			fmt.Println()
			fmt.Println(sec.Markdown)
		}
		return nil
	},
}

func init() {
	digestCmd.Flags().String("date", "", "digest date, YYYY-MM-DD (default: today, UTC)")
}

func buildGenerator(cfg *config.Config) (*digest.Generator, error) {
	hardFilter := filterFromConfig(cfg)
	clusterer := clustererFromConfig(cfg)
	scorer := scorerFromConfig(cfg)
	quotaMgr := quotaFromConfig(cfg)
	summarizer, err := summarizerFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return digest.NewGenerator(hardFilter, clusterer, scorer, quotaMgr, summarizer), nil
}

var vacuumCmd = &cobra.Command{
	Use:   "vacuum",
	Short: "Reclaim storage and optimize the search index",
	RunE: func(cmd *cobra.Command, args []string) error {
		st := openStore()
		defer func() { _ = st.Close() }()

		optimizeFTS, _ := cmd.Flags().GetBool("optimize-fts")

		if ok, err := st.IntegrityCheck(); err != nil {
			return fmt.Errorf("integrity check: %w", err)
		} else if !ok {
			fmt.Println("warning: integrity check reported a corrupt database")
		}

		if optimizeFTS {
			if err := st.OptimizeFTS(); err != nil {
				return fmt.Errorf("optimize fts: %w", err)
			}
			fmt.Println("FTS index optimized.")
		}

		if err := st.Vacuum(); err != nil {
			return fmt.Errorf("vacuum: %w", err)
		}
		fmt.Println("Database vacuumed.")
		return nil
	},
}

func init() {
	vacuumCmd.Flags().Bool("optimize-fts", false, "merge FTS5 b-tree segments before vacuuming")
}
