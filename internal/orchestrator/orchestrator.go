// Package orchestrator coordinates concurrent ingestion across all
// enabled sources: fetch, normalize, deduplicate, persist, and snapshot
// (spec component C).
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"newsloom/internal/connectors"
	"newsloom/internal/core"
	"newsloom/internal/dedup"
	"newsloom/internal/logger"
	"newsloom/internal/store"
)

const (
	defaultMaxConcurrent = 10
	defaultSourceTimeout = 30 * time.Second
)

// ConnectorFactory builds the connector used to fetch a given source.
// Tests substitute a stub; production wiring passes connectors.Build.
type ConnectorFactory func(core.Source) connectors.Connector

// Orchestrator runs ingestion across every enabled source with bounded
// parallelism and per-source timeouts.
type Orchestrator struct {
	store            *store.Store
	snapshots        *SnapshotManager
	connectorFactory ConnectorFactory
	maxConcurrent    int
	sourceTimeout    time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxConcurrent overrides the default fetch concurrency (10).
func WithMaxConcurrent(n int) Option {
	return func(o *Orchestrator) { o.maxConcurrent = n }
}

// WithSourceTimeout overrides the default per-source fetch deadline (30s).
func WithSourceTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.sourceTimeout = d }
}

// WithConnectorFactory overrides how a connector is built for a source.
func WithConnectorFactory(f ConnectorFactory) Option {
	return func(o *Orchestrator) { o.connectorFactory = f }
}

// New builds an Orchestrator backed by st, saving snapshots under
// snapshotDir.
func New(st *store.Store, snapshotDir string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:            st,
		snapshots:        NewSnapshotManager(snapshotDir),
		connectorFactory: connectors.Build,
		maxConcurrent:    defaultMaxConcurrent,
		sourceTimeout:    defaultSourceTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// IngestAll fetches every enabled source (optionally restricted to
// sourceIDs) concurrently, bounded by maxConcurrent, and returns an
// aggregate summary. A single source's failure never aborts the others.
func (o *Orchestrator) IngestAll(ctx context.Context, sourceIDs []string) (*core.IngestSummary, error) {
	start := time.Now()
	summary := &core.IngestSummary{}

	sources, err := o.store.ListEnabledSources()
	if err != nil {
		return nil, fmt.Errorf("list enabled sources: %w", err)
	}
	sources = filterSources(sources, sourceIDs)
	if len(sources) == 0 {
		logger.Get().Warn().Msg("no sources to ingest (none enabled or none match filter)")
		return summary, nil
	}

	sem := semaphore.NewWeighted(int64(o.maxConcurrent))
	results := make([]core.IngestResult, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			results[i] = o.ingestSource(gctx, src)
			return nil
		})
	}
	// Fetch errors are captured per-source in IngestResult; errgroup only
	// propagates context cancellation, never an individual fetch failure.
	if err := g.Wait(); err != nil {
		return summary, fmt.Errorf("ingest cancelled: %w", err)
	}

	for _, r := range results {
		summary.Add(r)
	}
	summary.DurationSeconds = time.Since(start).Seconds()
	logger.Get().Info().
		Int("fetched", summary.TotalFetched).
		Int("inserted", summary.TotalInserted).
		Int("duplicates", summary.TotalDuplicates).
		Int("errors", summary.TotalErrors).
		Float64("duration_seconds", summary.DurationSeconds).
		Msg("ingest complete")
	return summary, nil
}

func filterSources(sources []core.Source, ids []string) []core.Source {
	if len(ids) == 0 {
		return sources
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []core.Source
	for _, s := range sources {
		if _, ok := want[s.ID]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (o *Orchestrator) ingestSource(ctx context.Context, source core.Source) core.IngestResult {
	result := core.IngestResult{SourceID: source.ID}
	start := time.Now()
	now := time.Now().UTC()

	fetchCtx, cancel := context.WithTimeout(ctx, o.sourceTimeout)
	defer cancel()

	raw, err := o.connectorFactory(source).Fetch(fetchCtx, source)
	if err != nil {
		result.Errors = 1
		result.ErrorMessage = err.Error()
		result.DurationSeconds = time.Since(start).Seconds()
		if updErr := o.store.UpdateSourceStatus(source.ID, &now, err.Error(), true); updErr != nil {
			logger.Get().Error().Err(updErr).Str("source_id", source.ID).Msg("failed to record source error status")
		}
		logger.Get().Error().Err(err).Str("source_id", source.ID).Msg("source ingest failed")
		return result
	}
	result.Fetched = len(raw)

	if len(raw) == 0 {
		if updErr := o.store.UpdateSourceStatus(source.ID, &now, "", false); updErr != nil {
			logger.Get().Error().Err(updErr).Str("source_id", source.ID).Msg("failed to record source status")
		}
		result.DurationSeconds = time.Since(start).Seconds()
		return result
	}

	batchID := uuid.NewString()
	items := o.normalizeItems(raw, source, now, batchID)
	unique, dupCount, dedupErr := o.deduplicate(items)
	if dedupErr != nil {
		result.Errors = 1
		result.ErrorMessage = dedupErr.Error()
		result.DurationSeconds = time.Since(start).Seconds()
		return result
	}
	result.Duplicates = dupCount

	for i := range unique {
		if unique[i].Content == "" {
			continue
		}
		path, snapErr := o.snapshots.Save(source.ID, unique[i].URL, unique[i].Content)
		if snapErr != nil {
			logger.Get().Warn().Err(snapErr).Str("url", unique[i].URL).Msg("snapshot save failed")
			continue
		}
		unique[i].SnapshotPath = path
	}

	inserted, insErr := o.store.BatchInsertItems(unique)
	if insErr != nil {
		result.Errors = 1
		result.ErrorMessage = insErr.Error()
		result.DurationSeconds = time.Since(start).Seconds()
		return result
	}
	result.Inserted = inserted

	if updErr := o.store.UpdateSourceStatus(source.ID, &now, "", false); updErr != nil {
		logger.Get().Error().Err(updErr).Str("source_id", source.ID).Msg("failed to record source status")
	}

	logger.Get().Info().
		Str("source_id", source.ID).
		Int("fetched", result.Fetched).
		Int("inserted", result.Inserted).
		Int("duplicates", result.Duplicates).
		Msg("source ingest complete")

	result.DurationSeconds = time.Since(start).Seconds()
	return result
}

func (o *Orchestrator) normalizeItems(raw []core.RawItem, source core.Source, now time.Time, batchID string) []core.Item {
	items := make([]core.Item, 0, len(raw))
	for _, r := range raw {
		if r.URL == "" {
			continue
		}
		published, ok := parseDatetime(r.PublishedAt)
		if !ok {
			published = now
		}
		title := r.Title
		if title == "" {
			title = "Untitled"
		}
		items = append(items, core.Item{
			ID:           MakeItemID(source.ID, r.URL),
			SourceID:     source.ID,
			ExternalID:   r.ExternalID,
			URL:          r.URL,
			URLCanonical: dedup.CanonicalURL(r.URL),
			Title:        title,
			Content:      r.Content,
			Author:       r.Author,
			PublishedAt:  published,
			IngestedAt:   now,
			Category:     source.Category,
			Language:     source.Language,
			Metadata:     r.Metadata,
			FetchBatchID: batchID,
		})
	}
	return items
}

// deduplicate drops items whose canonical URL repeats within the batch
// or already exists in storage from a prior ingest (possibly from a
// different source entirely).
func (o *Orchestrator) deduplicate(items []core.Item) ([]core.Item, int, error) {
	seen := make(map[string]struct{}, len(items))
	unique := make([]core.Item, 0, len(items))
	dups := 0

	for _, item := range items {
		if _, ok := seen[item.URLCanonical]; ok {
			dups++
			continue
		}
		exists, err := o.store.URLCanonicalExists(item.URLCanonical)
		if err != nil {
			return nil, 0, fmt.Errorf("check existing canonical url: %w", err)
		}
		if exists {
			dups++
			seen[item.URLCanonical] = struct{}{}
			continue
		}
		seen[item.URLCanonical] = struct{}{}
		unique = append(unique, item)
	}
	return unique, dups, nil
}
