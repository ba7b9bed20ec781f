// Package store implements the embedded SQLite storage engine (spec
// component A): schema migrations, FTS5 search, batched writes, and
// single-writer serialization.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"newsloom/internal/core"
	"newsloom/internal/errs"
)

const batchSize = 1000

// Store wraps a single SQLite database file. All writes funnel through
// writeMu so exactly one logical writer runs at a time; reads use the
// pool's other connections concurrently under WAL.
type Store struct {
	db      *sql.DB
	writeMu sync.Mutex
	path    string
}

// Options configure a new Store.
type Options struct {
	CacheSizeMB int // page cache size; defaults to 64MB
}

// Open creates the data directory if needed, opens (or creates) the
// database file, applies pragmas, and runs any pending migrations.
func Open(dbPath string, opts Options) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create data directory: %v", errs.ErrStorage, err)
		}
	}

	// _txlock=immediate makes every db.Begin issue BEGIN IMMEDIATE.
	db, err := sql.Open("sqlite3", dbPath+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", errs.ErrStorage, err)
	}
	// Up to 8 pooled connections: writes are serialized by writeMu, and WAL
	// mode lets reads on the other connections proceed without blocking on
	// the writer.
	db.SetMaxOpenConns(8)

	s := &Store{db: db, path: dbPath}
	if err := s.applyPragmas(opts); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) applyPragmas(opts Options) error {
	cacheSizeMB := opts.CacheSizeMB
	if cacheSizeMB <= 0 {
		cacheSizeMB = 64
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
		fmt.Sprintf("PRAGMA cache_size=-%d", cacheSizeMB*1000),
		"PRAGMA mmap_size=268435456",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("%w: pragma %q: %v", errs.ErrStorage, p, err)
		}
	}
	return nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// currentVersion reads MAX(version) from schema_version, treating a
// missing table as version 0.
func (s *Store) currentVersion() (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return 0, nil
		}
		return 0, err
	}
	return int(version.Int64), nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("%w: create schema_version: %v", errs.ErrStorage, err)
	}

	current, err := s.currentVersion()
	if err != nil {
		return fmt.Errorf("%w: read schema version: %v", errs.ErrStorage, err)
	}

	pending := make([]migration, 0)
	for _, m := range migrations {
		if m.Version > current {
			pending = append(pending, m)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Version < pending[j].Version })

	for _, m := range pending {
		if err := s.applyMigration(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) applyMigration(m migration) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin migration %d: %v", errs.ErrStorage, m.Version, err)
	}
	for _, stmt := range m.Statements {
		if _, err := tx.Exec(stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: migration %d (%s): %v", errs.ErrStorage, m.Version, m.Description, err)
		}
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_version (version, description, applied_at) VALUES (?, ?, ?)",
		m.Version, m.Description, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: record migration %d: %v", errs.ErrStorage, m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit migration %d: %v", errs.ErrStorage, m.Version, err)
	}
	return nil
}

// withWriteTx serializes every write through a single logical writer token
// and runs fn inside an immediate-begin transaction, rolling back on any
// error it returns.
func (s *Store) withWriteTx(fn func(tx *sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", errs.ErrStorage, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", errs.ErrStorage, err)
	}
	return nil
}

// ---------------------------------------------------------------------
// Sources
// ---------------------------------------------------------------------

type sourceConfigJSON struct {
	Params          map[string]string  `json:"params,omitempty"`
	Headers         map[string]string  `json:"headers,omitempty"`
	MinPopularity   map[string]float64 `json:"min_popularity,omitempty"`
	PopularityField string             `json:"popularity_field,omitempty"`
	RefreshHours    int                `json:"refresh_hours,omitempty"`
}

// UpsertSource inserts or replaces a source row by primary key.
func (s *Store) UpsertSource(src core.Source) error {
	cfg := sourceConfigJSON{
		Params:          src.Params,
		Headers:         src.Headers,
		MinPopularity:   src.MinPopularity,
		PopularityField: src.PopularityField,
		RefreshHours:    src.RefreshHours,
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal source config: %w", err)
	}

	return s.withWriteTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO sources (id, type, url, category, language, authority, config_json, enabled, last_fetch_at, last_error, error_count, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				type=excluded.type, url=excluded.url, category=excluded.category,
				language=excluded.language, authority=excluded.authority, config_json=excluded.config_json,
				enabled=excluded.enabled, last_fetch_at=excluded.last_fetch_at,
				last_error=excluded.last_error, error_count=excluded.error_count`,
			src.ID, src.Type, src.URL, string(src.Category), src.Language, src.Authority,
			string(cfgJSON), boolToInt(src.Enabled), nullableTime(src.LastFetchAt), src.LastError, src.ErrorCount,
			src.CreatedAt.UTC().Format(time.RFC3339),
		)
		return err
	})
}

// GetSource fetches a source by id. Returns (nil, nil) if not found.
func (s *Store) GetSource(id string) (*core.Source, error) {
	row := s.db.QueryRow(`SELECT id, type, url, category, language, authority, config_json, enabled, last_fetch_at, last_error, error_count, created_at FROM sources WHERE id = ?`, id)
	src, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return src, err
}

// ListEnabledSources returns all sources with enabled=1, ordered by id.
func (s *Store) ListEnabledSources() ([]core.Source, error) {
	rows, err := s.db.Query(`SELECT id, type, url, category, language, authority, config_json, enabled, last_fetch_at, last_error, error_count, created_at FROM sources WHERE enabled = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []core.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *src)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*core.Source, error) {
	var (
		src                              core.Source
		category                        string
		language, lastFetchAt, lastError sql.NullString
		enabled                          int
		cfgJSON                         sql.NullString
		createdAt                       string
	)
	err := row.Scan(&src.ID, &src.Type, &src.URL, &category, &language, &src.Authority, &cfgJSON,
		&enabled, &lastFetchAt, &lastError, &src.ErrorCount, &createdAt)
	if err != nil {
		return nil, err
	}
	src.Category = core.Category(category)
	src.Language = language.String
	src.Enabled = enabled != 0
	src.LastError = lastError.String
	if lastFetchAt.Valid {
		if t, err := time.Parse(time.RFC3339, lastFetchAt.String); err == nil {
			src.LastFetchAt = &t
		}
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		src.CreatedAt = t
	}
	if cfgJSON.Valid && cfgJSON.String != "" {
		var cfg sourceConfigJSON
		if err := json.Unmarshal([]byte(cfgJSON.String), &cfg); err == nil {
			src.Params = cfg.Params
			src.Headers = cfg.Headers
			src.MinPopularity = cfg.MinPopularity
			src.PopularityField = cfg.PopularityField
			src.RefreshHours = cfg.RefreshHours
		}
	}
	return &src, nil
}

// UpdateSourceStatus implements the three write modes described in
// spec.md §4.A: success clears error state; error+increment atomically
// bumps error_count; error without increment only sets the error string.
func (s *Store) UpdateSourceStatus(id string, lastFetchAt *time.Time, lastError string, incrementErrors bool) error {
	return s.withWriteTx(func(tx *sql.Tx) error {
		switch {
		case lastError == "":
			_, err := tx.Exec(`UPDATE sources SET last_fetch_at = ?, last_error = '', error_count = 0 WHERE id = ?`,
				nullableTime(lastFetchAt), id)
			return err
		case incrementErrors:
			_, err := tx.Exec(`UPDATE sources SET last_fetch_at = ?, last_error = ?, error_count = error_count + 1 WHERE id = ?`,
				nullableTime(lastFetchAt), lastError, id)
			return err
		default:
			_, err := tx.Exec(`UPDATE sources SET last_error = ? WHERE id = ?`, lastError, id)
			return err
		}
	})
}

// ---------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------

// BatchInsertItems inserts items in chunks of up to 1000, using
// INSERT OR IGNORE semantics on the primary key and the unique
// url_canonical column. It returns the number of rows actually inserted.
func (s *Store) BatchInsertItems(items []core.Item) (int, error) {
	inserted := 0
	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]
		err := s.withWriteTx(func(tx *sql.Tx) error {
			for _, item := range chunk {
				metaJSON, err := json.Marshal(item.Metadata)
				if err != nil {
					return fmt.Errorf("marshal item metadata: %w", err)
				}
				res, err := tx.Exec(`
					INSERT OR IGNORE INTO items
						(id, source_id, external_id, url, url_canonical, title, content, author, published_at, ingested_at, category, language, metadata_json, snapshot_path, fetch_batch_id)
					VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
					item.ID, item.SourceID, nullableString(item.ExternalID), item.URL, item.URLCanonical,
					item.Title, item.Content, item.Author,
					item.PublishedAt.UTC().Format(time.RFC3339), item.IngestedAt.UTC().Format(time.RFC3339),
					string(item.Category), item.Language, string(metaJSON), nullableString(item.SnapshotPath),
					nullableString(item.FetchBatchID),
				)
				if err != nil {
					return err
				}
				n, err := res.RowsAffected()
				if err != nil {
					return err
				}
				inserted += int(n)
			}
			return nil
		})
		if err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}

// ItemExists reports whether an item with the given id is present.
func (s *Store) ItemExists(id string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM items WHERE id = ? LIMIT 1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// URLCanonicalExists reports whether the given canonical URL is already
// stored, the cross-source duplicate-rejection check.
func (s *Store) URLCanonicalExists(canonical string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM items WHERE url_canonical = ? LIMIT 1`, canonical).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

var itemColumns = `id, source_id, external_id, url, url_canonical, title, content, author, published_at, ingested_at, category, language, metadata_json, snapshot_path, fetch_batch_id`

func scanItem(row rowScanner) (core.Item, error) {
	var (
		item                                          core.Item
		externalID, snapshotPath, fetchBatchID, lang   sql.NullString
		metaJSON                                      sql.NullString
		category, publishedAt, ingestedAt             string
	)
	err := row.Scan(&item.ID, &item.SourceID, &externalID, &item.URL, &item.URLCanonical,
		&item.Title, &item.Content, &item.Author, &publishedAt, &ingestedAt,
		&category, &lang, &metaJSON, &snapshotPath, &fetchBatchID)
	if err != nil {
		return item, err
	}
	item.ExternalID = externalID.String
	item.Category = core.Category(category)
	item.Language = lang.String
	item.SnapshotPath = snapshotPath.String
	item.FetchBatchID = fetchBatchID.String
	if t, err := time.Parse(time.RFC3339, publishedAt); err == nil {
		item.PublishedAt = t
	}
	if t, err := time.Parse(time.RFC3339, ingestedAt); err == nil {
		item.IngestedAt = t
	}
	if metaJSON.Valid && metaJSON.String != "" && metaJSON.String != "null" {
		var meta map[string]any
		if err := json.Unmarshal([]byte(metaJSON.String), &meta); err == nil {
			item.Metadata = meta
		}
	}
	return item, nil
}

// GetItemsBySource returns a page of items for one source, ordered
// deterministically by published_at DESC then id ASC.
func (s *Store) GetItemsBySource(sourceID string, limit, offset int) ([]core.Item, error) {
	rows, err := s.db.Query(
		`SELECT `+itemColumns+` FROM items WHERE source_id = ? ORDER BY published_at DESC, id ASC LIMIT ? OFFSET ?`,
		sourceID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

// GetItemsByCategory returns items in a category, optionally since a
// timestamp, ordered deterministically.
func (s *Store) GetItemsByCategory(category core.Category, since *time.Time, limit int) ([]core.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE category = ?`
	args := []any{string(category)}
	if since != nil {
		query += ` AND published_at >= ?`
		args = append(args, since.UTC().Format(time.RFC3339))
	}
	query += ` ORDER BY published_at DESC, id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

// GetItemsForDate returns every item ingested on the given YYYY-MM-DD date.
func (s *Store) GetItemsForDate(dateStr string) ([]core.Item, error) {
	rows, err := s.db.Query(
		`SELECT `+itemColumns+` FROM items WHERE substr(ingested_at, 1, 10) = ? ORDER BY published_at DESC, id ASC`,
		dateStr,
	)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

func collectItems(rows *sql.Rows) ([]core.Item, error) {
	defer func() { _ = rows.Close() }()
	var out []core.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// SearchOptions filters a full-text search.
type SearchOptions struct {
	Category core.Category
	Language string
	SourceID string
	Since    *time.Time
	Limit    int
	Offset   int
}

// Search runs an FTS5 MATCH query ranked by BM25 with column weights
// title=1.0, content=0.5 (ascending rank = most relevant first), breaking
// ties by item id for deterministic ordering.
func (s *Store) Search(query string, opts SearchOptions) ([]core.Item, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	sqlQuery := `
		SELECT ` + prefixed(itemColumns, "items") + `
		FROM items JOIN items_fts ON items.rowid = items_fts.rowid
		WHERE items_fts MATCH ?`
	args := []any{query}

	if opts.Category != "" {
		sqlQuery += ` AND items.category = ?`
		args = append(args, string(opts.Category))
	}
	if opts.Language != "" {
		sqlQuery += ` AND items.language = ?`
		args = append(args, opts.Language)
	}
	if opts.SourceID != "" {
		sqlQuery += ` AND items.source_id = ?`
		args = append(args, opts.SourceID)
	}
	if opts.Since != nil {
		sqlQuery += ` AND items.published_at >= ?`
		args = append(args, opts.Since.UTC().Format(time.RFC3339))
	}
	sqlQuery += ` ORDER BY bm25(items_fts, 1.0, 0.5) ASC, items.id ASC LIMIT ? OFFSET ?`
	args = append(args, limit, opts.Offset)

	rows, err := s.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrQuery, err)
	}
	return collectItems(rows)
}

// SearchCount returns the number of items matching an FTS query.
func (s *Store) SearchCount(query string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM items_fts WHERE items_fts MATCH ?`, query).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrQuery, err)
	}
	return n, nil
}

func prefixed(columns, table string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = table + "." + p
	}
	return strings.Join(parts, ", ")
}

// ---------------------------------------------------------------------
// Metrics & Digests
// ---------------------------------------------------------------------

// UpsertMetrics writes one metric row per item, replacing any prior row
// for the same item_id.
func (s *Store) UpsertMetrics(metrics []core.Metric) error {
	return s.withWriteTx(func(tx *sql.Tx) error {
		for _, m := range metrics {
			_, err := tx.Exec(`
				INSERT OR REPLACE INTO metrics (item_id, total, authority, recency, popularity, relevance, dup_penalty, cluster_id, summary, computed_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				m.ItemID, m.Total, m.Authority, m.Recency, m.Popularity, m.Relevance, m.DupPenalty, nullableString(m.ClusterID),
				m.Summary, m.ComputedAt.UTC().Format(time.RFC3339),
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ScoredItem pairs a stored Item with its Metric.
type ScoredItem struct {
	Item   core.Item
	Metric core.Metric
}

// GetTopItems returns items ordered by metric.total descending, optionally
// filtered by category and a since timestamp.
func (s *Store) GetTopItems(category core.Category, since *time.Time, limit int) ([]ScoredItem, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT ` + prefixed(itemColumns, "items") + `, metrics.total, metrics.authority, metrics.recency, metrics.popularity, metrics.relevance, metrics.dup_penalty, metrics.cluster_id, metrics.summary, metrics.computed_at
		FROM items JOIN metrics ON items.id = metrics.item_id
		WHERE metrics.total IS NOT NULL`
	var args []any
	if category != "" {
		query += ` AND items.category = ?`
		args = append(args, string(category))
	}
	if since != nil {
		query += ` AND items.published_at >= ?`
		args = append(args, since.UTC().Format(time.RFC3339))
	}
	query += ` ORDER BY metrics.total DESC, items.id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []ScoredItem
	for rows.Next() {
		var (
			si                                core.Item
			externalID, snapshotPath, fetchBatchID, lang sql.NullString
			metaJSON                          sql.NullString
			category, publishedAt, ingestedAt string
			m                                 core.Metric
			clusterID, summary                sql.NullString
			computedAt                        string
		)
		if err := rows.Scan(&si.ID, &si.SourceID, &externalID, &si.URL, &si.URLCanonical,
			&si.Title, &si.Content, &si.Author, &publishedAt, &ingestedAt,
			&category, &lang, &metaJSON, &snapshotPath, &fetchBatchID,
			&m.Total, &m.Authority, &m.Recency, &m.Popularity, &m.Relevance, &m.DupPenalty,
			&clusterID, &summary, &computedAt); err != nil {
			return nil, err
		}
		si.ExternalID = externalID.String
		si.Category = core.Category(category)
		si.Language = lang.String
		si.SnapshotPath = snapshotPath.String
		si.FetchBatchID = fetchBatchID.String
		if t, err := time.Parse(time.RFC3339, publishedAt); err == nil {
			si.PublishedAt = t
		}
		if t, err := time.Parse(time.RFC3339, ingestedAt); err == nil {
			si.IngestedAt = t
		}
		if metaJSON.Valid && metaJSON.String != "" && metaJSON.String != "null" {
			var meta map[string]any
			if err := json.Unmarshal([]byte(metaJSON.String), &meta); err == nil {
				si.Metadata = meta
			}
		}
		m.ItemID = si.ID
		m.ClusterID = clusterID.String
		m.Summary = summary.String
		if t, err := time.Parse(time.RFC3339, computedAt); err == nil {
			m.ComputedAt = t
		}
		out = append(out, ScoredItem{Item: si, Metric: m})
	}
	return out, rows.Err()
}

// SaveDigest upserts a digest row on (date, section), refreshing
// generated_at, and returns its id.
func (s *Store) SaveDigest(d core.Digest) (int64, error) {
	var id int64
	err := s.withWriteTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO digests (date, section, markdown, json, generated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(date, section) DO UPDATE SET
				markdown=excluded.markdown, json=excluded.json, generated_at=excluded.generated_at`,
			d.Date, string(d.Section), d.Markdown, d.JSON, d.GeneratedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return err
		}
		// LastInsertId is not reliable on the ON CONFLICT path (SQLite keeps
		// the connection's previous rowid), so always look the row up.
		return tx.QueryRow(`SELECT id FROM digests WHERE date = ? AND section = ?`, d.Date, string(d.Section)).Scan(&id)
	})
	return id, err
}

// GetDigest returns digest rows for a date, optionally filtered to one
// section.
func (s *Store) GetDigest(date string, section core.Category) ([]core.Digest, error) {
	query := `SELECT id, date, section, markdown, json, generated_at FROM digests WHERE date = ?`
	args := []any{date}
	if section != "" {
		query += ` AND section = ?`
		args = append(args, string(section))
	}
	query += ` ORDER BY section`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []core.Digest
	for rows.Next() {
		var d core.Digest
		var section string
		var generatedAt string
		if err := rows.Scan(&d.ID, &d.Date, &section, &d.Markdown, &d.JSON, &generatedAt); err != nil {
			return nil, err
		}
		d.Section = core.Category(section)
		if t, err := time.Parse(time.RFC3339, generatedAt); err == nil {
			d.GeneratedAt = t
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------
// Maintenance
// ---------------------------------------------------------------------

// Vacuum reclaims free space in the database file.
func (s *Store) Vacuum() error {
	_, err := s.db.Exec("VACUUM")
	return err
}

// OptimizeFTS runs FTS5's internal merge optimization.
func (s *Store) OptimizeFTS() error {
	_, err := s.db.Exec(`INSERT INTO items_fts(items_fts) VALUES ('optimize')`)
	return err
}

// IntegrityCheck runs SQLite's built-in integrity check.
func (s *Store) IntegrityCheck() (bool, error) {
	var result string
	if err := s.db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return false, err
	}
	return result == "ok", nil
}

// Stats is the aggregate shape returned by Store.Stats.
type Stats struct {
	TotalItems    int
	TotalSources  int
	TotalMetrics  int
	TotalDigests  int
	ByCategory    map[string]int
	BySource      map[string]int
	DBSizeBytes   int64
}

// Stats gathers row counts and the on-disk database size.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	st.ByCategory = map[string]int{}
	st.BySource = map[string]int{}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&st.TotalItems); err != nil {
		return st, err
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM sources").Scan(&st.TotalSources); err != nil {
		return st, err
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM metrics").Scan(&st.TotalMetrics); err != nil {
		return st, err
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM digests").Scan(&st.TotalDigests); err != nil {
		return st, err
	}

	rows, err := s.db.Query("SELECT category, COUNT(*) FROM items GROUP BY category")
	if err != nil {
		return st, err
	}
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			_ = rows.Close()
			return st, err
		}
		st.ByCategory[cat] = n
	}
	_ = rows.Close()

	rows, err = s.db.Query("SELECT source_id, COUNT(*) FROM items GROUP BY source_id")
	if err != nil {
		return st, err
	}
	for rows.Next() {
		var src string
		var n int
		if err := rows.Scan(&src, &n); err != nil {
			_ = rows.Close()
			return st, err
		}
		st.BySource[src] = n
	}
	_ = rows.Close()

	if err := s.db.QueryRow("SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()").Scan(&st.DBSizeBytes); err != nil {
		return st, err
	}
	return st, nil
}

// ResetDatabase drops every table, the FTS index included, and re-applies migrations from
// scratch. Maintenance-only; never called from the ingest or digest paths.
func (s *Store) ResetDatabase() error {
	tables := []string{"items_fts", "digests", "metrics", "items", "sources", "schema_version"}
	for _, t := range tables {
		if _, err := s.db.Exec("DROP TABLE IF EXISTS " + t); err != nil {
			return err
		}
	}
	return s.migrate()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
