package store

// migration is one versioned, idempotent schema step. Migrations strictly
// greater than the database's current schema_version are applied in order,
// each inside its own transaction.
type migration struct {
	Version     int
	Description string
	Statements  []string
}

// migrations is the ordered migration log. Absence of the schema_version
// table is treated as version 0 by currentVersion.
var migrations = []migration{
	{
		Version:     1,
		Description: "base schema: sources, items, metrics, digests, FTS index",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS sources (
				id TEXT PRIMARY KEY,
				type TEXT NOT NULL,
				url TEXT NOT NULL,
				category TEXT NOT NULL DEFAULT 'news',
				language TEXT,
				authority REAL NOT NULL DEFAULT 0.5,
				config_json TEXT,
				enabled INTEGER NOT NULL DEFAULT 1,
				last_fetch_at TEXT,
				last_error TEXT,
				error_count INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS items (
				id TEXT PRIMARY KEY,
				source_id TEXT NOT NULL REFERENCES sources(id),
				external_id TEXT,
				url TEXT NOT NULL,
				url_canonical TEXT NOT NULL UNIQUE,
				title TEXT NOT NULL,
				content TEXT,
				author TEXT,
				published_at TEXT NOT NULL,
				ingested_at TEXT NOT NULL,
				category TEXT NOT NULL,
				language TEXT,
				metadata_json TEXT,
				snapshot_path TEXT,
				UNIQUE(source_id, external_id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_items_source ON items(source_id)`,
			`CREATE INDEX IF NOT EXISTS idx_items_category ON items(category)`,
			`CREATE INDEX IF NOT EXISTS idx_items_published ON items(published_at)`,
			`CREATE TABLE IF NOT EXISTS metrics (
				item_id TEXT PRIMARY KEY REFERENCES items(id),
				total REAL NOT NULL,
				authority REAL NOT NULL,
				recency REAL NOT NULL,
				popularity REAL NOT NULL,
				relevance REAL NOT NULL,
				dup_penalty REAL NOT NULL,
				cluster_id TEXT,
				summary TEXT,
				computed_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_metrics_total ON metrics(total)`,
			`CREATE TABLE IF NOT EXISTS digests (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				date TEXT NOT NULL,
				section TEXT NOT NULL,
				markdown TEXT,
				json TEXT,
				generated_at TEXT NOT NULL,
				UNIQUE(date, section)
			)`,
			`CREATE VIRTUAL TABLE IF NOT EXISTS items_fts USING fts5(
				title, content,
				content='items', content_rowid='rowid',
				tokenize='unicode61 remove_diacritics 2'
			)`,
			`CREATE TRIGGER IF NOT EXISTS items_ai AFTER INSERT ON items BEGIN
				INSERT INTO items_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
			END`,
			`CREATE TRIGGER IF NOT EXISTS items_ad AFTER DELETE ON items BEGIN
				INSERT INTO items_fts(items_fts, rowid, title, content) VALUES ('delete', old.rowid, old.title, old.content);
			END`,
			`CREATE TRIGGER IF NOT EXISTS items_au AFTER UPDATE ON items BEGIN
				INSERT INTO items_fts(items_fts, rowid, title, content) VALUES ('delete', old.rowid, old.title, old.content);
				INSERT INTO items_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
			END`,
		},
	},
	{
		Version:     2,
		Description: "tag items with their originating ingest batch",
		Statements: []string{
			`ALTER TABLE items ADD COLUMN fetch_batch_id TEXT`,
			`CREATE INDEX IF NOT EXISTS idx_items_fetch_batch ON items(fetch_batch_id)`,
		},
	},
}
