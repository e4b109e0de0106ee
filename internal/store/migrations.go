package store

import (
	"database/sql"
	"fmt"

	"github.com/llmc/ragcore/internal/logging"
	"github.com/llmc/ragcore/internal/ragerr"
)

// CurrentSchemaVersion is bumped whenever the table shapes below change.
// Opening a database stamped with a newer version than this binary supports
// is a StoreError ("refuses to open a database of an unsupported
// version").
const CurrentSchemaVersion = 1

// columnMigration adds a column to an existing table if it is missing, the
// same ALTER-TABLE-if-missing pattern used for schema evolution
// across already-deployed databases.
type columnMigration struct {
	Table  string
	Column string
	Def    string
}

var pendingColumnMigrations = []columnMigration{
	{"files", "sidecar_path", "TEXT"},
	{"work_items", "cooldown_until", "DATETIME"},
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS files (
		path TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		mod_time DATETIME NOT NULL,
		language TEXT NOT NULL,
		sidecar_path TEXT
	);

	CREATE TABLE IF NOT EXISTS spans (
		span_hash TEXT PRIMARY KEY,
		file TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
		symbol TEXT NOT NULL,
		kind TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		byte_start INTEGER NOT NULL,
		byte_end INTEGER NOT NULL,
		language TEXT NOT NULL,
		content TEXT NOT NULL,
		UNIQUE(file, byte_start, byte_end)
	);
	CREATE INDEX IF NOT EXISTS idx_spans_file ON spans(file);

	CREATE VIRTUAL TABLE IF NOT EXISTS spans_fts USING fts5(
		span_hash UNINDEXED,
		content,
		summary,
		tokenize = 'unicode61 remove_diacritics 0'
	);

	CREATE TABLE IF NOT EXISTS embeddings (
		span_hash TEXT NOT NULL REFERENCES spans(span_hash) ON DELETE CASCADE,
		model_id TEXT NOT NULL,
		vector BLOB NOT NULL,
		dim INTEGER NOT NULL,
		PRIMARY KEY(span_hash, model_id)
	);

	CREATE TABLE IF NOT EXISTS enrichments (
		span_hash TEXT PRIMARY KEY REFERENCES spans(span_hash) ON DELETE CASCADE,
		summary TEXT NOT NULL,
		inputs TEXT NOT NULL,
		outputs TEXT NOT NULL,
		side_effects TEXT NOT NULL,
		pitfalls TEXT NOT NULL,
		usage_snippet TEXT NOT NULL,
		tags TEXT NOT NULL,
		evidence TEXT NOT NULL,
		model_id TEXT NOT NULL,
		schema_version INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS work_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		span_hash TEXT NOT NULL,
		file TEXT NOT NULL,
		kind TEXT NOT NULL,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_attempt_at DATETIME,
		cooldown_until DATETIME,
		UNIQUE(span_hash, kind)
	);
	CREATE INDEX IF NOT EXISTS idx_work_items_kind ON work_items(kind, cooldown_until);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return ragerr.Store("failed to create schema", err)
	}

	if err := s.runColumnMigrations(); err != nil {
		return err
	}

	return s.checkAndStampSchemaVersion()
}

func (s *Store) runColumnMigrations() error {
	log := logging.For(logging.CategoryStore)
	for _, m := range pendingColumnMigrations {
		if !tableExists(s.db, m.Table) {
			continue
		}
		if columnExists(s.db, m.Table, m.Column) {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		if _, err := s.db.Exec(stmt); err != nil {
			log.Warnw("column migration failed", "table", m.Table, "column", m.Column, "err", err)
		}
	}
	return nil
}

func (s *Store) checkAndStampSchemaVersion() error {
	var raw string
	err := s.db.QueryRow("SELECT value FROM schema_meta WHERE key = 'schema_version'").Scan(&raw)
	switch {
	case err == sql.ErrNoRows:
		_, err := s.db.Exec("INSERT INTO schema_meta(key, value) VALUES ('schema_version', ?)", fmt.Sprint(CurrentSchemaVersion))
		if err != nil {
			return ragerr.Store("failed to stamp schema version", err)
		}
		return nil
	case err != nil:
		return ragerr.Store("failed to read schema version", err)
	}

	var onDisk int
	if _, err := fmt.Sscanf(raw, "%d", &onDisk); err != nil {
		return ragerr.Store("corrupt schema_version value", err)
	}
	if onDisk > CurrentSchemaVersion {
		return ragerr.Store(fmt.Sprintf("database schema version %d is newer than supported version %d", onDisk, CurrentSchemaVersion), nil)
	}
	return nil
}

func tableExists(db *sql.DB, table string) bool {
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
	return err == nil
}

func columnExists(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false
		}
		if name == column {
			return true
		}
	}
	return false
}
