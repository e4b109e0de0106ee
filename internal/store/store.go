// Package store is the span store: a single local SQLite database
// holding files, spans, embeddings, enrichments, and work items, with a
// full-text index over span content and a vector table for dense search.
//
// The store is single-writer: one *sql.DB with MaxOpenConns(1) and a mutex
// serialize all writes. The sync controller, the enrichment engine and the
// quality cleanup all write through *Store.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/llmc/ragcore/internal/logging"
	"github.com/llmc/ragcore/internal/ragerr"
	"github.com/llmc/ragcore/internal/types"
)

// Store is the primary per-repository database handle.
type Store struct {
	db        *sql.DB
	mu        sync.RWMutex
	path      string
	vectorExt bool // true if sqlite-vec's vec0 module is registered
}

// ReadHandle is the read-only subset of Store's surface. Components in this
// module take a *Store directly.
type ReadHandle interface {
	SearchLexical(query string, filters Filters, k int) ([]LexicalHit, error)
	SearchVector(vector []float32, modelID string, candidates []string, k int) ([]VectorHit, error)
	Pending(kind types.WorkKind, limit int, cooldown time.Duration) ([]types.WorkItem, error)
}

var _ ReadHandle = (*Store)(nil)

// Open initializes (creating if necessary) the SQLite database at path.
func Open(path string) (*Store, error) {
	log := logging.For(logging.CategoryStore)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ragerr.Store("failed to create store directory", err)
	}

	db, err := sql.Open("sqlite3", path+"?_txlock=immediate")
	if err != nil {
		return nil, ragerr.Store("failed to open database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			log.Warnw("pragma failed", "pragma", pragma, "err", err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	s.detectVecExtension()
	if s.vectorExt {
		log.Infow("sqlite-vec extension active")
	} else {
		log.Infow("sqlite-vec unavailable, using pure-Go dot-product fallback")
	}

	log.Infow("store opened", "path", path)
	return s, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw connection for components (e.g. schemagraph rebuild
// bookkeeping) that need ad-hoc queries outside the typed surface.
func (s *Store) DB() *sql.DB {
	return s.db
}

// detectVecExtension probes whether the sqlite-vec vec0 module is
// registered (via the cgo build tag in vec_cgo.go's init). When absent,
// SearchVector falls back to scanning the embeddings table in Go.
func (s *Store) detectVecExtension() {
	_, err := s.db.Exec("CREATE VIRTUAL TABLE IF NOT EXISTS vec_probe USING vec0(embedding float[4])")
	if err != nil {
		s.vectorExt = false
		return
	}
	s.vectorExt = true
	_, _ = s.db.Exec("DROP TABLE IF EXISTS vec_probe")
}

// withWriteTx runs fn inside an immediate-mode write transaction, rolling
// back on any error so partial writes are never visible (see the failure
// semantics).
func (s *Store) withWriteTx(fn func(*sql.Tx) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return ragerr.Store("failed to begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return ragerr.Store(fmt.Sprintf("rollback failed after: %v", err), rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return ragerr.Store("failed to commit transaction", err)
	}
	return nil
}
