package store

import (
	"database/sql"

	"github.com/llmc/ragcore/internal/ragerr"
	"github.com/llmc/ragcore/internal/types"
)

// ReplaceSpans applies the differential update rule: computes
// old_hashes/new_hashes for file, deletes old\new, inserts new\old, and
// leaves the intersection — and its embeddings/enrichments — untouched.
// Editing one function in a 50-span file must touch ~1-3 spans, not all 50.
func (s *Store) ReplaceSpans(file string, newSpans []types.Span) (ReplaceResult, error) {
	var result ReplaceResult

	err := s.withWriteTx(func(tx *sql.Tx) error {
		oldHashes := make(map[string]bool)
		rows, err := tx.Query("SELECT span_hash FROM spans WHERE file = ?", file)
		if err != nil {
			return ragerr.Store("failed to read existing spans", err)
		}
		for rows.Next() {
			var h string
			if err := rows.Scan(&h); err != nil {
				rows.Close()
				return ragerr.Store("failed to scan span hash", err)
			}
			oldHashes[h] = true
		}
		rows.Close()

		newHashes := make(map[string]bool, len(newSpans))
		for _, sp := range newSpans {
			newHashes[sp.SpanHash] = true
		}

		for h := range oldHashes {
			if !newHashes[h] {
				result.Deleted = append(result.Deleted, h)
			} else {
				result.Unchanged = append(result.Unchanged, h)
			}
		}
		for h := range newHashes {
			if !oldHashes[h] {
				result.Added = append(result.Added, h)
			}
		}

		for _, h := range result.Deleted {
			if _, err := tx.Exec("DELETE FROM spans WHERE span_hash = ?", h); err != nil {
				return ragerr.Store("failed to delete stale span", err)
			}
			if _, err := tx.Exec("DELETE FROM spans_fts WHERE span_hash = ?", h); err != nil {
				return ragerr.Store("failed to delete stale fts row", err)
			}
		}

		for _, sp := range newSpans {
			if oldHashes[sp.SpanHash] {
				continue // unchanged, leave spans/embeddings/enrichments alone
			}
			if err := insertSpan(tx, sp); err != nil {
				return err
			}
		}

		return nil
	})

	return result, err
}

func insertSpan(tx *sql.Tx, sp types.Span) error {
	_, err := tx.Exec(`
		INSERT INTO spans(span_hash, file, symbol, kind, start_line, end_line, byte_start, byte_end, language, content)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(span_hash) DO NOTHING
	`, sp.SpanHash, sp.File, sp.Symbol, string(sp.Kind), sp.StartLine, sp.EndLine, sp.ByteStart, sp.ByteEnd, sp.Language, sp.Content)
	if err != nil {
		return ragerr.Store("failed to insert span", err)
	}
	_, err = tx.Exec(`
		INSERT INTO spans_fts(span_hash, content, summary) VALUES (?, ?, '')
	`, sp.SpanHash, sp.Content)
	if err != nil {
		return ragerr.Store("failed to insert fts row", err)
	}
	return nil
}

// GetSpan returns a single span by its hash.
func (s *Store) GetSpan(spanHash string) (types.Span, error) {
	var sp types.Span
	var kind string
	err := s.db.QueryRow(`
		SELECT span_hash, file, symbol, kind, start_line, end_line, byte_start, byte_end, language, content
		FROM spans WHERE span_hash = ?
	`, spanHash).Scan(&sp.SpanHash, &sp.File, &sp.Symbol, &kind, &sp.StartLine, &sp.EndLine, &sp.ByteStart, &sp.ByteEnd, &sp.Language, &sp.Content)
	if err == sql.ErrNoRows {
		return types.Span{}, ragerr.NotFound("span not found: " + spanHash)
	}
	if err != nil {
		return types.Span{}, ragerr.Store("get_span failed", err)
	}
	sp.Kind = types.SpanKind(kind)
	return sp, nil
}

// AllSpans returns every span in the store, used to rebuild the schema
// graph snapshot from scratch each cycle.
func (s *Store) AllSpans() ([]types.Span, error) {
	rows, err := s.db.Query(`
		SELECT span_hash, file, symbol, kind, start_line, end_line, byte_start, byte_end, language, content
		FROM spans ORDER BY file, byte_start
	`)
	if err != nil {
		return nil, ragerr.Store("all_spans failed", err)
	}
	defer rows.Close()

	var out []types.Span
	for rows.Next() {
		var sp types.Span
		var kind string
		if err := rows.Scan(&sp.SpanHash, &sp.File, &sp.Symbol, &kind, &sp.StartLine, &sp.EndLine, &sp.ByteStart, &sp.ByteEnd, &sp.Language, &sp.Content); err != nil {
			return nil, ragerr.Store("failed to scan span", err)
		}
		sp.Kind = types.SpanKind(kind)
		out = append(out, sp)
	}
	return out, nil
}

// SpansForFile returns every span currently attached to a file, ordered by
// position, for callers (e.g. schemagraph) that need the full parse result.
func (s *Store) SpansForFile(file string) ([]types.Span, error) {
	rows, err := s.db.Query(`
		SELECT span_hash, file, symbol, kind, start_line, end_line, byte_start, byte_end, language, content
		FROM spans WHERE file = ? ORDER BY byte_start
	`, file)
	if err != nil {
		return nil, ragerr.Store("spans_for_file failed", err)
	}
	defer rows.Close()

	var out []types.Span
	for rows.Next() {
		var sp types.Span
		var kind string
		if err := rows.Scan(&sp.SpanHash, &sp.File, &sp.Symbol, &kind, &sp.StartLine, &sp.EndLine, &sp.ByteStart, &sp.ByteEnd, &sp.Language, &sp.Content); err != nil {
			return nil, ragerr.Store("failed to scan span", err)
		}
		sp.Kind = types.SpanKind(kind)
		out = append(out, sp)
	}
	return out, nil
}
