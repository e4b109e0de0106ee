package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/llmc/ragcore/internal/ragerr"
)

// SearchLexical runs BM25 over span content and (weighted lower, via the
// bm25() column-weight argument) enrichment summaries, returning the top k
// candidates. The fts5 tokenizer is unicode61 with
// no stopword list, so common technical vocabulary like "model"/"system"
// is never dropped.
func (s *Store) SearchLexical(query string, filters Filters, k int) ([]LexicalHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	sqlQuery := `
		SELECT sp.span_hash, sp.file, sp.symbol, sp.kind, sp.language,
		       bm25(spans_fts, 0.0, 1.0, 0.5) AS rank
		FROM spans_fts
		JOIN spans sp ON sp.span_hash = spans_fts.span_hash
		WHERE spans_fts MATCH ?
	`
	args := []interface{}{ftsQuery(query)}

	if filters.Language != "" {
		sqlQuery += " AND sp.language = ?"
		args = append(args, filters.Language)
	}
	if filters.Kind != "" {
		sqlQuery += " AND sp.kind = ?"
		args = append(args, filters.Kind)
	}
	if filters.PathGlob != "" {
		sqlQuery += " AND sp.file GLOB ?"
		args = append(args, filters.PathGlob)
	}

	sqlQuery += " ORDER BY rank LIMIT ?"
	args = append(args, k)

	rows, err := s.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, ragerr.Store("search_lexical failed", err)
	}
	defer rows.Close()

	var out []LexicalHit
	for rows.Next() {
		var h LexicalHit
		if err := rows.Scan(&h.SpanHash, &h.File, &h.Symbol, &h.Kind, &h.Language, &h.BM25); err != nil {
			return nil, ragerr.Store("failed to scan lexical hit", err)
		}
		out = append(out, h)
	}
	return out, nil
}

// ftsQuery wraps each token in quotes so literal punctuation in identifiers
// (e.g. "go-sqlite3") does not break fts5's query-syntax parser.
func ftsQuery(query string) string {
	fields := strings.Fields(query)
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, `""`)
		quoted = append(quoted, fmt.Sprintf(`"%s"`, f))
	}
	return strings.Join(quoted, " OR ")
}

// SearchVector scores vector against the embeddings of candidates
// (typically a lexical result set), bounding cost and avoiding a full-table
// scan. When the sqlite-vec extension is active, ranking is pushed into
// SQL via vec_distance_cosine, a scalar function the cgo extension
// registers on every connection; otherwise it falls back to decoding each
// candidate's blob and dot-producting it against vector in Go.
func (s *Store) SearchVector(vector []float32, modelID string, candidates []string, k int) ([]VectorHit, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(candidates))
	args := make([]interface{}, 0, len(candidates)+2)
	if s.vectorExt {
		args = append(args, encodeVector(vector))
	}
	args = append(args, modelID)
	for i, c := range candidates {
		placeholders[i] = "?"
		args = append(args, c)
	}

	var query string
	if s.vectorExt {
		query = fmt.Sprintf(`
			SELECT span_hash, vec_distance_cosine(vector, ?) AS distance
			FROM embeddings
			WHERE model_id = ? AND span_hash IN (%s)
		`, strings.Join(placeholders, ","))
	} else {
		query = fmt.Sprintf(`
			SELECT span_hash, vector, dim FROM embeddings
			WHERE model_id = ? AND span_hash IN (%s)
		`, strings.Join(placeholders, ","))
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, ragerr.Store("search_vector failed", err)
	}
	defer rows.Close()

	var hits []VectorHit
	for rows.Next() {
		hit, err := scanVectorHit(rows, s.vectorExt, vector)
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}

	sortVectorHitsDesc(hits)
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// scanVectorHit reads one result row, whose shape depends on which query
// SearchVector issued: a precomputed cosine distance when vec0 is active
// (negated so higher Score is still better, matching the pure-Go path), or
// a raw vector blob to dot-product in Go otherwise.
func scanVectorHit(rows *sql.Rows, vecActive bool, query []float32) (VectorHit, error) {
	var spanHash string
	if vecActive {
		var distance float64
		if err := rows.Scan(&spanHash, &distance); err != nil {
			return VectorHit{}, ragerr.Store("failed to scan vector distance row", err)
		}
		return VectorHit{SpanHash: spanHash, Score: -distance}, nil
	}

	var buf []byte
	var dim int
	if err := rows.Scan(&spanHash, &buf, &dim); err != nil {
		return VectorHit{}, ragerr.Store("failed to scan embedding row", err)
	}
	stored := decodeVector(buf, dim)
	return VectorHit{SpanHash: spanHash, Score: dotProduct(query, stored)}, nil
}

func sortVectorHitsDesc(hits []VectorHit) {
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].Score > hits[j-1].Score; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
}
