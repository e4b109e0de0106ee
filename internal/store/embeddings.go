package store

import (
	"database/sql"

	"github.com/llmc/ragcore/internal/ragerr"
	"github.com/llmc/ragcore/internal/types"
)

// WriteEmbedding is idempotent: re-writing the same (span_hash, model_id)
// overwrites the stored vector.
func (s *Store) WriteEmbedding(e types.Embedding) error {
	return s.withWriteTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO embeddings(span_hash, model_id, vector, dim)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(span_hash, model_id) DO UPDATE SET vector = excluded.vector, dim = excluded.dim
		`, e.SpanHash, e.ModelID, encodeVector(e.Vector), len(e.Vector))
		if err != nil {
			return ragerr.Store("write_embedding failed", err)
		}
		return nil
	})
}

// GetEmbedding returns the stored embedding for a span under a given model.
func (s *Store) GetEmbedding(spanHash, modelID string) (types.Embedding, error) {
	var buf []byte
	var dim int
	err := s.db.QueryRow(`
		SELECT vector, dim FROM embeddings WHERE span_hash = ? AND model_id = ?
	`, spanHash, modelID).Scan(&buf, &dim)
	if err == sql.ErrNoRows {
		return types.Embedding{}, ragerr.NotFound("embedding not found")
	}
	if err != nil {
		return types.Embedding{}, ragerr.Store("get_embedding failed", err)
	}
	return types.Embedding{SpanHash: spanHash, ModelID: modelID, Vector: decodeVector(buf, dim)}, nil
}
