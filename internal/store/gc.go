package store

import (
	"database/sql"

	"github.com/llmc/ragcore/internal/ragerr"
)

// GarbageCollect removes embeddings/enrichments whose span_hash no longer
// exists in spans. With foreign keys + ON DELETE CASCADE this is
// normally a no-op safety net; it exists for databases that predate the
// cascade or were touched with foreign_keys disabled.
func (s *Store) GarbageCollect() (GCResult, error) {
	var result GCResult

	err := s.withWriteTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			DELETE FROM embeddings WHERE span_hash NOT IN (SELECT span_hash FROM spans)
		`)
		if err != nil {
			return ragerr.Store("garbage_collect embeddings failed", err)
		}
		result.EmbeddingsRemoved, _ = res.RowsAffected()

		res, err = tx.Exec(`
			DELETE FROM enrichments WHERE span_hash NOT IN (SELECT span_hash FROM spans)
		`)
		if err != nil {
			return ragerr.Store("garbage_collect enrichments failed", err)
		}
		result.EnrichmentsRemoved, _ = res.RowsAffected()

		return nil
	})

	return result, err
}
