package store

import (
	"database/sql"
	"time"

	"github.com/llmc/ragcore/internal/ragerr"
	"github.com/llmc/ragcore/internal/types"
)

// Enqueue inserts a pending work item for a span. Re-enqueuing an
// existing (span_hash, kind) pair is a no-op on attempt bookkeeping; callers
// that want to reset cooldown should go through RecordAttempt instead.
func (s *Store) Enqueue(spanHash, file string, kind types.WorkKind) error {
	return s.withWriteTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO work_items(span_hash, file, kind, attempt_count)
			VALUES (?, ?, ?, 0)
			ON CONFLICT(span_hash, kind) DO NOTHING
		`, spanHash, file, string(kind))
		if err != nil {
			return ragerr.Store("enqueue failed", err)
		}
		return nil
	})
}

// Pending returns WorkItems of the given kind whose cooldown has elapsed
// and whose span is still live.
func (s *Store) Pending(kind types.WorkKind, limit int, cooldown time.Duration) ([]types.WorkItem, error) {
	rows, err := s.db.Query(`
		SELECT w.id, w.span_hash, w.file, w.kind, w.attempt_count, w.last_attempt_at, w.cooldown_until
		FROM work_items w
		JOIN spans sp ON sp.span_hash = w.span_hash
		WHERE w.kind = ?
		  AND (w.cooldown_until IS NULL OR w.cooldown_until <= ?)
		ORDER BY w.id
		LIMIT ?
	`, string(kind), time.Now(), limit)
	if err != nil {
		return nil, ragerr.Store("pending failed", err)
	}
	defer rows.Close()

	var out []types.WorkItem
	for rows.Next() {
		var wi types.WorkItem
		var kindStr string
		var lastAttempt, cooldownUntil sql.NullTime
		if err := rows.Scan(&wi.ID, &wi.SpanHash, &wi.File, &kindStr, &wi.AttemptCount, &lastAttempt, &cooldownUntil); err != nil {
			return nil, ragerr.Store("failed to scan work item", err)
		}
		wi.Kind = types.WorkKind(kindStr)
		if lastAttempt.Valid {
			wi.LastAttemptAt = lastAttempt.Time
		}
		if cooldownUntil.Valid {
			wi.CooldownUntil = cooldownUntil.Time
		}
		out = append(out, wi)
	}
	return out, nil
}

// RecordAttempt bumps a work item's attempt count and sets its cooldown,
// used by the enrichment engine's PARKED/backoff transitions.
func (s *Store) RecordAttempt(id int64, cooldownUntil time.Time) error {
	return s.withWriteTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			UPDATE work_items
			SET attempt_count = attempt_count + 1, last_attempt_at = ?, cooldown_until = ?
			WHERE id = ?
		`, time.Now(), cooldownUntil, id)
		if err != nil {
			return ragerr.Store("record_attempt failed", err)
		}
		return nil
	})
}

// CompleteWorkItem removes a work item once it has succeeded (OK → DONE).
func (s *Store) CompleteWorkItem(id int64) error {
	return s.withWriteTx(func(tx *sql.Tx) error {
		_, err := tx.Exec("DELETE FROM work_items WHERE id = ?", id)
		if err != nil {
			return ragerr.Store("complete_work_item failed", err)
		}
		return nil
	})
}
