package store

import (
	"database/sql"
	"encoding/json"

	"github.com/llmc/ragcore/internal/ragerr"
	"github.com/llmc/ragcore/internal/types"
)

// WriteEnrichment overwrites any prior enrichment for the span.
// It also refreshes the FTS summary column so lexical search can weight
// enrichment summaries alongside span content.
func (s *Store) WriteEnrichment(e types.Enrichment) error {
	inputs, err := json.Marshal(e.Inputs)
	if err != nil {
		return ragerr.Internal("failed to marshal enrichment.inputs", err)
	}
	outputs, err := json.Marshal(e.Outputs)
	if err != nil {
		return ragerr.Internal("failed to marshal enrichment.outputs", err)
	}
	sideEffects, err := json.Marshal(e.SideEffects)
	if err != nil {
		return ragerr.Internal("failed to marshal enrichment.side_effects", err)
	}
	pitfalls, err := json.Marshal(e.Pitfalls)
	if err != nil {
		return ragerr.Internal("failed to marshal enrichment.pitfalls", err)
	}
	tags, err := json.Marshal(e.Tags)
	if err != nil {
		return ragerr.Internal("failed to marshal enrichment.tags", err)
	}
	evidence, err := json.Marshal(e.Evidence)
	if err != nil {
		return ragerr.Internal("failed to marshal enrichment.evidence", err)
	}

	return s.withWriteTx(func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRow("SELECT 1 FROM spans WHERE span_hash = ?", e.SpanHash).Scan(&exists); err == sql.ErrNoRows {
			return ragerr.NotFound("write_enrichment: span does not exist: " + e.SpanHash)
		} else if err != nil {
			return ragerr.Store("write_enrichment existence check failed", err)
		}

		_, err := tx.Exec(`
			INSERT INTO enrichments(span_hash, summary, inputs, outputs, side_effects, pitfalls, usage_snippet, tags, evidence, model_id, schema_version, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(span_hash) DO UPDATE SET
				summary = excluded.summary,
				inputs = excluded.inputs,
				outputs = excluded.outputs,
				side_effects = excluded.side_effects,
				pitfalls = excluded.pitfalls,
				usage_snippet = excluded.usage_snippet,
				tags = excluded.tags,
				evidence = excluded.evidence,
				model_id = excluded.model_id,
				schema_version = excluded.schema_version,
				created_at = excluded.created_at
		`, e.SpanHash, e.Summary, string(inputs), string(outputs), string(sideEffects), string(pitfalls), e.UsageSnippet, string(tags), string(evidence), e.ModelID, e.SchemaVersion, e.CreatedAt)
		if err != nil {
			return ragerr.Store("write_enrichment failed", err)
		}

		_, err = tx.Exec("UPDATE spans_fts SET summary = ? WHERE span_hash = ?", e.Summary, e.SpanHash)
		if err != nil {
			return ragerr.Store("failed to refresh fts summary", err)
		}
		return nil
	})
}

// GetEnrichment returns the enrichment for a span, or ragerr.NotFound.
func (s *Store) GetEnrichment(spanHash string) (types.Enrichment, error) {
	var e types.Enrichment
	var inputs, outputs, sideEffects, pitfalls, tags, evidence string
	e.SpanHash = spanHash

	err := s.db.QueryRow(`
		SELECT summary, inputs, outputs, side_effects, pitfalls, usage_snippet, tags, evidence, model_id, schema_version, created_at
		FROM enrichments WHERE span_hash = ?
	`, spanHash).Scan(&e.Summary, &inputs, &outputs, &sideEffects, &pitfalls, &e.UsageSnippet, &tags, &evidence, &e.ModelID, &e.SchemaVersion, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return types.Enrichment{}, ragerr.NotFound("enrichment not found: " + spanHash)
	}
	if err != nil {
		return types.Enrichment{}, ragerr.Store("get_enrichment failed", err)
	}

	_ = json.Unmarshal([]byte(inputs), &e.Inputs)
	_ = json.Unmarshal([]byte(outputs), &e.Outputs)
	_ = json.Unmarshal([]byte(sideEffects), &e.SideEffects)
	_ = json.Unmarshal([]byte(pitfalls), &e.Pitfalls)
	_ = json.Unmarshal([]byte(tags), &e.Tags)
	_ = json.Unmarshal([]byte(evidence), &e.Evidence)
	return e, nil
}

// DeleteEnrichment removes a known-bad enrichment record (used by the
// quality-gate cleanup operation).
func (s *Store) DeleteEnrichment(spanHash string) error {
	return s.withWriteTx(func(tx *sql.Tx) error {
		_, err := tx.Exec("DELETE FROM enrichments WHERE span_hash = ?", spanHash)
		if err != nil {
			return ragerr.Store("delete_enrichment failed", err)
		}
		_, err = tx.Exec("UPDATE spans_fts SET summary = '' WHERE span_hash = ?", spanHash)
		if err != nil {
			return ragerr.Store("failed to clear fts summary", err)
		}
		return nil
	})
}

// AllEnrichments returns every enrichment record, used by the quality-gate
// sweep.
func (s *Store) AllEnrichments() ([]types.Enrichment, error) {
	rows, err := s.db.Query(`SELECT span_hash FROM enrichments`)
	if err != nil {
		return nil, ragerr.Store("all_enrichments failed", err)
	}
	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			rows.Close()
			return nil, ragerr.Store("failed to scan enrichment hash", err)
		}
		hashes = append(hashes, h)
	}
	rows.Close()

	out := make([]types.Enrichment, 0, len(hashes))
	for _, h := range hashes {
		e, err := s.GetEnrichment(h)
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
