package store

import (
	"database/sql"

	"github.com/llmc/ragcore/internal/ragerr"
	"github.com/llmc/ragcore/internal/types"
)

// UpsertFile records (or updates) a tracked file's metadata. Spans are
// managed separately through ReplaceSpans.
func (s *Store) UpsertFile(f types.File) error {
	return s.withWriteTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO files(path, content_hash, mod_time, language, sidecar_path)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				content_hash = excluded.content_hash,
				mod_time = excluded.mod_time,
				language = excluded.language,
				sidecar_path = excluded.sidecar_path
		`, f.Path, f.ContentHash, f.ModTime, f.Language, nullableString(f.SidecarPath))
		if err != nil {
			return ragerr.Store("upsert_file failed", err)
		}
		return nil
	})
}

// DeleteFile removes a file and cascades to its spans (and, through the
// spans table's ON DELETE CASCADE, their embeddings and enrichments).
func (s *Store) DeleteFile(path string) error {
	return s.withWriteTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM files WHERE path = ?", path); err != nil {
			return ragerr.Store("delete_file failed", err)
		}
		return nil
	})
}

// GetFile returns a tracked file's metadata, or ragerr.NotFound.
func (s *Store) GetFile(path string) (types.File, error) {
	var f types.File
	var sidecar sql.NullString
	err := s.db.QueryRow(`
		SELECT path, content_hash, mod_time, language, sidecar_path
		FROM files WHERE path = ?
	`, path).Scan(&f.Path, &f.ContentHash, &f.ModTime, &f.Language, &sidecar)
	if err == sql.ErrNoRows {
		return types.File{}, ragerr.NotFound("file not found: " + path)
	}
	if err != nil {
		return types.File{}, ragerr.Store("get_file failed", err)
	}
	f.SidecarPath = sidecar.String
	return f, nil
}

// ListFiles returns every tracked file's metadata, used by the sync
// controller to detect deletions it must otherwise infer from a directory
// walk (a path present in the store but missing on disk).
func (s *Store) ListFiles() ([]types.File, error) {
	rows, err := s.db.Query(`SELECT path, content_hash, mod_time, language, sidecar_path FROM files`)
	if err != nil {
		return nil, ragerr.Store("list_files failed", err)
	}
	defer rows.Close()

	var out []types.File
	for rows.Next() {
		var f types.File
		var sidecar sql.NullString
		if err := rows.Scan(&f.Path, &f.ContentHash, &f.ModTime, &f.Language, &sidecar); err != nil {
			return nil, ragerr.Store("list_files scan failed", err)
		}
		f.SidecarPath = sidecar.String
		out = append(out, f)
	}
	return out, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
