// Package indexstatus persists and reads a repository's IndexStatus
// (.llmc/rag_index_status.json): the freshness record the retrieval
// pipeline's gate consults before every query, and the sync controller
// writes at the end of every cycle.
package indexstatus

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/llmc/ragcore/internal/logging"
	"github.com/llmc/ragcore/internal/ragerr"
	"github.com/llmc/ragcore/internal/types"
)

// Save writes status to path with fsync semantics: write a temp file,
// fsync it, then rename over the target. The rename is atomic, and the
// fsync ensures a crash immediately after doesn't leave a status file
// whose bytes never reached disk.
func Save(path string, status types.IndexStatus) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ragerr.Store("failed to create index status directory", err)
	}
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return ragerr.Internal("failed to marshal index status", err)
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return ragerr.Store("failed to open index status for write", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return ragerr.Store("failed to write index status", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return ragerr.Store("failed to fsync index status", err)
	}
	if err := f.Close(); err != nil {
		return ragerr.Store("failed to close index status", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return ragerr.Store("failed to install index status", err)
	}
	return nil
}

// Load reads a repository's index status. A missing file reads back as a
// zero-value status with IndexState empty, which the freshness gate treats
// as never-indexed (falls back to LOCAL_FALLBACK).
func Load(path string) (types.IndexStatus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.IndexStatus{}, nil
		}
		return types.IndexStatus{}, ragerr.Store("failed to read index status", err)
	}
	var status types.IndexStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return types.IndexStatus{}, ragerr.Internal("failed to parse index status", err)
	}
	return status, nil
}

// CurrentHEAD returns the repository's current commit hash, or "" if root
// is not a git repository (or git is unavailable), matching the gate's
// "HEAD is unavailable" fallback path.
func CurrentHEAD(ctx context.Context, root string) string {
	log := logging.For(logging.CategoryRetrieval)

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		log.Debugw("git rev-parse unavailable, treating as non-git repo", "root", root, "err", err)
		return ""
	}
	return strings.TrimSpace(string(out))
}
