// Package pathsafe validates that a caller-supplied path cannot escape a
// repository root. Every operation accepting a path — inspect,
// sidecar resolution, extractor reads — must resolve the path through this
// package before touching the filesystem.
package pathsafe

import (
	"path/filepath"
	"strings"

	"github.com/llmc/ragcore/internal/logging"
	"github.com/llmc/ragcore/internal/ragerr"
)

// Resolve validates rel against root and returns the absolute, cleaned path.
// It rejects (1) null bytes, (2) any result that escapes root after resolving
// ".." segments.
func Resolve(root, rel string) (string, error) {
	log := logging.For(logging.CategoryBoundary)

	if strings.IndexByte(rel, 0) >= 0 {
		log.Warnw("path rejected: null byte", "path", rel)
		return "", ragerr.PathTraversal("path contains a null byte")
	}

	absRoot, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", ragerr.PathTraversal("cannot resolve repository root")
	}

	// An absolute rel is only acceptable if it already lives under root.
	var candidate string
	if filepath.IsAbs(rel) {
		candidate = filepath.Clean(rel)
	} else {
		candidate = filepath.Clean(filepath.Join(absRoot, rel))
	}

	candidateAbs, err := filepath.Abs(candidate)
	if err != nil {
		log.Warnw("path rejected: cannot resolve", "path", rel, "err", err)
		return "", ragerr.PathTraversal("cannot resolve path")
	}

	if candidateAbs != absRoot && !strings.HasPrefix(candidateAbs, absRoot+string(filepath.Separator)) {
		log.Warnw("path rejected: escapes repository root", "root", absRoot, "path", rel, "resolved", candidateAbs)
		return "", ragerr.PathTraversal("path escapes repository root")
	}

	return candidateAbs, nil
}

// RelativeTo returns p relative to root using forward slashes, for stable
// storage keys independent of platform path separators.
func RelativeTo(root, p string) (string, error) {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return "", ragerr.PathTraversal("cannot make path relative to root")
	}
	if strings.HasPrefix(rel, "..") {
		return "", ragerr.PathTraversal("path escapes repository root")
	}
	return filepath.ToSlash(rel), nil
}
