package sync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/llmc/ragcore/internal/extractor"
	"github.com/llmc/ragcore/internal/indexstatus"
	"github.com/llmc/ragcore/internal/logging"
	"github.com/llmc/ragcore/internal/schemagraph"
	"github.com/llmc/ragcore/internal/types"
)

// excludedDirs are never walked; they hold generated, vendored, or
// out-of-band state that the extractor has no business parsing.
var excludedDirs = map[string]bool{
	".git": true, ".rag": true, ".llmc": true,
	"node_modules": true, "vendor": true, "__pycache__": true,
	"dist": true, "build": true, ".venv": true, "venv": true,
}

// runCycle executes one active cycle: compute changed files, re-extract and
// replace their spans in one transaction per file, enqueue embed/enrich
// work, drain a bounded amount of each queue, then rebuild the schema graph
// and freshness record atomically.
func (c *Controller) runCycle(ctx context.Context) CycleStats {
	log := logging.For(logging.CategorySync)
	stats := CycleStats{}

	cfg, err := c.loadConfig()
	if err != nil {
		stats.Err = err
		c.recordStats(stats)
		return stats
	}

	changed, deleted, err := c.scanChangedFiles()
	if err != nil {
		stats.Err = err
		c.recordStats(stats)
		return stats
	}
	stats.FilesChanged = len(changed)
	stats.FilesDeleted = len(deleted)

	for _, path := range deleted {
		if err := c.Store.DeleteFile(path); err != nil {
			log.Warnw("failed to delete stale file record", "path", path, "err", err)
		}
	}

	for _, cf := range changed {
		select {
		case <-ctx.Done():
			stats.Err = ctx.Err()
			c.recordStats(stats)
			return stats
		default:
		}

		spans, err := extractor.Extract(cf.path, cf.content)
		if err != nil {
			log.Warnw("extraction failed, file recorded as failed and retried next cycle", "path", cf.path, "err", err)
			continue
		}

		// The files row is the foreign-key parent of the file's spans, so it
		// is written first.
		if err := c.Store.UpsertFile(types.File{
			Path: cf.path, ContentHash: cf.hash, ModTime: cf.modTime, Language: languageOf(spans),
		}); err != nil {
			log.Warnw("upsert_file failed", "path", cf.path, "err", err)
			continue
		}
		result, err := c.Store.ReplaceSpans(cf.path, spans)
		if err != nil {
			log.Warnw("replace_spans failed", "path", cf.path, "err", err)
			continue
		}

		stats.SpansAdded += len(result.Added)
		stats.SpansDeleted += len(result.Deleted)

		for _, hash := range result.Added {
			if c.Embedder != nil {
				_ = c.Store.Enqueue(hash, cf.path, types.WorkEmbed)
			}
			if c.EnrichEngine != nil {
				_ = c.Store.Enqueue(hash, cf.path, types.WorkEnrich)
			}
		}
	}

	if c.Embedder != nil {
		n, err := c.drainEmbedQueue(ctx, c.embedBatchSize(cfg))
		if err != nil {
			log.Warnw("embed queue drain failed", "err", err)
		}
		stats.EmbedsDone = n
	}

	if c.EnrichEngine != nil {
		n, err := c.EnrichEngine.RunOnce(ctx, c.enrichBatchSize(cfg))
		if err != nil {
			log.Warnw("enrich queue drain failed", "err", err)
		}
		stats.EnrichesDone = n
	}

	allSpans, err := c.Store.AllSpans()
	if err != nil {
		stats.Err = err
		c.recordStats(stats)
		return stats
	}
	graph, err := schemagraph.Build(allSpans)
	if err != nil {
		stats.Err = err
		c.recordStats(stats)
		return stats
	}
	if err := graph.Save(c.GraphPath); err != nil {
		log.Warnw("failed to save schema graph snapshot", "err", err)
	}
	stats.GraphEntities = len(graph.Entities)
	stats.GraphRelations = len(graph.Relations)

	head := indexstatus.CurrentHEAD(ctx, c.RepoRoot)
	status := types.IndexStatus{
		Repo:              filepath.Base(c.RepoRoot),
		IndexState:        types.StateFresh,
		LastIndexedAt:     time.Now(),
		LastIndexedCommit: head,
		SchemaVersion:     1,
	}
	if stats.Err != nil {
		status.IndexState = types.StateError
		status.LastError = stats.Err.Error()
	}
	if err := indexstatus.Save(c.StatusPath, status); err != nil {
		log.Warnw("failed to save index status", "err", err)
	}

	c.recordStats(stats)
	return stats
}

type changedFile struct {
	path    string
	content []byte
	hash    string
	modTime time.Time
}

// scanChangedFiles walks the repository tree, hashing every tracked file
// and comparing it against the store's recorded content hash. Files whose
// hash matches are left untouched; files present in the store but absent on
// disk are reported as deletions.
func (c *Controller) scanChangedFiles() ([]changedFile, []string, error) {
	seen := make(map[string]bool)
	var changed []changedFile

	err := filepath.WalkDir(c.RepoRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if excludedDirs[d.Name()] && path != c.RepoRoot {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(c.RepoRoot, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		seen[rel] = true

		content, err := os.ReadFile(path)
		if err != nil {
			return nil // unreadable file, skip rather than abort the whole walk
		}
		hash := contentHash(content)

		existing, err := c.Store.GetFile(rel)
		if err == nil && existing.ContentHash == hash {
			return nil // unchanged
		}

		info, err := d.Info()
		var modTime time.Time
		if err == nil {
			modTime = info.ModTime()
		}
		changed = append(changed, changedFile{path: rel, content: content, hash: hash, modTime: modTime})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	tracked, err := c.Store.ListFiles()
	if err != nil {
		return nil, nil, err
	}
	var deleted []string
	for _, f := range tracked {
		if !seen[f.Path] {
			deleted = append(deleted, f.Path)
		}
	}

	return changed, deleted, nil
}

// walkDirs visits root and every non-excluded subdirectory, calling fn on
// each. Used by the event watcher to register a recursive fsnotify watch,
// since fsnotify itself only watches one directory level at a time.
func walkDirs(root string, fn func(dir string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, skip rather than abort the whole walk
		}
		if !d.IsDir() {
			return nil
		}
		if excludedDirs[d.Name()] && path != root {
			return filepath.SkipDir
		}
		return fn(path)
	})
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func languageOf(spans []types.Span) string {
	if len(spans) == 0 {
		return ""
	}
	return spans[0].Language
}
