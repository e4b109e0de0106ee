package sync

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/llmc/ragcore/internal/logging"
)

// debounceInterval is how often the event loop checks for settled changes;
// the actual coalescing window comes from the repository's configured
// debounce_seconds.
const debounceInterval = 250 * time.Millisecond

// runEventLoop watches the repository tree with fsnotify, coalescing bursts
// of events behind a debounce map drained on a ticker, and runs a cycle
// once events have settled. Grounded on the same shape as a filesystem
// watcher coalescing rapid saves behind a debounce map and a ticker, just
// generalized from one fixed directory to the whole repository tree.
func (c *Controller) runEventLoop(ctx context.Context) {
	log := logging.For(logging.CategorySync)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Errorw("failed to create filesystem watcher, falling back to poll mode", "err", err)
		c.runPollLoop(ctx)
		return
	}
	defer watcher.Close()

	if err := addWatchesRecursive(watcher, c.RepoRoot); err != nil {
		log.Warnw("failed to watch repository tree", "err", err)
	}

	var mu sync.Mutex
	debounceMap := make(map[string]time.Time)

	cfg, err := c.loadConfig()
	debounce := c.DebounceFallback
	if err == nil {
		debounce = cfg.DebounceDuration()
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	ticker := time.NewTicker(debounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 {
				// New directories need their own watch; best-effort.
				_ = watcher.Add(event.Name)
			}
			mu.Lock()
			debounceMap[event.Name] = time.Now()
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warnw("filesystem watcher error", "err", err)

		case <-ticker.C:
			mu.Lock()
			settled := false
			now := time.Now()
			for _, t := range debounceMap {
				if now.Sub(t) >= debounce {
					settled = true
					break
				}
			}
			if settled {
				debounceMap = make(map[string]time.Time)
			}
			mu.Unlock()

			if settled {
				stats := c.runCycle(ctx)
				log.Infow("sync cycle completed", "files_changed", stats.FilesChanged, "spans_added", stats.SpansAdded)
			}
		}
	}
}

func addWatchesRecursive(watcher *fsnotify.Watcher, root string) error {
	return walkDirs(root, func(dir string) error {
		return watcher.Add(dir)
	})
}
