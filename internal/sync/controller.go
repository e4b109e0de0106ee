// Package sync drives the repository's active cycle: watch or poll for
// changed files, run them back through the extractor and span store, queue
// embedding and enrichment work, and rebuild the schema graph and freshness
// record. The controller and the enrichment engine it drives both write to
// the store.
package sync

import (
	"context"
	"sync"
	"time"

	"github.com/llmc/ragcore/internal/config"
	"github.com/llmc/ragcore/internal/embedding"
	"github.com/llmc/ragcore/internal/logging"
	"github.com/llmc/ragcore/internal/store"
)

// enrichEngine is the subset of *enrichment.Engine the controller drives;
// named so cycle_test.go can supply a stub without building a real chain.
type enrichEngine interface {
	RunOnce(ctx context.Context, limit int) (int, error)
}

// defaultNiceValue matches a typical background-daemon niceness: low enough
// that interactive work on the host always wins contention.
const defaultNiceValue = 10

// Controller owns one repository's sync loop.
type Controller struct {
	RepoRoot   string
	GraphPath  string
	StatusPath string

	Store        *store.Store
	EnrichEngine enrichEngine
	Embedder     embedding.Engine

	ConfigPath string // re-read at the top of every cycle

	// EmbedBatchSize and EnrichBatchSize bound how much of each queue is
	// drained per cycle, so sync stays responsive under a large backlog.
	EmbedBatchSize  int
	EnrichBatchSize int

	// DebounceFallback and PollFallback apply only if ConfigPath fails to
	// load; normally the per-cycle config's [daemon] section governs.
	DebounceFallback time.Duration
	PollFallback     time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// lastCycleStats is exposed for tests and operator tooling.
	lastCycleStats CycleStats
}

// CycleStats summarizes one active cycle's work, returned by RunOnce and
// LastStats and logged at info level.
type CycleStats struct {
	FilesChanged   int
	FilesDeleted   int
	SpansAdded     int
	SpansDeleted   int
	EmbedsDone     int
	EnrichesDone   int
	GraphEntities  int
	GraphRelations int
	Err            error
}

// Start begins the controller's event or poll loop, chosen from the
// repository's current [daemon] config. Non-blocking: the loop runs in a
// goroutine until Stop is called or ctx is cancelled.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	c.mu.Unlock()

	lowerPriority(defaultNiceValue)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	go func() {
		defer close(c.doneCh)
		switch cfg.Daemon.Mode {
		case config.DaemonEvent:
			c.runEventLoop(ctx)
		default:
			c.runPollLoop(ctx)
		}
	}()
	return nil
}

// RunOnce runs a single active cycle synchronously, independent of the
// event/poll loop. Used for one-shot indexing (e.g. a CLI "index" command)
// without starting the background daemon.
func (c *Controller) RunOnce(ctx context.Context) CycleStats {
	return c.runCycle(ctx)
}

// Stop signals the loop to exit and waits for it to finish.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	stopCh := c.stopCh
	doneCh := c.doneCh
	c.mu.Unlock()

	close(stopCh)
	<-doneCh
	logging.For(logging.CategorySync).Infow("controller stopped", "repo_root", c.RepoRoot)
}

func (c *Controller) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LastStats returns the most recently completed cycle's summary, used by
// the CLI's status command.
func (c *Controller) LastStats() CycleStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastCycleStats
}

func (c *Controller) recordStats(s CycleStats) {
	c.mu.Lock()
	c.lastCycleStats = s
	c.mu.Unlock()
}

// embedBatchSize prefers an explicit override, falling back to the
// repository's [enrichment] batch_size since embeddings are queued and
// drained at the same granularity as enrichment attempts.
func (c *Controller) embedBatchSize(cfg *config.Config) int {
	if c.EmbedBatchSize > 0 {
		return c.EmbedBatchSize
	}
	if cfg.Enrichment.BatchSize > 0 {
		return cfg.Enrichment.BatchSize
	}
	return 32
}

func (c *Controller) enrichBatchSize(cfg *config.Config) int {
	if c.EnrichBatchSize > 0 {
		return c.EnrichBatchSize
	}
	if cfg.Enrichment.BatchSize > 0 {
		return cfg.Enrichment.BatchSize
	}
	return 16
}

