// Package ragtest is a small end-to-end harness that wires a store, sync
// controller, and query pipeline around a scratch repository on disk, so
// scenario tests can drive the system the way a real repository would:
// write files, run a cycle, query the result.
package ragtest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/llmc/ragcore/internal/config"
	"github.com/llmc/ragcore/internal/retrieval"
	"github.com/llmc/ragcore/internal/schemagraph"
	"github.com/llmc/ragcore/internal/store"
	"github.com/llmc/ragcore/internal/sync"
)

// ErrGitUnavailable is returned by New when the git binary can't be found.
// Scenario tests skip rather than fail in that case, matching how the rest
// of this module's git-dependent tests behave.
var ErrGitUnavailable = errors.New("git binary not found in PATH")

// Harness bundles one scratch repository's store, sync controller, and
// query pipeline.
type Harness struct {
	RepoRoot   string
	StatusPath string
	GraphPath  string
	Store      *store.Store
	Controller *sync.Controller
	Pipeline   *retrieval.Pipeline
}

// New creates a scratch git repository under dir and opens a fresh store,
// controller, and pipeline around it. The embedder is a deterministic
// stub: real backend calls have no place in a scenario run.
func New(dir string) (*Harness, error) {
	if err := runGit(dir, "init"); err != nil {
		return nil, err
	}
	if err := runGit(dir, "config", "user.email", "ragtest@example.com"); err != nil {
		return nil, err
	}
	if err := runGit(dir, "config", "user.name", "ragtest"); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, ".rag", "index.db")
	statusPath := filepath.Join(dir, ".llmc", "rag_index_status.json")
	graphPath := filepath.Join(dir, ".llmc", "rag_graph.json")

	s, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	embedder := newStubEmbedder(16)

	controller := &sync.Controller{
		RepoRoot:   dir,
		GraphPath:  graphPath,
		StatusPath: statusPath,
		Store:      s,
		Embedder:   embedder,
		ConfigPath: filepath.Join(dir, ".llmc", "config.toml"),
	}

	graph, err := schemagraph.Load(graphPath)
	if err != nil {
		s.Close()
		return nil, err
	}

	pipeline := &retrieval.Pipeline{
		Store:      s,
		Graph:      graph,
		Embedder:   embedder,
		Config:     config.Default(),
		RepoName:   filepath.Base(dir),
		RepoRoot:   dir,
		StatusPath: statusPath,
	}

	return &Harness{
		RepoRoot:   dir,
		StatusPath: statusPath,
		GraphPath:  graphPath,
		Store:      s,
		Controller: controller,
		Pipeline:   pipeline,
	}, nil
}

// Close releases the underlying store handle.
func (h *Harness) Close() {
	h.Store.Close()
}

// WriteFile writes a file under the repository root and stages+commits it,
// so CurrentHEAD always reflects the repository's latest committed state.
func (h *Harness) WriteFile(relPath, content string) error {
	full := filepath.Join(h.RepoRoot, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return err
	}
	if err := runGit(h.RepoRoot, "add", relPath); err != nil {
		return err
	}
	return runGit(h.RepoRoot, "commit", "-m", "update "+relPath)
}

// RemoveFile deletes a file from disk and commits the removal.
func (h *Harness) RemoveFile(relPath string) error {
	if err := runGit(h.RepoRoot, "rm", relPath); err != nil {
		return err
	}
	return runGit(h.RepoRoot, "commit", "-m", "remove "+relPath)
}

// TouchHEAD creates an empty commit on top of HEAD, producing a
// new commit hash while the working tree (and therefore the store's
// content hashes) stays identical — used to simulate a stale status record
// without re-running sync.
func (h *Harness) TouchHEAD() error {
	return runGit(h.RepoRoot, "commit", "--allow-empty", "-m", "touch head")
}

// Sync runs one active cycle and reloads the pipeline's graph snapshot, the
// way a fresh CLI invocation would after a sync daemon cycle.
func (h *Harness) Sync(ctx context.Context) sync.CycleStats {
	stats := h.Controller.RunOnce(ctx)
	if graph, err := schemagraph.Load(h.GraphPath); err == nil {
		h.Pipeline.Graph = graph
	}
	return stats
}

// Query runs a query through the pipeline.
func (h *Harness) Query(ctx context.Context, q retrieval.Query) (retrieval.Envelope, error) {
	return h.Pipeline.Query(ctx, q)
}

func runGit(dir string, args ...string) error {
	if _, err := exec.LookPath("git"); err != nil {
		return ErrGitUnavailable
	}
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git %v: %w: %s", args, err, out)
	}
	return nil
}
