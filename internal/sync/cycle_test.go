package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/llmc/ragcore/internal/store"
	"github.com/llmc/ragcore/internal/types"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type stubEmbedder struct {
	dim  int
	fail bool
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.fail {
		return nil, os.ErrClosed
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, e.dim)
	}
	return out, nil
}

func (e *stubEmbedder) Dimensions() int { return e.dim }
func (e *stubEmbedder) Name() string    { return "stub" }

type stubEnrichEngine struct {
	calls int
	runs  int
}

func (e *stubEnrichEngine) RunOnce(ctx context.Context, limit int) (int, error) {
	e.calls++
	e.runs += limit
	return 0, nil
}

func newTestController(t *testing.T, repoRoot string) (*Controller, *store.Store) {
	t.Helper()
	s := openTestStore(t)
	c := &Controller{
		RepoRoot:   repoRoot,
		GraphPath:  filepath.Join(t.TempDir(), "graph.json"),
		StatusPath: filepath.Join(t.TempDir(), "status.json"),
		Store:      s,
		ConfigPath: filepath.Join(repoRoot, "missing_config.toml"),
		Embedder:   &stubEmbedder{dim: 3},
	}
	return c, s
}

func TestRunCycle_NewFileIsExtractedAndEmbedQueued(t *testing.T) {
	repoRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repoRoot, "a.py"), []byte("def foo():\n    return 1\n"), 0o644))

	c, s := newTestController(t, repoRoot)
	stats := c.runCycle(context.Background())

	require.NoError(t, stats.Err)
	require.Equal(t, 1, stats.FilesChanged)
	require.Greater(t, stats.SpansAdded, 0)
	require.Equal(t, stats.SpansAdded, stats.EmbedsDone)

	spans, err := s.SpansForFile("a.py")
	require.NoError(t, err)
	require.NotEmpty(t, spans)

	_, err = os.Stat(c.GraphPath)
	require.NoError(t, err)
	_, err = os.Stat(c.StatusPath)
	require.NoError(t, err)
}

func TestRunCycle_UnchangedFileIsSkipped(t *testing.T) {
	repoRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repoRoot, "a.py"), []byte("def foo():\n    return 1\n"), 0o644))

	c, _ := newTestController(t, repoRoot)
	first := c.runCycle(context.Background())
	require.NoError(t, first.Err)
	require.Equal(t, 1, first.FilesChanged)

	second := c.runCycle(context.Background())
	require.NoError(t, second.Err)
	require.Equal(t, 0, second.FilesChanged)
	require.Equal(t, 0, second.SpansAdded)
}

func TestRunCycle_ChangedFileReextracts(t *testing.T) {
	repoRoot := t.TempDir()
	path := filepath.Join(repoRoot, "a.py")
	require.NoError(t, os.WriteFile(path, []byte("def foo():\n    return 1\n"), 0o644))

	c, s := newTestController(t, repoRoot)
	require.NoError(t, c.runCycle(context.Background()).Err)

	require.NoError(t, os.WriteFile(path, []byte("def foo():\n    return 2\n\ndef bar():\n    return 3\n"), 0o644))
	stats := c.runCycle(context.Background())
	require.NoError(t, stats.Err)
	require.Equal(t, 1, stats.FilesChanged)
	require.Greater(t, stats.SpansAdded, 0)

	spans, err := s.SpansForFile("a.py")
	require.NoError(t, err)
	require.Len(t, spans, 2)
}

func TestRunCycle_DeletedFileIsRemoved(t *testing.T) {
	repoRoot := t.TempDir()
	path := filepath.Join(repoRoot, "a.py")
	require.NoError(t, os.WriteFile(path, []byte("def foo():\n    return 1\n"), 0o644))

	c, s := newTestController(t, repoRoot)
	require.NoError(t, c.runCycle(context.Background()).Err)

	require.NoError(t, os.Remove(path))
	stats := c.runCycle(context.Background())
	require.NoError(t, stats.Err)
	require.Equal(t, 1, stats.FilesDeleted)

	_, err := s.GetFile("a.py")
	require.Error(t, err)
}

func TestRunCycle_ExcludedDirsAreSkipped(t *testing.T) {
	repoRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(repoRoot, "vendor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repoRoot, "vendor", "ignored.py"), []byte("def x(): pass\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(repoRoot, "kept.py"), []byte("def y(): pass\n"), 0o644))

	c, s := newTestController(t, repoRoot)
	stats := c.runCycle(context.Background())
	require.NoError(t, stats.Err)
	require.Equal(t, 1, stats.FilesChanged)

	_, err := s.GetFile("kept.py")
	require.NoError(t, err)
	_, err = s.GetFile("vendor/ignored.py")
	require.Error(t, err)
}

func TestRunCycle_DrivesEnrichEngine(t *testing.T) {
	repoRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repoRoot, "a.py"), []byte("def foo():\n    return 1\n"), 0o644))

	c, _ := newTestController(t, repoRoot)
	stub := &stubEnrichEngine{}
	c.EnrichEngine = stub

	stats := c.runCycle(context.Background())
	require.NoError(t, stats.Err)
	require.Equal(t, 1, stub.calls)
}

func TestRunCycle_GraphReflectsCallRelation(t *testing.T) {
	repoRoot := t.TempDir()
	content := "def bar():\n    return 1\n\ndef foo():\n    return bar()\n"
	require.NoError(t, os.WriteFile(filepath.Join(repoRoot, "a.py"), []byte(content), 0o644))

	c, _ := newTestController(t, repoRoot)
	stats := c.runCycle(context.Background())
	require.NoError(t, stats.Err)
	require.GreaterOrEqual(t, stats.GraphEntities, 2)
}

func TestRunCycle_RecordsLastStats(t *testing.T) {
	repoRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repoRoot, "a.py"), []byte("def foo(): pass\n"), 0o644))

	c, _ := newTestController(t, repoRoot)
	c.runCycle(context.Background())

	got := c.LastStats()
	require.Equal(t, 1, got.FilesChanged)
}

func TestScanChangedFiles_UnreadableHashMismatchRetried(t *testing.T) {
	repoRoot := t.TempDir()
	path := filepath.Join(repoRoot, "a.py")
	require.NoError(t, os.WriteFile(path, []byte("def foo(): pass\n"), 0o644))

	c, s := newTestController(t, repoRoot)
	require.NoError(t, s.UpsertFile(types.File{Path: "a.py", ContentHash: "stale-hash"}))

	changed, deleted, err := c.scanChangedFiles()
	require.NoError(t, err)
	require.Empty(t, deleted)
	require.Len(t, changed, 1)
	require.Equal(t, "a.py", changed[0].path)
}
