package boundary

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/llmc/ragcore/internal/indexstatus"
	"github.com/llmc/ragcore/internal/retrieval"
	"github.com/llmc/ragcore/internal/schemagraph"
	"github.com/llmc/ragcore/internal/store"
	"github.com/llmc/ragcore/internal/sync"
	"github.com/llmc/ragcore/internal/types"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestQueryAdapter_DelegatesWhereUsed(t *testing.T) {
	s := openTestStore(t)
	graph, err := schemagraph.Build(nil)
	require.NoError(t, err)

	pipeline := &retrieval.Pipeline{Store: s, Graph: graph, RepoRoot: t.TempDir()}
	adapter := NewQueryAdapter(pipeline)

	_, err = adapter.WhereUsed("nonexistent")
	require.Error(t, err)
}

func TestQueryAdapter_DelegatesLineage(t *testing.T) {
	s := openTestStore(t)
	graph, err := schemagraph.Build(nil)
	require.NoError(t, err)

	pipeline := &retrieval.Pipeline{Store: s, Graph: graph, RepoRoot: t.TempDir()}
	adapter := NewQueryAdapter(pipeline)

	_, err = adapter.Lineage("nonexistent", retrieval.LineageCallees, 2)
	require.Error(t, err)
}

func TestIndexAdapter_StatusReadsFreshnessRecord(t *testing.T) {
	statusPath := filepath.Join(t.TempDir(), "status.json")
	want := types.IndexStatus{
		Repo:          "demo",
		IndexState:    types.StateFresh,
		LastIndexedAt: time.Now(),
	}
	require.NoError(t, indexstatus.Save(statusPath, want))

	adapter := NewIndexAdapter(&sync.Controller{}, statusPath)
	got, err := adapter.Status()
	require.NoError(t, err)
	require.Equal(t, want.Repo, got.Repo)
	require.Equal(t, want.IndexState, got.IndexState)
}

func TestIndexAdapter_UpsertFileRunsOneCycle(t *testing.T) {
	repoRoot := t.TempDir()
	s := openTestStore(t)
	c := &sync.Controller{
		RepoRoot:   repoRoot,
		GraphPath:  filepath.Join(t.TempDir(), "graph.json"),
		StatusPath: filepath.Join(t.TempDir(), "status.json"),
		Store:      s,
		ConfigPath: filepath.Join(repoRoot, "missing.toml"),
	}
	adapter := NewIndexAdapter(c, c.StatusPath)

	stats, err := adapter.UpsertFile(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, stats.FilesChanged)
}

func TestSyncAdapter_StatusReflectsLastRun(t *testing.T) {
	repoRoot := t.TempDir()
	s := openTestStore(t)
	c := &sync.Controller{
		RepoRoot:   repoRoot,
		GraphPath:  filepath.Join(t.TempDir(), "graph.json"),
		StatusPath: filepath.Join(t.TempDir(), "status.json"),
		Store:      s,
		ConfigPath: filepath.Join(repoRoot, "missing.toml"),
	}
	adapter := NewSyncAdapter(c)

	before := adapter.Status()
	require.Equal(t, 0, before.FilesChanged)

	c.RunOnce(context.Background())
	after := adapter.Status()
	require.NoError(t, after.Err)
}
