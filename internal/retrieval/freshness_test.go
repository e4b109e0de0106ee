package retrieval

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmc/ragcore/internal/indexstatus"
	"github.com/llmc/ragcore/internal/types"
)

func initGitRepo(t *testing.T, dir string) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		require.NoError(t, cmd.Run())
	}
	run("init")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	run("add", "a.txt")
	run("commit", "-m", "init")

	out, err := exec.Command("git", "-C", dir, "rev-parse", "HEAD").Output()
	require.NoError(t, err)
	return string(out[:len(out)-1])
}

func TestCheckFreshness_FreshAndMatchingHEAD(t *testing.T) {
	dir := t.TempDir()
	head := initGitRepo(t, dir)

	statusPath := filepath.Join(dir, ".llmc", "rag_index_status.json")
	require.NoError(t, indexstatus.Save(statusPath, types.IndexStatus{
		IndexState:        types.StateFresh,
		LastIndexedCommit: head,
		LastIndexedAt:      time.Now(),
	}))

	_, ok := checkFreshness(context.Background(), statusPath, dir)
	assert.True(t, ok)
}

func TestCheckFreshness_StaleCommitFails(t *testing.T) {
	dir := t.TempDir()
	initGitRepo(t, dir)

	statusPath := filepath.Join(dir, ".llmc", "rag_index_status.json")
	require.NoError(t, indexstatus.Save(statusPath, types.IndexStatus{
		IndexState:        types.StateFresh,
		LastIndexedCommit: "deadbeef",
		LastIndexedAt:      time.Now(),
	}))

	_, ok := checkFreshness(context.Background(), statusPath, dir)
	assert.False(t, ok)
}

func TestCheckFreshness_MissingStatusFileFails(t *testing.T) {
	dir := t.TempDir()
	_, ok := checkFreshness(context.Background(), filepath.Join(dir, ".llmc", "rag_index_status.json"), dir)
	assert.False(t, ok)
}

func TestCheckFreshness_NonFreshStateFails(t *testing.T) {
	dir := t.TempDir()
	statusPath := filepath.Join(dir, ".llmc", "rag_index_status.json")
	require.NoError(t, indexstatus.Save(statusPath, types.IndexStatus{
		IndexState: types.StateStale,
		LastIndexedAt: time.Now(),
	}))

	_, ok := checkFreshness(context.Background(), statusPath, dir)
	assert.False(t, ok)
}

func TestCheckFreshness_RebuildingStateWithNoGitRepoProceeds(t *testing.T) {
	dir := t.TempDir()
	statusPath := filepath.Join(dir, ".llmc", "rag_index_status.json")
	require.NoError(t, indexstatus.Save(statusPath, types.IndexStatus{
		IndexState: types.StateRebuilding,
		LastIndexedAt: time.Now(),
	}))

	_, ok := checkFreshness(context.Background(), statusPath, dir)
	assert.True(t, ok)
}
