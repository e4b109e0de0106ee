package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestController_StartStop_EventMode(t *testing.T) {
	repoRoot := t.TempDir()
	c, _ := newTestController(t, repoRoot)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, c.Start(ctx))
	c.Stop()
}

func TestController_StartTwice_SecondCallIsNoOp(t *testing.T) {
	repoRoot := t.TempDir()
	c, _ := newTestController(t, repoRoot)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, c.Start(ctx))
	require.NoError(t, c.Start(ctx))
	c.Stop()
}

func TestController_StopWithoutStart_IsNoOp(t *testing.T) {
	repoRoot := t.TempDir()
	c, _ := newTestController(t, repoRoot)
	c.Stop()
}

func TestController_PollMode_RunsCycleOnTick(t *testing.T) {
	repoRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repoRoot, "a.py"), []byte("def foo(): pass\n"), 0o644))

	c, s := newTestController(t, repoRoot)
	// The poll tick comes from the per-cycle config; PollFallback applies
	// only when that config fails to load.
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[daemon]\ntick_interval = 1\n"), 0o644))
	c.ConfigPath = cfgPath

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		c.runPollLoop(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		files, err := s.ListFiles()
		return err == nil && len(files) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestController_LastStats_DefaultsToZeroValue(t *testing.T) {
	repoRoot := t.TempDir()
	c, _ := newTestController(t, repoRoot)
	require.Equal(t, 0, c.LastStats().FilesChanged)
}
