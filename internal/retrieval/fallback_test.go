package retrieval

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRipgrepMatches(t *testing.T) {
	output := "main.go:10:func main() {\nutil.go:22:func helper() {\n"
	items := parseRipgrepMatches(output, 10)
	require.Len(t, items, 2)
	assert.Equal(t, "main.go", items[0].Path)
	assert.Equal(t, 10, items[0].StartLine)
	assert.Equal(t, "func main() {", items[0].Summary)
}

func TestParseRipgrepMatches_RespectsLimit(t *testing.T) {
	output := "a.go:1:x\nb.go:2:y\nc.go:3:z\n"
	items := parseRipgrepMatches(output, 2)
	assert.Len(t, items, 2)
}

func TestLocalFallbackScan_FindsMatch(t *testing.T) {
	if _, err := exec.LookPath("rg"); err != nil {
		t.Skip("ripgrep not available")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package main\nfunc needle() {}\n"), 0o644))

	items, err := localFallbackScan(context.Background(), dir, Query{Text: "needle"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].StartLine)
}

func TestLocalFallbackScan_EmptyQueryReturnsNil(t *testing.T) {
	items, err := localFallbackScan(context.Background(), t.TempDir(), Query{Text: ""})
	require.NoError(t, err)
	assert.Nil(t, items)
}
