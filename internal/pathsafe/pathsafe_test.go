package pathsafe

import (
	"testing"

	"github.com/llmc/ragcore/internal/ragerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_RejectsTraversal(t *testing.T) {
	root := t.TempDir()

	cases := []string{
		"../../etc/passwd",
		"a/../../b",
		"..",
	}
	for _, c := range cases {
		_, err := Resolve(root, c)
		require.Error(t, err, c)
		assert.True(t, ragerr.Is(err, ragerr.CodePathTraversal), c)
	}
}

func TestResolve_RejectsNullByte(t *testing.T) {
	root := t.TempDir()
	_, err := Resolve(root, "a\x00b")
	require.Error(t, err)
	assert.True(t, ragerr.Is(err, ragerr.CodePathTraversal))
}

func TestResolve_AllowsInsideRoot(t *testing.T) {
	root := t.TempDir()
	p, err := Resolve(root, "sub/file.go")
	require.NoError(t, err)
	assert.Contains(t, p, root)
}

func TestResolve_NoFilesystemTouch(t *testing.T) {
	root := t.TempDir()
	// Resolve must not create or stat the target; a traversal attempt against
	// a nonexistent path should fail purely on path arithmetic.
	_, err := Resolve(root, "../outside/does/not/exist")
	require.Error(t, err)
}
