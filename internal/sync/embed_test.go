package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/llmc/ragcore/internal/types"
)

func TestDrainEmbedQueue_EmptyQueueNoOp(t *testing.T) {
	repoRoot := t.TempDir()
	c, _ := newTestController(t, repoRoot)

	n, err := c.drainEmbedQueue(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestDrainEmbedQueue_WritesVectorsAndCompletes(t *testing.T) {
	repoRoot := t.TempDir()
	c, s := newTestController(t, repoRoot)

	span := mkTestSpan("a.py", "foo", "def foo(): pass", 1, 2)
	require.NoError(t, s.UpsertFile(types.File{Path: "a.py", ContentHash: "a"}))
	_, err := s.ReplaceSpans("a.py", []types.Span{span})
	require.NoError(t, err)
	require.NoError(t, s.Enqueue(span.SpanHash, "a.py", types.WorkEmbed))

	n, err := c.drainEmbedQueue(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	emb, err := s.GetEmbedding(span.SpanHash, "stub")
	require.NoError(t, err)
	require.Len(t, emb.Vector, 3)

	items, err := s.Pending(types.WorkEmbed, 10, 0)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestDrainEmbedQueue_BatchFailureCoolsDownItems(t *testing.T) {
	repoRoot := t.TempDir()
	c, s := newTestController(t, repoRoot)
	c.Embedder = &stubEmbedder{dim: 3, fail: true}

	span := mkTestSpan("a.py", "foo", "def foo(): pass", 1, 2)
	require.NoError(t, s.UpsertFile(types.File{Path: "a.py", ContentHash: "a"}))
	_, err := s.ReplaceSpans("a.py", []types.Span{span})
	require.NoError(t, err)
	require.NoError(t, s.Enqueue(span.SpanHash, "a.py", types.WorkEmbed))

	n, err := c.drainEmbedQueue(context.Background(), 10)
	require.Error(t, err)
	require.Equal(t, 0, n)

	items, err := s.Pending(types.WorkEmbed, 10, 0)
	require.NoError(t, err)
	require.Empty(t, items, "item should be cooling down, not immediately pending again")
}

func TestDrainEmbedQueue_MissingSpanIsSkippedNotFatal(t *testing.T) {
	repoRoot := t.TempDir()
	c, s := newTestController(t, repoRoot)

	span := mkTestSpan("a.py", "foo", "def foo(): pass", 1, 2)
	require.NoError(t, s.UpsertFile(types.File{Path: "a.py", ContentHash: "a"}))
	_, err := s.ReplaceSpans("a.py", []types.Span{span})
	require.NoError(t, err)
	require.NoError(t, s.Enqueue(span.SpanHash, "a.py", types.WorkEmbed))

	// Delete the span out from under the queued work item, simulating a
	// race between enqueue and a later replace_spans call.
	_, err = s.ReplaceSpans("a.py", nil)
	require.NoError(t, err)

	n, err := c.drainEmbedQueue(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func mkTestSpan(file, symbol, content string, start, end int) types.Span {
	h := uint64(1469598103934665603)
	for i := 0; i < len(content); i++ {
		h ^= uint64(content[i])
		h *= 1099511628211
	}
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[h&0xf]
		h >>= 4
	}
	return types.Span{
		SpanHash:  string(buf),
		File:      file,
		Symbol:    symbol,
		Kind:      types.SpanFunction,
		StartLine: start,
		EndLine:   end,
		ByteStart: start * 10,
		ByteEnd:   end * 10,
		Language:  "python",
		Content:   content,
	}
}
