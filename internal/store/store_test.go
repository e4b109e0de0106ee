package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/llmc/ragcore/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mkSpan(file, symbol, content string, start, end int) types.Span {
	return types.Span{
		SpanHash:  spanHashFor(content),
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

// spanHashFor is a test-only stand-in for the extractor's real hashing; it
// only needs to be stable and distinct per distinct content.
func spanHashFor(content string) string {
	h := uint64(1469598103934665603)
	for i := 0; i < len(content); i++ {
		h ^= uint64(content[i])
		h *= 1099511628211
	}
	return hexUint64(h)
}

func hexUint64(v uint64) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[v&0xf]
		v >>= 4
	}
	return string(buf)
}

func TestUpsertFile_RoundTrips(t *testing.T) {
	s := openTestStore(t)
	f := types.File{Path: "a.py", ContentHash: "h1", ModTime: time.Now(), Language: "python"}
	require.NoError(t, s.UpsertFile(f))

	got, err := s.GetFile("a.py")
	require.NoError(t, err)
	require.Equal(t, "h1", got.ContentHash)
}

func TestListFiles_ReturnsAllTrackedFiles(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertFile(types.File{Path: "a.py", ContentHash: "h1", ModTime: time.Now(), Language: "python"}))
	require.NoError(t, s.UpsertFile(types.File{Path: "b.py", ContentHash: "h2", ModTime: time.Now(), Language: "python"}))

	files, err := s.ListFiles()
	require.NoError(t, err)
	require.Len(t, files, 2)
}

// TestReplaceSpans_IdentityStability verifies that editing only one span
// among three yields delete=1, add=1, unchanged=2, and that an enrichment
// on an untouched span survives.
func TestReplaceSpans_IdentityStability(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertFile(types.File{Path: "a.py", ContentHash: "h1", ModTime: time.Now(), Language: "python"}))

	a := mkSpan("a.py", "foo", "def foo(): pass", 1, 2)
	b := mkSpan("a.py", "bar", "def bar(): pass", 3, 4)
	c := mkSpan("a.py", "baz", "def baz(): pass", 5, 6)

	res, err := s.ReplaceSpans("a.py", []types.Span{a, b, c})
	require.NoError(t, err)
	require.Len(t, res.Added, 3)
	require.Empty(t, res.Unchanged)

	require.NoError(t, s.WriteEnrichment(types.Enrichment{SpanHash: a.SpanHash, Summary: "summary a", ModelID: "local-7b", SchemaVersion: 1, CreatedAt: time.Now()}))
	require.NoError(t, s.WriteEnrichment(types.Enrichment{SpanHash: c.SpanHash, Summary: "summary c", ModelID: "local-7b", SchemaVersion: 1, CreatedAt: time.Now()}))

	bEdited := mkSpan("a.py", "bar", "def bar(): return 1", 3, 4)
	res2, err := s.ReplaceSpans("a.py", []types.Span{a, bEdited, c})
	require.NoError(t, err)
	require.Len(t, res2.Deleted, 1)
	require.Len(t, res2.Added, 1)
	require.Len(t, res2.Unchanged, 2)
	require.Equal(t, b.SpanHash, res2.Deleted[0])

	_, err = s.GetEnrichment(a.SpanHash)
	require.NoError(t, err)
	_, err = s.GetEnrichment(c.SpanHash)
	require.NoError(t, err)
}

// TestReplaceSpans_DifferentialCorrectness verifies ReplaceSpans computes
// an exact added/deleted/unchanged diff across repeated calls.
func TestReplaceSpans_DifferentialCorrectness(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertFile(types.File{Path: "a.py", ContentHash: "h1", ModTime: time.Now(), Language: "python"}))

	a := mkSpan("a.py", "foo", "def foo(): pass", 1, 2)
	b := mkSpan("a.py", "bar", "def bar(): pass", 3, 4)
	_, err := s.ReplaceSpans("a.py", []types.Span{a, b})
	require.NoError(t, err)

	c := mkSpan("a.py", "baz", "def baz(): pass", 5, 6)
	res, err := s.ReplaceSpans("a.py", []types.Span{a, c})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{b.SpanHash}, res.Deleted)
	require.ElementsMatch(t, []string{c.SpanHash}, res.Added)
	require.ElementsMatch(t, []string{a.SpanHash}, res.Unchanged)

	live, err := s.SpansForFile("a.py")
	require.NoError(t, err)
	require.Len(t, live, 2)
}

func TestAllSpans_ReturnsEverySpan(t *testing.T) {
	s := openTestStore(t)
	a := mkSpan("a.py", "foo", "def foo(): pass", 1, 2)
	b := mkSpan("b.py", "bar", "def bar(): pass", 1, 2)
	require.NoError(t, s.UpsertFile(types.File{Path: "a.py", ContentHash: "a"}))
	require.NoError(t, s.UpsertFile(types.File{Path: "b.py", ContentHash: "b"}))
	_, err := s.ReplaceSpans("a.py", []types.Span{a})
	require.NoError(t, err)
	_, err = s.ReplaceSpans("b.py", []types.Span{b})
	require.NoError(t, err)

	all, err := s.AllSpans()
	require.NoError(t, err)
	require.Len(t, all, 2)
}

// TestGarbageCollect_OrphanAbsence verifies GarbageCollect removes
// embeddings and enrichments left behind by a deleted span.
func TestGarbageCollect_OrphanAbsence(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertFile(types.File{Path: "a.py", ContentHash: "h1", ModTime: time.Now(), Language: "python"}))
	a := mkSpan("a.py", "foo", "def foo(): pass", 1, 2)
	_, err := s.ReplaceSpans("a.py", []types.Span{a})
	require.NoError(t, err)
	require.NoError(t, s.WriteEmbedding(types.Embedding{SpanHash: a.SpanHash, ModelID: "m1", Vector: []float32{1, 2, 3}}))
	require.NoError(t, s.WriteEnrichment(types.Enrichment{SpanHash: a.SpanHash, Summary: "s", ModelID: "m1", SchemaVersion: 1, CreatedAt: time.Now()}))

	_, err = s.ReplaceSpans("a.py", nil)
	require.NoError(t, err)

	result, err := s.GarbageCollect()
	require.NoError(t, err)
	require.Equal(t, int64(0), result.EmbeddingsRemoved) // cascade already removed them
	require.Equal(t, int64(0), result.EnrichmentsRemoved)

	_, err = s.GetEmbedding(a.SpanHash, "m1")
	require.Error(t, err)
}

// TestSearchLexical_TokenizerCoverage verifies domain vocabulary like
// "model"/"system" is never dropped by the fts5 tokenizer.
func TestSearchLexical_TokenizerCoverage(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertFile(types.File{Path: "a.py", ContentHash: "h1", ModTime: time.Now(), Language: "python"}))

	sp := mkSpan("a.py", "load_model", "def load_model(): return System().model", 1, 2)
	_, err := s.ReplaceSpans("a.py", []types.Span{sp})
	require.NoError(t, err)

	for _, kw := range []string{"model", "system"} {
		hits, err := s.SearchLexical(kw, Filters{}, 10)
		require.NoError(t, err)
		require.NotEmptyf(t, hits, "keyword %q should not be dropped by the tokenizer", kw)
	}
}

func TestSearchVector_RanksByDotProduct(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertFile(types.File{Path: "a.py", ContentHash: "h1", ModTime: time.Now(), Language: "python"}))
	a := mkSpan("a.py", "foo", "def foo(): pass", 1, 2)
	b := mkSpan("a.py", "bar", "def bar(): pass", 3, 4)
	_, err := s.ReplaceSpans("a.py", []types.Span{a, b})
	require.NoError(t, err)

	require.NoError(t, s.WriteEmbedding(types.Embedding{SpanHash: a.SpanHash, ModelID: "m1", Vector: []float32{1, 0, 0}}))
	require.NoError(t, s.WriteEmbedding(types.Embedding{SpanHash: b.SpanHash, ModelID: "m1", Vector: []float32{0, 1, 0}}))

	hits, err := s.SearchVector([]float32{1, 0, 0}, "m1", []string{a.SpanHash, b.SpanHash}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, a.SpanHash, hits[0].SpanHash)
}

func TestPending_RespectsCooldown(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertFile(types.File{Path: "a.py", ContentHash: "h1", ModTime: time.Now(), Language: "python"}))
	a := mkSpan("a.py", "foo", "def foo(): pass", 1, 2)
	_, err := s.ReplaceSpans("a.py", []types.Span{a})
	require.NoError(t, err)

	require.NoError(t, s.Enqueue(a.SpanHash, "a.py", types.WorkEnrich))

	items, err := s.Pending(types.WorkEnrich, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, s.RecordAttempt(items[0].ID, time.Now().Add(time.Hour)))
	items, err = s.Pending(types.WorkEnrich, 10, 0)
	require.NoError(t, err)
	require.Empty(t, items)
}
