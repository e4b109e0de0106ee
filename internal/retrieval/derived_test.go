package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmc/ragcore/internal/schemagraph"
	"github.com/llmc/ragcore/internal/store"
	"github.com/llmc/ragcore/internal/types"
)

func buildTestPipeline(t *testing.T) (*Pipeline, *store.Store) {
	t.Helper()
	s := openRetrievalTestStore(t)

	spans := []types.Span{
		{SpanHash: "h-foo", File: "a.go", Symbol: "Foo", Kind: types.SpanFunction, Language: "go",
			StartLine: 1, EndLine: 3, ByteStart: 0, ByteEnd: 21, Content: "func Foo() {\n\tBar()\n}"},
		{SpanHash: "h-bar", File: "a.go", Symbol: "Bar", Kind: types.SpanFunction, Language: "go",
			StartLine: 5, EndLine: 5, ByteStart: 23, ByteEnd: 36, Content: "func Bar() {}"},
		{SpanHash: "h-foobar", File: "b.go", Symbol: "pkg.FooBar", Kind: types.SpanFunction, Language: "go",
			StartLine: 1, EndLine: 1, ByteStart: 0, ByteEnd: 16, Content: "func FooBar() {}"},
	}
	// ReplaceSpans replaces a file's whole span set, so spans are stored
	// one call per file.
	byFile := map[string][]types.Span{}
	for _, sp := range spans {
		byFile[sp.File] = append(byFile[sp.File], sp)
	}
	for file, fileSpans := range byFile {
		require.NoError(t, s.UpsertFile(types.File{Path: file, ContentHash: file}))
		_, err := s.ReplaceSpans(file, fileSpans)
		require.NoError(t, err)
	}

	graph, err := schemagraph.Build(spans)
	require.NoError(t, err)

	return &Pipeline{Store: s, Graph: graph, RepoRoot: t.TempDir()}, s
}

func TestResolveSymbol_ExactBeatsSubstring(t *testing.T) {
	p, _ := buildTestPipeline(t)

	e, ok := p.resolveSymbol("Foo")
	require.True(t, ok)
	assert.Equal(t, "Foo", e.QualifiedName)
}

func TestResolveSymbol_NoMatchReturnsFalse(t *testing.T) {
	p, _ := buildTestPipeline(t)
	_, ok := p.resolveSymbol("DoesNotExist")
	assert.False(t, ok)
}

func TestWhereUsed_FindsCaller(t *testing.T) {
	p, _ := buildTestPipeline(t)
	rels, err := p.WhereUsed("Bar")
	require.NoError(t, err)
	require.NotEmpty(t, rels)
	assert.Equal(t, "Foo", rels[0].From.QualifiedName)
}

func TestWhereUsed_UnknownSymbolErrors(t *testing.T) {
	p, _ := buildTestPipeline(t)
	_, err := p.WhereUsed("Nope")
	assert.Error(t, err)
}

func TestLineage_CalleesWalksOutbound(t *testing.T) {
	p, _ := buildTestPipeline(t)
	rels, err := p.Lineage("Foo", LineageCallees, 2)
	require.NoError(t, err)
	require.NotEmpty(t, rels)
	assert.Equal(t, "Bar", rels[0].To.QualifiedName)
}

func TestLineage_CallersWalksInbound(t *testing.T) {
	p, _ := buildTestPipeline(t)
	rels, err := p.Lineage("Bar", LineageCallers, 2)
	require.NoError(t, err)
	require.NotEmpty(t, rels)
	assert.Equal(t, "Foo", rels[0].From.QualifiedName)
}

func TestInspect_WithoutSource(t *testing.T) {
	p, _ := buildTestPipeline(t)
	result, err := p.Inspect("Foo", false)
	require.NoError(t, err)
	assert.Equal(t, "h-foo", result.Span.SpanHash)
	assert.Empty(t, result.Source)
	assert.NotEmpty(t, result.Callees)
}

func TestInspect_UnknownSymbolErrors(t *testing.T) {
	p, _ := buildTestPipeline(t)
	_, err := p.Inspect("Nope", false)
	assert.Error(t, err)
}
