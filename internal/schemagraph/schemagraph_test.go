package schemagraph

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmc/ragcore/internal/types"
)

func goSpan(symbol, content string) types.Span {
	return types.Span{
		SpanHash: "h-" + symbol,
		File:     "a.go",
		Symbol:   symbol,
		Kind:     types.SpanFunction,
		Language: "go",
		Content:  content,
	}
}

func TestBuild_DetectsCallsAndImports(t *testing.T) {
	spans := []types.Span{
		{
			SpanHash: "h-imports", File: "a.go", Symbol: "a", Kind: types.SpanBlock, Language: "go",
			Content: `import "fmt"`,
		},
		goSpan("Foo", `func Foo() {
	Bar()
}`),
		goSpan("Bar", `func Bar() {}`),
	}

	g, err := Build(spans)
	require.NoError(t, err)

	calls := g.OutboundEdges(types.EntityID{QualifiedName: "Foo", Kind: types.EntityFunction}, types.RelCalls)
	require.NotEmpty(t, calls)
	assert.Equal(t, "Bar", calls[0].To.QualifiedName)

	imports := g.OutboundEdges(types.EntityID{QualifiedName: "a", Kind: types.EntityModule}, types.RelImports)
	require.NotEmpty(t, imports)
	assert.Equal(t, "fmt", imports[0].To.QualifiedName)
}

func TestBuild_ImportanceOrdering(t *testing.T) {
	spans := []types.Span{
		{SpanHash: "h1", File: "a.py", Symbol: "Klass", Kind: types.SpanClass, Language: "python", Content: "class Klass: pass"},
		{SpanHash: "h2", File: "a.py", Symbol: "helper", Kind: types.SpanVar, Language: "python", Content: "helper = 1"},
	}
	g, err := Build(spans)
	require.NoError(t, err)
	require.Len(t, g.Entities, 2)
	assert.Equal(t, "Klass", g.Entities[0].QualifiedName) // class outranks variable
}

func TestDocRelations_AdmonitionsAndReferences(t *testing.T) {
	spans := []types.Span{
		{
			SpanHash: "h-doc", File: "README.md", Symbol: "## Install", Kind: types.SpanDocSection, Language: "markdown",
			Content: "> **Requires:** `setup()` must run first.",
		},
	}
	g, err := Build(spans)
	require.NoError(t, err)

	req := g.OutboundEdges(types.EntityID{QualifiedName: "## Install", Kind: types.EntityModule}, types.RelRequires)
	assert.NotEmpty(t, req)

	refs := g.OutboundEdges(types.EntityID{QualifiedName: "## Install", Kind: types.EntityModule}, types.RelReferences)
	require.NotEmpty(t, refs)
	assert.Equal(t, "setup()", refs[0].To.QualifiedName)
}

func TestFindEntity_ScoredMatch(t *testing.T) {
	g := &Graph{Entities: []types.Entity{
		{QualifiedName: "pkg.Foo", Kind: types.EntityFunction},
		{QualifiedName: "Foo", Kind: types.EntityFunction},
	}}
	e, ok := g.FindEntity("Foo")
	require.True(t, ok)
	assert.Equal(t, "Foo", e.QualifiedName) // exact match wins over suffix match
}

func TestSaveLoad_RoundTrips(t *testing.T) {
	g := &Graph{Entities: []types.Entity{{QualifiedName: "Foo", Kind: types.EntityFunction, Importance: 2}}}
	path := filepath.Join(t.TempDir(), "rag_graph.json")
	require.NoError(t, g.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Entities, 1)
	assert.Equal(t, "Foo", loaded.Entities[0].QualifiedName)
}

func TestLoad_MissingFileReturnsEmptyGraph(t *testing.T) {
	g, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, g.Entities)
}
