// Package schemagraph derives entities (symbols) and typed relations (calls,
// imports, extends, references) from spans. The graph is serialized as
// a single JSON snapshot beside the store and rebuilt after each sync cycle;
// no partial incremental update is required.
package schemagraph

import (
	"encoding/json"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/llmc/ragcore/internal/logging"
	"github.com/llmc/ragcore/internal/ragerr"
	"github.com/llmc/ragcore/internal/types"
)

// Graph is the serializable schema-graph snapshot.
type Graph struct {
	Entities  []types.Entity   `json:"entities"`
	Relations []types.Relation `json:"relations"`
}

// admonitionPatterns maps a documentation admonition marker to the relation
// kind it emits, a pattern table over span body text applied here to a
// documentation-specific vocabulary.
var admonitionPatterns = []struct {
	marker string
	kind   types.RelationKind
}{
	{"> **Requires:**", types.RelRequires},
	{"> **Requires**:", types.RelRequires},
	{"> **Warning:**", types.RelWarnsAbout},
	{"> **Warning**:", types.RelWarnsAbout},
	{"> **Caution:**", types.RelWarnsAbout},
}

// Build derives a full Graph from the live spans of a repository. Callers
// pass every span currently in the store (spec: "given spans and their
// text"); Build does not read the store itself so it stays independently
// testable.
func Build(spans []types.Span) (*Graph, error) {
	log := logging.For(logging.CategorySchema)

	g := &Graph{}
	entityIndex := make(map[types.EntityID]*types.Entity)

	for _, sp := range spans {
		ent := entityFor(sp)
		if ent == nil {
			continue
		}
		entityIndex[ent.ID()] = ent
	}

	for _, sp := range spans {
		switch sp.Language {
		case "go":
			rels := goRelations(sp)
			g.Relations = append(g.Relations, rels...)
		}
		if sp.Kind == types.SpanDocSection {
			g.Relations = append(g.Relations, docRelations(sp)...)
		}
	}

	scoreImportance(entityIndex, g.Relations)

	for _, e := range entityIndex {
		g.Entities = append(g.Entities, *e)
	}
	sortEntities(g.Entities)
	sortRelations(g.Relations)

	log.Infow("graph built", "entities", len(g.Entities), "relations", len(g.Relations))
	return g, nil
}

func entityFor(sp types.Span) *types.Entity {
	var kind types.EntityKind
	switch sp.Kind {
	case types.SpanFunction, types.SpanMethod:
		kind = types.EntityFunction
	case types.SpanClass, types.SpanInterface:
		kind = types.EntityClass
	case types.SpanVar, types.SpanConst:
		kind = types.EntityVariable
	case types.SpanDocSection:
		kind = types.EntityModule
	default:
		return nil
	}
	return &types.Entity{
		QualifiedName: sp.Symbol,
		Kind:          kind,
		DefiningSpan:  sp.SpanHash,
		Public:        isPublic(sp.Symbol),
	}
}

func isPublic(name string) bool {
	last := name
	if i := strings.LastIndex(name, "."); i >= 0 {
		last = name[i+1:]
	}
	if last == "" {
		return false
	}
	r := []rune(last)[0]
	return r >= 'A' && r <= 'Z'
}

// goRelations walks a Go span's source a second time (CALLS, IMPORTS,
// EXTENDS via embedded fields) with an ast.Inspect pass over
// FuncDecl/CallExpr nodes.
func goRelations(sp types.Span) []types.Relation {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, "", "package p\n"+sp.Content, parser.ParseComments)
	if err != nil {
		return nil
	}

	var rels []types.Relation
	var currentFunc string

	ast.Inspect(node, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.FuncDecl:
			currentFunc = sp.Symbol
		case *ast.ImportSpec:
			importPath := strings.Trim(x.Path.Value, `"`)
			rels = append(rels, types.Relation{
				From:       types.EntityID{QualifiedName: sp.Symbol, Kind: types.EntityModule},
				To:         types.EntityID{QualifiedName: importPath, Kind: types.EntityModule},
				Kind:       types.RelImports,
				File:       sp.File,
				Line:       sp.StartLine,
				Confidence: 1.0,
			})
		case *ast.TypeSpec:
			if st, ok := x.Type.(*ast.StructType); ok {
				for _, field := range st.Fields.List {
					if len(field.Names) != 0 {
						continue // not embedded
					}
					if ident, ok := field.Type.(*ast.Ident); ok {
						rels = append(rels, types.Relation{
							From:       types.EntityID{QualifiedName: x.Name.Name, Kind: types.EntityClass},
							To:         types.EntityID{QualifiedName: ident.Name, Kind: types.EntityClass},
							Kind:       types.RelExtends,
							File:       sp.File,
							Line:       fset.Position(field.Pos()).Line,
							Confidence: 0.9,
						})
					}
				}
			}
		case *ast.CallExpr:
			if currentFunc == "" {
				return true
			}
			var callee string
			switch fn := x.Fun.(type) {
			case *ast.Ident:
				callee = fn.Name
			case *ast.SelectorExpr:
				if recv, ok := fn.X.(*ast.Ident); ok {
					callee = recv.Name + "." + fn.Sel.Name
				}
			}
			if callee != "" {
				rels = append(rels, types.Relation{
					From:       types.EntityID{QualifiedName: currentFunc, Kind: types.EntityFunction},
					To:         types.EntityID{QualifiedName: callee, Kind: types.EntityFunction},
					Kind:       types.RelCalls,
					File:       sp.File,
					Line:       fset.Position(x.Pos()).Line,
					Confidence: 0.8,
				})
			}
		}
		return true
	})
	return rels
}

// docRelations detects inline references to code symbols (backtick
// identifiers) in a documentation span and any recognized admonition
// patterns.
func docRelations(sp types.Span) []types.Relation {
	var rels []types.Relation

	for _, pat := range admonitionPatterns {
		if strings.Contains(sp.Content, pat.marker) {
			rels = append(rels, types.Relation{
				From:       types.EntityID{QualifiedName: sp.Symbol, Kind: types.EntityModule},
				To:         types.EntityID{QualifiedName: sp.Symbol, Kind: types.EntityModule},
				Kind:       pat.kind,
				File:       sp.File,
				Line:       sp.StartLine,
				Confidence: 0.6,
			})
		}
	}

	for _, ident := range backtickIdentifiers(sp.Content) {
		rels = append(rels, types.Relation{
			From:       types.EntityID{QualifiedName: sp.Symbol, Kind: types.EntityModule},
			To:         types.EntityID{QualifiedName: ident, Kind: types.EntityFunction},
			Kind:       types.RelReferences,
			File:       sp.File,
			Line:       sp.StartLine,
			Confidence: 0.5,
		})
	}
	return rels
}

func backtickIdentifiers(content string) []string {
	var out []string
	inTick := false
	var cur strings.Builder
	for _, r := range content {
		if r == '`' {
			if inTick && cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
			inTick = !inTick
			continue
		}
		if inTick {
			cur.WriteRune(r)
		}
	}
	return out
}

// scoreImportance computes each entity's importance: classes outrank
// functions outrank variables, public outranks private, and in-degree
// additively boosts. Span size does not enter the score.
func scoreImportance(entities map[types.EntityID]*types.Entity, relations []types.Relation) {
	inDegree := make(map[types.EntityID]int)
	for _, r := range relations {
		inDegree[r.To]++
	}

	for id, e := range entities {
		score := 0.0
		switch e.Kind {
		case types.EntityClass:
			score += 3
		case types.EntityFunction:
			score += 2
		case types.EntityModule:
			score += 1.5
		case types.EntityVariable:
			score += 1
		}
		if e.Public {
			score += 1
		}
		score += float64(inDegree[id]) * 0.25
		e.Importance = score
	}
}

func sortEntities(e []types.Entity) {
	sort.Slice(e, func(i, j int) bool {
		if e[i].Importance != e[j].Importance {
			return e[i].Importance > e[j].Importance
		}
		return e[i].QualifiedName < e[j].QualifiedName
	})
}

func sortRelations(r []types.Relation) {
	sort.Slice(r, func(i, j int) bool {
		if r[i].From.QualifiedName != r[j].From.QualifiedName {
			return r[i].From.QualifiedName < r[j].From.QualifiedName
		}
		return r[i].To.QualifiedName < r[j].To.QualifiedName
	})
}

// Save writes the snapshot to path (rag_graph.json) as a single JSON document.
func (g *Graph) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ragerr.Store("failed to create graph snapshot directory", err)
	}
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return ragerr.Internal("failed to marshal graph snapshot", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return ragerr.Store("failed to write graph snapshot", err)
	}
	return os.Rename(tmp, path)
}

// Load reads a previously-saved snapshot.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Graph{}, nil
		}
		return nil, ragerr.Store("failed to read graph snapshot", err)
	}
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, ragerr.Internal("failed to parse graph snapshot", err)
	}
	return &g, nil
}

// InboundEdges returns relations of the given kinds whose To endpoint
// matches id, used by where_used and lineage in retrieval.
func (g *Graph) InboundEdges(id types.EntityID, kinds ...types.RelationKind) []types.Relation {
	want := make(map[types.RelationKind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	var out []types.Relation
	for _, r := range g.Relations {
		if r.To != id {
			continue
		}
		if len(want) > 0 && !want[r.Kind] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// OutboundEdges returns relations whose From endpoint matches id.
func (g *Graph) OutboundEdges(id types.EntityID, kinds ...types.RelationKind) []types.Relation {
	want := make(map[types.RelationKind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	var out []types.Relation
	for _, r := range g.Relations {
		if r.From != id {
			continue
		}
		if len(want) > 0 && !want[r.Kind] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FindEntity resolves a symbol against the entity table using a scored
// matcher: exact > case-insensitive > suffix > substring.
func (g *Graph) FindEntity(symbol string) (types.Entity, bool) {
	lower := strings.ToLower(symbol)

	var best *types.Entity
	bestScore := -1
	for i := range g.Entities {
		e := &g.Entities[i]
		score := -1
		switch {
		case e.QualifiedName == symbol:
			score = 4
		case strings.EqualFold(e.QualifiedName, symbol):
			score = 3
		case strings.HasSuffix(strings.ToLower(e.QualifiedName), lower):
			score = 2
		case strings.Contains(strings.ToLower(e.QualifiedName), lower):
			score = 1
		}
		if score > bestScore {
			bestScore = score
			best = e
		}
	}
	if best == nil || bestScore < 0 {
		return types.Entity{}, false
	}
	return *best, true
}
