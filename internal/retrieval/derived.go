package retrieval

import (
	"sort"
	"strings"

	"github.com/llmc/ragcore/internal/pathsafe"
	"github.com/llmc/ragcore/internal/ragerr"
	"github.com/llmc/ragcore/internal/types"
)

// matchTier ranks how a candidate symbol matched a query, used to break
// ties when several entities share a suffix or substring.
type matchTier int

const (
	tierNone matchTier = iota
	tierSubstring
	tierSuffix
	tierCaseInsensitive
	tierExact
)

// resolveSymbol scores every entity in the graph against name using
// exact > case-insensitive > suffix > substring matching, returning the
// best match. Ties are broken by importance, then by name for determinism.
func (p *Pipeline) resolveSymbol(name string) (types.Entity, bool) {
	var best types.Entity
	bestTier := tierNone
	found := false

	for _, e := range p.Graph.Entities {
		tier := matchTierFor(e.QualifiedName, name)
		if tier == tierNone {
			continue
		}
		if !found || tier > bestTier || (tier == bestTier && e.Importance > best.Importance) {
			best, bestTier, found = e, tier, true
		}
	}
	return best, found
}

func matchTierFor(candidate, query string) matchTier {
	switch {
	case candidate == query:
		return tierExact
	case strings.EqualFold(candidate, query):
		return tierCaseInsensitive
	case strings.HasSuffix(candidate, query):
		return tierSuffix
	case strings.Contains(candidate, query):
		return tierSubstring
	default:
		return tierNone
	}
}

// WhereUsed resolves symbol against the entity table and enumerates
// inbound CALLS/REFERENCES edges with evidence.
func (p *Pipeline) WhereUsed(symbol string) ([]types.Relation, error) {
	entity, ok := p.resolveSymbol(symbol)
	if !ok {
		return nil, ragerr.NotFound("no entity matches symbol: " + symbol)
	}
	rels := p.Graph.InboundEdges(entity.ID(), types.RelCalls, types.RelReferences)
	sortRelationsByFile(rels)
	return rels, nil
}

// LineageDirection selects which edge direction Lineage walks.
type LineageDirection string

const (
	LineageCallers LineageDirection = "callers"
	LineageCallees LineageDirection = "callees"
)

// Lineage performs a breadth-first walk over the schema graph from symbol
// in the given direction, capped at maxDepth hops.
func (p *Pipeline) Lineage(symbol string, dir LineageDirection, maxDepth int) ([]types.Relation, error) {
	entity, ok := p.resolveSymbol(symbol)
	if !ok {
		return nil, ragerr.NotFound("no entity matches symbol: " + symbol)
	}
	if maxDepth <= 0 {
		maxDepth = 3
	}

	visited := map[types.EntityID]bool{entity.ID(): true}
	frontier := []types.EntityID{entity.ID()}
	var all []types.Relation

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []types.EntityID
		for _, id := range frontier {
			var rels []types.Relation
			if dir == LineageCallees {
				rels = p.Graph.OutboundEdges(id, types.RelCalls)
			} else {
				rels = p.Graph.InboundEdges(id, types.RelCalls)
			}
			for _, rel := range rels {
				all = append(all, rel)
				target := rel.To
				if dir != LineageCallees {
					target = rel.From
				}
				if !visited[target] {
					visited[target] = true
					next = append(next, target)
				}
			}
		}
		frontier = next
	}

	sortRelationsByFile(all)
	return all, nil
}

// InspectResult is the full detail view behind `ragd inspect`.
type InspectResult struct {
	Span       types.Span
	Enrichment *types.Enrichment
	Callers    []types.Relation
	Callees    []types.Relation
	Source     string
}

// Inspect returns the defining span for symbol, its enrichment, and its
// CALLS callers/callees in graph order. A path-shaped argument is checked
// by pathsafe against the repository root and then resolved like a symbol;
// a file's spans are not listed. Any on-disk read is routed through
// pathsafe to reject escapes from the repository root.
func (p *Pipeline) Inspect(symbolOrPath string, includeSource bool) (InspectResult, error) {
	if looksLikePath(symbolOrPath) {
		if _, err := pathsafe.Resolve(p.RepoRoot, symbolOrPath); err != nil {
			return InspectResult{}, err
		}
	}

	entity, ok := p.resolveSymbol(symbolOrPath)
	if !ok {
		return InspectResult{}, ragerr.NotFound("no entity matches symbol or path: " + symbolOrPath)
	}

	span, err := p.Store.GetSpan(entity.DefiningSpan)
	if err != nil {
		return InspectResult{}, err
	}

	result := InspectResult{Span: span}
	if e, err := p.Store.GetEnrichment(span.SpanHash); err == nil {
		result.Enrichment = &e
	}
	result.Callers = p.Graph.InboundEdges(entity.ID(), types.RelCalls)
	result.Callees = p.Graph.OutboundEdges(entity.ID(), types.RelCalls)

	if includeSource {
		if _, err := pathsafe.Resolve(p.RepoRoot, span.File); err != nil {
			return InspectResult{}, err
		}
		result.Source = span.Content
	}
	return result, nil
}

// looksLikePath distinguishes a file-path-shaped argument (has a separator,
// or a leading dot) from a bare symbol name, so path-escape rejection runs
// before symbol resolution gets a chance to return NotFound first.
func looksLikePath(s string) bool {
	return strings.ContainsAny(s, "/\\") || strings.HasPrefix(s, ".")
}

func sortRelationsByFile(rels []types.Relation) {
	sort.Slice(rels, func(i, j int) bool {
		if rels[i].File != rels[j].File {
			return rels[i].File < rels[j].File
		}
		return rels[i].Line < rels[j].Line
	})
}
