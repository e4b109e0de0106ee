package retrieval

import (
	"path/filepath"
	"strings"

	"github.com/llmc/ragcore/internal/config"
	"github.com/llmc/ragcore/internal/schemagraph"
	"github.com/llmc/ragcore/internal/store"
	"github.com/llmc/ragcore/internal/types"
)

// fused is one candidate's score as it moves through fusion and boosting,
// keyed by span hash so lexical and dense hits for the same span merge.
type fused struct {
	hit      store.LexicalHit
	lexical  float64 // higher is better (BM25 rank inverted)
	dense    float64 // dot product, higher is better
	combined float64
}

const (
	defaultLexicalWeight = 0.6
	defaultDenseWeight   = 0.4

	testsPathPenalty  = -5.0
	vendorPathPenalty = -10.0
	codeExtBoost      = 3.0
	graphNeighborBoost = 4.0
)

// fuseScores combines lexical and dense rankings into one ordered list
// (pipeline step 4). Lexical hits missing a dense score (no embedding yet,
// or the model changed) still rank, just without the dense contribution.
func fuseScores(hits []store.LexicalHit, vectorHits []store.VectorHit, weights map[string]float64) []fused {
	lexWeight, denseWeight := defaultLexicalWeight, defaultDenseWeight
	if w, ok := weights["lexical"]; ok {
		lexWeight = w
	}
	if w, ok := weights["dense"]; ok {
		denseWeight = w
	}

	denseByHash := make(map[string]float64, len(vectorHits))
	for _, vh := range vectorHits {
		denseByHash[vh.SpanHash] = vh.Score
	}

	out := make([]fused, 0, len(hits))
	for rank, h := range hits {
		// BM25 in sqlite fts5 is lower-is-better; invert to a bounded
		// higher-is-better score using rank position as a stable proxy
		// when raw BM25 magnitudes aren't comparable across queries.
		lexScore := 1.0 / float64(rank+1)
		dense := denseByHash[h.SpanHash]
		out = append(out, fused{
			hit:      h,
			lexical:  lexScore,
			dense:    dense,
			combined: lexWeight*lexScore + denseWeight*dense,
		})
	}
	return out
}

// applyBoosts adds path-pattern, extension, and graph-neighbor-expansion
// boosts to fused candidates (pipeline step 5), mutating combined in place.
func applyBoosts(candidates []fused, cfg *config.Config, graph *schemagraph.Graph) {
	strongHashes := make(map[string]bool)
	for i := range candidates {
		if candidates[i].combined > 0 {
			strongHashes[candidates[i].hit.SpanHash] = true
		}
	}

	neighbors := graphNeighborSymbols(candidates, graph, strongHashes)

	for i := range candidates {
		c := &candidates[i]
		c.combined += pathBoost(c.hit.File, cfg)
		c.combined += extensionBoost(c.hit.File, c.hit.Kind)
		if neighbors[c.hit.Symbol] {
			c.combined += graphNeighborBoost
		}
	}
}

func pathBoost(file string, cfg *config.Config) float64 {
	lower := strings.ToLower(file)
	boost := 0.0
	if strings.Contains(lower, "test") {
		boost += testsPathPenalty
	}
	if strings.Contains(lower, "vendor/") || strings.Contains(lower, "node_modules/") {
		boost += vendorPathPenalty
	}
	if w := cfg.PathWeight(file); w != 0 {
		boost -= float64(w) // lower configured weight = higher priority
	}
	return boost
}

func extensionBoost(file, kind string) float64 {
	ext := strings.ToLower(filepath.Ext(file))
	switch ext {
	case ".md", ".rst", ".txt":
		return 0
	default:
		if kind == string(types.SpanDocSection) {
			return 0
		}
		return codeExtBoost
	}
}

// graphNeighborSymbols lifts symbols reachable within one hop in the
// schema graph from a "strong" initial hit (any candidate already scoring
// above zero before boosts), so a span calling or called by a top match
// rises even if it didn't score well on its own.
func graphNeighborSymbols(candidates []fused, graph *schemagraph.Graph, strongHashes map[string]bool) map[string]bool {
	neighbors := make(map[string]bool)
	if graph == nil {
		return neighbors
	}

	bySpan := make(map[string]string, len(candidates)) // span_hash -> symbol
	for _, c := range candidates {
		bySpan[c.hit.SpanHash] = c.hit.Symbol
	}

	for spanHash, symbol := range bySpan {
		if !strongHashes[spanHash] {
			continue
		}
		entity, ok := graph.FindEntity(symbol)
		if !ok {
			continue
		}
		for _, rel := range graph.OutboundEdges(entity.ID()) {
			neighbors[rel.To.QualifiedName] = true
		}
		for _, rel := range graph.InboundEdges(entity.ID()) {
			neighbors[rel.From.QualifiedName] = true
		}
	}
	return neighbors
}
