// Package retrieval implements the query pipeline: a freshness gate over
// IndexStatus, BM25 lexical candidates, dense rescoring, rank fusion,
// signal boosts, and the result envelope every caller sees, plus the
// derived operations (where_used, lineage, inspect) that reuse it.
package retrieval

import (
	"context"
	"sort"

	"github.com/llmc/ragcore/internal/config"
	"github.com/llmc/ragcore/internal/embedding"
	"github.com/llmc/ragcore/internal/logging"
	"github.com/llmc/ragcore/internal/schemagraph"
	"github.com/llmc/ragcore/internal/store"
	"github.com/llmc/ragcore/internal/types"
)

// defaultLexicalCandidates is K_L from the pipeline spec: the number of
// BM25 candidates carried into dense rescoring.
const defaultLexicalCandidates = 200

// Pipeline answers queries against one repository's store, graph, and
// embedding engine. It never writes to the store.
type Pipeline struct {
	Store      *store.Store
	Graph      *schemagraph.Graph
	Embedder   embedding.Engine
	Config     *config.Config
	RepoName   string
	RepoRoot   string
	StatusPath string
}

// Query runs the full six-step pipeline, or falls back to a live scan if
// the freshness gate rejects the current index.
func (p *Pipeline) Query(ctx context.Context, q Query) (Envelope, error) {
	status, isFresh := checkFreshness(ctx, p.StatusPath, p.RepoRoot)

	if !isFresh {
		items, err := localFallbackScan(ctx, p.RepoRoot, q)
		if err != nil {
			return Envelope{}, err
		}
		return Envelope{
			Status:         "ok",
			Source:         SourceLocalFallback,
			FreshnessState: effectiveFreshnessState(status, isFresh),
			IndexStatus:    &status,
			Items:          items,
		}, nil
	}

	items, err := p.runRAG(ctx, q)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Status:         "ok",
		Source:         SourceRAG,
		FreshnessState: status.IndexState,
		IndexStatus:    &status,
		Items:          items,
	}, nil
}

func (p *Pipeline) runRAG(ctx context.Context, q Query) ([]Item, error) {
	log := logging.For(logging.CategoryRetrieval)

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	filters := store.Filters{PathGlob: q.Path, Language: q.Lang, Kind: q.Kind}

	lexHits, err := p.Store.SearchLexical(q.Text, filters, defaultLexicalCandidates)
	if err != nil {
		return nil, err
	}
	if len(lexHits) == 0 {
		return nil, nil
	}

	var vectorHits []store.VectorHit
	if p.Embedder != nil {
		candidates := make([]string, len(lexHits))
		for i, h := range lexHits {
			candidates[i] = h.SpanHash
		}
		queryVec, err := p.Embedder.Embed(ctx, q.Text)
		if err != nil {
			log.Warnw("query embedding failed, falling back to lexical-only ranking", "err", err)
		} else {
			vectorHits, err = p.Store.SearchVector(queryVec, p.Embedder.Name(), candidates, len(candidates))
			if err != nil {
				log.Warnw("dense rescoring failed, falling back to lexical-only ranking", "err", err)
				vectorHits = nil
			}
		}
	}

	fusedHits := fuseScores(lexHits, vectorHits, p.Config.Routing.Weights)
	applyBoosts(fusedHits, p.Config, p.Graph)

	sort.SliceStable(fusedHits, func(i, j int) bool { return fusedHits[i].combined > fusedHits[j].combined })
	if len(fusedHits) > limit {
		fusedHits = fusedHits[:limit]
	}

	return toItems(p.Store, fusedHits), nil
}

// toItems converts ranked fused candidates into the result envelope shape,
// attaching span lines and any stored enrichment summary. Missing
// enrichment is not an error: not every span has been enriched yet.
func toItems(s *store.Store, hits []fused) []Item {
	if len(hits) == 0 {
		return nil
	}

	minScore, maxScore := hits[0].combined, hits[0].combined
	for _, h := range hits {
		if h.combined < minScore {
			minScore = h.combined
		}
		if h.combined > maxScore {
			maxScore = h.combined
		}
	}

	items := make([]Item, 0, len(hits))
	for _, h := range hits {
		span, err := s.GetSpan(h.hit.SpanHash)
		startLine, endLine := span.StartLine, span.EndLine
		if err != nil {
			startLine, endLine = 0, 0
		}

		var summary string
		var evidence []types.EvidenceRef
		if e, err := s.GetEnrichment(h.hit.SpanHash); err == nil {
			summary = e.Summary
			evidence = e.Evidence
		}

		items = append(items, Item{
			Path:            h.hit.File,
			Symbol:          h.hit.Symbol,
			StartLine:       startLine,
			EndLine:         endLine,
			SpanHash:        h.hit.SpanHash,
			ScoreRaw:        h.combined,
			ScoreNormalized: normalize(h.combined, minScore, maxScore),
			Summary:         summary,
			Evidence:        evidence,
		})
	}
	return items
}

func normalize(score, min, max float64) float64 {
	if max <= min {
		return 100
	}
	return (score - min) / (max - min) * 100
}
