package retrieval

import (
	"github.com/llmc/ragcore/internal/types"
)

// Source identifies where an envelope's items came from, so callers can
// decide whether to trust graph-derived data on the result.
type Source string

const (
	SourceRAG           Source = "rag"
	SourceLocalFallback Source = "local_fallback"
)

// Item is one ranked result (step 6 of the pipeline).
type Item struct {
	Path            string
	Symbol          string
	StartLine       int
	EndLine         int
	SpanHash        string
	ScoreRaw        float64
	ScoreNormalized float64 // 0-100, for display only
	Summary         string
	Evidence        []types.EvidenceRef
}

// Envelope is the meta-plus-results wrapper every retrieval operation
// returns, so callers always know whether to trust the result (freshness)
// and never have to special-case a fallback response's shape.
type Envelope struct {
	Status         string
	Source         Source
	FreshnessState types.IndexState
	IndexStatus    *types.IndexStatus
	Items          []Item
}

// Query is a retrieval request: free text plus optional narrowing filters.
type Query struct {
	Text   string
	Path   string
	Lang   string
	Kind   string
	Limit  int
}
