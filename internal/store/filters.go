package store

// Filters narrows a lexical search to spans matching a path glob, language
// and kind. There is no per-file freshness filter, and SearchVector takes no
// Filters.
type Filters struct {
	PathGlob string
	Language string
	Kind     string
}

// LexicalHit is one BM25-ranked row from SearchLexical.
type LexicalHit struct {
	SpanHash string
	File     string
	Symbol   string
	Kind     string
	Language string
	BM25     float64 // lower is better, sqlite fts5 convention
}

// VectorHit is one ranked row from SearchVector: a dot product in the pure-Go
// path, a negated cosine distance when sqlite-vec is active.
type VectorHit struct {
	SpanHash string
	Score    float64
}

// WorkItemRow is a flat work-item row. Pending returns types.WorkItem, not
// this type.
type WorkItemRow struct {
	ID            int64
	SpanHash      string
	File          string
	Kind          string
	AttemptCount  int
}

// ReplaceResult reports the differential outcome of ReplaceSpans: which
// spans were unchanged, newly added, or deleted.
type ReplaceResult struct {
	Unchanged []string // span_hash
	Added     []string
	Deleted   []string
}

// GCResult reports rows removed by GarbageCollect.
type GCResult struct {
	EmbeddingsRemoved  int64
	EnrichmentsRemoved int64
}
