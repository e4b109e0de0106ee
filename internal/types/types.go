// Package types defines the shared data model of the RAG engine:
// File, Span, Embedding, Enrichment, Entity, Relation, IndexStatus, WorkItem.
//
// Cyclic references (files<->spans<->entities<->relations) are modeled as an
// arena: Entities and Relations hold weak references by SpanHash/QualifiedName
// rather than pointers, so there are no owning cycles.
package types

import "time"

// File is a repository-relative source file tracked by the store.
type File struct {
	Path         string
	ContentHash  string
	ModTime      time.Time
	Language     string
	SidecarPath  string // non-empty if this file has an opaque-format sidecar
}

// SpanKind enumerates the semantic unit kinds a span can represent.
type SpanKind string

const (
	SpanFunction  SpanKind = "function"
	SpanMethod    SpanKind = "method"
	SpanClass     SpanKind = "class"
	SpanInterface SpanKind = "interface"
	SpanTypeAlias SpanKind = "type"
	SpanVar       SpanKind = "var"
	SpanConst     SpanKind = "const"
	SpanBlock     SpanKind = "block"     // top-level block with no better classification
	SpanDocSection SpanKind = "doc_section"
)

// Span is a contiguous, content-addressed semantic unit of a file.
// SpanHash is the primary identity key: independent of location,
// so moving code without editing it preserves identity.
type Span struct {
	SpanHash  string
	File      string
	Symbol    string // qualified symbol name, or heading path for docs
	Kind      SpanKind
	StartLine int
	EndLine   int
	ByteStart int
	ByteEnd   int
	Language  string
	Content   string // normalized content (the hash input)
}

// Key returns the (file, byte_start, byte_end) uniqueness key of a span.
type Key struct {
	File      string
	ByteStart int
	ByteEnd   int
}

func (s Span) Key() Key {
	return Key{File: s.File, ByteStart: s.ByteStart, ByteEnd: s.ByteEnd}
}

// Embedding is a fixed-dimension vector keyed by (span_hash, model_id).
type Embedding struct {
	SpanHash string
	ModelID  string
	Vector   []float32
}

// EvidenceRef back-references a field in an Enrichment to specific lines.
type EvidenceRef struct {
	Field string
	Lines []int
}

// Enrichment is a structured annotation keyed by span_hash.
type Enrichment struct {
	SpanHash      string
	Summary       string
	Inputs        []string
	Outputs       []string
	SideEffects   []string
	Pitfalls      []string
	UsageSnippet  string
	Tags          []string
	Evidence      []EvidenceRef
	ModelID       string
	SchemaVersion int
	CreatedAt     time.Time
}

// EntityKind enumerates derivable named-construct kinds.
type EntityKind string

const (
	EntityFunction EntityKind = "function"
	EntityClass    EntityKind = "class"
	EntityModule   EntityKind = "module"
	EntityVariable EntityKind = "variable"
)

// Entity is a named construct derived from spans during graph build.
// DefiningSpan is a weak reference (span_hash) — no owning pointer.
type Entity struct {
	QualifiedName string
	Kind          EntityKind
	DefiningSpan  string // span_hash
	Importance    float64
	Public        bool
}

// ID returns the stable (qualified_name, kind) identity of an entity.
type EntityID struct {
	QualifiedName string
	Kind          EntityKind
}

func (e Entity) ID() EntityID { return EntityID{QualifiedName: e.QualifiedName, Kind: e.Kind} }

// RelationKind enumerates the typed directed edges of the schema graph.
type RelationKind string

const (
	RelCalls      RelationKind = "CALLS"
	RelImports    RelationKind = "IMPORTS"
	RelExtends    RelationKind = "EXTENDS"
	RelReferences RelationKind = "REFERENCES"
	RelRequires   RelationKind = "REQUIRES"
	RelWarnsAbout RelationKind = "WARNS_ABOUT"
)

// Relation is a typed directed edge between two entities, identified by their
// weak EntityID references: relations borrow entities, they don't own them.
type Relation struct {
	From       EntityID
	To         EntityID
	Kind       RelationKind
	File       string
	Line       int
	Confidence float64
}

// IndexState enumerates per-repository freshness states.
type IndexState string

const (
	StateFresh      IndexState = "fresh"
	StateStale      IndexState = "stale"
	StateRebuilding IndexState = "rebuilding"
	StateError      IndexState = "error"
)

// IndexStatus is the per-repository freshness record, persisted atomically
// (write-temp-then-rename) and read by every retrieval operation.
type IndexStatus struct {
	Repo               string
	IndexState         IndexState
	LastIndexedAt      time.Time
	LastIndexedCommit  string
	SchemaVersion      int
	LastError          string
}

// WorkKind enumerates the pending operations a WorkItem can represent.
type WorkKind string

const (
	WorkIndex  WorkKind = "INDEX"
	WorkEmbed  WorkKind = "EMBED"
	WorkEnrich WorkKind = "ENRICH"
)

// WorkItem ties a span (or file) to a pending operation. Never exists
// without a live span reference.
type WorkItem struct {
	ID             int64
	SpanHash       string
	File           string
	Kind           WorkKind
	AttemptCount   int
	LastAttemptAt  time.Time
	CooldownUntil  time.Time
}
