// Package boundary defines the narrow interfaces through which
// out-of-process or out-of-package collaborators (a CLI, an MCP server, a
// bundle generator) reach the query pipeline and sync controller, without
// importing internal/retrieval or internal/sync directly.
package boundary

import (
	"context"

	"github.com/llmc/ragcore/internal/retrieval"
	"github.com/llmc/ragcore/internal/sync"
	"github.com/llmc/ragcore/internal/types"
)

// QueryService answers read-only questions against one repository's
// current index: ranked search plus the derived symbol operations.
type QueryService interface {
	Query(ctx context.Context, q retrieval.Query) (retrieval.Envelope, error)
	WhereUsed(symbol string) ([]types.Relation, error)
	Lineage(symbol string, dir retrieval.LineageDirection, maxDepth int) ([]types.Relation, error)
	Inspect(symbolOrPath string, includeSource bool) (retrieval.InspectResult, error)
}

// IndexService drives a one-shot indexing pass and reports the
// repository's current freshness record, without starting the
// background daemon.
type IndexService interface {
	UpsertFile(ctx context.Context) (sync.CycleStats, error)
	Status() (types.IndexStatus, error)
}

// SyncService starts, stops, and reports on the background daemon loop.
type SyncService interface {
	Start(ctx context.Context) error
	Stop()
	Status() sync.CycleStats
}
