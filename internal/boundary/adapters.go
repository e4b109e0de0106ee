package boundary

import (
	"context"

	"github.com/llmc/ragcore/internal/indexstatus"
	"github.com/llmc/ragcore/internal/retrieval"
	"github.com/llmc/ragcore/internal/sync"
	"github.com/llmc/ragcore/internal/types"
)

// QueryAdapter wraps a *retrieval.Pipeline to satisfy QueryService. The
// pipeline's methods already match the interface signature exactly; the
// adapter still exists as its own named type so callers depend on
// QueryService, not on internal/retrieval's package surface.
type QueryAdapter struct {
	Pipeline *retrieval.Pipeline
}

func NewQueryAdapter(p *retrieval.Pipeline) *QueryAdapter {
	return &QueryAdapter{Pipeline: p}
}

func (a *QueryAdapter) Query(ctx context.Context, q retrieval.Query) (retrieval.Envelope, error) {
	return a.Pipeline.Query(ctx, q)
}

func (a *QueryAdapter) WhereUsed(symbol string) ([]types.Relation, error) {
	return a.Pipeline.WhereUsed(symbol)
}

func (a *QueryAdapter) Lineage(symbol string, dir retrieval.LineageDirection, maxDepth int) ([]types.Relation, error) {
	return a.Pipeline.Lineage(symbol, dir, maxDepth)
}

func (a *QueryAdapter) Inspect(symbolOrPath string, includeSource bool) (retrieval.InspectResult, error) {
	return a.Pipeline.Inspect(symbolOrPath, includeSource)
}

var _ QueryService = (*QueryAdapter)(nil)

// IndexAdapter wraps a *sync.Controller to satisfy IndexService: a single
// synchronous cycle, plus the freshness record that cycle produced.
type IndexAdapter struct {
	Controller *sync.Controller
	StatusPath string
}

func NewIndexAdapter(c *sync.Controller, statusPath string) *IndexAdapter {
	return &IndexAdapter{Controller: c, StatusPath: statusPath}
}

func (a *IndexAdapter) UpsertFile(ctx context.Context) (sync.CycleStats, error) {
	stats := a.Controller.RunOnce(ctx)
	return stats, stats.Err
}

func (a *IndexAdapter) Status() (types.IndexStatus, error) {
	return indexstatus.Load(a.StatusPath)
}

var _ IndexService = (*IndexAdapter)(nil)

// SyncAdapter wraps a *sync.Controller to satisfy SyncService.
type SyncAdapter struct {
	Controller *sync.Controller
}

func NewSyncAdapter(c *sync.Controller) *SyncAdapter {
	return &SyncAdapter{Controller: c}
}

func (a *SyncAdapter) Start(ctx context.Context) error { return a.Controller.Start(ctx) }
func (a *SyncAdapter) Stop()                           { a.Controller.Stop() }
func (a *SyncAdapter) Status() sync.CycleStats         { return a.Controller.LastStats() }

var _ SyncService = (*SyncAdapter)(nil)
