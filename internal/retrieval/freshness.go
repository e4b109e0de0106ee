package retrieval

import (
	"context"

	"github.com/llmc/ragcore/internal/indexstatus"
	"github.com/llmc/ragcore/internal/types"
)

// checkFreshness reads the repository's IndexStatus and decides whether a
// query may proceed through the RAG pipeline or must fall back to a live
// filesystem scan. index_state must be fresh or rebuilding, and the
// recorded commit must match current HEAD; when HEAD can't be resolved
// (no git, or a non-git workspace) the recorded commit is not checked.
func checkFreshness(ctx context.Context, statusPath, repoRoot string) (types.IndexStatus, bool) {
	status, err := indexstatus.Load(statusPath)
	if err != nil {
		return types.IndexStatus{}, false
	}

	switch status.IndexState {
	case types.StateFresh, types.StateRebuilding:
	default:
		return status, false
	}

	head := indexstatus.CurrentHEAD(ctx, repoRoot)
	if head == "" {
		return status, true
	}
	return status, status.LastIndexedCommit == head
}

// effectiveFreshnessState reports the state a caller should see on the
// envelope: a fresh or rebuilding record whose commit no longer matches
// HEAD is stale from the caller's point of view even though the stored
// record hasn't been rewritten to say so.
func effectiveFreshnessState(status types.IndexStatus, isFresh bool) types.IndexState {
	if isFresh {
		return status.IndexState
	}
	switch status.IndexState {
	case types.StateFresh, types.StateRebuilding:
		return types.StateStale
	default:
		return status.IndexState
	}
}
