// Package enrichment drives the backend cascade that annotates spans with
// structured summaries: backend adapters, chain cascading, the per-span
// state machine, validation, routing, reliability middleware, and
// post-commit quality scoring.
package enrichment

import (
	"context"

	"github.com/llmc/ragcore/internal/ragerr"
)

// Tier is a backend's declared cost/capability label (e.g. "local-7b",
// "remote-premium"), used for routing and logging.
type Tier string

// CompletionRequest is a single span enrichment attempt.
type CompletionRequest struct {
	SpanHash string
	Prompt   string
	Options  CompletionOptions
}

// CompletionOptions tunes a single backend call.
type CompletionOptions struct {
	MaxTokens   int
	Temperature float64
}

// CompletionResult is a backend's raw text response plus token accounting,
// before schema validation.
type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Backend is a uniform adapter over one enrichment provider. Failures are
// reported as *ragerr.Error with Kind set to a BackendKind (failure
// taxonomy); callers recover it via backendKindOf.
type Backend interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
	Tier() Tier
}

// backendKindOf extracts the BackendKind from a Backend.Complete error, or
// BackendTransportError if the error wasn't produced via ragerr.Backend.
func backendKindOf(err error) ragerr.BackendKind {
	if rerr, ok := err.(*ragerr.Error); ok && rerr.Code == ragerr.CodeBackend && rerr.Kind != "" {
		return ragerr.BackendKind(rerr.Kind)
	}
	return ragerr.BackendTransportError
}
