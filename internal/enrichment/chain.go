package enrichment

import (
	"context"
	"time"

	"github.com/llmc/ragcore/internal/config"
	"github.com/llmc/ragcore/internal/logging"
	"github.com/llmc/ragcore/internal/ragerr"
	"github.com/llmc/ragcore/internal/types"
)

// localTierPrefix distinguishes backends that skip reliability middleware
// (no circuit breaker/rate limit needed against a process on localhost).
const localTierPrefix = "local-"

// Chain is an ordered cascade of backends for one enrichment pass. The
// engine advances to the next backend in order whenever the current one
// fails for a span.
type Chain struct {
	Name               string
	Backends           []Backend
	MaxFailuresPerSpan int
	// StrictValidation enables enforce_latin1_enrichment; schema field
	// presence is always checked regardless of this flag.
	StrictValidation bool
}

// AttemptResult is one backend's outcome within a cascade, used for logging
// tier/tokens/latency.
type AttemptResult struct {
	Tier       Tier
	Result     CompletionResult
	Enrichment types.Enrichment
	Err        error
	Latency    time.Duration
}

// Run attempts the chain starting at startIndex (from routing), advancing on
// failure until a backend succeeds, the chain is exhausted, or ctx is done.
// It returns the full attempt history so the caller can decide whether the
// span should be parked.
func (c *Chain) Run(ctx context.Context, req CompletionRequest, startIndex int) []AttemptResult {
	log := logging.For(logging.CategoryEnrichment)
	var attempts []AttemptResult

	if startIndex < 0 || startIndex >= len(c.Backends) {
		startIndex = 0
	}

	for i := startIndex; i < len(c.Backends); i++ {
		backend := c.Backends[i]
		start := time.Now()
		result, err := backend.Complete(ctx, req)
		latency := time.Since(start)

		var enrichment types.Enrichment
		if err == nil {
			enrichment, err = ParseAndValidate(req.SpanHash, string(backend.Tier()), result.Text, c.StrictValidation)
		}

		attempts = append(attempts, AttemptResult{Tier: backend.Tier(), Result: result, Enrichment: enrichment, Err: err, Latency: latency})

		if err == nil {
			log.Infow("enrichment attempt ok", "chain", c.Name, "tier", backend.Tier(), "span", req.SpanHash, "latency", latency)
			return attempts
		}

		log.Warnw("enrichment attempt failed", "chain", c.Name, "tier", backend.Tier(), "span", req.SpanHash, "latency", latency, "kind", backendKindOf(err), "err", err)

		if backendKindOf(err) == ragerr.BackendAuthError {
			// Fatal to this backend for the session; still allowed to escalate
			// to the next tier.
			continue
		}
		if len(attempts) >= c.MaxFailuresPerSpan {
			break
		}
	}

	return attempts
}

// BuildChain instantiates backends for every enabled entry in name's chain,
// wrapping non-local tiers in reliability middleware.
func BuildChain(entries []config.ChainEntry, name string, maxFailuresPerSpan int, strictValidation bool, apiKeys map[string]string, cost *CostTracker) (*Chain, error) {
	chain := &Chain{Name: name, MaxFailuresPerSpan: maxFailuresPerSpan, StrictValidation: strictValidation}

	for _, e := range entries {
		if e.Chain != name || !e.Enabled {
			continue
		}
		backend, err := backendFromEntry(e, apiKeys[e.Provider])
		if err != nil {
			return nil, err
		}
		if len(e.Name) < len(localTierPrefix) || e.Name[:len(localTierPrefix)] != localTierPrefix {
			cfg := DefaultReliabilityConfig()
			cfg.Cost = cost
			backend = NewReliableBackend(backend, cfg)
		}
		chain.Backends = append(chain.Backends, backend)
	}

	if len(chain.Backends) == 0 {
		return nil, ragerr.Config("enrichment chain has no enabled backends: "+name, nil)
	}
	return chain, nil
}

func backendFromEntry(e config.ChainEntry, apiKey string) (Backend, error) {
	tier := Tier(e.Name)
	switch e.Provider {
	case "local":
		return NewLocalOpenAIBackend(e.URL, e.Model, tier), nil
	case "openai":
		return NewOpenAIBackend(apiKey, e.Model, tier)
	case "anthropic":
		return NewAnthropicBackend(apiKey, e.Model, tier)
	case "genai":
		return NewGenAIBackend(apiKey, e.Model, tier)
	default:
		return nil, ragerr.Config("unknown enrichment backend provider: "+e.Provider, nil)
	}
}
