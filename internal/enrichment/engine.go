package enrichment

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/llmc/ragcore/internal/config"
	"github.com/llmc/ragcore/internal/logging"
	"github.com/llmc/ragcore/internal/ragerr"
	"github.com/llmc/ragcore/internal/store"
	"github.com/llmc/ragcore/internal/types"
)

// Engine drives the ENRICH work queue through the chain cascade, applying
// routing, validation, and the parked/cooldown state machine. Concurrency
// is a bounded slot pool in the style of a semaphore-gated scheduler, not
// an unbounded goroutine-per-item fan-out.
type Engine struct {
	store    *store.Store
	chain    *Chain
	cfg      *config.Config
	cooldown time.Duration
	slots    chan struct{}
}

// NewEngine builds an engine bound to one repository's store and config. cfg
// selects concurrency (daemon.concurrency) and routing/validation behavior;
// chain is the already-built cascade for cfg.Enrichment.DefaultChain.
func NewEngine(s *store.Store, chain *Chain, cfg *config.Config, cooldown time.Duration) *Engine {
	concurrency := cfg.Daemon.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Engine{
		store:    s,
		chain:    chain,
		cfg:      cfg,
		cooldown: cooldown,
		slots:    make(chan struct{}, concurrency),
	}
}

// RunOnce drains up to limit pending ENRICH work items, running the chain
// cascade for each with bounded parallelism, and returns how many completed
// successfully. It never blocks past ctx's deadline once slots are acquired.
func (e *Engine) RunOnce(ctx context.Context, limit int) (int, error) {
	log := logging.For(logging.CategoryEnrichment)

	items, err := e.store.Pending(types.WorkEnrich, limit, e.cooldown)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}

	var completed int32
	g, gctx := errgroup.WithContext(ctx)
	for _, item := range items {
		item := item
		g.Go(func() error {
			select {
			case e.slots <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-e.slots }()

			ok, err := e.processOne(gctx, item)
			if err != nil {
				log.Errorw("enrichment work item errored", "span", item.SpanHash, "err", err)
				return nil // one bad item must not cancel the batch
			}
			if ok {
				atomic.AddInt32(&completed, 1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(completed), err
	}
	log.Infow("enrichment batch done", "requested", len(items), "completed", completed)
	return int(atomic.LoadInt32(&completed)), nil
}

// processOne runs the cascade for a single work item and applies the state
// transition implied by the outcome (OK → DONE, FAIL → PARKED/cooldown).
func (e *Engine) processOne(ctx context.Context, item types.WorkItem) (bool, error) {
	span, err := e.store.GetSpan(item.SpanHash)
	if err != nil {
		return false, err
	}

	complexity := MeasureComplexity(span)
	startIndex := SelectStartTier(e.chain, e.cfg.Routing, complexity)

	req := CompletionRequest{
		SpanHash: span.SpanHash,
		Prompt:   buildPrompt(span),
	}

	attempts := e.chain.Run(ctx, req, startIndex)
	if len(attempts) == 0 {
		return false, ragerr.Internal("enrichment chain produced no attempts", nil)
	}

	last := attempts[len(attempts)-1]
	if last.Err == nil {
		if err := e.store.WriteEnrichment(last.Enrichment); err != nil {
			return false, err
		}
		if err := e.store.CompleteWorkItem(item.ID); err != nil {
			return false, err
		}
		return true, nil
	}

	// Every backend in the cascade failed for this span: park it behind an
	// exponential, jittered cooldown keyed on the item's lifetime attempt
	// count.
	next := item.AttemptCount + 1
	if e.cfg.Enrichment.MaxFailuresPerSpan > 0 && next >= e.cfg.Enrichment.MaxFailuresPerSpan {
		return false, e.store.RecordAttempt(item.ID, farFutureCooldown())
	}
	return false, e.store.RecordAttempt(item.ID, nextCooldown(next))
}

const (
	baseCooldown = 30 * time.Second
	maxCooldown  = 6 * time.Hour
)

// nextCooldown computes a capped exponential backoff with +/-20% jitter so a
// burst of spans failing together doesn't retry in lockstep.
func nextCooldown(attempt int) time.Time {
	d := float64(baseCooldown) * math.Pow(2, float64(attempt))
	if d > float64(maxCooldown) {
		d = float64(maxCooldown)
	}
	jitter := 1 + (rand.Float64()*0.4 - 0.2)
	return time.Now().Add(time.Duration(d * jitter))
}

// farFutureCooldown parks a span indefinitely after it exhausts
// max_failures_per_span; an operator must clear last_error (re-enqueue) to
// give it another chance.
func farFutureCooldown() time.Time {
	return time.Now().Add(24 * 365 * time.Hour)
}

// buildPrompt renders the fixed enrichment schema instructions around a
// span's content. Kept as plain string concatenation rather than a
// templating library; the prompt is short and has no conditional sections.
func buildPrompt(span types.Span) string {
	return "You are annotating a code span. Respond with a single JSON object " +
		"with exactly these fields: summary (string), inputs (string array), " +
		"outputs (string array), side_effects (string array), pitfalls (string " +
		"array), usage_snippet (string), evidence (array of {field, lines}), " +
		"tags (string array). Do not include any text outside the JSON object.\n\n" +
		"Symbol: " + span.Symbol + "\nKind: " + string(span.Kind) + "\n\n" + span.Content
}
