package enrichment

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/llmc/ragcore/internal/logging"
	"github.com/llmc/ragcore/internal/ragerr"
)

// CostTracker rejects further attempts once a daily USD budget is spent.
// Plain counters under a mutex rather than a dedicated billing library.
type CostTracker struct {
	mu        sync.Mutex
	dailyCap  float64
	spent     float64
	resetDate string
}

func NewCostTracker(dailyCapUSD float64) *CostTracker {
	return &CostTracker{dailyCap: dailyCapUSD, resetDate: today()}
}

func today() string { return time.Now().UTC().Format("2006-01-02") }

// Reserve checks the budget is not exceeded and reports whether the caller
// may proceed. It does not itself know the cost of a call; call Record after
// a completion to book the spend.
func (c *CostTracker) Reserve() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rolloverLocked()
	if c.dailyCap > 0 && c.spent >= c.dailyCap {
		return ragerr.BudgetExceeded("daily enrichment cost budget exceeded")
	}
	return nil
}

// Record books the USD cost of a completed call, as estimated by the caller
// (ReliableBackend uses estimateCostUSD).
func (c *CostTracker) Record(usd float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rolloverLocked()
	c.spent += usd
}

func (c *CostTracker) rolloverLocked() {
	if d := today(); d != c.resetDate {
		c.resetDate = d
		c.spent = 0
	}
}

// ReliableBackend wraps a Backend with a per-host circuit breaker, a
// token-bucket rate limiter, and a cost tracker. It is itself a Backend so
// chains can treat wrapped and bare backends identically.
type ReliableBackend struct {
	inner   Backend
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	cost    *CostTracker
}

// ReliabilityConfig tunes the middleware wrapping one backend.
type ReliabilityConfig struct {
	// BreakerFailureThreshold opens the breaker after this many consecutive
	// failures within BreakerWindow.
	BreakerFailureThreshold uint32
	BreakerWindow           time.Duration
	BreakerCooldown         time.Duration
	// RateLimitPerSecond is the token-bucket refill rate; RateLimitBurst its
	// bucket size.
	RateLimitPerSecond float64
	RateLimitBurst     int
	Cost               *CostTracker
}

func DefaultReliabilityConfig() ReliabilityConfig {
	return ReliabilityConfig{
		BreakerFailureThreshold: 5,
		BreakerWindow:           60 * time.Second,
		BreakerCooldown:         30 * time.Second,
		RateLimitPerSecond:      2,
		RateLimitBurst:          4,
	}
}

func NewReliableBackend(inner Backend, cfg ReliabilityConfig) *ReliableBackend {
	name := string(inner.Tier())
	settings := gobreaker.Settings{
		Name:        name,
		Interval:    cfg.BreakerWindow,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.For(logging.CategoryEnrichment).Infow("circuit breaker state change", "backend", name, "from", from, "to", to)
		},
	}

	return &ReliableBackend{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst),
		cost:    cfg.Cost,
	}
}

func (b *ReliableBackend) Tier() Tier { return b.inner.Tier() }

func (b *ReliableBackend) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	if b.cost != nil {
		if err := b.cost.Reserve(); err != nil {
			return CompletionResult{}, err
		}
	}

	if err := b.limiter.Wait(ctx); err != nil {
		return CompletionResult{}, ragerr.Backend(ragerr.BackendRateLimited, "rate limiter wait cancelled", err)
	}

	out, err := b.breaker.Execute(func() (interface{}, error) {
		return b.inner.Complete(ctx, req)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return CompletionResult{}, ragerr.Backend(ragerr.BackendOverloaded, "circuit breaker open", err)
		}
		return CompletionResult{}, err
	}

	result := out.(CompletionResult)
	if b.cost != nil {
		b.cost.Record(estimateCostUSD(b.inner.Tier(), result))
	}
	return result, nil
}

// estimateCostUSD is a rough per-token cost table; real pricing varies by
// provider and model, so this is a coarse budget guard rather than exact
// billing reconciliation.
func estimateCostUSD(tier Tier, r CompletionResult) float64 {
	var rate float64
	switch tier {
	case "remote-premium":
		rate = 0.000015
	default:
		rate = 0.0000005
	}
	return rate * float64(r.PromptTokens+r.CompletionTokens)
}
