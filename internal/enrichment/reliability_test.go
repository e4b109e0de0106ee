package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmc/ragcore/internal/ragerr"
)

type scriptedBackend struct {
	tier    Tier
	results []CompletionResult
	errs    []error
	call    int
}

func (b *scriptedBackend) Tier() Tier { return b.tier }
func (b *scriptedBackend) Complete(_ context.Context, _ CompletionRequest) (CompletionResult, error) {
	i := b.call
	b.call++
	if i >= len(b.errs) {
		i = len(b.errs) - 1
	}
	return b.results[i], b.errs[i]
}

func TestCostTracker_ReserveBlocksOverBudget(t *testing.T) {
	c := NewCostTracker(1.0)
	require.NoError(t, c.Reserve())
	c.Record(1.5)
	err := c.Reserve()
	require.Error(t, err)
	assert.True(t, ragerr.Is(err, ragerr.CodeBudgetExceeded))
}

func TestCostTracker_ZeroCapMeansUnlimited(t *testing.T) {
	c := NewCostTracker(0)
	c.Record(1000)
	assert.NoError(t, c.Reserve())
}

func TestReliableBackend_PassesThroughSuccess(t *testing.T) {
	inner := &scriptedBackend{
		tier:    "remote-premium",
		results: []CompletionResult{{Text: "ok", PromptTokens: 10, CompletionTokens: 5}},
		errs:    []error{nil},
	}
	cfg := DefaultReliabilityConfig()
	cfg.RateLimitPerSecond = 1000
	cfg.RateLimitBurst = 1000
	rb := NewReliableBackend(inner, cfg)

	result, err := rb.Complete(context.Background(), CompletionRequest{SpanHash: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Text)
}

func TestReliableBackend_OpensBreakerAfterConsecutiveFailures(t *testing.T) {
	inner := &scriptedBackend{
		tier: "remote-premium",
		results: []CompletionResult{{}, {}, {}, {}, {}, {}},
		errs: []error{
			errors.New("boom"), errors.New("boom"), errors.New("boom"),
			errors.New("boom"), errors.New("boom"), errors.New("boom"),
		},
	}
	cfg := DefaultReliabilityConfig()
	cfg.BreakerFailureThreshold = 2
	cfg.RateLimitPerSecond = 1000
	cfg.RateLimitBurst = 1000
	rb := NewReliableBackend(inner, cfg)

	for i := 0; i < 2; i++ {
		_, err := rb.Complete(context.Background(), CompletionRequest{SpanHash: "x"})
		require.Error(t, err)
	}

	_, err := rb.Complete(context.Background(), CompletionRequest{SpanHash: "x"})
	require.Error(t, err)
	assert.True(t, ragerr.Is(err, ragerr.CodeBackend))
}
