package enrichment

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/llmc/ragcore/internal/config"
	"github.com/llmc/ragcore/internal/types"
)

// localBackendStub is a no-op Backend used to exercise routing decisions
// without a real network call.
type localBackendStub struct {
	tier Tier
}

func (s localBackendStub) Tier() Tier { return s.tier }
func (s localBackendStub) Complete(_ context.Context, _ CompletionRequest) (CompletionResult, error) {
	return CompletionResult{}, nil
}

func TestMeasureComplexity_SimpleSpan(t *testing.T) {
	span := types.Span{StartLine: 1, EndLine: 5, Content: "func f() {\n\treturn 1\n}"}
	c := MeasureComplexity(span)
	assert.Equal(t, 5, c.LineCount)
	assert.Equal(t, 1, c.NestingDepth)
}

func TestMeasureComplexity_DeeplyNestedSpan(t *testing.T) {
	content := "func f() {\n" + strings.Repeat("\tif true {\n", 5) + strings.Repeat("}\n", 5) + "}"
	span := types.Span{StartLine: 1, EndLine: 12, Content: content}
	c := MeasureComplexity(span)
	assert.GreaterOrEqual(t, c.NestingDepth, 5)
}

func TestSelectStartTier_HeuristicSimpleSpanStartsCheap(t *testing.T) {
	chain := &Chain{Backends: []Backend{localBackendStub{"local-7b"}, localBackendStub{"remote-premium"}}}
	cfg := config.RoutingConfig{Mode: config.RoutingHeuristic}
	idx := SelectStartTier(chain, cfg, Complexity{LineCount: 10, NestingDepth: 1, SchemaDepth: 1})
	assert.Equal(t, 0, idx)
}

func TestSelectStartTier_HeuristicComplexSpanSkipsAhead(t *testing.T) {
	chain := &Chain{Backends: []Backend{localBackendStub{"local-7b"}, localBackendStub{"remote-premium"}}}
	cfg := config.RoutingConfig{Mode: config.RoutingHeuristic}
	idx := SelectStartTier(chain, cfg, Complexity{LineCount: 200, NestingDepth: 1, SchemaDepth: 1})
	assert.Equal(t, 1, idx)
}

func TestSelectStartTier_OperatorOverride(t *testing.T) {
	chain := &Chain{Backends: []Backend{localBackendStub{"local-7b"}, localBackendStub{"remote-premium"}}}
	cfg := config.RoutingConfig{Mode: config.RoutingOverride, OperatorOverride: "remote-premium"}
	idx := SelectStartTier(chain, cfg, Complexity{})
	assert.Equal(t, 1, idx)
}
