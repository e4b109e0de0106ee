package enrichment

import (
	"strings"

	"github.com/llmc/ragcore/internal/config"
	"github.com/llmc/ragcore/internal/types"
)

// Complexity summarizes the signals routing uses to pick a starting tier:
// line count, nesting depth, and schema depth (the number of distinct
// brace/indent levels touched by the span's content).
type Complexity struct {
	LineCount    int
	NestingDepth int
	SchemaDepth  int
}

// MeasureComplexity derives a span's routing signals from its stored content.
// It is a static, language-agnostic approximation (brace/indent counting)
// rather than a real parse, since routing only needs a coarse ordering.
func MeasureComplexity(span types.Span) Complexity {
	lines := span.EndLine - span.StartLine + 1
	if lines < 0 {
		lines = 0
	}

	depth, maxDepth := 0, 0
	for _, r := range span.Content {
		switch r {
		case '{', '(', '[':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case '}', ')', ']':
			if depth > 0 {
				depth--
			}
		}
	}

	schemaDepth := maxIndentLevel(span.Content)

	return Complexity{LineCount: lines, NestingDepth: maxDepth, SchemaDepth: schemaDepth}
}

// maxIndentLevel estimates structural depth from leading whitespace, treating
// every 2 columns of indent as one level. Tabs count as 2 columns.
func maxIndentLevel(content string) int {
	max := 0
	for _, line := range strings.Split(content, "\n") {
		cols := 0
	indent:
		for _, r := range line {
			switch r {
			case ' ':
				cols++
			case '\t':
				cols += 2
			default:
				break indent
			}
		}
		level := cols / 2
		if level > max {
			max = level
		}
	}
	return max
}

// Complexity thresholds above which routing escalates past the cheapest tier.
// These are coarse heuristics, not calibrated against any corpus; operators
// who disagree should use routing.mode=override instead.
const (
	complexLineThreshold    = 80
	complexNestingThreshold = 4
	complexSchemaThreshold  = 3
)

// SelectStartTier picks the index into chain.Backends a span should start
// at. Under RoutingOverride it always returns the operator's chosen tier,
// bypassing heuristics entirely. Under RoutingHeuristic, simple spans
// start at the cheapest (first) tier, and spans crossing any complexity
// threshold skip ahead to the first
// backend at or above the next tier, so routing never wastes a round-trip
// on a small local model for code it is unlikely to handle well.
func SelectStartTier(chain *Chain, cfg config.RoutingConfig, c Complexity) int {
	if len(chain.Backends) == 0 {
		return 0
	}

	if cfg.Mode == config.RoutingOverride && cfg.OperatorOverride != "" {
		for i, b := range chain.Backends {
			if string(b.Tier()) == cfg.OperatorOverride {
				return i
			}
		}
		return 0
	}

	complex := c.LineCount >= complexLineThreshold ||
		c.NestingDepth >= complexNestingThreshold ||
		c.SchemaDepth >= complexSchemaThreshold
	if !complex || len(chain.Backends) == 1 {
		return 0
	}
	return 1
}
