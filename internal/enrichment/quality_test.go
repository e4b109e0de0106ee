package enrichment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/llmc/ragcore/internal/types"
)

func TestScoreEnrichment_GoodEnrichmentScoresHigh(t *testing.T) {
	e := types.Enrichment{
		Summary:      "Validates and normalizes repository-relative paths before resolving them.",
		Inputs:       []string{"rel string"},
		Outputs:      []string{"string", "error"},
		UsageSnippet: "abs, err := pathsafe.Resolve(root, rel)",
		Evidence:     []types.EvidenceRef{{Field: "summary", Lines: []int{1, 2}}},
	}
	r := ScoreEnrichment(e)
	assert.Equal(t, 100, r.Score)
	assert.Empty(t, r.Reasons)
}

func TestScoreEnrichment_PlaceholderSummaryScoresLow(t *testing.T) {
	e := types.Enrichment{Summary: "As an AI language model, I cannot analyze this code."}
	r := ScoreEnrichment(e)
	assert.Less(t, r.Score, QualityThreshold)
	assert.NotEmpty(t, r.Reasons)
}

func TestScoreEnrichment_ShortSummaryDeducted(t *testing.T) {
	e := types.Enrichment{Summary: "Does stuff."}
	r := ScoreEnrichment(e)
	assert.Less(t, r.Score, 100)
}

func TestScoreEnrichment_ScoreNeverNegative(t *testing.T) {
	e := types.Enrichment{Summary: "n/a"}
	r := ScoreEnrichment(e)
	assert.GreaterOrEqual(t, r.Score, 0)
}
