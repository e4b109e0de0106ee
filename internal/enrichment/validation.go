package enrichment

import (
	"encoding/json"
	"time"
	"unicode"

	"github.com/llmc/ragcore/internal/ragerr"
	"github.com/llmc/ragcore/internal/types"
)

// rawEnrichment mirrors the fixed schema of a backend response: summary,
// inputs, outputs, side_effects, pitfalls, usage_snippet, evidence, tags.
// Only summary is required; the other fields may be absent.
type rawEnrichment struct {
	Summary      string              `json:"summary"`
	Inputs       []string            `json:"inputs"`
	Outputs      []string            `json:"outputs"`
	SideEffects  []string            `json:"side_effects"`
	Pitfalls     []string            `json:"pitfalls"`
	UsageSnippet string              `json:"usage_snippet"`
	Evidence     []types.EvidenceRef `json:"evidence"`
	Tags         []string            `json:"tags"`
}

// ParseAndValidate parses a backend's raw text response against the fixed
// enrichment schema and, if enforceLatin1 is set, rejects any field
// containing characters outside Latin-1. Small local models sometimes
// emit garbage Unicode under load; this guard catches that before it
// reaches storage.
func ParseAndValidate(spanHash, modelID, text string, enforceLatin1 bool) (types.Enrichment, error) {
	var raw rawEnrichment
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return types.Enrichment{}, ragerr.Backend(ragerr.BackendValidationFailed, "enrichment response is not valid JSON", err)
	}

	if raw.Summary == "" {
		return types.Enrichment{}, ragerr.Backend(ragerr.BackendValidationFailed, "enrichment missing required field: summary", nil)
	}

	if enforceLatin1 {
		if field, ok := firstNonLatin1Field(raw); ok {
			return types.Enrichment{}, ragerr.Backend(ragerr.BackendNonLatin1, "enrichment field contains non-Latin-1 characters: "+field, nil)
		}
	}

	return types.Enrichment{
		SpanHash:      spanHash,
		Summary:       raw.Summary,
		Inputs:        raw.Inputs,
		Outputs:       raw.Outputs,
		SideEffects:   raw.SideEffects,
		Pitfalls:      raw.Pitfalls,
		UsageSnippet:  raw.UsageSnippet,
		Tags:          raw.Tags,
		Evidence:      raw.Evidence,
		ModelID:       modelID,
		SchemaVersion: 1,
		CreatedAt:     time.Now(),
	}, nil
}

func firstNonLatin1Field(r rawEnrichment) (string, bool) {
	fields := map[string]string{
		"summary":       r.Summary,
		"usage_snippet": r.UsageSnippet,
	}
	for name, val := range fields {
		if !isLatin1(val) {
			return name, true
		}
	}
	for _, group := range [][]string{r.Inputs, r.Outputs, r.SideEffects, r.Pitfalls, r.Tags} {
		for _, v := range group {
			if !isLatin1(v) {
				return "list field", true
			}
		}
	}
	return "", false
}

func isLatin1(s string) bool {
	for _, r := range s {
		if r > unicode.MaxLatin1 {
			return false
		}
	}
	return true
}
