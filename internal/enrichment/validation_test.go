package enrichment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmc/ragcore/internal/ragerr"
)

func TestParseAndValidate_OK(t *testing.T) {
	text := `{
		"summary": "Parses a config file into a Config struct.",
		"inputs": ["path string"],
		"outputs": ["*Config", "error"],
		"side_effects": [],
		"pitfalls": ["missing file returns defaults, not an error"],
		"usage_snippet": "cfg, err := Load(\"repo.toml\")",
		"evidence": [{"field": "summary", "lines": [10, 20]}],
		"tags": ["config"]
	}`

	e, err := ParseAndValidate("abc123", "local-7b", text, true)
	require.NoError(t, err)
	assert.Equal(t, "abc123", e.SpanHash)
	assert.Equal(t, "local-7b", e.ModelID)
	assert.Equal(t, 1, e.SchemaVersion)
	assert.Len(t, e.Evidence, 1)
}

func TestParseAndValidate_RejectsInvalidJSON(t *testing.T) {
	_, err := ParseAndValidate("abc123", "local-7b", "not json", false)
	require.Error(t, err)
	assert.True(t, ragerr.Is(err, ragerr.CodeBackend))
}

func TestParseAndValidate_RejectsMissingSummary(t *testing.T) {
	_, err := ParseAndValidate("abc123", "local-7b", `{"usage_snippet": "x"}`, false)
	require.Error(t, err)
}

func TestParseAndValidate_EnforceLatin1(t *testing.T) {
	text := `{"summary": "uses emoji 🎉 in output"}`

	_, err := ParseAndValidate("abc123", "local-7b", text, true)
	require.Error(t, err)

	e, err := ParseAndValidate("abc123", "local-7b", text, false)
	require.NoError(t, err)
	assert.Contains(t, e.Summary, "🎉")
}
