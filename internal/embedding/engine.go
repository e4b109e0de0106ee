// Package embedding generates vector embeddings for spans and queries,
// wrapping multiple backends behind a single interface and supporting
// per-profile model/dimension overrides.
package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/llmc/ragcore/internal/config"
	"github.com/llmc/ragcore/internal/logging"
	"github.com/llmc/ragcore/internal/ragerr"
)

// Engine generates embeddings for text.
type Engine interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}

// HealthChecker is an optional capability an Engine can implement to report
// whether its backend is reachable. OllamaEngine implements it; no caller
// in this module checks for it.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Provider enumerates supported embedding backends.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
	ProviderGenAI  Provider = "genai"
)

// NewEngine builds an Engine for the given embeddings config section. An
// empty profile name uses the top-level Model/Dim.
func NewEngine(cfg config.EmbeddingsConfig, provider Provider, apiKey, profile string) (Engine, error) {
	log := logging.For(logging.CategoryEmbedding)

	model, dim := cfg.Model, cfg.Dim
	if profile != "" {
		p, ok := cfg.Profiles[profile]
		if !ok {
			return nil, ragerr.Config(fmt.Sprintf("unknown embedding profile %q", profile), nil)
		}
		model, dim = p.Model, p.Dim
	}

	log.Infow("creating embedding engine", "provider", provider, "model", model, "dim", dim)

	switch provider {
	case ProviderOllama:
		return NewOllamaEngine("", model, dim), nil
	case ProviderOpenAI:
		return NewOpenAIEngine(apiKey, model, dim)
	case ProviderGenAI:
		return NewGenAIEngine(apiKey, model, dim)
	default:
		return nil, ragerr.Config(fmt.Sprintf("unsupported embedding provider: %s", provider), nil)
	}
}

// CosineSimilarity computes the same similarity as store.CosineSimilarity
// for callers that only depend on this package, but rejects vectors of
// different lengths instead of comparing their common prefix.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}
	var dot, am, bm float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		am += float64(a[i]) * float64(a[i])
		bm += float64(b[i]) * float64(b[i])
	}
	if am == 0 || bm == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(am) * math.Sqrt(bm)), nil
}
