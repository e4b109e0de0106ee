package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmc/ragcore/internal/config"
)

func defaultTestEmbeddingsConfig() config.EmbeddingsConfig {
	return config.EmbeddingsConfig{
		Model: "embeddinggemma",
		Dim:   768,
		Profiles: map[string]config.EmbeddingProfile{
			"query": {Model: "embeddinggemma", Dim: 768},
		},
	}
}

func TestOllamaEngine_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	eng := NewOllamaEngine(srv.URL, "embeddinggemma", 3)
	vec, err := eng.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, "ollama:embeddinggemma", eng.Name())
	assert.Equal(t, 3, eng.Dimensions())
}

func TestOllamaEngine_EmbedBatch_Sequential(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{float32(calls)}})
	}))
	defer srv.Close()

	eng := NewOllamaEngine(srv.URL, "m", 1)
	out, err := eng.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, 3, calls)
}

func TestOllamaEngine_HealthCheck_FailsOnNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	eng := NewOllamaEngine(srv.URL, "m", 1)
	err := eng.HealthCheck(context.Background())
	assert.Error(t, err)
}

func TestCosineSimilarity_IdenticalVectorsAreOne(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0, 0}, []float32{1, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestCosineSimilarity_DimensionMismatchErrors(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0})
	assert.Error(t, err)
}

func TestNewEngine_UnknownProfileErrors(t *testing.T) {
	cfg := defaultTestEmbeddingsConfig()
	_, err := NewEngine(cfg, ProviderOllama, "", "nonexistent")
	assert.Error(t, err)
}
