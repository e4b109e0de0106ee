package embedding

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/llmc/ragcore/internal/ragerr"
)

// OpenAIEngine generates embeddings via any OpenAI-compatible endpoint
// (hosted OpenAI or a local server speaking the same API).
type OpenAIEngine struct {
	client *openai.Client
	model  openai.EmbeddingModel
	dim    int
}

func NewOpenAIEngine(apiKey, model string, dim int) (*OpenAIEngine, error) {
	if apiKey == "" {
		return nil, ragerr.Config("openai embedding engine requires an API key", nil)
	}
	em := openai.EmbeddingModel(model)
	if em == "" {
		em = openai.SmallEmbedding3
	}
	if dim == 0 {
		dim = 1536
	}
	return &OpenAIEngine{
		client: openai.NewClient(apiKey),
		model:  em,
		dim:    dim,
	}, nil
}

// NewOpenAICompatibleEngine points the client at a self-hosted
// OpenAI-compatible server (e.g. vLLM, text-embeddings-inference).
func NewOpenAICompatibleEngine(baseURL, apiKey, model string, dim int) (*OpenAIEngine, error) {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	if dim == 0 {
		dim = 1536
	}
	return &OpenAIEngine{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.EmbeddingModel(model),
		dim:    dim,
	}, nil
}

func (e *OpenAIEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, ragerr.Backend(ragerr.BackendTransportError, "openai embed request failed", err)
	}
	if len(resp.Data) == 0 {
		return nil, ragerr.Backend(ragerr.BackendValidationFailed, "openai returned no embeddings", errors.New("empty response"))
	}
	return resp.Data[0].Embedding, nil
}

func (e *OpenAIEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, ragerr.Backend(ragerr.BackendTransportError, "openai batch embed request failed", err)
	}
	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		out[d.Index] = d.Embedding
	}
	return out, nil
}

func (e *OpenAIEngine) Dimensions() int { return e.dim }
func (e *OpenAIEngine) Name() string    { return "openai:" + string(e.model) }
