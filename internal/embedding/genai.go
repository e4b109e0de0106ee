package embedding

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"github.com/llmc/ragcore/internal/ragerr"
)

// genaiMaxBatch is the largest batch the GenAI embed-content endpoint
// accepts in one request; larger batches are chunked sequentially.
const genaiMaxBatch = 100

// GenAIEngine generates embeddings using Google's Gemini embedding API.
type GenAIEngine struct {
	client *genai.Client
	model  string
	dim    int
}

func NewGenAIEngine(apiKey, model string, dim int) (*GenAIEngine, error) {
	if apiKey == "" {
		return nil, ragerr.Config("genai embedding engine requires an API key", nil)
	}
	if model == "" {
		model = "gemini-embedding-001"
	}
	if dim == 0 {
		dim = 3072
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, ragerr.Backend(ragerr.BackendAuthError, "failed to create genai client", err)
	}

	return &GenAIEngine{client: client, model: model, dim: dim}, nil
}

func int32Ptr(i int32) *int32 { return &i }

func (e *GenAIEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.embedChunk(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (e *GenAIEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) <= genaiMaxBatch {
		return e.embedChunk(ctx, texts)
	}

	var all [][]float32
	for start := 0; start < len(texts); start += genaiMaxBatch {
		end := start + genaiMaxBatch
		if end > len(texts) {
			end = len(texts)
		}
		chunk, err := e.embedChunk(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		all = append(all, chunk...)
	}
	return all, nil
}

func (e *GenAIEngine) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: int32Ptr(int32(e.dim)),
	})
	if err != nil {
		return nil, ragerr.Backend(ragerr.BackendTransportError, "genai embed request failed", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, ragerr.Backend(ragerr.BackendValidationFailed, "genai returned no embeddings", errors.New("empty response"))
	}

	out := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}

func (e *GenAIEngine) Dimensions() int { return e.dim }
func (e *GenAIEngine) Name() string    { return "genai:" + e.model }
