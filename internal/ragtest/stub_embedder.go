package ragtest

import (
	"context"
	"hash/fnv"
)

// stubEmbedder is a deterministic, dependency-free embedding.Engine: the
// same text always yields the same vector, and different texts yield
// different vectors with high probability, which is all dense rescoring
// needs from a test double.
type stubEmbedder struct {
	dim int
}

func newStubEmbedder(dim int) *stubEmbedder {
	return &stubEmbedder{dim: dim}
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	h := fnv.New32a()
	for i := range vec {
		h.Write([]byte{byte(i)})
		h.Write([]byte(text))
		vec[i] = float32(h.Sum32()%1000) / 1000
	}
	return vec, nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *stubEmbedder) Dimensions() int { return e.dim }
func (e *stubEmbedder) Name() string    { return "ragtest-stub" }
