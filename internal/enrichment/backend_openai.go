package enrichment

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/llmc/ragcore/internal/ragerr"
)

// OpenAIBackend completes prompts via any OpenAI-compatible chat endpoint:
// hosted OpenAI for a "remote-premium"-style tier, or a local inference
// server (llama.cpp, Ollama's OpenAI shim, vLLM) for a "local-*" tier,
// selected by whether baseURL is set.
type OpenAIBackend struct {
	client *openai.Client
	model  string
	tier   Tier
}

// NewOpenAIBackend targets hosted OpenAI.
func NewOpenAIBackend(apiKey, model string, tier Tier) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, ragerr.Config("openai enrichment backend requires an API key", nil)
	}
	return &OpenAIBackend{client: openai.NewClient(apiKey), model: model, tier: tier}, nil
}

// NewLocalOpenAIBackend targets a local OpenAI-compatible server.
func NewLocalOpenAIBackend(baseURL, model string, tier Tier) *OpenAIBackend {
	cfg := openai.DefaultConfig("local")
	cfg.BaseURL = baseURL
	return &OpenAIBackend{client: openai.NewClientWithConfig(cfg), model: model, tier: tier}
}

func (b *OpenAIBackend) Tier() Tier { return b.tier }

func (b *OpenAIBackend) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	maxTokens := req.Options.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: float32(req.Options.Temperature),
	})
	if err != nil {
		return CompletionResult{}, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return CompletionResult{}, ragerr.Backend(ragerr.BackendValidationFailed, "openai returned no choices", errors.New("empty response"))
	}

	return CompletionResult{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// classifyOpenAIError maps the go-openai error shapes into the failure
// taxonomy so the chain can decide whether to escalate or retry in place.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			return ragerr.Backend(ragerr.BackendAuthError, "openai auth failed", err)
		case 429:
			return ragerr.Backend(ragerr.BackendRateLimited, "openai rate limited", err)
		case 503:
			return ragerr.Backend(ragerr.BackendOverloaded, "openai overloaded", err)
		}
	}
	return ragerr.Backend(ragerr.BackendTransportError, "openai call failed", err)
}
