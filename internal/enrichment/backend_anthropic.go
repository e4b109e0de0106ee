package enrichment

import (
	"context"
	"errors"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/llmc/ragcore/internal/ragerr"
)

// AnthropicBackend completes prompts via the Anthropic Messages API,
// grounded on the reference client's option/param usage.
type AnthropicBackend struct {
	client anthropic.Client
	model  string
	tier   Tier
}

func NewAnthropicBackend(apiKey, model string, tier Tier) (*AnthropicBackend, error) {
	if apiKey == "" {
		return nil, ragerr.Config("anthropic enrichment backend requires an API key", nil)
	}
	if model == "" {
		model = string(anthropic.ModelClaude3_7SonnetLatest)
	}
	return &AnthropicBackend{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		tier:   tier,
	}, nil
}

func (b *AnthropicBackend) Tier() Tier { return b.tier }

func (b *AnthropicBackend) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	maxTokens := int64(req.Options.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 1024
	}

	resp, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return CompletionResult{}, classifyAnthropicError(err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}
	if sb.Len() == 0 {
		return CompletionResult{}, ragerr.Backend(ragerr.BackendValidationFailed, "anthropic returned no text content", errors.New("empty response"))
	}

	return CompletionResult{
		Text:             sb.String(),
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// classifyAnthropicError maps transport failures into the taxonomy by
// sniffing the error text, since the SDK's structured error shape has
// changed across major versions.
func classifyAnthropicError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") || strings.Contains(msg, "authentication"):
		return ragerr.Backend(ragerr.BackendAuthError, "anthropic auth failed", err)
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate_limit"):
		return ragerr.Backend(ragerr.BackendRateLimited, "anthropic rate limited", err)
	case strings.Contains(msg, "529") || strings.Contains(msg, "503") || strings.Contains(msg, "overloaded"):
		return ragerr.Backend(ragerr.BackendOverloaded, "anthropic overloaded", err)
	default:
		return ragerr.Backend(ragerr.BackendTransportError, "anthropic call failed", err)
	}
}
