package enrichment

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"github.com/llmc/ragcore/internal/ragerr"
)

// GenAIBackend completes prompts via Gemini's generateContent endpoint,
// reusing the client construction pattern from the embedding package's
// GenAIEngine.
type GenAIBackend struct {
	client *genai.Client
	model  string
	tier   Tier
}

func NewGenAIBackend(apiKey, model string, tier Tier) (*GenAIBackend, error) {
	if apiKey == "" {
		return nil, ragerr.Config("genai enrichment backend requires an API key", nil)
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, ragerr.Backend(ragerr.BackendAuthError, "failed to create genai client", err)
	}
	return &GenAIBackend{client: client, model: model, tier: tier}, nil
}

func (b *GenAIBackend) Tier() Tier { return b.tier }

func (b *GenAIBackend) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}

	resp, err := b.client.Models.GenerateContent(ctx, b.model, contents, nil)
	if err != nil {
		return CompletionResult{}, classifyGenAIError(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return CompletionResult{}, ragerr.Backend(ragerr.BackendValidationFailed, "genai returned no candidates", errors.New("empty response"))
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			text += part.Text
		}
	}
	if text == "" {
		return CompletionResult{}, ragerr.Backend(ragerr.BackendValidationFailed, "genai returned no text parts", errors.New("empty response"))
	}

	var promptTokens, completionTokens int
	if resp.UsageMetadata != nil {
		promptTokens = int(resp.UsageMetadata.PromptTokenCount)
		completionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return CompletionResult{Text: text, PromptTokens: promptTokens, CompletionTokens: completionTokens}, nil
}

// classifyGenAIError maps transport failures into the taxonomy. The SDK's
// error type doesn't reliably expose a structured status code across
// versions, so this stays on string sniffing rather than a type assertion.
func classifyGenAIError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") || strings.Contains(msg, "PERMISSION_DENIED"):
		return ragerr.Backend(ragerr.BackendAuthError, "genai auth failed", err)
	case strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		return ragerr.Backend(ragerr.BackendRateLimited, "genai rate limited", err)
	case strings.Contains(msg, "503") || strings.Contains(msg, "UNAVAILABLE"):
		return ragerr.Backend(ragerr.BackendOverloaded, "genai overloaded", err)
	default:
		return ragerr.Backend(ragerr.BackendTransportError, "genai call failed", err)
	}
}
