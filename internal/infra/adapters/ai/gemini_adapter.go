package ai

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"fitness-ai-planner/internal/domain"
	"fitness-ai-planner/internal/domain/ports/adapter"
)

var _ adapter.CompletionAdapter = (*GeminiAdapter)(nil)

// GeminiAdapter implements adapter.CompletionAdapter using the official
// Gemini SDK.
type GeminiAdapter struct {
	client *genai.Client
	model  string
}

func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, model string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, model: model}, nil
}

func (g *GeminiAdapter) ModelName() string { return g.model }

func (g *GeminiAdapter) CountTokens(ctx context.Context, text string) (int, error) {
	resp, err := g.client.Models.CountTokens(ctx, g.model, genai.Text(text), nil)
	if err != nil {
		return 0, err
	}
	return int(resp.TotalTokens), nil
}

func (g *GeminiAdapter) Complete(ctx context.Context, systemRole, prompt string, opts adapter.CompletionOptions) (string, adapter.Usage, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:       genai.Ptr[float32](float32(opts.Temperature)),
			MaxOutputTokens:   int32(opts.MaxOutputTokens),
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemRole}}},
		})
	if err != nil {
		return "", adapter.Usage{}, categorizeGemini(err)
	}

	text := ""
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		text = resp.Candidates[0].Content.Parts[0].Text
	}
	u := adapter.Usage{}
	if resp != nil && resp.UsageMetadata != nil {
		u.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		u.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		u.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	if text == "" {
		return "", u, domain.ErrAIEmptyResponse
	}
	return text, u, nil
}

func categorizeGemini(err error) error {
	var apierr genai.APIError
	if errors.As(err, &apierr) {
		switch apierr.Code {
		case 401, 403:
			return domain.ErrAIInvalidCredentials
		case 429:
			return domain.ErrAIRateLimited
		case 400, 413:
			return domain.ErrAIInputTooLong
		}
	}
	return domain.ErrAIUnavailable
}
