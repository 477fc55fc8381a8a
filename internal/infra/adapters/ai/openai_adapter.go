package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkoukk/tiktoken-go"

	"fitness-ai-planner/internal/domain"
	"fitness-ai-planner/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.CompletionAdapter = (*OpenAIAdapter)(nil)

// OpenAIAdapter implements adapter.CompletionAdapter on the Chat
// Completions API.
type OpenAIAdapter struct {
	client openai.Client
	model  string
	enc    *tiktoken.Tiktoken
}

func NewOpenAIAdapter(apiKey, model string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Unknown model name: count with the common encoding instead.
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	return &OpenAIAdapter{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		enc:    enc,
	}, nil
}

func (o *OpenAIAdapter) ModelName() string { return o.model }

func (o *OpenAIAdapter) CountTokens(_ context.Context, text string) (int, error) {
	return len(o.enc.Encode(text, nil, nil)), nil
}

func (o *OpenAIAdapter) Complete(ctx context.Context, systemRole, prompt string, opts adapter.CompletionOptions) (string, adapter.Usage, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemRole),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(opts.Temperature),
		MaxTokens:   openai.Int(int64(opts.MaxOutputTokens)),
	})
	if err != nil {
		return "", adapter.Usage{}, categorize(err)
	}

	usage := adapter.Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	for _, c := range resp.Choices {
		if c.Message.Content != "" {
			return c.Message.Content, usage, nil
		}
	}
	return "", usage, domain.ErrAIEmptyResponse
}

// categorize maps provider failures onto the domain AI error taxonomy.
func categorize(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == 401 || apierr.StatusCode == 403:
			return domain.ErrAIInvalidCredentials
		case apierr.StatusCode == 429:
			return domain.ErrAIRateLimited
		case apierr.StatusCode == 400 && strings.Contains(apierr.Code, "context_length"):
			return domain.ErrAIInputTooLong
		case apierr.StatusCode == 413:
			return domain.ErrAIInputTooLong
		}
	}
	return domain.ErrAIUnavailable
}
