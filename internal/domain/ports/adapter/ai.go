package adapter

import "context"

// CompletionOptions bound a single completion call for consistency and
// cost control.
type CompletionOptions struct {
	Temperature     float64
	MaxOutputTokens int
}

// Usage as reported by the provider for one call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionAdapter is the port for the generation service: a system role
// and a rendered prompt in, raw completion text out. Failures map onto the
// domain AI error taxonomy (credentials, rate limit, input too long,
// unavailable, empty response).
type CompletionAdapter interface {
	Complete(ctx context.Context, systemRole, prompt string, opts CompletionOptions) (string, Usage, error)

	// CountTokens returns prompt tokens for precheck; best-effort when the
	// provider has no exact counter.
	CountTokens(ctx context.Context, text string) (int, error)

	ModelName() string
}
