package ai

import (
	"context"

	"fitness-ai-planner/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.CompletionAdapter = (*limitedAdapter)(nil)

type limitedAdapter struct {
	inner adapter.CompletionAdapter
	sem   chan struct{}
}

// NewLimitedAdapter caps the number of completion calls in flight at once.
func NewLimitedAdapter(inner adapter.CompletionAdapter, maxConcurrent int) adapter.CompletionAdapter {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedAdapter{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedAdapter) ModelName() string { return l.inner.ModelName() }

func (l *limitedAdapter) CountTokens(ctx context.Context, text string) (int, error) {
	return l.inner.CountTokens(ctx, text)
}

func (l *limitedAdapter) Complete(ctx context.Context, systemRole, prompt string, opts adapter.CompletionOptions) (string, adapter.Usage, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return "", adapter.Usage{}, ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Complete(ctx, systemRole, prompt, opts)
}
