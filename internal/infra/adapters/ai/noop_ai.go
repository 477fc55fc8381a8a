package ai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"fitness-ai-planner/internal/domain/model"
	"fitness-ai-planner/internal/domain/ports/adapter"
)

var _ adapter.CompletionAdapter = (*NoopAdapter)(nil)

// NoopAdapter is a local/dev stand-in: it returns a canned, well-formed
// weekly plan instead of calling a real provider.
type NoopAdapter struct {
	Delay time.Duration
}

func NewNoopAdapter() *NoopAdapter {
	return &NoopAdapter{Delay: 100 * time.Millisecond}
}

func (a *NoopAdapter) ModelName() string { return "noop-model" }

func (a *NoopAdapter) CountTokens(_ context.Context, text string) (int, error) {
	return len(strings.Fields(text)), nil
}

func (a *NoopAdapter) Complete(ctx context.Context, _, prompt string, _ adapter.CompletionOptions) (string, adapter.Usage, error) {
	select {
	case <-time.After(a.Delay):
	case <-ctx.Done():
		return "", adapter.Usage{}, ctx.Err()
	}

	plan := model.WeeklyPlan{
		Title:       "Sample weekly plan",
		Description: "A placeholder plan produced by the noop adapter.",
		Advisory:    "Generated locally without an AI provider.",
	}
	for i := 0; i < model.PlanDays; i++ {
		plan.Days = append(plan.Days, model.DayPlan{
			Content:         "Rest and hydrate.",
			Calories:        1800,
			DurationMinutes: 30,
			Intensity:       "low",
		})
	}
	b, _ := json.Marshal(plan)
	words := len(strings.Fields(prompt))
	return string(b), adapter.Usage{PromptTokens: words, CompletionTokens: 120, TotalTokens: words + 120}, nil
}
