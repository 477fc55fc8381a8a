package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"fitness-ai-planner/internal/domain/model"
)

// ParsePlan extracts and validates a WeeklyPlan from raw completion text.
// The model is asked for bare JSON but providers routinely wrap output in a
// fenced code block, so both forms are tolerated. Pure.
func ParsePlan(raw string) (*model.WeeklyPlan, error) {
	payload, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var plan model.WeeklyPlan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}

	plan.Title = strings.TrimSpace(plan.Title)
	plan.Description = strings.TrimSpace(plan.Description)
	if plan.Title == "" {
		return nil, fmt.Errorf("plan missing title")
	}
	if plan.Description == "" {
		return nil, fmt.Errorf("plan missing description")
	}
	if len(plan.Days) != model.PlanDays {
		return nil, fmt.Errorf("plan has %d days, want %d", len(plan.Days), model.PlanDays)
	}
	for i, d := range plan.Days {
		if strings.TrimSpace(d.Content) == "" {
			return nil, fmt.Errorf("day %d has no content", i+1)
		}
	}
	return &plan, nil
}

// extractJSON pulls the JSON object out of raw text, tolerating a fenced
// ```json block or bare braces with surrounding prose.
func extractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty text")
	}

	if idx := strings.Index(s, "```"); idx >= 0 {
		rest := s[idx+3:]
		// drop an optional language tag on the fence line
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			s = strings.TrimSpace(rest[:end])
		}
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in text")
	}
	return s[start : end+1], nil
}
