package usecase

import (
	"fmt"
	"strings"

	"fitness-ai-planner/internal/domain/model"
)

// System role strings are fixed per job kind so output stays consistent
// across attempts.
const (
	dietSystemRole = "You are a certified nutritionist. You design safe, realistic weekly diet plans " +
		"tailored to the user's profile and constraints. You always answer with a single JSON object " +
		"and nothing else."
	workoutSystemRole = "You are a certified personal trainer. You design safe, progressive weekly workout plans " +
		"tailored to the user's profile and constraints. You always answer with a single JSON object " +
		"and nothing else."
)

// SystemRole returns the kind-specific system role string.
func SystemRole(kind model.JobKind) string {
	if kind == model.JobKindWorkout {
		return workoutSystemRole
	}
	return dietSystemRole
}

// BuildPrompt renders the full prompt for a job: the profile snapshot, the
// user's free-text request and the required JSON output shape. Pure.
func BuildPrompt(profile *model.ProfileSnapshot, request string, kind model.JobKind) string {
	var b strings.Builder

	b.WriteString("User profile:\n")
	b.WriteString(fmt.Sprintf("- gender: %s\n", profile.Gender))
	if profile.HeightCm > 0 {
		b.WriteString(fmt.Sprintf("- height: %.0f cm\n", profile.HeightCm))
	}
	if profile.WeightKg > 0 {
		b.WriteString(fmt.Sprintf("- weight: %.1f kg\n", profile.WeightKg))
	}
	if profile.Conditions != "" {
		b.WriteString(fmt.Sprintf("- medical conditions: %s\n", profile.Conditions))
	}

	b.WriteString("\nRequest:\n")
	b.WriteString(strings.TrimSpace(request))
	b.WriteString("\n\n")

	if kind == model.JobKindWorkout {
		b.WriteString("Produce a 7-day workout plan. ")
	} else {
		b.WriteString("Produce a 7-day diet plan. ")
	}
	b.WriteString(`Respond with exactly this JSON shape:
{
  "title": "short plan title",
  "description": "one-paragraph summary",
  "advisory": "optional safety notes",
  "days": [
    {"content": "full day plan text", "calories": 0, "duration_minutes": 0, "intensity": "low|medium|high"}
  ]
}
The "days" array must contain exactly 7 entries, one per day starting today.`)

	return b.String()
}
