package model

import (
	"time"

	"fitness-ai-planner/internal/domain"

	"github.com/google/uuid"
)

// PlanDays is the fixed length of a weekly plan.
const PlanDays = 7

// WeeklyPlan is the structured result of a completed generation job.
type WeeklyPlan struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Advisory    string    `json:"advisory,omitempty"`
	Days        []DayPlan `json:"days"`
}

// DayPlan is one day's slice of a weekly plan.
type DayPlan struct {
	Content         string `json:"content"`
	Calories        int    `json:"calories,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Intensity       string `json:"intensity,omitempty"`
}

// PlanGroup is the durable parent record materialized from a completed job.
// It owns exactly PlanDays entries and carries the job-level title,
// description and advisory notes.
type PlanGroup struct {
	ID          string
	UserID      string
	JobID       string
	Kind        JobKind
	Title       string
	Description string
	Advisory    string
	CreatedAt   time.Time
}

// PlanEntry is one persisted day-level plan record shown to the user.
type PlanEntry struct {
	ID              string
	GroupID         string
	UserID          string
	Day             time.Time
	Content         string
	Calories        int
	DurationMinutes int
	Intensity       string
	CreatedAt       time.Time
}

// Materialize expands a job's weekly result into a PlanGroup and its
// per-day entries dated sequentially starting from `start`.
func Materialize(job *GenerationJob, start time.Time) (*PlanGroup, []*PlanEntry, error) {
	if job.Result == nil {
		return nil, nil, domain.ErrEmptyResult
	}
	if len(job.Result.Days) != PlanDays {
		return nil, nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	group := &PlanGroup{
		ID:          uuid.NewString(),
		UserID:      job.UserID,
		JobID:       job.ID,
		Kind:        job.Kind,
		Title:       job.Result.Title,
		Description: job.Result.Description,
		Advisory:    job.Result.Advisory,
		CreatedAt:   now,
	}
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	entries := make([]*PlanEntry, 0, PlanDays)
	for i, d := range job.Result.Days {
		entries = append(entries, &PlanEntry{
			ID:              uuid.NewString(),
			GroupID:         group.ID,
			UserID:          job.UserID,
			Day:             day.AddDate(0, 0, i),
			Content:         d.Content,
			Calories:        d.Calories,
			DurationMinutes: d.DurationMinutes,
			Intensity:       d.Intensity,
			CreatedAt:       now,
		})
	}
	return group, entries, nil
}
