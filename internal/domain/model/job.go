package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"fitness-ai-planner/internal/domain"

	"github.com/oklog/ulid/v2"
)

type JobKind string

const (
	JobKindDiet    JobKind = "diet_generation"
	JobKindWorkout JobKind = "workout_generation"
)

func ParseJobKind(s string) (JobKind, error) {
	switch JobKind(strings.ToLower(strings.TrimSpace(s))) {
	case JobKindDiet:
		return JobKindDiet, nil
	case JobKindWorkout:
		return JobKindWorkout, nil
	default:
		return "", domain.ErrInvalidArgument
	}
}

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// MaxPromptLen bounds the free-text request accepted at submission, in
// characters (runes), not bytes.
const MaxPromptLen = 1000

// GenerationJob is one asynchronous plan-generation request and its
// lifecycle record. Status moves pending -> processing -> completed|failed,
// or to cancelled from pending/processing. Only an administrative retry
// reopens a failed job back to pending.
type GenerationJob struct {
	ID          string
	UserID      string
	Kind        JobKind
	Prompt      string
	Profile     *ProfileSnapshot
	Status      JobStatus
	Result      *WeeklyPlan
	LastError   string
	Attempts    int
	MaxRetries  int
	Priority    int
	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
	UpdatedAt   time.Time
}

// NewGenerationJob validates submission input and builds a pending job.
// ULID ids are unique and sort by creation time.
func NewGenerationJob(userID string, kind JobKind, prompt string, maxRetries int) (*GenerationJob, error) {
	prompt = strings.TrimSpace(prompt)
	if userID == "" || prompt == "" {
		return nil, domain.ErrInvalidArgument
	}
	if utf8.RuneCountInString(prompt) > MaxPromptLen {
		return nil, domain.ErrInvalidArgument
	}
	if kind != JobKindDiet && kind != JobKindWorkout {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &GenerationJob{
		ID:         ulid.Make().String(),
		UserID:     userID,
		Kind:       kind,
		Prompt:     prompt,
		Status:     JobStatusPending,
		Attempts:   0,
		MaxRetries: maxRetries,
		Priority:   1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (j *GenerationJob) Terminal() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Progress is a coarse indicator for the polling UI: terminal-vs-not is all
// the consumer really needs.
func (j *GenerationJob) Progress() int {
	switch j.Status {
	case JobStatusProcessing:
		return 50
	case JobStatusCompleted:
		return 100
	default:
		return 0
	}
}

// RetriesExhausted reports whether another attempt would exceed the cap.
func (j *GenerationJob) RetriesExhausted() bool {
	return j.Attempts >= j.MaxRetries
}

// ProfileSnapshot captures the owner's stored attributes at execution time.
// Gender is required; the rest default to absent.
type ProfileSnapshot struct {
	Gender     string  `json:"gender"`
	HeightCm   float64 `json:"height_cm,omitempty"`
	WeightKg   float64 `json:"weight_kg,omitempty"`
	Conditions string  `json:"conditions,omitempty"`
}
