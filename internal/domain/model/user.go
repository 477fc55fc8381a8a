package model

import (
	"time"

	"fitness-ai-planner/internal/domain"

	"github.com/google/uuid"
)

// User is a domain entity owning generation jobs and plan entries.
// Gender is the only profile attribute required for generation; height,
// weight and medical conditions are optional.
type User struct {
	ID           string
	Username     string
	Gender       string
	HeightCm     float64
	WeightKg     float64
	Conditions   string
	RegisteredAt time.Time
	LastActiveAt time.Time
	IsAdmin      bool
}

func NewUser(id, username string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if username == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:           id,
		Username:     username,
		RegisteredAt: now,
		LastActiveAt: now,
	}, nil
}

// Snapshot builds the profile snapshot embedded into a job at execution
// time. Gender is mandatory.
func (u *User) Snapshot() (*ProfileSnapshot, error) {
	if u == nil || u.Gender == "" {
		return nil, domain.ErrProfileIncomplete
	}
	return &ProfileSnapshot{
		Gender:     u.Gender,
		HeightCm:   u.HeightCm,
		WeightKg:   u.WeightKg,
		Conditions: u.Conditions,
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
func (u *User) Touch()       { u.LastActiveAt = time.Now() }
