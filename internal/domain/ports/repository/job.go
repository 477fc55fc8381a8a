package repository

import (
	"context"
	"time"

	"fitness-ai-planner/internal/domain/model"
)

// GenerationJobRepository persists job rows. Every state transition is a
// single precondition-checked write: methods returning bool report whether
// the precondition matched (false means another writer got there first).
type GenerationJobRepository interface {
	Create(ctx context.Context, tx Tx, job *model.GenerationJob) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.GenerationJob, error)

	// Claim flips pending -> processing, increments attempts and stamps
	// started_at. False when the job is no longer pending; this is the
	// cross-process at-most-once guard.
	Claim(ctx context.Context, tx Tx, id string) (bool, error)

	// MarkCompleted stores the result only while the job is still
	// processing, so a late completion cannot overwrite a cancellation.
	MarkCompleted(ctx context.Context, tx Tx, id string, result *model.WeeklyPlan) (bool, error)

	// MarkFailed records a terminal error while the job is pending or
	// processing. The pending case covers retry-cap exhaustion.
	MarkFailed(ctx context.Context, tx Tx, id string, msg string) (bool, error)

	// Cancel applies only while pending/processing and only for the owner.
	Cancel(ctx context.Context, tx Tx, id, userID string) (bool, error)

	// ResetForRetry reopens a failed job to pending and clears its error.
	// Attempts are preserved.
	ResetForRetry(ctx context.Context, tx Tx, id string) (bool, error)

	// ListRetryable returns failed jobs with attempts below the cap,
	// oldest-created-first.
	ListRetryable(ctx context.Context, tx Tx, limit int) ([]*model.GenerationJob, error)

	// ListStalePending returns ids of pending jobs untouched for longer
	// than olderThan, for crash-recovery requeue.
	ListStalePending(ctx context.Context, tx Tx, olderThan time.Duration, limit int) ([]string, error)

	// DeleteTerminalOlderThan removes terminal jobs whose completion
	// timestamp precedes cutoff; returns the number of rows deleted.
	DeleteTerminalOlderThan(ctx context.Context, tx Tx, cutoff time.Time) (int64, error)
}
