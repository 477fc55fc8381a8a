// File: internal/usecase/job_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"fitness-ai-planner/internal/domain"
	"fitness-ai-planner/internal/domain/model"
	"fitness-ai-planner/internal/domain/ports/queue"
	"fitness-ai-planner/internal/domain/ports/repository"
)

// Compile-time check
var _ JobUseCase = (*jobUC)(nil)

// StatusSnapshot is the read-only view served to the polling client.
type StatusSnapshot struct {
	ID          string            `json:"id"`
	Status      model.JobStatus   `json:"status"`
	Result      *model.WeeklyPlan `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
	Progress    int               `json:"progress"`
	CreatedAt   time.Time         `json:"created_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// SaveOutcome identifies the records produced by SaveResult. SavedID is the
// first day's entry, used by clients to deep-link to the new plan.
type SaveOutcome struct {
	SavedID  string `json:"saved_id"`
	GroupID  string `json:"group_id"`
	Redirect string `json:"redirect"`
}

// SubmitLimiter bounds how often one user may submit jobs.
type SubmitLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type JobUseCase interface {
	// Create validates input, inserts a pending job and enqueues it for
	// background execution. Returns the job id immediately; it never waits
	// on generation.
	Create(ctx context.Context, userID string, kind model.JobKind, prompt string) (string, error)

	// Status is a pure owner-scoped read, safe to call repeatedly and
	// concurrently.
	Status(ctx context.Context, jobID, userID string) (*StatusSnapshot, error)

	// Cancel applies only while the job is pending or processing.
	Cancel(ctx context.Context, jobID, userID string) error

	// SaveResult materializes a completed job's result into a plan group
	// with one entry per day, starting today.
	SaveResult(ctx context.Context, jobID, userID string) (*SaveOutcome, error)

	// Await polls Status at interval until a terminal state or timeout.
	Await(ctx context.Context, jobID, userID string, interval, timeout time.Duration) (*StatusSnapshot, error)

	// RetryFailed resets up to limit retryable failed jobs (oldest first)
	// back to pending and re-enqueues them. Administrative.
	RetryFailed(ctx context.Context, limit int) (int, error)

	// CleanupOld permanently deletes terminal jobs past retention.
	CleanupOld(ctx context.Context) (int64, error)

	// RequeueStale re-enqueues pending jobs that have been waiting too
	// long, recovering work lost to a crashed consumer.
	RequeueStale(ctx context.Context, limit int) (int, error)
}

type JobPolicy struct {
	MaxRetries    int
	RetentionDays int
	SubmitLimit   int
	SubmitWindow  time.Duration
	RequeueAfter  time.Duration
}

type jobUC struct {
	jobs    repository.GenerationJobRepository
	plans   repository.PlanRepository
	queue   queue.JobQueue
	limiter SubmitLimiter
	policy  JobPolicy
	log     *zerolog.Logger
}

func NewJobUseCase(
	jobs repository.GenerationJobRepository,
	plans repository.PlanRepository,
	q queue.JobQueue,
	limiter SubmitLimiter,
	policy JobPolicy,
	logger *zerolog.Logger,
) *jobUC {
	l := logger.With().Str("component", "JobUC").Logger()
	return &jobUC{jobs: jobs, plans: plans, queue: q, limiter: limiter, policy: policy, log: &l}
}

func (u *jobUC) Create(ctx context.Context, userID string, kind model.JobKind, prompt string) (string, error) {
	job, err := model.NewGenerationJob(userID, kind, prompt, u.policy.MaxRetries)
	if err != nil {
		return "", err
	}

	if u.limiter != nil {
		key := fmt.Sprintf("rate_limit:%s:submit", userID)
		ok, err := u.limiter.Allow(ctx, key, u.policy.SubmitLimit, u.policy.SubmitWindow)
		if err != nil {
			u.log.Warn().Err(err).Msg("rate limiter unavailable, allowing submission")
		} else if !ok {
			return "", domain.ErrRateLimited
		}
	}

	if err := u.jobs.Create(ctx, nil, job); err != nil {
		return "", err
	}

	// The row is durable at this point; a failed enqueue only delays
	// execution until the requeue sweep finds the pending job.
	if err := u.queue.Enqueue(ctx, job.ID); err != nil {
		u.log.Warn().Err(err).Str("job_id", job.ID).Msg("enqueue failed, sweep will pick it up")
	}

	u.log.Info().Str("job_id", job.ID).Str("kind", string(kind)).Msg("job submitted")
	return job.ID, nil
}

func (u *jobUC) Status(ctx context.Context, jobID, userID string) (*StatusSnapshot, error) {
	job, err := u.findOwned(ctx, jobID, userID)
	if err != nil {
		return nil, err
	}
	return snapshot(job), nil
}

func (u *jobUC) Cancel(ctx context.Context, jobID, userID string) error {
	ok, err := u.jobs.Cancel(ctx, nil, jobID, userID)
	if err != nil {
		return err
	}
	if ok {
		u.log.Info().Str("job_id", jobID).Msg("job cancelled")
		return nil
	}
	// Nothing matched: distinguish "no such job" from "already terminal".
	if _, err := u.findOwned(ctx, jobID, userID); err != nil {
		return err
	}
	return domain.ErrNotCancellable
}

func (u *jobUC) SaveResult(ctx context.Context, jobID, userID string) (*SaveOutcome, error) {
	job, err := u.findOwned(ctx, jobID, userID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobStatusCompleted {
		return nil, domain.ErrJobNotCompleted
	}
	if job.Result == nil {
		return nil, domain.ErrEmptyResult
	}

	group, entries, err := model.Materialize(job, time.Now())
	if err != nil {
		return nil, err
	}
	if err := u.plans.SaveGroup(ctx, nil, group, entries); err != nil {
		return nil, err
	}

	u.log.Info().Str("job_id", jobID).Str("group_id", group.ID).Msg("plan saved")
	return &SaveOutcome{
		SavedID:  entries[0].ID,
		GroupID:  group.ID,
		Redirect: "/plans/" + group.ID,
	}, nil
}

func (u *jobUC) Await(ctx context.Context, jobID, userID string, interval, timeout time.Duration) (*StatusSnapshot, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		snap, err := u.Status(ctx, jobID, userID)
		if err != nil {
			return nil, err
		}
		switch snap.Status {
		case model.JobStatusCompleted, model.JobStatusFailed, model.JobStatusCancelled:
			return snap, nil
		}
		if time.Now().After(deadline) {
			return snap, domain.ErrAwaitTimeout
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (u *jobUC) RetryFailed(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 10
	}
	jobs, err := u.jobs.ListRetryable(ctx, nil, limit)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, job := range jobs {
		ok, err := u.jobs.ResetForRetry(ctx, nil, job.ID)
		if err != nil {
			u.log.Error().Err(err).Str("job_id", job.ID).Msg("retry reset failed")
			continue
		}
		if !ok {
			continue // state moved since the list
		}
		if err := u.queue.Enqueue(ctx, job.ID); err != nil {
			u.log.Warn().Err(err).Str("job_id", job.ID).Msg("retry enqueue failed, sweep will pick it up")
		}
		n++
	}
	if n > 0 {
		u.log.Info().Int("count", n).Msg("failed jobs reset to pending")
	}
	return n, nil
}

func (u *jobUC) CleanupOld(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -u.policy.RetentionDays)
	n, err := u.jobs.DeleteTerminalOlderThan(ctx, nil, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		u.log.Info().Int64("count", n).Time("cutoff", cutoff).Msg("old jobs deleted")
	}
	return n, nil
}

func (u *jobUC) RequeueStale(ctx context.Context, limit int) (int, error) {
	ids, err := u.jobs.ListStalePending(ctx, nil, u.policy.RequeueAfter, limit)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		if err := u.queue.Enqueue(ctx, id); err != nil {
			u.log.Warn().Err(err).Str("job_id", id).Msg("requeue failed")
			continue
		}
		n++
	}
	if n > 0 {
		u.log.Info().Int("count", n).Msg("stale pending jobs requeued")
	}
	return n, nil
}

func (u *jobUC) findOwned(ctx context.Context, jobID, userID string) (*model.GenerationJob, error) {
	job, err := u.jobs.FindByID(ctx, nil, jobID)
	if err != nil {
		return nil, err
	}
	// Ownership failures read as not-found so ids cannot be probed.
	if job.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

func snapshot(job *model.GenerationJob) *StatusSnapshot {
	s := &StatusSnapshot{
		ID:        job.ID,
		Status:    job.Status,
		Result:    job.Result,
		Error:     job.LastError,
		Progress:  job.Progress(),
		CreatedAt: job.CreatedAt,
	}
	if !job.CompletedAt.IsZero() {
		t := job.CompletedAt
		s.CompletedAt = &t
	}
	return s
}
