package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"fitness-ai-planner/internal/domain/model"
	"fitness-ai-planner/internal/domain/ports/repository"
)

var _ repository.GenerationJobRepository = (*jobRepo)(nil)

type jobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *jobRepo {
	return &jobRepo{pool: pool}
}

const jobColumns = `id, user_id, kind, prompt, profile, status, result, last_error,
attempts, max_retries, priority, created_at, started_at, completed_at, updated_at`

func (r *jobRepo) Create(ctx context.Context, tx repository.Tx, job *model.GenerationJob) error {
	var profile []byte
	if job.Profile != nil {
		b, err := json.Marshal(job.Profile)
		if err != nil {
			return err
		}
		profile = b
	}
	const q = `
INSERT INTO generation_jobs
  (id, user_id, kind, prompt, profile, status, last_error, attempts, max_retries, priority, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`

	_, err := execSQL(ctx, r.pool, tx, q,
		job.ID, job.UserID, job.Kind, job.Prompt, profile, job.Status,
		job.LastError, job.Attempts, job.MaxRetries, job.Priority, job.CreatedAt, job.UpdatedAt)
	return err
}

func (r *jobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GenerationJob, error) {
	row, err := pickRow(ctx, r.pool, tx,
		`SELECT `+jobColumns+` FROM generation_jobs WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

func (r *jobRepo) Claim(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	const q = `
UPDATE generation_jobs
SET status = 'processing', attempts = attempts + 1, started_at = now(), updated_at = now()
WHERE id = $1 AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *jobRepo) MarkCompleted(ctx context.Context, tx repository.Tx, id string, result *model.WeeklyPlan) (bool, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return false, err
	}
	const q = `
UPDATE generation_jobs
SET status = 'completed', result = $2, last_error = '', completed_at = now(), updated_at = now()
WHERE id = $1 AND status = 'processing';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, payload)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *jobRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string, msg string) (bool, error) {
	const q = `
UPDATE generation_jobs
SET status = 'failed', last_error = $2, updated_at = now()
WHERE id = $1 AND status IN ('pending', 'processing');`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, msg)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *jobRepo) Cancel(ctx context.Context, tx repository.Tx, id, userID string) (bool, error) {
	const q = `
UPDATE generation_jobs
SET status = 'cancelled', updated_at = now()
WHERE id = $1 AND user_id = $2 AND status IN ('pending', 'processing');`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, userID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *jobRepo) ResetForRetry(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	const q = `
UPDATE generation_jobs
SET status = 'pending', last_error = '', updated_at = now()
WHERE id = $1 AND status = 'failed' AND attempts < max_retries;`

	cmd, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *jobRepo) ListRetryable(ctx context.Context, tx repository.Tx, limit int) ([]*model.GenerationJob, error) {
	const q = `
SELECT ` + jobColumns + `
FROM generation_jobs
WHERE status = 'failed' AND attempts < max_retries
ORDER BY created_at
LIMIT $1;`

	rows, err := pickRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.GenerationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (r *jobRepo) ListStalePending(ctx context.Context, tx repository.Tx, olderThan time.Duration, limit int) ([]string, error) {
	const q = `
SELECT id FROM generation_jobs
WHERE status = 'pending' AND updated_at < $1
ORDER BY created_at
LIMIT $2;`

	rows, err := pickRows(ctx, r.pool, tx, q, time.Now().Add(-olderThan), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, translateScan(err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *jobRepo) DeleteTerminalOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error) {
	const q = `
DELETE FROM generation_jobs
WHERE status IN ('completed', 'failed', 'cancelled')
  AND COALESCE(completed_at, updated_at) < $1;`

	cmd, err := execSQL(ctx, r.pool, tx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*model.GenerationJob, error) {
	var (
		job                    model.GenerationJob
		kind, status           string
		profileRaw, resultRaw  []byte
		startedAt, completedAt *time.Time
	)
	err := row.Scan(
		&job.ID, &job.UserID, &kind, &job.Prompt, &profileRaw, &status, &resultRaw,
		&job.LastError, &job.Attempts, &job.MaxRetries, &job.Priority,
		&job.CreatedAt, &startedAt, &completedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, translateScan(err)
	}
	job.Kind = model.JobKind(kind)
	job.Status = model.JobStatus(status)
	if startedAt != nil {
		job.StartedAt = *startedAt
	}
	if completedAt != nil {
		job.CompletedAt = *completedAt
	}
	if len(profileRaw) > 0 {
		var p model.ProfileSnapshot
		if err := json.Unmarshal(profileRaw, &p); err == nil {
			job.Profile = &p
		}
	}
	if len(resultRaw) > 0 {
		var plan model.WeeklyPlan
		if err := json.Unmarshal(resultRaw, &plan); err != nil {
			return nil, err
		}
		job.Result = &plan
	}
	return &job, nil
}
