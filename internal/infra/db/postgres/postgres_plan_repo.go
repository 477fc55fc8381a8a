package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"fitness-ai-planner/internal/domain/model"
	"fitness-ai-planner/internal/domain/ports/repository"
)

var _ repository.PlanRepository = (*planRepo)(nil)

type planRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewPlanRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *planRepo {
	return &planRepo{pool: pool, tm: tm}
}

func (r *planRepo) SaveGroup(ctx context.Context, tx repository.Tx, group *model.PlanGroup, entries []*model.PlanEntry) error {
	insert := func(ctx context.Context, tx repository.Tx) error {
		const gq = `
INSERT INTO plan_groups (id, user_id, job_id, kind, title, description, advisory, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
		if _, err := execSQL(ctx, r.pool, tx, gq,
			group.ID, group.UserID, group.JobID, group.Kind,
			group.Title, group.Description, group.Advisory, group.CreatedAt); err != nil {
			return err
		}

		const eq = `
INSERT INTO plan_entries (id, group_id, user_id, day, content, calories, duration_minutes, intensity, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`
		for _, e := range entries {
			if _, err := execSQL(ctx, r.pool, tx, eq,
				e.ID, e.GroupID, e.UserID, e.Day, e.Content,
				e.Calories, e.DurationMinutes, e.Intensity, e.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	}

	// Group and entries land together or not at all.
	if tx != nil {
		return insert(ctx, tx)
	}
	return r.tm.WithTx(ctx, pgx.TxOptions{}, insert)
}

func (r *planRepo) FindGroupByID(ctx context.Context, tx repository.Tx, id string) (*model.PlanGroup, error) {
	row, err := pickRow(ctx, r.pool, tx, `
SELECT id, user_id, job_id, kind, title, description, advisory, created_at
FROM plan_groups WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	return scanGroup(row)
}

func (r *planRepo) ListEntriesByGroup(ctx context.Context, tx repository.Tx, groupID string) ([]*model.PlanEntry, error) {
	rows, err := pickRows(ctx, r.pool, tx, `
SELECT id, group_id, user_id, day, content, calories, duration_minutes, intensity, created_at
FROM plan_entries WHERE group_id = $1 ORDER BY day;`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PlanEntry
	for rows.Next() {
		var e model.PlanEntry
		if err := rows.Scan(&e.ID, &e.GroupID, &e.UserID, &e.Day, &e.Content,
			&e.Calories, &e.DurationMinutes, &e.Intensity, &e.CreatedAt); err != nil {
			return nil, translateScan(err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *planRepo) ListGroupsByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.PlanGroup, error) {
	rows, err := pickRows(ctx, r.pool, tx, `
SELECT id, user_id, job_id, kind, title, description, advisory, created_at
FROM plan_groups WHERE user_id = $1 ORDER BY created_at DESC;`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PlanGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *planRepo) DeleteGroup(ctx context.Context, tx repository.Tx, id, userID string) error {
	return r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := execSQL(ctx, r.pool, tx,
			`DELETE FROM plan_entries WHERE group_id = $1 AND user_id = $2;`, id, userID); err != nil {
			return err
		}
		_, err := execSQL(ctx, r.pool, tx,
			`DELETE FROM plan_groups WHERE id = $1 AND user_id = $2;`, id, userID)
		return err
	})
}

func scanGroup(row rowScanner) (*model.PlanGroup, error) {
	var (
		g    model.PlanGroup
		kind string
	)
	err := row.Scan(&g.ID, &g.UserID, &g.JobID, &kind, &g.Title, &g.Description, &g.Advisory, &g.CreatedAt)
	if err != nil {
		return nil, translateScan(err)
	}
	g.Kind = model.JobKind(kind)
	return &g, nil
}
