package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"fitness-ai-planner/internal/domain/model"
	"fitness-ai-planner/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (id, username, gender, height_cm, weight_kg, conditions, registered_at, last_active_at, is_admin)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
  username = EXCLUDED.username,
  gender = EXCLUDED.gender,
  height_cm = EXCLUDED.height_cm,
  weight_kg = EXCLUDED.weight_kg,
  conditions = EXCLUDED.conditions,
  last_active_at = EXCLUDED.last_active_at,
  is_admin = EXCLUDED.is_admin;`

	u.LastActiveAt = time.Now()
	_, err := execSQL(ctx, r.pool, tx, q,
		u.ID, u.Username, u.Gender, u.HeightCm, u.WeightKg, u.Conditions,
		u.RegisteredAt, u.LastActiveAt, u.IsAdmin)
	return err
}

const userColumns = `id, username, gender, height_cm, weight_kg, conditions, registered_at, last_active_at, is_admin`

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx,
		`SELECT `+userColumns+` FROM users WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *userRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx,
		`SELECT `+userColumns+` FROM users WHERE username = $1;`, username)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Gender, &u.HeightCm, &u.WeightKg,
		&u.Conditions, &u.RegisteredAt, &u.LastActiveAt, &u.IsAdmin)
	if err != nil {
		return nil, translateScan(err)
	}
	return &u, nil
}
