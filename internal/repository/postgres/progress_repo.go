package postgres

import (
	"context"
	"time"

	"signlearn-service/internal/db"
	"signlearn-service/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const progressColumns = `id, username, total_coins, learned_signs, current_streak, best_streak, last_activity, created_at`

type ProgressRepository struct {
	db *db.DB
}

func scanProgress(row scanner) (*models.Progress, error) {
	var p models.Progress
	err := row.Scan(&p.ID, &p.Username, &p.TotalCoins, pq.Array(&p.LearnedSigns),
		&p.CurrentStreak, &p.BestStreak, &p.LastActivity, &p.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &p, nil
}

func (r *ProgressRepository) queryProgress(ctx context.Context, query string, args ...interface{}) (*models.Progress, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()
	return scanProgress(r.db.QueryRowContext(ctx, query, args...))
}

func (r *ProgressRepository) Get(ctx context.Context, username string) (*models.Progress, error) {
	return r.queryProgress(ctx, `SELECT `+progressColumns+` FROM user_progress WHERE username = $1`, username)
}

func (r *ProgressRepository) Ensure(ctx context.Context, username string, now time.Time) (*models.Progress, error) {
	return r.queryProgress(ctx, `
		INSERT INTO user_progress (id, username, last_activity, created_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username
		RETURNING `+progressColumns, uuid.New(), username, now)
}

func (r *ProgressRepository) AddCoins(ctx context.Context, username string, amount int, now time.Time) (*models.Progress, error) {
	return r.queryProgress(ctx, `
		INSERT INTO user_progress (id, username, total_coins, last_activity, created_at)
		VALUES ($1, $2, GREATEST($3::int, 0), $4, $4)
		ON CONFLICT (username) DO UPDATE SET
			total_coins = GREATEST(user_progress.total_coins + $3::int, 0),
			last_activity = $4
		RETURNING `+progressColumns, uuid.New(), username, amount, now)
}

func (r *ProgressRepository) IncrementStreak(ctx context.Context, username string, now time.Time) (*models.Progress, error) {
	return r.queryProgress(ctx, `
		INSERT INTO user_progress (id, username, current_streak, best_streak, last_activity, created_at)
		VALUES ($1, $2, 1, 1, $3, $3)
		ON CONFLICT (username) DO UPDATE SET
			current_streak = user_progress.current_streak + 1,
			best_streak = GREATEST(user_progress.best_streak, user_progress.current_streak + 1),
			last_activity = $3
		RETURNING `+progressColumns, uuid.New(), username, now)
}

func (r *ProgressRepository) ResetStreak(ctx context.Context, username string, now time.Time) (*models.Progress, error) {
	return r.queryProgress(ctx, `
		INSERT INTO user_progress (id, username, last_activity, created_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (username) DO UPDATE SET
			current_streak = 0,
			last_activity = $3
		RETURNING `+progressColumns, uuid.New(), username, now)
}

func (r *ProgressRepository) AddLearnedSign(ctx context.Context, username, signID string, now time.Time) (*models.Progress, error) {
	return r.queryProgress(ctx, `
		INSERT INTO user_progress (id, username, learned_signs, last_activity, created_at)
		VALUES ($1, $2, ARRAY[$3::text], $4, $4)
		ON CONFLICT (username) DO UPDATE SET
			learned_signs = CASE WHEN $3::text = ANY(user_progress.learned_signs)
				THEN user_progress.learned_signs
				ELSE array_append(user_progress.learned_signs, $3::text) END,
			last_activity = $4
		RETURNING `+progressColumns, uuid.New(), username, signID, now)
}

func (r *ProgressRepository) Delete(ctx context.Context, username string) error {
	return execAffected(ctx, r.db, `DELETE FROM user_progress WHERE username = $1`, username)
}
