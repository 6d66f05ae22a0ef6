package postgres

import (
	"context"

	"signlearn-service/internal/db"
	"signlearn-service/internal/models"
	"signlearn-service/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const userColumns = `id, firebase_uid, email, username, display_name, profile_photo, gender,
	auth_provider, coins, challenges_completed, liked_stories, saved_posts, progress_id,
	is_active, last_login, created_at, updated_at`

type UserRepository struct {
	db *db.DB
}

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	var gender string
	var progressID uuid.NullUUID
	err := row.Scan(&u.ID, &u.FirebaseUID, &u.Email, &u.Username, &u.DisplayName, &u.ProfilePhoto,
		&gender, &u.AuthProvider, &u.Coins, &u.ChallengesCompleted, pq.Array(&u.LikedStories),
		pq.Array(&u.SavedPosts), &progressID, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	u.Gender = models.Gender(gender)
	if progressID.Valid {
		id := progressID.UUID
		u.ProgressID = &id
	}
	return &u, nil
}

func (r *UserRepository) queryUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()
	return scanUser(r.db.QueryRowContext(ctx, query, args...))
}

func (r *UserRepository) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	return r.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE firebase_uid = $1`, subject)
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, classify(err)
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, u.ID, u.FirebaseUID, u.Email, u.Username, u.DisplayName, u.ProfilePhoto, string(u.Gender),
		u.AuthProvider, u.Coins, u.ChallengesCompleted, textArray(u.LikedStories), textArray(u.SavedPosts),
		u.ProgressID, u.IsActive, u.LastLogin, u.CreatedAt, u.UpdatedAt)
	return classify(err)
}

func (r *UserRepository) RecordLogin(ctx context.Context, subject string, upd repository.LoginUpdate) (*models.User, error) {
	var gender *string
	if upd.Gender != nil {
		g := string(*upd.Gender)
		gender = &g
	}
	return r.queryUser(ctx, `
		UPDATE users SET
			last_login = $2,
			display_name = COALESCE($3::text, display_name),
			profile_photo = COALESCE($4::text, profile_photo),
			email = COALESCE($5::text, email),
			gender = COALESCE($6::text, gender),
			updated_at = $2
		WHERE firebase_uid = $1
		RETURNING `+userColumns,
		subject, upd.At, upd.DisplayName, upd.PhotoURL, upd.Email, gender)
}

func (r *UserRepository) LinkProgress(ctx context.Context, subject string, progressID uuid.UUID) error {
	return execAffected(ctx, r.db, `UPDATE users SET progress_id = $2, updated_at = NOW() WHERE firebase_uid = $1`,
		subject, progressID)
}

func (r *UserRepository) SetCoins(ctx context.Context, subject string, coins int) (*models.User, error) {
	return r.queryUser(ctx, `
		UPDATE users SET coins = $2, updated_at = NOW()
		WHERE firebase_uid = $1
		RETURNING `+userColumns, subject, coins)
}

func (r *UserRepository) AdjustCoins(ctx context.Context, subject string, delta int) (*models.User, error) {
	return r.queryUser(ctx, `
		UPDATE users SET coins = GREATEST(coins + $2::int, 0), updated_at = NOW()
		WHERE firebase_uid = $1
		RETURNING `+userColumns, subject, delta)
}

func (r *UserRepository) IncrementChallenges(ctx context.Context, subject string) (*models.User, error) {
	return r.queryUser(ctx, `
		UPDATE users SET challenges_completed = challenges_completed + 1, updated_at = NOW()
		WHERE firebase_uid = $1
		RETURNING `+userColumns, subject)
}

func (r *UserRepository) SetLikedStory(ctx context.Context, subject, storyID string, liked bool) error {
	return r.setMember(ctx, "liked_stories", subject, storyID, liked)
}

func (r *UserRepository) SetSavedPost(ctx context.Context, subject, postID string, saved bool) error {
	return r.setMember(ctx, "saved_posts", subject, postID, saved)
}

func (r *UserRepository) setMember(ctx context.Context, column, subject, member string, present bool) error {
	expr := `CASE WHEN $2::text = ANY(` + column + `) THEN ` + column + ` ELSE array_append(` + column + `, $2::text) END`
	if !present {
		expr = `array_remove(` + column + `, $2::text)`
	}
	return execAffected(ctx, r.db, `UPDATE users SET `+column+` = `+expr+`, updated_at = NOW() WHERE firebase_uid = $1`,
		subject, member)
}

func (r *UserRepository) Delete(ctx context.Context, subject string) error {
	return execAffected(ctx, r.db, `DELETE FROM users WHERE firebase_uid = $1`, subject)
}
