package postgres

import (
	"context"

	"signlearn-service/internal/db"
	"signlearn-service/internal/models"
	"signlearn-service/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const sharedPostColumns = `id, sharer_id, sharer_name, sharer_photo, caption, original, likes, saves, is_deleted, created_at`

type SharedPostRepository struct {
	db *db.DB
}

func scanSharedPost(row scanner) (*models.SharedPost, error) {
	var s models.SharedPost
	err := row.Scan(&s.ID, &s.SharerID, &s.SharerName, &s.SharerPhoto, &s.Caption, &s.Original,
		pq.Array(&s.Likes), pq.Array(&s.Saves), &s.IsDeleted, &s.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &s, nil
}

func (r *SharedPostRepository) Create(ctx context.Context, s *models.SharedPost) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shared_posts (id, sharer_id, sharer_name, sharer_photo, caption, original_post_id,
			original, likes, saves, is_deleted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, s.ID, s.SharerID, s.SharerName, s.SharerPhoto, s.Caption, s.Original.PostID, s.Original,
		textArray(s.Likes), textArray(s.Saves), s.IsDeleted, s.CreatedAt)
	return classify(err)
}

func (r *SharedPostRepository) Get(ctx context.Context, id uuid.UUID) (*models.SharedPost, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()
	return scanSharedPost(r.db.QueryRowContext(ctx,
		`SELECT `+sharedPostColumns+` FROM shared_posts WHERE id = $1 AND NOT is_deleted`, id))
}

func (r *SharedPostRepository) List(ctx context.Context, opts repository.ListOptions) ([]*models.SharedPost, int, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shared_posts WHERE NOT is_deleted`).Scan(&total); err != nil {
		return nil, 0, classify(err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sharedPostColumns+` FROM shared_posts
		WHERE NOT is_deleted
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, classify(err)
	}
	defer rows.Close()

	shared := []*models.SharedPost{}
	for rows.Next() {
		s, err := scanSharedPost(rows)
		if err != nil {
			return nil, 0, err
		}
		shared = append(shared, s)
	}
	return shared, total, classify(rows.Err())
}

func (r *SharedPostRepository) SetLike(ctx context.Context, id uuid.UUID, actorID string, liked bool) (int, error) {
	return setMember(ctx, r.db, "shared_posts", "likes", "AND NOT is_deleted", id, actorID, liked)
}

func (r *SharedPostRepository) SetSave(ctx context.Context, id uuid.UUID, actorID string, saved bool) (int, error) {
	return setMember(ctx, r.db, "shared_posts", "saves", "AND NOT is_deleted", id, actorID, saved)
}

func (r *SharedPostRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return execAffected(ctx, r.db, `UPDATE shared_posts SET is_deleted = TRUE WHERE id = $1 AND NOT is_deleted`, id)
}
