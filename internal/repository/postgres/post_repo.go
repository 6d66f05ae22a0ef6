package postgres

import (
	"context"
	"fmt"

	"signlearn-service/internal/db"
	"signlearn-service/internal/models"
	"signlearn-service/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const postColumns = `id, author_id, author_name, author_photo, content, media, likes, comments,
	share_count, saves, is_public, shared_from, created_at, updated_at`

type PostRepository struct {
	db *db.DB
}

func scanPost(row scanner) (*models.Post, error) {
	var p models.Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.AuthorName, &p.AuthorPhoto, &p.Content, &p.Media,
		pq.Array(&p.Likes), &p.Comments, &p.ShareCount, pq.Array(&p.Saves), &p.IsPublic,
		&p.SharedFrom, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &p, nil
}

func (r *PostRepository) Create(ctx context.Context, p *models.Post) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO posts (`+postColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, p.ID, p.AuthorID, p.AuthorName, p.AuthorPhoto, p.Content, p.Media, textArray(p.Likes),
		p.Comments, p.ShareCount, textArray(p.Saves), p.IsPublic, p.SharedFrom, p.CreatedAt, p.UpdatedAt)
	return classify(err)
}

func (r *PostRepository) Get(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()
	return scanPost(r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
}

func (r *PostRepository) ListPublic(ctx context.Context, opts repository.ListOptions) ([]*models.Post, int, error) {
	return r.list(ctx, `is_public`, opts)
}

func (r *PostRepository) ListSavedBy(ctx context.Context, actorID string, opts repository.ListOptions) ([]*models.Post, int, error) {
	return r.list(ctx, `$1::text = ANY(saves)`, opts, actorID)
}

// list runs a count and a page query over the same filter; the filter's
// placeholders come first, LIMIT/OFFSET follow them.
func (r *PostRepository) list(ctx context.Context, where string, opts repository.ListOptions, args ...interface{}) ([]*models.Post, int, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, classify(err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM posts
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, postColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, 0, classify(err)
	}
	defer rows.Close()

	posts := []*models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, p)
	}
	return posts, total, classify(rows.Err())
}

func (r *PostRepository) Update(ctx context.Context, id uuid.UUID, upd repository.PostUpdate) (*models.Post, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	var media interface{}
	if upd.Media != nil {
		media = *upd.Media
	}
	return scanPost(r.db.QueryRowContext(ctx, `
		UPDATE posts SET
			content = COALESCE($2::text, content),
			media = COALESCE($3::jsonb, media),
			is_public = COALESCE($4::boolean, is_public),
			updated_at = $5
		WHERE id = $1
		RETURNING `+postColumns, id, upd.Content, media, upd.IsPublic, upd.At))
}

func (r *PostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return execAffected(ctx, r.db, `DELETE FROM posts WHERE id = $1`, id)
}

func (r *PostRepository) ToggleLike(ctx context.Context, id uuid.UUID, actorID string) (bool, int, error) {
	return toggleMember(ctx, r.db, "posts", "likes", id, actorID)
}

func (r *PostRepository) ToggleSave(ctx context.Context, id uuid.UUID, actorID string) (bool, int, error) {
	return toggleMember(ctx, r.db, "posts", "saves", id, actorID)
}

func (r *PostRepository) AddComment(ctx context.Context, id uuid.UUID, c models.Comment) (int, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx, `
		UPDATE posts SET comments = comments || $2::jsonb, updated_at = NOW()
		WHERE id = $1
		RETURNING jsonb_array_length(comments)
	`, id, models.Comments{c}).Scan(&count)
	return count, classify(err)
}

func (r *PostRepository) IncrementShares(ctx context.Context, id uuid.UUID) (int, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx, `
		UPDATE posts SET share_count = share_count + 1
		WHERE id = $1
		RETURNING share_count
	`, id).Scan(&count)
	return count, classify(err)
}
