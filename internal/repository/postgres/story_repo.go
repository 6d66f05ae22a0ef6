package postgres

import (
	"context"
	"time"

	"signlearn-service/internal/db"
	"signlearn-service/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const storyColumns = `id, author_id, author_name, author_photo, media, caption, likes, viewers, created_at, expires_at`

type StoryRepository struct {
	db *db.DB
}

func scanStory(row scanner) (*models.Story, error) {
	var s models.Story
	err := row.Scan(&s.ID, &s.AuthorID, &s.AuthorName, &s.AuthorPhoto, &s.Media, &s.Caption,
		pq.Array(&s.Likes), pq.Array(&s.Viewers), &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		return nil, classify(err)
	}
	return &s, nil
}

func (r *StoryRepository) Create(ctx context.Context, s *models.Story) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stories (`+storyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, s.ID, s.AuthorID, s.AuthorName, s.AuthorPhoto, s.Media, s.Caption,
		textArray(s.Likes), textArray(s.Viewers), s.CreatedAt, s.ExpiresAt)
	return classify(err)
}

func (r *StoryRepository) Get(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()
	return scanStory(r.db.QueryRowContext(ctx, `SELECT `+storyColumns+` FROM stories WHERE id = $1`, id))
}

func (r *StoryRepository) ListActive(ctx context.Context, now time.Time, limit int) ([]*models.Story, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+storyColumns+` FROM stories
		WHERE expires_at > $1
		ORDER BY created_at DESC
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	stories := []*models.Story{}
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, s)
	}
	return stories, classify(rows.Err())
}

func (r *StoryRepository) ToggleLike(ctx context.Context, id uuid.UUID, actorID string) (bool, int, error) {
	return toggleMember(ctx, r.db, "stories", "likes", id, actorID)
}

func (r *StoryRepository) ToggleView(ctx context.Context, id uuid.UUID, actorID string) (bool, int, error) {
	return toggleMember(ctx, r.db, "stories", "viewers", id, actorID)
}

func (r *StoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return execAffected(ctx, r.db, `DELETE FROM stories WHERE id = $1`, id)
}

func (r *StoryRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM stories WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, classify(err)
	}
	n, err := res.RowsAffected()
	return n, classify(err)
}
