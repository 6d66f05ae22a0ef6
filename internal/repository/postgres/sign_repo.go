package postgres

import (
	"context"

	"signlearn-service/internal/db"
	"signlearn-service/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const signColumns = `id, word, description, difficulty, correct_answer, wrong_answers, animation,
	video_url, video_duration, category, sequence_order, coins_reward, created_at, updated_at`

const signFilter = `($1 = '' OR difficulty = $1) AND ($2 = '' OR category = $2)`

type SignRepository struct {
	db *db.DB
}

func scanSign(row scanner) (*models.Sign, error) {
	var s models.Sign
	var animation []byte
	err := row.Scan(&s.ID, &s.Word, &s.Description, &s.Difficulty, &s.CorrectAnswer,
		pq.Array(&s.WrongAnswers), &animation, &s.VideoURL, &s.VideoDuration, &s.Category,
		&s.Order, &s.CoinsReward, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	if len(animation) > 0 {
		s.Animation = append([]byte(nil), animation...)
	}
	return &s, nil
}

func (r *SignRepository) Create(ctx context.Context, s *models.Sign) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO signs (`+signColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, s.ID, s.Word, s.Description, s.Difficulty, s.CorrectAnswer, textArray(s.WrongAnswers),
		jsonArg(s.Animation), s.VideoURL, s.VideoDuration, s.Category, s.Order, s.CoinsReward,
		s.CreatedAt, s.UpdatedAt)
	return classify(err)
}

// Upsert keys on word. xmax is zero only for a freshly inserted tuple.
func (r *SignRepository) Upsert(ctx context.Context, s *models.Sign) (bool, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	var inserted bool
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO signs (`+signColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (word) DO UPDATE SET
			description = EXCLUDED.description,
			difficulty = EXCLUDED.difficulty,
			correct_answer = EXCLUDED.correct_answer,
			wrong_answers = EXCLUDED.wrong_answers,
			animation = EXCLUDED.animation,
			video_url = EXCLUDED.video_url,
			video_duration = EXCLUDED.video_duration,
			category = EXCLUDED.category,
			sequence_order = EXCLUDED.sequence_order,
			coins_reward = EXCLUDED.coins_reward,
			updated_at = EXCLUDED.updated_at
		RETURNING id, (xmax = 0)
	`, s.ID, s.Word, s.Description, s.Difficulty, s.CorrectAnswer, textArray(s.WrongAnswers),
		jsonArg(s.Animation), s.VideoURL, s.VideoDuration, s.Category, s.Order, s.CoinsReward,
		s.CreatedAt, s.UpdatedAt).Scan(&s.ID, &inserted)
	if err != nil {
		return false, classify(err)
	}
	return inserted, nil
}

func (r *SignRepository) Get(ctx context.Context, id uuid.UUID) (*models.Sign, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()
	return scanSign(r.db.QueryRowContext(ctx, `SELECT `+signColumns+` FROM signs WHERE id = $1`, id))
}

func (r *SignRepository) List(ctx context.Context, filter models.SignFilter) ([]*models.Sign, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+signColumns+` FROM signs
		WHERE `+signFilter+`
		ORDER BY sequence_order ASC NULLS LAST, word ASC
	`, filter.Difficulty, filter.Category)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	signs := []*models.Sign{}
	for rows.Next() {
		s, err := scanSign(rows)
		if err != nil {
			return nil, err
		}
		signs = append(signs, s)
	}
	return signs, classify(rows.Err())
}

func (r *SignRepository) Random(ctx context.Context, filter models.SignFilter) (*models.Sign, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()
	return scanSign(r.db.QueryRowContext(ctx, `
		SELECT `+signColumns+` FROM signs
		WHERE `+signFilter+`
		ORDER BY random()
		LIMIT 1
	`, filter.Difficulty, filter.Category))
}

func (r *SignRepository) Categories(ctx context.Context) ([]string, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT category FROM signs ORDER BY category`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, classify(err)
		}
		categories = append(categories, c)
	}
	return categories, classify(rows.Err())
}

func (r *SignRepository) Update(ctx context.Context, s *models.Sign) error {
	return execAffected(ctx, r.db, `
		UPDATE signs SET word = $2, description = $3, difficulty = $4, correct_answer = $5,
			wrong_answers = $6, animation = $7, video_url = $8, video_duration = $9,
			category = $10, sequence_order = $11, coins_reward = $12, updated_at = $13
		WHERE id = $1
	`, s.ID, s.Word, s.Description, s.Difficulty, s.CorrectAnswer, textArray(s.WrongAnswers),
		jsonArg(s.Animation), s.VideoURL, s.VideoDuration, s.Category, s.Order, s.CoinsReward,
		s.UpdatedAt)
}

func (r *SignRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return execAffected(ctx, r.db, `DELETE FROM signs WHERE id = $1`, id)
}
