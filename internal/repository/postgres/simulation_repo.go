package postgres

import (
	"context"

	"signlearn-service/internal/db"
	"signlearn-service/internal/models"

	"github.com/google/uuid"
)

const simulationColumns = `id, title, description, scenario, difficulty, scenes, total_scenes, coins_reward, is_active, created_at`

type SimulationRepository struct {
	db *db.DB
}

func scanSimulation(row scanner) (*models.SimulationChallenge, error) {
	var c models.SimulationChallenge
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Scenario, &c.Difficulty, &c.Scenes,
		&c.TotalScenes, &c.CoinsReward, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &c, nil
}

func (r *SimulationRepository) Create(ctx context.Context, c *models.SimulationChallenge) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO simulation_challenges (`+simulationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, c.ID, c.Title, c.Description, c.Scenario, c.Difficulty, c.Scenes, c.TotalScenes,
		c.CoinsReward, c.IsActive, c.CreatedAt)
	return classify(err)
}

func (r *SimulationRepository) Upsert(ctx context.Context, c *models.SimulationChallenge) (bool, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	var inserted bool
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO simulation_challenges (`+simulationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (title) DO UPDATE SET
			description = EXCLUDED.description,
			scenario = EXCLUDED.scenario,
			difficulty = EXCLUDED.difficulty,
			scenes = EXCLUDED.scenes,
			total_scenes = EXCLUDED.total_scenes,
			coins_reward = EXCLUDED.coins_reward,
			is_active = EXCLUDED.is_active
		RETURNING id, (xmax = 0)
	`, c.ID, c.Title, c.Description, c.Scenario, c.Difficulty, c.Scenes, c.TotalScenes,
		c.CoinsReward, c.IsActive, c.CreatedAt).Scan(&c.ID, &inserted)
	if err != nil {
		return false, classify(err)
	}
	return inserted, nil
}

func (r *SimulationRepository) Get(ctx context.Context, id uuid.UUID) (*models.SimulationChallenge, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()
	return scanSimulation(r.db.QueryRowContext(ctx,
		`SELECT `+simulationColumns+` FROM simulation_challenges WHERE id = $1`, id))
}

func (r *SimulationRepository) ListActive(ctx context.Context) ([]*models.SimulationChallenge, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+simulationColumns+` FROM simulation_challenges
		WHERE is_active
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	challenges := []*models.SimulationChallenge{}
	for rows.Next() {
		c, err := scanSimulation(rows)
		if err != nil {
			return nil, err
		}
		challenges = append(challenges, c)
	}
	return challenges, classify(rows.Err())
}
