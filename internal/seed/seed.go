// Package seed loads the sign catalog and simulation challenges from YAML
// and upserts them, matching signs by word and simulations by title.
package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"signlearn-service/internal/models"
	"signlearn-service/internal/repository"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type Catalog struct {
	Signs       []models.SignInput       `yaml:"signs"`
	Simulations []models.SimulationInput `yaml:"simulations"`
}

type Report struct {
	SignsInserted       int
	SignsUpdated        int
	SimulationsInserted int
	SimulationsUpdated  int
}

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return &cat, nil
}

// Validate reports the first invalid entry by position.
func (c *Catalog) Validate() error {
	for i := range c.Signs {
		if err := c.Signs[i].Validate(); err != nil {
			return fmt.Errorf("signs[%d] (%s): %w", i, c.Signs[i].Word, err)
		}
	}
	for i := range c.Simulations {
		if err := c.Simulations[i].Validate(); err != nil {
			return fmt.Errorf("simulations[%d] (%s): %w", i, c.Simulations[i].Title, err)
		}
	}
	return nil
}

// Apply validates the whole catalog before writing anything.
func Apply(ctx context.Context, signs repository.Signs, simulations repository.Simulations, c *Catalog, now time.Time) (Report, error) {
	var r Report
	if err := c.Validate(); err != nil {
		return r, err
	}

	for i := range c.Signs {
		s := &models.Sign{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
		c.Signs[i].Apply(s)
		inserted, err := signs.Upsert(ctx, s)
		if err != nil {
			return r, fmt.Errorf("failed to upsert sign %q: %w", s.Word, err)
		}
		if inserted {
			r.SignsInserted++
		} else {
			r.SignsUpdated++
		}
	}

	for i := range c.Simulations {
		sc := &models.SimulationChallenge{ID: uuid.New(), CreatedAt: now}
		c.Simulations[i].Apply(sc)
		inserted, err := simulations.Upsert(ctx, sc)
		if err != nil {
			return r, fmt.Errorf("failed to upsert simulation %q: %w", sc.Title, err)
		}
		if inserted {
			r.SimulationsInserted++
		} else {
			r.SimulationsUpdated++
		}
	}
	return r, nil
}
