package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Scene struct {
	SceneNumber   int      `json:"sceneNumber" yaml:"sceneNumber" binding:"required,min=1"`
	VideoURL      string   `json:"videoUrl" yaml:"videoUrl"`
	CorrectAnswer string   `json:"correctAnswer" yaml:"correctAnswer" binding:"required"`
	Hints         []string `json:"hints" yaml:"hints"`
}

type Scenes []Scene

func (s Scenes) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return valueJSON([]Scene(s))
}

func (s *Scenes) Scan(src interface{}) error { return scanJSON(src, s) }

type SimulationChallenge struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Scenario    string    `json:"scenario"`
	Difficulty  string    `json:"difficulty"`
	Scenes      Scenes    `json:"scenes"`
	TotalScenes int       `json:"totalScenes"`
	CoinsReward int       `json:"coinsReward"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Scene returns the scene with the given number.
func (c *SimulationChallenge) Scene(number int) (*Scene, bool) {
	for i := range c.Scenes {
		if c.Scenes[i].SceneNumber == number {
			return &c.Scenes[i], true
		}
	}
	return nil, false
}

type SimulationInput struct {
	Title       string  `json:"title" yaml:"title" binding:"required"`
	Description string  `json:"description" yaml:"description"`
	Scenario    string  `json:"scenario" yaml:"scenario" binding:"required"`
	Difficulty  string  `json:"difficulty" yaml:"difficulty"`
	Scenes      []Scene `json:"scenes" yaml:"scenes" binding:"required,min=1,dive"`
	TotalScenes *int    `json:"totalScenes" yaml:"totalScenes"`
	CoinsReward *int    `json:"coinsReward" yaml:"coinsReward" binding:"omitempty,min=0"`
	IsActive    *bool   `json:"isActive" yaml:"isActive"`
}

func (in *SimulationInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return errInvalid("title is required")
	}
	if len(in.Scenes) == 0 {
		return errInvalid("at least one scene is required")
	}
	seen := make(map[int]bool, len(in.Scenes))
	for _, sc := range in.Scenes {
		if sc.SceneNumber < 1 {
			return errInvalid("sceneNumber must be positive")
		}
		if seen[sc.SceneNumber] {
			return errInvalid("duplicate sceneNumber")
		}
		seen[sc.SceneNumber] = true
		if strings.TrimSpace(sc.CorrectAnswer) == "" {
			return errInvalid("every scene needs a correctAnswer")
		}
	}
	if in.TotalScenes != nil && *in.TotalScenes < 1 {
		return errInvalid("totalScenes must be positive")
	}
	if in.CoinsReward != nil && *in.CoinsReward < 0 {
		return errInvalid("coinsReward must not be negative")
	}
	return nil
}

func (in *SimulationInput) Apply(c *SimulationChallenge) {
	c.Title = strings.TrimSpace(in.Title)
	c.Description = in.Description
	c.Scenario = in.Scenario
	c.Difficulty = in.Difficulty
	c.Scenes = append(Scenes(nil), in.Scenes...)
	c.TotalScenes = len(in.Scenes)
	if in.TotalScenes != nil {
		c.TotalScenes = *in.TotalScenes
	}
	c.CoinsReward = DefaultCoinsReward
	if in.CoinsReward != nil {
		c.CoinsReward = *in.CoinsReward
	}
	c.IsActive = true
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
}

type CheckSceneRequest struct {
	SceneNumber int    `json:"sceneNumber" binding:"required,min=1"`
	Answer      string `json:"answer"`
}
