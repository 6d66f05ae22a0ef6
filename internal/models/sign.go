package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Difficulty string

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
	DifficultyEasyAr   Difficulty = "سهل"
	DifficultyMediumAr Difficulty = "متوسط"
	DifficultyHardAr   Difficulty = "صعب"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard,
		DifficultyEasyAr, DifficultyMediumAr, DifficultyHardAr:
		return true
	}
	return false
}

const (
	WrongAnswerCount   = 3
	MaxAnswerLength    = 100
	DefaultCoinsReward = 10
)

type Sign struct {
	ID            uuid.UUID       `json:"id"`
	Word          string          `json:"word"`
	Description   string          `json:"description"`
	Difficulty    Difficulty      `json:"difficulty"`
	CorrectAnswer string          `json:"correctAnswer"`
	WrongAnswers  []string        `json:"wrongAnswers"`
	Animation     json.RawMessage `json:"animation,omitempty"`
	VideoURL      *string         `json:"videoUrl,omitempty"`
	VideoDuration *float64        `json:"videoDuration,omitempty"`
	Category      string          `json:"category"`
	Order         *int            `json:"order,omitempty"`
	CoinsReward   int             `json:"coinsReward"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// SignInput is the create/update body; yaml tags serve the seed CLI.
type SignInput struct {
	Word          string          `json:"word" yaml:"word" binding:"required"`
	Description   string          `json:"description" yaml:"description"`
	Difficulty    Difficulty      `json:"difficulty" yaml:"difficulty" binding:"required"`
	CorrectAnswer string          `json:"correctAnswer" yaml:"correctAnswer" binding:"required,max=100"`
	WrongAnswers  []string        `json:"wrongAnswers" yaml:"wrongAnswers" binding:"required,len=3,dive,required,max=100"`
	Animation     json.RawMessage `json:"animation" yaml:"-"`
	VideoURL      *string         `json:"videoUrl" yaml:"videoUrl"`
	VideoDuration *float64        `json:"videoDuration" yaml:"videoDuration"`
	Category      string          `json:"category" yaml:"category" binding:"required"`
	Order         *int            `json:"order" yaml:"order"`
	CoinsReward   *int            `json:"coinsReward" yaml:"coinsReward" binding:"omitempty,min=0"`
}

// Validate re-checks the invariants binding tags cannot express and also
// guards input that did not come through gin (the seed CLI).
func (in *SignInput) Validate() error {
	if strings.TrimSpace(in.Word) == "" {
		return errInvalid("word is required")
	}
	if !in.Difficulty.Valid() {
		return errInvalid("invalid difficulty")
	}
	if strings.TrimSpace(in.CorrectAnswer) == "" || len([]rune(in.CorrectAnswer)) > MaxAnswerLength {
		return errInvalid("correctAnswer must be 1-100 characters")
	}
	if len(in.WrongAnswers) != WrongAnswerCount {
		return errInvalid("exactly three wrongAnswers are required")
	}
	for _, w := range in.WrongAnswers {
		if strings.TrimSpace(w) == "" || len([]rune(w)) > MaxAnswerLength {
			return errInvalid("wrongAnswers must be 1-100 characters")
		}
	}
	if strings.TrimSpace(in.Category) == "" {
		return errInvalid("category is required")
	}
	if in.CoinsReward != nil && *in.CoinsReward < 0 {
		return errInvalid("coinsReward must not be negative")
	}
	return nil
}

// Apply copies the input onto s.
func (in *SignInput) Apply(s *Sign) {
	s.Word = strings.TrimSpace(in.Word)
	s.Description = in.Description
	s.Difficulty = in.Difficulty
	s.CorrectAnswer = in.CorrectAnswer
	s.WrongAnswers = append([]string(nil), in.WrongAnswers...)
	s.Animation = in.Animation
	s.VideoURL = in.VideoURL
	s.VideoDuration = in.VideoDuration
	s.Category = strings.TrimSpace(in.Category)
	s.Order = in.Order
	s.CoinsReward = DefaultCoinsReward
	if in.CoinsReward != nil {
		s.CoinsReward = *in.CoinsReward
	}
}

type SignFilter struct {
	Difficulty string
	Category   string
}

type CheckAnswerRequest struct {
	Answer string `json:"answer"`
}
