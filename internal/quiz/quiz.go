// Package quiz holds the answer checkers and question builders for the
// sign catalog and simulation challenges.
package quiz

import (
	"encoding/json"
	"math/rand/v2"
	"strings"

	"signlearn-service/internal/models"

	"github.com/google/uuid"
)

type AnswerResult struct {
	IsCorrect     bool   `json:"isCorrect"`
	CorrectAnswer string `json:"correctAnswer"`
	CoinsAwarded  int    `json:"coinsAwarded"`
}

type SceneResult struct {
	AnswerResult
	SceneNumber int      `json:"sceneNumber"`
	Hints       []string `json:"hints"`
	IsLastScene bool     `json:"isLastScene"`
}

// CheckSign compares case-insensitively after trimming both sides.
func CheckSign(sign *models.Sign, answer string) AnswerResult {
	got := strings.ToLower(strings.TrimSpace(answer))
	want := strings.ToLower(strings.TrimSpace(sign.CorrectAnswer))
	res := AnswerResult{
		IsCorrect:     got == want,
		CorrectAnswer: sign.CorrectAnswer,
	}
	if res.IsCorrect {
		res.CoinsAwarded = sign.CoinsReward
	}
	return res
}

// CheckScene compares trimmed answers case-sensitively. Each correct scene
// earns an equal integer share of the challenge reward.
func CheckScene(challenge *models.SimulationChallenge, sceneNumber int, answer string) (SceneResult, bool) {
	scene, ok := challenge.Scene(sceneNumber)
	if !ok {
		return SceneResult{}, false
	}
	res := SceneResult{
		AnswerResult: AnswerResult{
			IsCorrect:     strings.TrimSpace(answer) == strings.TrimSpace(scene.CorrectAnswer),
			CorrectAnswer: scene.CorrectAnswer,
		},
		SceneNumber: scene.SceneNumber,
		Hints:       scene.Hints,
		IsLastScene: sceneNumber >= lastSceneNumber(challenge),
	}
	if res.Hints == nil {
		res.Hints = []string{}
	}
	if res.IsCorrect && challenge.TotalScenes > 0 {
		res.CoinsAwarded = challenge.CoinsReward / challenge.TotalScenes
	}
	return res, true
}

func lastSceneNumber(c *models.SimulationChallenge) int {
	last := c.TotalScenes
	for _, sc := range c.Scenes {
		if sc.SceneNumber > last {
			last = sc.SceneNumber
		}
	}
	return last
}

// Question is a sign presented without its answer key. The word is
// withheld too since it usually equals the correct answer.
type Question struct {
	SignID        uuid.UUID         `json:"signId"`
	Difficulty    models.Difficulty `json:"difficulty"`
	Category      string            `json:"category"`
	Order         *int              `json:"order,omitempty"`
	Animation     json.RawMessage   `json:"animation,omitempty"`
	VideoURL      *string           `json:"videoUrl,omitempty"`
	VideoDuration *float64          `json:"videoDuration,omitempty"`
	Options       []string          `json:"options"`
	CoinsReward   int               `json:"coinsReward"`
}

// Shuffler permutes n elements; rand.Shuffle satisfies it.
type Shuffler func(n int, swap func(i, j int))

// NewQuestion builds a question with the correct and wrong answers shuffled.
// A nil shuffle uses math/rand/v2.
func NewQuestion(sign *models.Sign, shuffle Shuffler) Question {
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	options := make([]string, 0, len(sign.WrongAnswers)+1)
	options = append(options, sign.CorrectAnswer)
	options = append(options, sign.WrongAnswers...)
	shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	return Question{
		SignID:        sign.ID,
		Difficulty:    sign.Difficulty,
		Category:      sign.Category,
		Order:         sign.Order,
		Animation:     sign.Animation,
		VideoURL:      sign.VideoURL,
		VideoDuration: sign.VideoDuration,
		Options:       options,
		CoinsReward:   sign.CoinsReward,
	}
}
