package quiz

import (
	"testing"

	"signlearn-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSign() *models.Sign {
	return &models.Sign{
		ID:            uuid.New(),
		Word:          "hello",
		Difficulty:    models.DifficultyEasy,
		CorrectAnswer: "Hello",
		WrongAnswers:  []string{"Goodbye", "Thanks", "Please"},
		Category:      "greetings",
		CoinsReward:   15,
	}
}

func TestCheckSignCorrect(t *testing.T) {
	sign := testSign()
	res := CheckSign(sign, sign.CorrectAnswer)
	assert.True(t, res.IsCorrect)
	assert.Equal(t, 15, res.CoinsAwarded)
	assert.Equal(t, "Hello", res.CorrectAnswer)
}

func TestCheckSignCaseAndWhitespaceVariants(t *testing.T) {
	sign := testSign()
	for _, answer := range []string{"hello", "HELLO", "  Hello ", "\thElLo\n"} {
		res := CheckSign(sign, answer)
		assert.True(t, res.IsCorrect, "answer %q", answer)
		assert.Equal(t, sign.CoinsReward, res.CoinsAwarded)
	}
}

func TestCheckSignWrong(t *testing.T) {
	sign := testSign()
	for _, answer := range []string{"wrong", "Hell", "Hello there", ""} {
		res := CheckSign(sign, answer)
		assert.False(t, res.IsCorrect, "answer %q", answer)
		assert.Zero(t, res.CoinsAwarded)
		assert.Equal(t, "Hello", res.CorrectAnswer)
	}
}

func testChallenge() *models.SimulationChallenge {
	return &models.SimulationChallenge{
		ID:    uuid.New(),
		Title: "At the cafe",
		Scenes: models.Scenes{
			{SceneNumber: 1, CorrectAnswer: "Coffee", Hints: []string{"hot drink"}},
			{SceneNumber: 2, CorrectAnswer: "Thank you"},
			{SceneNumber: 3, CorrectAnswer: "Bye"},
		},
		TotalScenes: 3,
		CoinsReward: 100,
		IsActive:    true,
	}
}

func TestCheckSceneSplitsReward(t *testing.T) {
	c := testChallenge()
	res, ok := CheckScene(c, 1, " Coffee ")
	require.True(t, ok)
	assert.True(t, res.IsCorrect)
	assert.Equal(t, 33, res.CoinsAwarded)
	assert.Equal(t, []string{"hot drink"}, res.Hints)
	assert.False(t, res.IsLastScene)
}

func TestCheckSceneIsCaseSensitive(t *testing.T) {
	c := testChallenge()
	res, ok := CheckScene(c, 1, "coffee")
	require.True(t, ok)
	assert.False(t, res.IsCorrect)
	assert.Zero(t, res.CoinsAwarded)
	assert.Equal(t, "Coffee", res.CorrectAnswer)
}

func TestCheckSceneLastAndMissing(t *testing.T) {
	c := testChallenge()
	res, ok := CheckScene(c, 3, "Bye")
	require.True(t, ok)
	assert.True(t, res.IsLastScene)
	assert.NotNil(t, res.Hints)

	_, ok = CheckScene(c, 9, "Bye")
	assert.False(t, ok)
}

func TestCheckSceneZeroTotalScenes(t *testing.T) {
	c := testChallenge()
	c.TotalScenes = 0
	res, ok := CheckScene(c, 2, "Thank you")
	require.True(t, ok)
	assert.True(t, res.IsCorrect)
	assert.Zero(t, res.CoinsAwarded)
}

func TestNewQuestionWithholdsAnswerKey(t *testing.T) {
	sign := testSign()
	reverse := func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}
	q := NewQuestion(sign, reverse)
	assert.Equal(t, []string{"Please", "Thanks", "Goodbye", "Hello"}, q.Options)
	assert.Equal(t, sign.ID, q.SignID)
	assert.Equal(t, sign.CoinsReward, q.CoinsReward)

	q = NewQuestion(sign, nil)
	assert.ElementsMatch(t, []string{"Hello", "Goodbye", "Thanks", "Please"}, q.Options)
	assert.Equal(t, []string{"Goodbye", "Thanks", "Please"}, sign.WrongAnswers, "source sign must not be reordered")
}
