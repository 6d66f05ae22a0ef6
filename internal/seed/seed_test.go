package seed

import (
	"context"
	"testing"
	"time"

	"signlearn-service/internal/models"
	"signlearn-service/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
signs:
  - word: hello
    difficulty: easy
    correctAnswer: Hello
    wrongAnswers: [Bye, Thanks, Sorry]
    category: greetings
    order: 1
  - word: thanks
    difficulty: easy
    correctAnswer: Thank you
    wrongAnswers: [Hello, Please, Bye]
    category: greetings
    coinsReward: 5
simulations:
  - title: At the cafe
    scenario: Order a coffee
    scenes:
      - sceneNumber: 1
        correctAnswer: coffee
        hints: [drink]
      - sceneNumber: 2
        correctAnswer: thank you
`

func TestApplyUpsertsByNaturalKey(t *testing.T) {
	ctx := context.Background()
	store, _ := memory.New()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	cat, err := Parse([]byte(catalogYAML))
	require.NoError(t, err)
	require.Len(t, cat.Signs, 2)

	r, err := Apply(ctx, store.Signs, store.Simulations, cat, now)
	require.NoError(t, err)
	assert.Equal(t, Report{SignsInserted: 2, SimulationsInserted: 1}, r)

	cat, err = Parse([]byte(catalogYAML))
	require.NoError(t, err)
	r, err = Apply(ctx, store.Signs, store.Simulations, cat, now)
	require.NoError(t, err)
	assert.Equal(t, Report{SignsUpdated: 2, SimulationsUpdated: 1}, r)

	signs, err := store.Signs.List(ctx, models.SignFilter{Category: "greetings"})
	require.NoError(t, err)
	require.Len(t, signs, 2)
	assert.Equal(t, "hello", signs[0].Word)
	assert.Equal(t, 5, signs[1].CoinsReward)

	sims, err := store.Simulations.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, sims, 1)
	assert.Equal(t, 2, sims[0].TotalScenes)
}

func TestApplyRejectsInvalidCatalogBeforeWriting(t *testing.T) {
	ctx := context.Background()
	store, _ := memory.New()

	cat, err := Parse([]byte(`
signs:
  - word: ok
    difficulty: easy
    correctAnswer: ok
    wrongAnswers: [a, b, c]
    category: misc
  - word: broken
    difficulty: impossible
    correctAnswer: x
    wrongAnswers: [a, b, c]
    category: misc
`))
	require.NoError(t, err)

	_, err = Apply(ctx, store.Signs, store.Simulations, cat, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signs[1]")

	signs, err := store.Signs.List(ctx, models.SignFilter{})
	require.NoError(t, err)
	assert.Empty(t, signs)
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("signs: [unclosed"))
	assert.Error(t, err)
}
