package services

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"signlearn-service/internal/apperr"
	"signlearn-service/internal/auth"
	"signlearn-service/internal/models"
	"signlearn-service/internal/repository"
	"signlearn-service/internal/repository/memory"
	"signlearn-service/internal/websocket"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events map[string][]websocket.Event
}

func (r *recordingNotifier) SendToUser(userID string, event websocket.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = map[string][]websocket.Event{}
	}
	r.events[userID] = append(r.events[userID], event)
}

type fixture struct {
	store    repository.Store
	db       *memory.DB
	users    *UserService
	progress *ProgressService
	posts    *PostService
	stories  *StoryService
	shared   *SharedPostService
	signs    *SignService
	sims     *SimulationService
	notifier *recordingNotifier
	now      time.Time
}

func newFixture(t *testing.T, writes auth.WritePolicy) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store, db := memory.New()
	f := &fixture{store: store, db: db, notifier: &recordingNotifier{}, now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }

	f.users = NewUserService(store, writes, logger)
	f.users.now = clock
	f.progress = NewProgressService(store, writes, logger)
	f.progress.now = clock
	f.posts = NewPostService(store, f.users, writes, f.notifier, logger)
	f.posts.now = clock
	f.stories = NewStoryService(store, f.users, writes, f.notifier, logger)
	f.stories.now = clock
	f.shared = NewSharedPostService(store, writes, logger)
	f.shared.now = clock
	f.signs = NewSignService(store, f.users, logger)
	f.signs.now = clock
	f.sims = NewSimulationService(store, f.users, logger)
	f.sims.now = clock
	return f
}

// actor provisions a profile for subject and returns it as a request actor.
func (f *fixture) actor(t *testing.T, subject string) *auth.Actor {
	t.Helper()
	id := &auth.Identity{Subject: subject, Email: subject + "@example.com", DisplayName: subject}
	u, err := f.users.Resolve(context.Background(), id, true)
	require.NoError(t, err)
	return &auth.Actor{ID: subject, Identity: *id, Profile: u}
}

func TestResolveProvisionsOnce(t *testing.T) {
	f := newFixture(t, auth.DefaultWritePolicy())
	ctx := context.Background()

	a := f.actor(t, "uid-1")
	assert.Equal(t, "uid_1", a.Profile.Username)
	assert.Equal(t, models.GenderMale, a.Profile.Gender)
	require.NotNil(t, a.Profile.ProgressID)

	again, err := f.users.Resolve(ctx, &a.Identity, true)
	require.NoError(t, err)
	assert.Equal(t, a.Profile.ID, again.ID)

	_, err = f.users.Resolve(ctx, &auth.Identity{Subject: "nobody"}, false)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestResolveMakesUsernameUnique(t *testing.T) {
	f := newFixture(t, auth.DefaultWritePolicy())
	ctx := context.Background()

	first, err := f.users.Resolve(ctx, &auth.Identity{Subject: "a", Email: "sam@one.com"}, true)
	require.NoError(t, err)
	second, err := f.users.Resolve(ctx, &auth.Identity{Subject: "b", Email: "sam@two.com"}, true)
	require.NoError(t, err)

	assert.Equal(t, "sam", first.Username)
	assert.NotEqual(t, first.Username, second.Username)
	assert.Contains(t, second.Username, "sam")
}

func TestResolveRejectsEmailOwnedByAnotherSubject(t *testing.T) {
	f := newFixture(t, auth.DefaultWritePolicy())
	ctx := context.Background()

	_, err := f.users.Resolve(ctx, &auth.Identity{Subject: "a", Email: "sam@one.com"}, true)
	require.NoError(t, err)

	_, err = f.users.Resolve(ctx, &auth.Identity{Subject: "b", Email: "sam@one.com"}, true)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestVerifyAppliesProfileFields(t *testing.T) {
	f := newFixture(t, auth.DefaultWritePolicy())
	a := f.actor(t, "uid-1")

	name := "Layla"
	female := models.GenderFemale
	res, err := f.users.Verify(context.Background(), a, models.VerifyRequest{DisplayName: &name, Gender: &female})
	require.NoError(t, err)
	assert.True(t, res.Persisted)
	assert.Equal(t, "Layla", res.User.DisplayName)
	assert.Equal(t, models.GenderFemale, res.User.Gender)
	assert.Equal(t, a.Profile.Username, res.Progress.Username)

	bad := models.Gender("other")
	_, err = f.users.Verify(context.Background(), a, models.VerifyRequest{Gender: &bad})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestCoinsAddThenSubtractClamps(t *testing.T) {
	f := newFixture(t, auth.DefaultWritePolicy())
	ctx := context.Background()
	a := f.actor(t, "uid-1")

	w, err := f.users.SetCoins(ctx, a, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, w.User.Coins)

	w, err = f.users.AddCoins(ctx, a, 50)
	require.NoError(t, err)
	assert.Equal(t, 150, w.User.Coins)
	assert.True(t, w.Persisted)

	w, err = f.users.SubtractCoins(ctx, a, 200)
	require.NoError(t, err)
	assert.Equal(t, 0, w.User.Coins)

	_, err = f.users.AddCoins(ctx, a, 0)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestOptimisticWritesDuringOutage(t *testing.T) {
	f := newFixture(t, auth.DefaultWritePolicy())
	ctx := context.Background()
	a := f.actor(t, "uid-1")
	a.Profile.Coins = 10
	f.db.SetUnavailable(true)

	w, err := f.users.AddCoins(ctx, a, 5)
	require.NoError(t, err)
	assert.False(t, w.Persisted)
	assert.Equal(t, 15, w.User.Coins)

	p, err := f.progress.IncrementStreak(ctx, a)
	require.NoError(t, err)
	assert.False(t, p.Persisted)
	assert.Equal(t, 1, p.Progress.CurrentStreak)

	_, err = f.posts.Create(ctx, a, models.CreatePostRequest{Content: "hello"})
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))

	list, err := f.posts.List(ctx, a.ID, 1, 20)
	require.NoError(t, err)
	assert.True(t, list.Degraded)
	assert.Empty(t, list.Posts)
}

func TestStrictPolicyRejectsCoinWritesDuringOutage(t *testing.T) {
	f := newFixture(t, auth.WritePolicy{})
	a := f.actor(t, "uid-1")
	f.db.SetUnavailable(true)

	_, err := f.users.AddCoins(context.Background(), a, 5)
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
}

func TestDegradedActorNeverTouchesStore(t *testing.T) {
	f := newFixture(t, auth.DefaultWritePolicy())
	a := f.actor(t, "uid-1")
	a.Degraded = true

	w, err := f.users.CompleteChallenge(context.Background(), a)
	require.NoError(t, err)
	assert.False(t, w.Persisted)
	assert.Equal(t, 1, w.User.ChallengesCompleted)

	stored, err := f.store.Users.GetBySubject(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Zero(t, stored.ChallengesCompleted)
}

func TestDeleteAccountCascadesToProgress(t *testing.T) {
	f := newFixture(t, auth.DefaultWritePolicy())
	ctx := context.Background()
	a := f.actor(t, "uid-1")

	require.NoError(t, f.users.DeleteAccount(ctx, a))

	_, err := f.store.Users.GetBySubject(ctx, "uid-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.store.Progress.Get(ctx, a.Profile.Username)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = f.users.DeleteAccount(ctx, a)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestProgressStreakAndLearned(t *testing.T) {
	f := newFixture(t, auth.DefaultWritePolicy())
	ctx := context.Background()
	a := f.actor(t, "uid-1")

	for i := 0; i < 4; i++ {
		_, err := f.progress.IncrementStreak(ctx, a)
		require.NoError(t, err)
	}
	res, err := f.progress.ResetStreak(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Progress.CurrentStreak)
	assert.Equal(t, 4, res.Progress.BestStreak)

	_, err = f.progress.AddLearnedSign(ctx, a, "sign-1")
	require.NoError(t, err)
	res, err = f.progress.AddLearnedSign(ctx, a, "sign-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sign-1"}, res.Progress.LearnedSigns)

	res, err = f.progress.Get(ctx, a)
	require.NoError(t, err)
	assert.True(t, res.Persisted)
	assert.Equal(t, 4, res.Progress.BestStreak)
}

func TestPostLikeToggleAndNotification(t *testing.T) {
	f := newFixture(t, auth.DefaultWritePolicy())
	ctx := context.Background()
	author := f.actor(t, "author")
	u1 := f.actor(t, "u1")

	post, err := f.posts.Create(ctx, author, models.CreatePostRequest{Content: "first"})
	require.NoError(t, err)

	res, err := f.posts.ToggleLike(ctx, u1, post.ID)
	require.NoError(t, err)
	assert.True(t, res.Active)
	assert.Equal(t, 1, res.Count)

	view, err := f.posts.Get(ctx, post.ID, "u1")
	require.NoError(t, err)
	assert.True(t, view.IsLiked)
	assert.Equal(t, []string{"u1"}, view.Likes)

	res, err = f.posts.ToggleLike(ctx, u1, post.ID)
	require.NoError(t, err)
	assert.False(t, res.Active)
	assert.Equal(t, 0, res.Count)

	require.Len(t, f.notifier.events["author"], 1)
	assert.Equal(t, websocket.EventPostLiked, f.notifier.events["author"][0].Type)
}

func TestPostDeleteOwnership(t *testing.T) {
	f := newFixture(t, auth.DefaultWritePolicy())
	ctx := context.Background()
	author := f.actor(t, "author")
	other := f.actor(t, "other")

	post, err := f.posts.Create(ctx, author, models.CreatePostRequest{Content: "mine"})
	require.NoError(t, err)

	err = f.posts.Delete(ctx, other, post.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	require.NoError(t, f.posts.Delete(ctx, author, post.ID))
	_, err = f.posts.Get(ctx, post.ID, "")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestPostUpdateOwnership(t *testing.T) {
	f := newFixture(t, auth.DefaultWritePolicy())
	ctx := context.Background()
	author := f.actor(t, "author")
	other := f.actor(t, "other")

	post, err := f.posts.Create(ctx, author, models.CreatePostRequest{Content: "draft"})
	require.NoError(t, err)

	content := "final"
	_, err = f.posts.Update(ctx, other, post.ID, models.UpdatePostRequest{Content: &content})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	updated, err := f.posts.Update(ctx, author, post.ID, models.UpdatePostRequest{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Content)
}

func TestPostSaveMirrorsIntoProfile(t *testing.T) {
	f := newFixture(t, auth.DefaultWritePolicy())
	ctx := context.Background()
	author := f.actor(t, "author")
	saver := f.actor(t, "saver")

	post, err := f.posts.Create(ctx, author, models.CreatePostRequest{Content: "keep me"})
	require.NoError(t, err)

	res, err := f.posts.ToggleSave(ctx, saver, post.ID)
	require.NoError(t, err)
	assert.True(t, res.Active)
	assert.True(t, res.Mirrored)

	u, err := f.store.Users.GetBySubject(ctx, "saver")
	require.NoError(t, err)
	assert.Equal(t, []string{post.ID.String()}, u.SavedPosts)

	saved, err := f.posts.ListSaved(ctx, "saver", 1, 10)
	require.NoError(t, err)
	require.Len(t, saved.Posts, 1)
	assert.True(t, saved.Posts[0].IsSaved)
}

func TestPostCommentAndShare(t *testing.T) {
	f := newFixture(t, auth.DefaultWritePolicy())
	ctx := context.Background()
	author := f.actor(t, "author")
	fan := f.actor(t, "fan")

	post, err := f.posts.Create(ctx, author, models.CreatePostRequest{Content: "original"})
	require.NoError(t, err)

	c, err := f.posts.Comment(ctx, fan, post.ID, "  nice  ")
	require.NoError(t, err)
	assert.Equal(t, "nice", c.Comment.Text)
	assert.Equal(t, 1, c.CommentsCount)
	assert.NotEqual(t, uuid.Nil, c.Comment.ID)

	_, err = f.posts.Comment(ctx, fan, post.ID, "   ")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	share, err := f.posts.Share(ctx, fan, post.ID, models.SharePostRequest{})
	require.NoError(t, err)
	require.NotNil(t, share.SharedFrom)
	assert.Equal(t, post.ID, share.SharedFrom.PostID)
	assert.Equal(t, "original", share.Content)

	orig, err := f.posts.Get(ctx, post.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, orig.ShareCount)
}

func TestStoryLifecycle(t *testing.T) {
	f := newFixture(t, auth.DefaultWritePolicy())
	ctx := context.Background()
	author := f.actor(t, "author")
	viewer := f.actor(t, "viewer")

	st, err := f.stories.Create(ctx, author, models.CreateStoryRequest{
		Media: models.Media{Type: models.MediaImage, URL: "https://cdn.example.com/a.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(24*time.Hour), st.ExpiresAt)

	v, err := f.stories.View(ctx, viewer, st.ID)
	require.NoError(t, err)
	assert.True(t, v.Active)
	assert.Equal(t, 1, v.Count)
	v, err = f.stories.View(ctx, viewer, st.ID)
	require.NoError(t, err)
	assert.False(t, v.Active)
	assert.Equal(t, 0, v.Count)
	assert.Len(t, f.notifier.events["author"], 1, "only becoming a viewer notifies")

	like, err := f.stories.ToggleLike(ctx, viewer, st.ID)
	require.NoError(t, err)
	assert.True(t, like.Active)
	u, err := f.store.Users.GetBySubject(ctx, "viewer")
	require.NoError(t, err)
	assert.Equal(t, []string{st.ID.String()}, u.LikedStories)

	list, err := f.stories.List(ctx, "viewer")
	require.NoError(t, err)
	require.Len(t, list.Stories, 1)

	f.now = f.now.Add(24 * time.Hour)
	list, err = f.stories.List(ctx, "viewer")
	require.NoError(t, err)
	assert.Empty(t, list.Stories)
	_, err = f.stories.Get(ctx, st.ID, "viewer")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestStoryDeleteOwnership(t *testing.T) {
	f := newFixture(t, auth.DefaultWritePolicy())
	ctx := context.Background()
	author := f.actor(t, "author")
	other := f.actor(t, "other")

	st, err := f.stories.Create(ctx, author, models.CreateStoryRequest{
		Media: models.Media{Type: models.MediaVideo, URL: "https://cdn.example.com/a.mp4"},
	})
	require.NoError(t, err)

	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(f.stories.Delete(ctx, other, st.ID)))
	require.NoError(t, f.stories.Delete(ctx, author, st.ID))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(f.stories.Delete(ctx, author, st.ID)))

	_, err = f.stories.Create(ctx, author, models.CreateStoryRequest{})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestSharedPostFlow(t *testing.T) {
	f := newFixture(t, auth.DefaultWritePolicy())
	ctx := context.Background()
	author := f.actor(t, "author")
	sharer := f.actor(t, "sharer")
	other := f.actor(t, "other")

	post, err := f.posts.Create(ctx, author, models.CreatePostRequest{Content: "worth sharing"})
	require.NoError(t, err)

	sp, err := f.shared.Create(ctx, sharer, models.CreateSharedPostRequest{OriginalPostID: post.ID.String(), Caption: "look"})
	require.NoError(t, err)
	assert.Equal(t, "worth sharing", sp.Original.Content)
	assert.Equal(t, "author", sp.Original.AuthorID)

	orig, err := f.posts.Get(ctx, post.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, orig.ShareCount)

	res, err := f.shared.SetLike(ctx, other, sp.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	res, err = f.shared.SetLike(ctx, other, sp.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	res, err = f.shared.SetLike(ctx, other, sp.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)

	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(f.shared.Delete(ctx, other, sp.ID)))
	require.NoError(t, f.shared.Delete(ctx, sharer, sp.ID))

	list, err := f.shared.List(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, list.SharedPosts)

	_, err = f.shared.Create(ctx, sharer, models.CreateSharedPostRequest{OriginalPostID: uuid.NewString()})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func seedSign(t *testing.T, f *fixture, word, category string, order *int) *models.Sign {
	t.Helper()
	sign, err := f.signs.Create(context.Background(), models.SignInput{
		Word:          word,
		Difficulty:    models.DifficultyEasy,
		CorrectAnswer: word,
		WrongAnswers:  []string{"a", "b", "c"},
		Category:      category,
		Order:         order,
	})
	require.NoError(t, err)
	return sign
}

func TestSignCheckCreditsActor(t *testing.T) {
	f := newFixture(t, auth.DefaultWritePolicy())
	ctx := context.Background()
	a := f.actor(t, "learner")
	sign := seedSign(t, f, "Hello", "greetings", nil)

	res, err := f.signs.Check(ctx, a, sign.ID, "  hello ")
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.Equal(t, models.DefaultCoinsReward, res.CoinsAwarded)
	assert.True(t, res.Persisted)

	u, err := f.store.Users.GetBySubject(ctx, "learner")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCoinsReward, u.Coins)
	p, err := f.store.Progress.Get(ctx, a.Profile.Username)
	require.NoError(t, err)
	assert.Equal(t, []string{sign.ID.String()}, p.LearnedSigns)
	assert.Equal(t, models.DefaultCoinsReward, p.TotalCoins)

	res, err = f.signs.Check(ctx, nil, sign.ID, "Goodbye")
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
	assert.Zero(t, res.CoinsAwarded)
	assert.Equal(t, "Hello", res.CorrectAnswer)

	_, err = f.signs.Check(ctx, nil, sign.ID, "")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestSignQuizzes(t *testing.T) {
	f := newFixture(t, auth.DefaultWritePolicy())
	ctx := context.Background()
	one, two := 1, 2
	seedSign(t, f, "Thanks", "basics", &two)
	seedSign(t, f, "Hello", "basics", &one)
	seedSign(t, f, "Apple", "food", nil)

	questions, err := f.signs.SequentialQuiz(ctx, "basics")
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, &one, questions[0].Order)
	assert.Len(t, questions[0].Options, 4)

	_, err = f.signs.SequentialQuiz(ctx, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	q, err := f.signs.RandomQuiz(ctx, models.SignFilter{Category: "food"})
	require.NoError(t, err)
	assert.Contains(t, q.Options, "Apple")

	_, err = f.signs.RandomQuiz(ctx, models.SignFilter{Category: "none"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.signs.Create(ctx, models.SignInput{
		Word: "Hello", Difficulty: models.DifficultyEasy, CorrectAnswer: "x",
		WrongAnswers: []string{"a", "b", "c"}, Category: "basics",
	})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	categories, err := f.signs.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"basics", "food"}, categories)
}

func TestSimulationCheck(t *testing.T) {
	f := newFixture(t, auth.DefaultWritePolicy())
	ctx := context.Background()
	a := f.actor(t, "learner")
	reward := 10

	c, err := f.sims.Create(ctx, models.SimulationInput{
		Title:    "At the cafe",
		Scenario: "cafe",
		Scenes: []models.Scene{
			{SceneNumber: 1, CorrectAnswer: "Coffee", Hints: []string{"hot drink"}},
			{SceneNumber: 2, CorrectAnswer: "Thank you"},
			{SceneNumber: 3, CorrectAnswer: "Bye"},
		},
		CoinsReward: &reward,
	})
	require.NoError(t, err)

	res, err := f.sims.Check(ctx, a, c.ID, 1, " Coffee ")
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.Equal(t, 3, res.CoinsAwarded)
	assert.Equal(t, []string{"hot drink"}, res.Hints)
	assert.False(t, res.IsLastScene)

	res, err = f.sims.Check(ctx, a, c.ID, 3, "bye")
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
	assert.True(t, res.IsLastScene)

	_, err = f.sims.Check(ctx, a, c.ID, 9, "x")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	list, err := f.sims.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPagination(t *testing.T) {
	page, limit, opts := Pagination(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageSize, limit)
	assert.Equal(t, 0, opts.Offset)

	page, limit, opts = Pagination(3, 500)
	assert.Equal(t, 3, page)
	assert.Equal(t, MaxPageSize, limit)
	assert.Equal(t, 2*MaxPageSize, opts.Offset)

	page, _, opts = Pagination(math.MaxInt, MaxPageSize)
	assert.Equal(t, MaxPage, page)
	assert.Equal(t, (MaxPage-1)*MaxPageSize, opts.Offset)
}
