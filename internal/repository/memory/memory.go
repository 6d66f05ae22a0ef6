// Package memory is a process-local implementation of the repository
// contracts. It backs tests and STORE_DRIVER=memory, and can be switched to
// an unavailable state to exercise degraded paths.
package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"signlearn-service/internal/models"
	"signlearn-service/internal/repository"

	"github.com/google/uuid"
)

// DB holds every collection behind one lock.
type DB struct {
	mu          sync.RWMutex
	down        atomic.Bool
	users       map[string]*models.User
	progress    map[string]*models.Progress
	posts       map[uuid.UUID]*models.Post
	stories     map[uuid.UUID]*models.Story
	sharedPosts map[uuid.UUID]*models.SharedPost
	signs       map[uuid.UUID]*models.Sign
	simulations map[uuid.UUID]*models.SimulationChallenge
}

func NewDB() *DB {
	return &DB{
		users:       make(map[string]*models.User),
		progress:    make(map[string]*models.Progress),
		posts:       make(map[uuid.UUID]*models.Post),
		stories:     make(map[uuid.UUID]*models.Story),
		sharedPosts: make(map[uuid.UUID]*models.SharedPost),
		signs:       make(map[uuid.UUID]*models.Sign),
		simulations: make(map[uuid.UUID]*models.SimulationChallenge),
	}
}

// New returns a Store over a fresh DB.
func New() (repository.Store, *DB) {
	d := NewDB()
	return d.Store(), d
}

func (d *DB) Store() repository.Store {
	return repository.Store{
		Users:       &Users{d},
		Progress:    &Progress{d},
		Posts:       &Posts{d},
		Stories:     &Stories{d},
		SharedPosts: &SharedPosts{d},
		Signs:       &Signs{d},
		Simulations: &Simulations{d},
		Health:      d,
	}
}

// SetUnavailable makes every call fail with repository.ErrUnavailable.
func (d *DB) SetUnavailable(down bool) {
	d.down.Store(down)
}

func (d *DB) Ping(ctx context.Context) error {
	return d.check(ctx)
}

func (d *DB) check(ctx context.Context) error {
	if d.down.Load() {
		return repository.ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return repository.ErrUnavailable
	}
	return nil
}

// page slices items by opts and returns the total before slicing.
func page[T any](items []T, opts repository.ListOptions) ([]T, int) {
	total := len(items)
	start := opts.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if opts.Limit > 0 && start+opts.Limit < total {
		end = start + opts.Limit
	}
	return items[start:end], total
}

func cloneStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string(nil), s...)
}

// Users

type Users struct{ d *DB }

func cloneUser(u *models.User) *models.User {
	c := *u
	c.LikedStories = cloneStrings(u.LikedStories)
	c.SavedPosts = cloneStrings(u.SavedPosts)
	return &c
}

func (r *Users) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	if err := r.d.check(ctx); err != nil {
		return nil, err
	}
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	u, ok := r.d.users[subject]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *Users) UsernameExists(ctx context.Context, username string) (bool, error) {
	if err := r.d.check(ctx); err != nil {
		return false, err
	}
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	for _, u := range r.d.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *Users) Create(ctx context.Context, u *models.User) error {
	if err := r.d.check(ctx); err != nil {
		return err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, existing := range r.d.users {
		if existing.FirebaseUID == u.FirebaseUID || existing.Username == u.Username || existing.Email == u.Email {
			return repository.ErrConflict
		}
	}
	r.d.users[u.FirebaseUID] = cloneUser(u)
	return nil
}

// mutate applies fn to the stored user under the write lock.
func (r *Users) mutate(ctx context.Context, subject string, fn func(u *models.User)) (*models.User, error) {
	if err := r.d.check(ctx); err != nil {
		return nil, err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	u, ok := r.d.users[subject]
	if !ok {
		return nil, repository.ErrNotFound
	}
	fn(u)
	return cloneUser(u), nil
}

func (r *Users) RecordLogin(ctx context.Context, subject string, upd repository.LoginUpdate) (*models.User, error) {
	return r.mutate(ctx, subject, func(u *models.User) {
		u.LastLogin = upd.At
		u.UpdatedAt = upd.At
		if upd.DisplayName != nil {
			u.DisplayName = *upd.DisplayName
		}
		if upd.PhotoURL != nil {
			photo := *upd.PhotoURL
			u.ProfilePhoto = &photo
		}
		if upd.Email != nil {
			u.Email = *upd.Email
		}
		if upd.Gender != nil {
			u.Gender = *upd.Gender
		}
	})
}

func (r *Users) LinkProgress(ctx context.Context, subject string, progressID uuid.UUID) error {
	_, err := r.mutate(ctx, subject, func(u *models.User) {
		id := progressID
		u.ProgressID = &id
		u.UpdatedAt = time.Now()
	})
	return err
}

func (r *Users) SetCoins(ctx context.Context, subject string, coins int) (*models.User, error) {
	return r.mutate(ctx, subject, func(u *models.User) {
		u.Coins = coins
		u.UpdatedAt = time.Now()
	})
}

func (r *Users) AdjustCoins(ctx context.Context, subject string, delta int) (*models.User, error) {
	return r.mutate(ctx, subject, func(u *models.User) {
		u.Coins += delta
		if u.Coins < 0 {
			u.Coins = 0
		}
		u.UpdatedAt = time.Now()
	})
}

func (r *Users) IncrementChallenges(ctx context.Context, subject string) (*models.User, error) {
	return r.mutate(ctx, subject, func(u *models.User) {
		u.ChallengesCompleted++
		u.UpdatedAt = time.Now()
	})
}

func (r *Users) SetLikedStory(ctx context.Context, subject, storyID string, liked bool) error {
	_, err := r.mutate(ctx, subject, func(u *models.User) {
		if liked {
			u.LikedStories, _ = models.AddMember(u.LikedStories, storyID)
		} else {
			u.LikedStories, _ = models.RemoveMember(u.LikedStories, storyID)
		}
	})
	return err
}

func (r *Users) SetSavedPost(ctx context.Context, subject, postID string, saved bool) error {
	_, err := r.mutate(ctx, subject, func(u *models.User) {
		if saved {
			u.SavedPosts, _ = models.AddMember(u.SavedPosts, postID)
		} else {
			u.SavedPosts, _ = models.RemoveMember(u.SavedPosts, postID)
		}
	})
	return err
}

func (r *Users) Delete(ctx context.Context, subject string) error {
	if err := r.d.check(ctx); err != nil {
		return err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.users[subject]; !ok {
		return repository.ErrNotFound
	}
	delete(r.d.users, subject)
	return nil
}

// Progress

type Progress struct{ d *DB }

func cloneProgress(p *models.Progress) *models.Progress {
	c := *p
	c.LearnedSigns = cloneStrings(p.LearnedSigns)
	return &c
}

func (r *Progress) Get(ctx context.Context, username string) (*models.Progress, error) {
	if err := r.d.check(ctx); err != nil {
		return nil, err
	}
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	p, ok := r.d.progress[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneProgress(p), nil
}

func (r *Progress) upsert(ctx context.Context, username string, now time.Time, fn func(p *models.Progress)) (*models.Progress, error) {
	if err := r.d.check(ctx); err != nil {
		return nil, err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	p, ok := r.d.progress[username]
	if !ok {
		p = models.NewProgress(username, now)
		r.d.progress[username] = p
	}
	fn(p)
	return cloneProgress(p), nil
}

func (r *Progress) Ensure(ctx context.Context, username string, now time.Time) (*models.Progress, error) {
	return r.upsert(ctx, username, now, func(*models.Progress) {})
}

func (r *Progress) AddCoins(ctx context.Context, username string, amount int, now time.Time) (*models.Progress, error) {
	return r.upsert(ctx, username, now, func(p *models.Progress) { p.AddCoins(amount, now) })
}

func (r *Progress) IncrementStreak(ctx context.Context, username string, now time.Time) (*models.Progress, error) {
	return r.upsert(ctx, username, now, func(p *models.Progress) { p.IncrementStreak(now) })
}

func (r *Progress) ResetStreak(ctx context.Context, username string, now time.Time) (*models.Progress, error) {
	return r.upsert(ctx, username, now, func(p *models.Progress) { p.ResetStreak(now) })
}

func (r *Progress) AddLearnedSign(ctx context.Context, username, signID string, now time.Time) (*models.Progress, error) {
	return r.upsert(ctx, username, now, func(p *models.Progress) { p.AddLearnedSign(signID, now) })
}

func (r *Progress) Delete(ctx context.Context, username string) error {
	if err := r.d.check(ctx); err != nil {
		return err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.progress[username]; !ok {
		return repository.ErrNotFound
	}
	delete(r.d.progress, username)
	return nil
}

// Posts

type Posts struct{ d *DB }

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Media = append(models.MediaList{}, p.Media...)
	c.Likes = cloneStrings(p.Likes)
	c.Saves = cloneStrings(p.Saves)
	c.Comments = append(models.Comments{}, p.Comments...)
	if p.SharedFrom != nil {
		sf := *p.SharedFrom
		c.SharedFrom = &sf
	}
	return &c
}

func (r *Posts) Create(ctx context.Context, p *models.Post) error {
	if err := r.d.check(ctx); err != nil {
		return err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.posts[p.ID]; ok {
		return repository.ErrConflict
	}
	r.d.posts[p.ID] = clonePost(p)
	return nil
}

func (r *Posts) Get(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	if err := r.d.check(ctx); err != nil {
		return nil, err
	}
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	p, ok := r.d.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePost(p), nil
}

func (r *Posts) list(ctx context.Context, keep func(p *models.Post) bool, opts repository.ListOptions) ([]*models.Post, int, error) {
	if err := r.d.check(ctx); err != nil {
		return nil, 0, err
	}
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	matched := []*models.Post{}
	for _, p := range r.d.posts {
		if keep(p) {
			matched = append(matched, clonePost(p))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() > matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	out, total := page(matched, opts)
	return out, total, nil
}

func (r *Posts) ListPublic(ctx context.Context, opts repository.ListOptions) ([]*models.Post, int, error) {
	return r.list(ctx, func(p *models.Post) bool { return p.IsPublic }, opts)
}

func (r *Posts) ListSavedBy(ctx context.Context, actorID string, opts repository.ListOptions) ([]*models.Post, int, error) {
	return r.list(ctx, func(p *models.Post) bool { return models.Contains(p.Saves, actorID) }, opts)
}

func (r *Posts) mutate(ctx context.Context, id uuid.UUID, fn func(p *models.Post)) (*models.Post, error) {
	if err := r.d.check(ctx); err != nil {
		return nil, err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	p, ok := r.d.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	fn(p)
	return clonePost(p), nil
}

func (r *Posts) Update(ctx context.Context, id uuid.UUID, upd repository.PostUpdate) (*models.Post, error) {
	return r.mutate(ctx, id, func(p *models.Post) {
		if upd.Content != nil {
			p.Content = *upd.Content
		}
		if upd.Media != nil {
			p.Media = append(models.MediaList{}, (*upd.Media)...)
		}
		if upd.IsPublic != nil {
			p.IsPublic = *upd.IsPublic
		}
		p.UpdatedAt = upd.At
	})
}

func (r *Posts) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.d.check(ctx); err != nil {
		return err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.d.posts, id)
	return nil
}

func (r *Posts) ToggleLike(ctx context.Context, id uuid.UUID, actorID string) (bool, int, error) {
	var liked bool
	p, err := r.mutate(ctx, id, func(p *models.Post) { p.Likes, liked = models.ToggleMember(p.Likes, actorID) })
	if err != nil {
		return false, 0, err
	}
	return liked, len(p.Likes), nil
}

func (r *Posts) ToggleSave(ctx context.Context, id uuid.UUID, actorID string) (bool, int, error) {
	var saved bool
	p, err := r.mutate(ctx, id, func(p *models.Post) { p.Saves, saved = models.ToggleMember(p.Saves, actorID) })
	if err != nil {
		return false, 0, err
	}
	return saved, len(p.Saves), nil
}

func (r *Posts) AddComment(ctx context.Context, id uuid.UUID, c models.Comment) (int, error) {
	p, err := r.mutate(ctx, id, func(p *models.Post) { p.Comments = append(p.Comments, c) })
	if err != nil {
		return 0, err
	}
	return len(p.Comments), nil
}

func (r *Posts) IncrementShares(ctx context.Context, id uuid.UUID) (int, error) {
	p, err := r.mutate(ctx, id, func(p *models.Post) { p.ShareCount++ })
	if err != nil {
		return 0, err
	}
	return p.ShareCount, nil
}

// Stories

type Stories struct{ d *DB }

func cloneStory(s *models.Story) *models.Story {
	c := *s
	c.Likes = cloneStrings(s.Likes)
	c.Viewers = cloneStrings(s.Viewers)
	return &c
}

func (r *Stories) Create(ctx context.Context, s *models.Story) error {
	if err := r.d.check(ctx); err != nil {
		return err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.stories[s.ID]; ok {
		return repository.ErrConflict
	}
	r.d.stories[s.ID] = cloneStory(s)
	return nil
}

func (r *Stories) Get(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	if err := r.d.check(ctx); err != nil {
		return nil, err
	}
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	s, ok := r.d.stories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneStory(s), nil
}

func (r *Stories) ListActive(ctx context.Context, now time.Time, limit int) ([]*models.Story, error) {
	if err := r.d.check(ctx); err != nil {
		return nil, err
	}
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	active := []*models.Story{}
	for _, s := range r.d.stories {
		if s.Active(now) {
			active = append(active, cloneStory(s))
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt.After(active[j].CreatedAt) })
	out, _ := page(active, repository.ListOptions{Limit: limit})
	return out, nil
}

func (r *Stories) mutate(ctx context.Context, id uuid.UUID, fn func(s *models.Story)) (*models.Story, error) {
	if err := r.d.check(ctx); err != nil {
		return nil, err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	s, ok := r.d.stories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	fn(s)
	return cloneStory(s), nil
}

func (r *Stories) ToggleLike(ctx context.Context, id uuid.UUID, actorID string) (bool, int, error) {
	var liked bool
	s, err := r.mutate(ctx, id, func(s *models.Story) { s.Likes, liked = models.ToggleMember(s.Likes, actorID) })
	if err != nil {
		return false, 0, err
	}
	return liked, len(s.Likes), nil
}

func (r *Stories) ToggleView(ctx context.Context, id uuid.UUID, actorID string) (bool, int, error) {
	var viewed bool
	s, err := r.mutate(ctx, id, func(s *models.Story) { s.Viewers, viewed = models.ToggleMember(s.Viewers, actorID) })
	if err != nil {
		return false, 0, err
	}
	return viewed, len(s.Viewers), nil
}

func (r *Stories) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.d.check(ctx); err != nil {
		return err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.stories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.d.stories, id)
	return nil
}

func (r *Stories) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := r.d.check(ctx); err != nil {
		return 0, err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var n int64
	for id, s := range r.d.stories {
		if !s.Active(now) {
			delete(r.d.stories, id)
			n++
		}
	}
	return n, nil
}

// Shared posts

type SharedPosts struct{ d *DB }

func cloneSharedPost(s *models.SharedPost) *models.SharedPost {
	c := *s
	c.Likes = cloneStrings(s.Likes)
	c.Saves = cloneStrings(s.Saves)
	c.Original.Media = append(models.MediaList{}, s.Original.Media...)
	return &c
}

func (r *SharedPosts) Create(ctx context.Context, s *models.SharedPost) error {
	if err := r.d.check(ctx); err != nil {
		return err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.sharedPosts[s.ID]; ok {
		return repository.ErrConflict
	}
	r.d.sharedPosts[s.ID] = cloneSharedPost(s)
	return nil
}

func (r *SharedPosts) Get(ctx context.Context, id uuid.UUID) (*models.SharedPost, error) {
	if err := r.d.check(ctx); err != nil {
		return nil, err
	}
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	s, ok := r.d.sharedPosts[id]
	if !ok || s.IsDeleted {
		return nil, repository.ErrNotFound
	}
	return cloneSharedPost(s), nil
}

func (r *SharedPosts) List(ctx context.Context, opts repository.ListOptions) ([]*models.SharedPost, int, error) {
	if err := r.d.check(ctx); err != nil {
		return nil, 0, err
	}
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	live := []*models.SharedPost{}
	for _, s := range r.d.sharedPosts {
		if !s.IsDeleted {
			live = append(live, cloneSharedPost(s))
		}
	}
	sort.Slice(live, func(i, j int) bool { return live[i].CreatedAt.After(live[j].CreatedAt) })
	out, total := page(live, opts)
	return out, total, nil
}

func (r *SharedPosts) mutate(ctx context.Context, id uuid.UUID, fn func(s *models.SharedPost)) (*models.SharedPost, error) {
	if err := r.d.check(ctx); err != nil {
		return nil, err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	s, ok := r.d.sharedPosts[id]
	if !ok || s.IsDeleted {
		return nil, repository.ErrNotFound
	}
	fn(s)
	return cloneSharedPost(s), nil
}

func setMembership(set []string, id string, present bool) []string {
	if present {
		set, _ = models.AddMember(set, id)
		return set
	}
	set, _ = models.RemoveMember(set, id)
	return set
}

func (r *SharedPosts) SetLike(ctx context.Context, id uuid.UUID, actorID string, liked bool) (int, error) {
	s, err := r.mutate(ctx, id, func(s *models.SharedPost) { s.Likes = setMembership(s.Likes, actorID, liked) })
	if err != nil {
		return 0, err
	}
	return len(s.Likes), nil
}

func (r *SharedPosts) SetSave(ctx context.Context, id uuid.UUID, actorID string, saved bool) (int, error) {
	s, err := r.mutate(ctx, id, func(s *models.SharedPost) { s.Saves = setMembership(s.Saves, actorID, saved) })
	if err != nil {
		return 0, err
	}
	return len(s.Saves), nil
}

func (r *SharedPosts) SoftDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.mutate(ctx, id, func(s *models.SharedPost) { s.IsDeleted = true })
	return err
}

// Signs

type Signs struct{ d *DB }

func cloneSign(s *models.Sign) *models.Sign {
	c := *s
	c.WrongAnswers = cloneStrings(s.WrongAnswers)
	if s.Animation != nil {
		c.Animation = append([]byte(nil), s.Animation...)
	}
	return &c
}

func (r *Signs) Create(ctx context.Context, s *models.Sign) error {
	if err := r.d.check(ctx); err != nil {
		return err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, existing := range r.d.signs {
		if existing.ID == s.ID || existing.Word == s.Word {
			return repository.ErrConflict
		}
	}
	r.d.signs[s.ID] = cloneSign(s)
	return nil
}

func (r *Signs) Upsert(ctx context.Context, s *models.Sign) (bool, error) {
	if err := r.d.check(ctx); err != nil {
		return false, err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, existing := range r.d.signs {
		if existing.Word == s.Word {
			s.ID = existing.ID
			s.CreatedAt = existing.CreatedAt
			r.d.signs[s.ID] = cloneSign(s)
			return false, nil
		}
	}
	r.d.signs[s.ID] = cloneSign(s)
	return true, nil
}

func (r *Signs) Get(ctx context.Context, id uuid.UUID) (*models.Sign, error) {
	if err := r.d.check(ctx); err != nil {
		return nil, err
	}
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	s, ok := r.d.signs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneSign(s), nil
}

func matchSign(s *models.Sign, f models.SignFilter) bool {
	return (f.Difficulty == "" || string(s.Difficulty) == f.Difficulty) &&
		(f.Category == "" || s.Category == f.Category)
}

func (r *Signs) List(ctx context.Context, filter models.SignFilter) ([]*models.Sign, error) {
	if err := r.d.check(ctx); err != nil {
		return nil, err
	}
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	signs := []*models.Sign{}
	for _, s := range r.d.signs {
		if matchSign(s, filter) {
			signs = append(signs, cloneSign(s))
		}
	}
	sort.Slice(signs, func(i, j int) bool {
		a, b := signs[i], signs[j]
		switch {
		case a.Order != nil && b.Order != nil && *a.Order != *b.Order:
			return *a.Order < *b.Order
		case a.Order != nil && b.Order == nil:
			return true
		case a.Order == nil && b.Order != nil:
			return false
		}
		return a.Word < b.Word
	})
	return signs, nil
}

// Random picks the first match; map iteration order supplies the variety.
func (r *Signs) Random(ctx context.Context, filter models.SignFilter) (*models.Sign, error) {
	if err := r.d.check(ctx); err != nil {
		return nil, err
	}
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	for _, s := range r.d.signs {
		if matchSign(s, filter) {
			return cloneSign(s), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Signs) Categories(ctx context.Context) ([]string, error) {
	if err := r.d.check(ctx); err != nil {
		return nil, err
	}
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	seen := map[string]bool{}
	categories := []string{}
	for _, s := range r.d.signs {
		if !seen[s.Category] {
			seen[s.Category] = true
			categories = append(categories, s.Category)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (r *Signs) Update(ctx context.Context, s *models.Sign) error {
	if err := r.d.check(ctx); err != nil {
		return err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	existing, ok := r.d.signs[s.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, other := range r.d.signs {
		if id != s.ID && other.Word == s.Word {
			return repository.ErrConflict
		}
	}
	c := cloneSign(s)
	c.CreatedAt = existing.CreatedAt
	r.d.signs[s.ID] = c
	return nil
}

func (r *Signs) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.d.check(ctx); err != nil {
		return err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.signs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.d.signs, id)
	return nil
}

// Simulations

type Simulations struct{ d *DB }

func cloneSimulation(c *models.SimulationChallenge) *models.SimulationChallenge {
	out := *c
	out.Scenes = make(models.Scenes, len(c.Scenes))
	for i, sc := range c.Scenes {
		sc.Hints = append([]string(nil), sc.Hints...)
		out.Scenes[i] = sc
	}
	return &out
}

func (r *Simulations) Create(ctx context.Context, c *models.SimulationChallenge) error {
	if err := r.d.check(ctx); err != nil {
		return err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, existing := range r.d.simulations {
		if existing.ID == c.ID || existing.Title == c.Title {
			return repository.ErrConflict
		}
	}
	r.d.simulations[c.ID] = cloneSimulation(c)
	return nil
}

func (r *Simulations) Upsert(ctx context.Context, c *models.SimulationChallenge) (bool, error) {
	if err := r.d.check(ctx); err != nil {
		return false, err
	}
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, existing := range r.d.simulations {
		if existing.Title == c.Title {
			c.ID = existing.ID
			c.CreatedAt = existing.CreatedAt
			r.d.simulations[c.ID] = cloneSimulation(c)
			return false, nil
		}
	}
	r.d.simulations[c.ID] = cloneSimulation(c)
	return true, nil
}

func (r *Simulations) Get(ctx context.Context, id uuid.UUID) (*models.SimulationChallenge, error) {
	if err := r.d.check(ctx); err != nil {
		return nil, err
	}
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	c, ok := r.d.simulations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneSimulation(c), nil
}

func (r *Simulations) ListActive(ctx context.Context) ([]*models.SimulationChallenge, error) {
	if err := r.d.check(ctx); err != nil {
		return nil, err
	}
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	active := []*models.SimulationChallenge{}
	for _, c := range r.d.simulations {
		if c.IsActive {
			active = append(active, cloneSimulation(c))
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt.Before(active[j].CreatedAt) })
	return active, nil
}
