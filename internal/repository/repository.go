// Package repository declares the storage contracts shared by the Postgres
// and in-memory implementations.
package repository

import (
	"context"
	"errors"
	"time"

	"signlearn-service/internal/models"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrConflict    = errors.New("record already exists")
	ErrUnavailable = errors.New("store unavailable")
)

type ListOptions struct {
	Offset int
	Limit  int
}

type LoginUpdate struct {
	DisplayName *string
	PhotoURL    *string
	Email       *string
	Gender      *models.Gender
	At          time.Time
}

type Users interface {
	GetBySubject(ctx context.Context, subject string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, u *models.User) error
	RecordLogin(ctx context.Context, subject string, upd LoginUpdate) (*models.User, error)
	LinkProgress(ctx context.Context, subject string, progressID uuid.UUID) error
	SetCoins(ctx context.Context, subject string, coins int) (*models.User, error)
	// AdjustCoins adds delta and clamps the balance at zero.
	AdjustCoins(ctx context.Context, subject string, delta int) (*models.User, error)
	IncrementChallenges(ctx context.Context, subject string) (*models.User, error)
	SetLikedStory(ctx context.Context, subject, storyID string, liked bool) error
	SetSavedPost(ctx context.Context, subject, postID string, saved bool) error
	Delete(ctx context.Context, subject string) error
}

// Progress mutators create the row on first use.
type Progress interface {
	Get(ctx context.Context, username string) (*models.Progress, error)
	Ensure(ctx context.Context, username string, now time.Time) (*models.Progress, error)
	AddCoins(ctx context.Context, username string, amount int, now time.Time) (*models.Progress, error)
	IncrementStreak(ctx context.Context, username string, now time.Time) (*models.Progress, error)
	ResetStreak(ctx context.Context, username string, now time.Time) (*models.Progress, error)
	AddLearnedSign(ctx context.Context, username, signID string, now time.Time) (*models.Progress, error)
	Delete(ctx context.Context, username string) error
}

type PostUpdate struct {
	Content  *string
	Media    *models.MediaList
	IsPublic *bool
	At       time.Time
}

type Posts interface {
	Create(ctx context.Context, p *models.Post) error
	Get(ctx context.Context, id uuid.UUID) (*models.Post, error)
	ListPublic(ctx context.Context, opts ListOptions) ([]*models.Post, int, error)
	ListSavedBy(ctx context.Context, actorID string, opts ListOptions) ([]*models.Post, int, error)
	Update(ctx context.Context, id uuid.UUID, upd PostUpdate) (*models.Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ToggleLike(ctx context.Context, id uuid.UUID, actorID string) (bool, int, error)
	ToggleSave(ctx context.Context, id uuid.UUID, actorID string) (bool, int, error)
	AddComment(ctx context.Context, id uuid.UUID, c models.Comment) (int, error)
	IncrementShares(ctx context.Context, id uuid.UUID) (int, error)
}

type Stories interface {
	Create(ctx context.Context, s *models.Story) error
	// Get returns the story even when expired; callers decide visibility.
	Get(ctx context.Context, id uuid.UUID) (*models.Story, error)
	ListActive(ctx context.Context, now time.Time, limit int) ([]*models.Story, error)
	ToggleLike(ctx context.Context, id uuid.UUID, actorID string) (bool, int, error)
	ToggleView(ctx context.Context, id uuid.UUID, actorID string) (bool, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type SharedPosts interface {
	Create(ctx context.Context, s *models.SharedPost) error
	// Get hides soft-deleted rows.
	Get(ctx context.Context, id uuid.UUID) (*models.SharedPost, error)
	List(ctx context.Context, opts ListOptions) ([]*models.SharedPost, int, error)
	SetLike(ctx context.Context, id uuid.UUID, actorID string, liked bool) (int, error)
	SetSave(ctx context.Context, id uuid.UUID, actorID string, saved bool) (int, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type Signs interface {
	Create(ctx context.Context, s *models.Sign) error
	// Upsert matches on word; reports whether a row was inserted.
	Upsert(ctx context.Context, s *models.Sign) (bool, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Sign, error)
	// List orders by sequence order (nulls last) then word.
	List(ctx context.Context, filter models.SignFilter) ([]*models.Sign, error)
	Random(ctx context.Context, filter models.SignFilter) (*models.Sign, error)
	Categories(ctx context.Context) ([]string, error)
	Update(ctx context.Context, s *models.Sign) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Simulations interface {
	Create(ctx context.Context, c *models.SimulationChallenge) error
	// Upsert matches on title; reports whether a row was inserted.
	Upsert(ctx context.Context, c *models.SimulationChallenge) (bool, error)
	Get(ctx context.Context, id uuid.UUID) (*models.SimulationChallenge, error)
	ListActive(ctx context.Context) ([]*models.SimulationChallenge, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Store bundles one implementation of every collection.
type Store struct {
	Users       Users
	Progress    Progress
	Posts       Posts
	Stories     Stories
	SharedPosts SharedPosts
	Signs       Signs
	Simulations Simulations
	Health      Pinger
}
