package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"signlearn-service/internal/apperr"
	"signlearn-service/internal/auth"
	"signlearn-service/internal/models"
	"signlearn-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const usernameAttempts = 5

type UserService struct {
	users    repository.Users
	progress repository.Progress
	writes   auth.WritePolicy
	now      Clock
	logger   *zap.Logger
}

func NewUserService(store repository.Store, writes auth.WritePolicy, logger *zap.Logger) *UserService {
	return &UserService{
		users:    store.Users,
		progress: store.Progress,
		writes:   writes,
		now:      time.Now,
		logger:   logger,
	}
}

// Resolve loads the profile for id and creates it when provision is set.
func (s *UserService) Resolve(ctx context.Context, id *auth.Identity, provision bool) (*models.User, error) {
	u, err := s.users.GetBySubject(ctx, models.NormalizeActorID(id.Subject))
	if err == nil || !provision || !errors.Is(err, repository.ErrNotFound) {
		return u, err
	}
	return s.provision(ctx, id)
}

func (s *UserService) provision(ctx context.Context, id *auth.Identity) (*models.User, error) {
	subject := models.NormalizeActorID(id.Subject)
	username, err := s.uniqueUsername(ctx, auth.DeriveUsername(id))
	if err != nil {
		return nil, err
	}

	now := s.now()
	u := &models.User{
		ID:           uuid.New(),
		FirebaseUID:  subject,
		Email:        id.Email,
		Username:     username,
		DisplayName:  id.DisplayName,
		Gender:       models.GenderMale,
		AuthProvider: id.Provider,
		LikedStories: []string{},
		SavedPosts:   []string{},
		IsActive:     true,
		LastLogin:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if u.Email == "" {
		u.Email = subject + "@users.noreply.signlearn"
	}
	if u.DisplayName == "" {
		u.DisplayName = username
	}
	if id.PictureURL != "" {
		photo := id.PictureURL
		u.ProfilePhoto = &photo
	}

	if err := s.users.Create(ctx, u); err != nil {
		if !errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
		// Lost a race with a concurrent first login for the same subject.
		existing, getErr := s.users.GetBySubject(ctx, subject)
		switch {
		case getErr == nil:
			return existing, nil
		case errors.Is(getErr, repository.ErrNotFound):
			// Another subject owns the email or username.
			s.logger.Warn("profile conflicts with another account",
				zap.String("subject", subject), zap.String("email", u.Email))
			return nil, apperr.Conflict("email is already registered to another account")
		default:
			return nil, getErr
		}
	}
	s.logger.Info("user created", zap.String("subject", subject), zap.String("username", username))

	progress, err := s.progress.Ensure(ctx, username, now)
	if err != nil {
		s.logger.Warn("failed to create progress record", zap.String("username", username), zap.Error(err))
		return u, nil
	}
	if err := s.users.LinkProgress(ctx, subject, progress.ID); err != nil {
		s.logger.Warn("failed to link progress record", zap.String("username", username), zap.Error(err))
		return u, nil
	}
	u.ProgressID = &progress.ID
	return u, nil
}

func (s *UserService) uniqueUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 0; i < usernameAttempts; i++ {
		exists, err := s.users.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, 1000+rand.IntN(9000))
	}
	return base + "_" + uuid.NewString()[:8], nil
}

type VerifyResult struct {
	User      *models.User
	Progress  *models.Progress
	Persisted bool
}

// Verify records a login and applies the profile fields sent by the client.
func (s *UserService) Verify(ctx context.Context, actor *auth.Actor, req models.VerifyRequest) (*VerifyResult, error) {
	if req.Gender != nil && !req.Gender.Valid() {
		return nil, apperr.InvalidInput("gender must be male or female")
	}
	now := s.now()

	if actor.Degraded {
		u := *actor.Profile
		applyLogin(&u, req)
		return &VerifyResult{User: &u, Progress: models.NewProgress(u.Username, now)}, nil
	}

	u, err := s.users.RecordLogin(ctx, actor.ID, repository.LoginUpdate{
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
		Email:       req.Email,
		Gender:      req.Gender,
		At:          now,
	})
	if err != nil {
		if isUnavailable(err) {
			s.logger.Warn("login not recorded, store unavailable", zap.String("subject", actor.ID), zap.Error(err))
			fallback := *actor.Profile
			applyLogin(&fallback, req)
			return &VerifyResult{User: &fallback, Progress: models.NewProgress(fallback.Username, now)}, nil
		}
		return nil, translate(err, "user")
	}

	progress, err := s.progress.Ensure(ctx, u.Username, now)
	if err != nil {
		s.logger.Warn("failed to load progress record", zap.String("username", u.Username), zap.Error(err))
		return &VerifyResult{User: u, Progress: models.NewProgress(u.Username, now), Persisted: true}, nil
	}
	if u.ProgressID == nil || *u.ProgressID != progress.ID {
		if err := s.users.LinkProgress(ctx, actor.ID, progress.ID); err != nil {
			s.logger.Warn("failed to link progress record", zap.String("username", u.Username), zap.Error(err))
		} else {
			u.ProgressID = &progress.ID
		}
	}
	return &VerifyResult{User: u, Progress: progress, Persisted: true}, nil
}

func applyLogin(u *models.User, req models.VerifyRequest) {
	if req.DisplayName != nil {
		u.DisplayName = *req.DisplayName
	}
	if req.PhotoURL != nil {
		photo := *req.PhotoURL
		u.ProfilePhoto = &photo
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.Gender != nil {
		u.Gender = *req.Gender
	}
}

type UserWrite struct {
	User      *models.User
	Persisted bool
}

// write runs a profile mutation under op's write mode. When the store is
// unreachable and op is optimistic, the mutation is applied to a copy of the
// request's profile instead.
func (s *UserService) write(ctx context.Context, actor *auth.Actor, op auth.Operation,
	apply func(u *models.User), exec func() (*models.User, error)) (*UserWrite, error) {
	var u *models.User
	var err error
	if actor.Degraded {
		err = repository.ErrUnavailable
	} else {
		u, err = exec()
	}

	persisted, err := s.writes.Settle(op, err)
	if err != nil {
		return nil, translate(err, "user")
	}
	if !persisted {
		s.logger.Warn("write not persisted", zap.String("op", string(op)), zap.String("subject", actor.ID))
		fallback := *actor.Profile
		apply(&fallback)
		return &UserWrite{User: &fallback}, nil
	}
	return &UserWrite{User: u, Persisted: true}, nil
}

func (s *UserService) SetCoins(ctx context.Context, actor *auth.Actor, coins int) (*UserWrite, error) {
	if coins < 0 {
		return nil, apperr.InvalidInput("coins must not be negative")
	}
	return s.write(ctx, actor, auth.OpSetCoins,
		func(u *models.User) { u.Coins = coins },
		func() (*models.User, error) { return s.users.SetCoins(ctx, actor.ID, coins) })
}

func (s *UserService) AddCoins(ctx context.Context, actor *auth.Actor, amount int) (*UserWrite, error) {
	if amount <= 0 {
		return nil, apperr.InvalidInput("amount must be positive")
	}
	return s.write(ctx, actor, auth.OpAddCoins,
		func(u *models.User) { u.Coins += amount },
		func() (*models.User, error) { return s.users.AdjustCoins(ctx, actor.ID, amount) })
}

// SubtractCoins never drives the balance below zero.
func (s *UserService) SubtractCoins(ctx context.Context, actor *auth.Actor, amount int) (*UserWrite, error) {
	if amount <= 0 {
		return nil, apperr.InvalidInput("amount must be positive")
	}
	return s.write(ctx, actor, auth.OpSubtractCoins,
		func(u *models.User) {
			u.Coins -= amount
			if u.Coins < 0 {
				u.Coins = 0
			}
		},
		func() (*models.User, error) { return s.users.AdjustCoins(ctx, actor.ID, -amount) })
}

func (s *UserService) CompleteChallenge(ctx context.Context, actor *auth.Actor) (*UserWrite, error) {
	return s.write(ctx, actor, auth.OpCompleteChallenge,
		func(u *models.User) { u.ChallengesCompleted++ },
		func() (*models.User, error) { return s.users.IncrementChallenges(ctx, actor.ID) })
}

// DeleteAccount removes the profile, then its progress record.
func (s *UserService) DeleteAccount(ctx context.Context, actor *auth.Actor) error {
	if err := s.users.Delete(ctx, actor.ID); err != nil {
		return translate(err, "user")
	}
	s.logger.Info("user deleted", zap.String("subject", actor.ID))

	if actor.Profile == nil {
		return nil
	}
	if err := s.progress.Delete(ctx, actor.Profile.Username); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("failed to delete progress record",
			zap.String("username", actor.Profile.Username), zap.Error(err))
	}
	return nil
}

// MirrorLikedStory and MirrorSavedPost keep the profile's engagement lists
// in step with content toggles. Failures are logged, never returned.
func (s *UserService) MirrorLikedStory(ctx context.Context, actorID, storyID string, liked bool) bool {
	return s.mirror(ctx, auth.OpMirrorLike, actorID, func() error {
		return s.users.SetLikedStory(ctx, actorID, storyID, liked)
	})
}

func (s *UserService) MirrorSavedPost(ctx context.Context, actorID, postID string, saved bool) bool {
	return s.mirror(ctx, auth.OpMirrorSave, actorID, func() error {
		return s.users.SetSavedPost(ctx, actorID, postID, saved)
	})
}

func (s *UserService) mirror(ctx context.Context, op auth.Operation, actorID string, exec func() error) bool {
	err := exec()
	if errors.Is(err, repository.ErrNotFound) {
		// Actors without a stored profile have nothing to mirror into.
		return false
	}
	persisted, err := s.writes.Settle(op, err)
	if err != nil || !persisted {
		s.logger.Warn("profile mirror write failed", zap.String("op", string(op)),
			zap.String("subject", actorID), zap.Error(err))
		return false
	}
	return true
}

type CreditResult struct {
	CoinsAwarded int  `json:"coinsAwarded"`
	Persisted    bool `json:"persisted"`
}

// Credit adds a quiz reward to the profile and the progress ledger, and
// records signID as learned when set.
func (s *UserService) Credit(ctx context.Context, actor *auth.Actor, amount int, signID string) CreditResult {
	result := CreditResult{CoinsAwarded: amount}
	if actor == nil || actor.Profile == nil || amount <= 0 || actor.Degraded {
		return result
	}

	settle := func(what string, err error) bool {
		persisted, err := s.writes.Settle(auth.OpQuizCredit, err)
		if err != nil || !persisted {
			s.logger.Warn("quiz credit not persisted", zap.String("target", what),
				zap.String("subject", actor.ID), zap.Error(err))
			return false
		}
		return true
	}

	now := s.now()
	_, err := s.users.AdjustCoins(ctx, actor.ID, amount)
	result.Persisted = settle("user", err)
	_, err = s.progress.AddCoins(ctx, actor.Profile.Username, amount, now)
	settle("progress", err)
	if signID != "" {
		_, err = s.progress.AddLearnedSign(ctx, actor.Profile.Username, signID, now)
		settle("learned", err)
	}
	return result
}
