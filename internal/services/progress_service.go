package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"signlearn-service/internal/apperr"
	"signlearn-service/internal/auth"
	"signlearn-service/internal/models"
	"signlearn-service/internal/repository"

	"go.uber.org/zap"
)

type ProgressService struct {
	progress repository.Progress
	writes   auth.WritePolicy
	now      Clock
	logger   *zap.Logger
}

func NewProgressService(store repository.Store, writes auth.WritePolicy, logger *zap.Logger) *ProgressService {
	return &ProgressService{
		progress: store.Progress,
		writes:   writes,
		now:      time.Now,
		logger:   logger,
	}
}

type ProgressResult struct {
	Progress  *models.Progress
	Persisted bool
}

// Get returns the ledger row for the actor, or a zeroed one when none has
// been written yet or the store cannot be read.
func (s *ProgressService) Get(ctx context.Context, actor *auth.Actor) (*ProgressResult, error) {
	username := actor.Profile.Username
	if actor.Degraded {
		return &ProgressResult{Progress: models.NewProgress(username, s.now())}, nil
	}
	p, err := s.progress.Get(ctx, username)
	switch {
	case err == nil:
		return &ProgressResult{Progress: p, Persisted: true}, nil
	case isUnavailable(err):
		s.logger.Warn("progress read fell back", zap.String("username", username), zap.Error(err))
		return &ProgressResult{Progress: models.NewProgress(username, s.now())}, nil
	case errors.Is(err, repository.ErrNotFound):
		return &ProgressResult{Progress: models.NewProgress(username, s.now()), Persisted: true}, nil
	default:
		return nil, translate(err, "progress")
	}
}

func (s *ProgressService) AddCoins(ctx context.Context, actor *auth.Actor, amount int) (*ProgressResult, error) {
	if amount <= 0 {
		return nil, apperr.InvalidInput("amount must be positive")
	}
	return s.write(ctx, actor, func(p *models.Progress, now time.Time) { p.AddCoins(amount, now) },
		func(username string, now time.Time) (*models.Progress, error) {
			return s.progress.AddCoins(ctx, username, amount, now)
		})
}

func (s *ProgressService) IncrementStreak(ctx context.Context, actor *auth.Actor) (*ProgressResult, error) {
	return s.write(ctx, actor, func(p *models.Progress, now time.Time) { p.IncrementStreak(now) },
		func(username string, now time.Time) (*models.Progress, error) {
			return s.progress.IncrementStreak(ctx, username, now)
		})
}

func (s *ProgressService) ResetStreak(ctx context.Context, actor *auth.Actor) (*ProgressResult, error) {
	return s.write(ctx, actor, func(p *models.Progress, now time.Time) { p.ResetStreak(now) },
		func(username string, now time.Time) (*models.Progress, error) {
			return s.progress.ResetStreak(ctx, username, now)
		})
}

func (s *ProgressService) AddLearnedSign(ctx context.Context, actor *auth.Actor, signID string) (*ProgressResult, error) {
	signID = strings.TrimSpace(signID)
	if signID == "" {
		return nil, apperr.InvalidInput("signId is required")
	}
	return s.write(ctx, actor, func(p *models.Progress, now time.Time) { p.AddLearnedSign(signID, now) },
		func(username string, now time.Time) (*models.Progress, error) {
			return s.progress.AddLearnedSign(ctx, username, signID, now)
		})
}

// write applies a ledger mutation; on an absorbed outage the mutation is
// shown against a zeroed row.
func (s *ProgressService) write(ctx context.Context, actor *auth.Actor,
	apply func(p *models.Progress, now time.Time),
	exec func(username string, now time.Time) (*models.Progress, error)) (*ProgressResult, error) {
	username := actor.Profile.Username
	now := s.now()

	var p *models.Progress
	var err error
	if actor.Degraded {
		err = repository.ErrUnavailable
	} else {
		p, err = exec(username, now)
	}

	persisted, err := s.writes.Settle(auth.OpProgressUpdate, err)
	if err != nil {
		return nil, translate(err, "progress")
	}
	if !persisted {
		s.logger.Warn("progress update not persisted", zap.String("username", username))
		fallback := models.NewProgress(username, now)
		apply(fallback, now)
		return &ProgressResult{Progress: fallback}, nil
	}
	return &ProgressResult{Progress: p, Persisted: true}, nil
}
