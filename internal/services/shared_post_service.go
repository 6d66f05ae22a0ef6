package services

import (
	"context"
	"strings"
	"time"

	"signlearn-service/internal/apperr"
	"signlearn-service/internal/auth"
	"signlearn-service/internal/metrics"
	"signlearn-service/internal/models"
	"signlearn-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SharedPostService struct {
	shared repository.SharedPosts
	posts  repository.Posts
	writes auth.WritePolicy
	now    Clock
	logger *zap.Logger
}

func NewSharedPostService(store repository.Store, writes auth.WritePolicy, logger *zap.Logger) *SharedPostService {
	return &SharedPostService{
		shared: store.SharedPosts,
		posts:  store.Posts,
		writes: writes,
		now:    time.Now,
		logger: logger,
	}
}

type SharedPostList struct {
	SharedPosts []models.SharedPostView
	Page        models.Page
	Degraded    bool
}

func (s *SharedPostService) settle(op auth.Operation, err error) error {
	_, err = s.writes.Settle(op, err)
	return translate(err, "shared post")
}

func (s *SharedPostService) List(ctx context.Context, actorID string, page, limit int) (*SharedPostList, error) {
	page, limit, opts := Pagination(page, limit)
	items, total, err := s.shared.List(ctx, opts)
	if err != nil {
		if isUnavailable(err) {
			s.logger.Warn("shared post listing fell back", zap.Error(err))
			return &SharedPostList{SharedPosts: []models.SharedPostView{}, Page: models.NewPage(page, limit, 0), Degraded: true}, nil
		}
		return nil, translate(err, "shared post")
	}
	views := make([]models.SharedPostView, 0, len(items))
	for _, sp := range items {
		views = append(views, models.NewSharedPostView(sp, actorID))
	}
	return &SharedPostList{SharedPosts: views, Page: models.NewPage(page, limit, total)}, nil
}

// Create snapshots the original post, then bumps its share counter as an
// independent second write.
func (s *SharedPostService) Create(ctx context.Context, actor *auth.Actor, req models.CreateSharedPostRequest) (*models.SharedPostView, error) {
	originalID, err := uuid.Parse(req.OriginalPostID)
	if err != nil {
		return nil, apperr.InvalidInput("invalid original post id")
	}
	original, err := s.posts.Get(ctx, originalID)
	if err != nil {
		_, err = s.writes.Settle(auth.OpSharedPostCreate, err)
		return nil, translate(err, "original post")
	}

	sp := &models.SharedPost{
		ID:          uuid.New(),
		SharerID:    actor.ID,
		SharerName:  actor.Name(),
		SharerPhoto: actor.Photo(),
		Caption:     strings.TrimSpace(req.Caption),
		Original:    models.NewPostSnapshot(original),
		Likes:       []string{},
		Saves:       []string{},
		CreatedAt:   s.now(),
	}
	if err := s.shared.Create(ctx, sp); err != nil {
		return nil, s.settle(auth.OpSharedPostCreate, err)
	}
	if _, err := s.posts.IncrementShares(ctx, originalID); err != nil {
		s.logger.Warn("failed to increment share count", zap.String("post_id", originalID.String()), zap.Error(err))
	}
	s.logger.Info("post shared",
		zap.String("shared_post_id", sp.ID.String()),
		zap.String("original_post_id", originalID.String()),
		zap.String("sharer_id", actor.ID))

	v := models.NewSharedPostView(sp, actor.ID)
	return &v, nil
}

func (s *SharedPostService) SetLike(ctx context.Context, actor *auth.Actor, id uuid.UUID, liked bool) (*ToggleResult, error) {
	count, err := s.shared.SetLike(ctx, id, actor.ID, liked)
	if err != nil {
		return nil, s.settle(auth.OpSharedPostToggle, err)
	}
	metrics.Toggle("shared_post", "like", liked)
	return &ToggleResult{Active: liked, Count: count}, nil
}

func (s *SharedPostService) SetSave(ctx context.Context, actor *auth.Actor, id uuid.UUID, saved bool) (*ToggleResult, error) {
	count, err := s.shared.SetSave(ctx, id, actor.ID, saved)
	if err != nil {
		return nil, s.settle(auth.OpSharedPostToggle, err)
	}
	metrics.Toggle("shared_post", "save", saved)
	return &ToggleResult{Active: saved, Count: count}, nil
}

// Delete soft-deletes; only the sharer may do it.
func (s *SharedPostService) Delete(ctx context.Context, actor *auth.Actor, id uuid.UUID) error {
	sp, err := s.shared.Get(ctx, id)
	if err != nil {
		return s.settle(auth.OpSharedPostDelete, err)
	}
	if !actor.Owns(sp.SharerID) {
		return apperr.Forbidden("not authorized to delete this shared post")
	}
	if err := s.shared.SoftDelete(ctx, id); err != nil {
		return s.settle(auth.OpSharedPostDelete, err)
	}
	return nil
}
