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
	"signlearn-service/internal/websocket"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type StoryService struct {
	stories  repository.Stories
	users    *UserService
	writes   auth.WritePolicy
	notifier Notifier
	now      Clock
	logger   *zap.Logger
}

func NewStoryService(store repository.Store, users *UserService, writes auth.WritePolicy, notifier Notifier, logger *zap.Logger) *StoryService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &StoryService{
		stories:  store.Stories,
		users:    users,
		writes:   writes,
		notifier: notifier,
		now:      time.Now,
		logger:   logger,
	}
}

type StoryList struct {
	Stories  []models.StoryView
	Degraded bool
}

func (s *StoryService) List(ctx context.Context, actorID string) (*StoryList, error) {
	stories, err := s.stories.ListActive(ctx, s.now(), StoryListLimit)
	if err != nil {
		if isUnavailable(err) {
			s.logger.Warn("story listing fell back", zap.Error(err))
			return &StoryList{Stories: []models.StoryView{}, Degraded: true}, nil
		}
		return nil, translate(err, "story")
	}
	views := make([]models.StoryView, 0, len(stories))
	for _, st := range stories {
		views = append(views, models.NewStoryView(st, actorID))
	}
	return &StoryList{Stories: views}, nil
}

// active loads a story that has not expired yet.
func (s *StoryService) active(ctx context.Context, id uuid.UUID, op auth.Operation) (*models.Story, error) {
	st, err := s.stories.Get(ctx, id)
	if err != nil {
		_, err = s.writes.Settle(op, err)
		return nil, translate(err, "story")
	}
	if !st.Active(s.now()) {
		return nil, apperr.NotFound("story not found")
	}
	return st, nil
}

func (s *StoryService) Get(ctx context.Context, id uuid.UUID, actorID string) (*models.StoryView, error) {
	st, err := s.active(ctx, id, auth.OpStoryToggle)
	if err != nil {
		return nil, err
	}
	v := models.NewStoryView(st, actorID)
	return &v, nil
}

func (s *StoryService) Create(ctx context.Context, actor *auth.Actor, req models.CreateStoryRequest) (*models.StoryView, error) {
	if req.Media.URL == "" || (req.Media.Type != models.MediaImage && req.Media.Type != models.MediaVideo) {
		return nil, apperr.InvalidInput("media with type image or video and a url is required")
	}
	caption := strings.TrimSpace(req.Caption)
	if len([]rune(caption)) > models.MaxStoryCaption {
		return nil, apperr.InvalidInput("caption must be at most 200 characters")
	}

	now := s.now()
	st := &models.Story{
		ID:          uuid.New(),
		AuthorID:    actor.ID,
		AuthorName:  actor.Name(),
		AuthorPhoto: actor.Photo(),
		Media:       req.Media,
		Caption:     caption,
		Likes:       []string{},
		Viewers:     []string{},
		CreatedAt:   now,
		ExpiresAt:   now.Add(models.StoryLifetime),
	}
	if err := s.stories.Create(ctx, st); err != nil {
		_, err = s.writes.Settle(auth.OpStoryCreate, err)
		return nil, translate(err, "story")
	}
	metrics.StoriesCreatedTotal.Inc()
	s.logger.Info("story created",
		zap.String("story_id", st.ID.String()),
		zap.String("author_id", actor.ID),
		zap.Time("expires_at", st.ExpiresAt))

	v := models.NewStoryView(st, actor.ID)
	return &v, nil
}

// View flips the actor's membership in the viewer set. The author is
// notified only when the actor becomes a viewer.
func (s *StoryService) View(ctx context.Context, actor *auth.Actor, id uuid.UUID) (*ToggleResult, error) {
	st, err := s.active(ctx, id, auth.OpStoryToggle)
	if err != nil {
		return nil, err
	}
	viewed, count, err := s.stories.ToggleView(ctx, id, actor.ID)
	if err != nil {
		_, err = s.writes.Settle(auth.OpStoryToggle, err)
		return nil, translate(err, "story")
	}
	metrics.Toggle("story", "view", viewed)
	if viewed {
		metrics.StoryViewsTotal.Inc()
		if !actor.Owns(st.AuthorID) {
			s.notifier.SendToUser(models.NormalizeActorID(st.AuthorID), websocket.Event{
				Type:    websocket.EventStoryViewed,
				Payload: websocket.StoryViewedEvent{StoryID: id.String(), ViewerID: actor.ID, ViewedAt: s.now()},
			})
		}
	}
	return &ToggleResult{Active: viewed, Count: count}, nil
}

// ToggleLike flips the like and mirrors it into the actor's likedStories.
func (s *StoryService) ToggleLike(ctx context.Context, actor *auth.Actor, id uuid.UUID) (*ToggleResult, error) {
	if _, err := s.active(ctx, id, auth.OpStoryToggle); err != nil {
		return nil, err
	}
	liked, count, err := s.stories.ToggleLike(ctx, id, actor.ID)
	if err != nil {
		_, err = s.writes.Settle(auth.OpStoryToggle, err)
		return nil, translate(err, "story")
	}
	metrics.Toggle("story", "like", liked)

	mirrored := s.users.MirrorLikedStory(ctx, actor.ID, id.String(), liked)
	return &ToggleResult{Active: liked, Count: count, Mirrored: mirrored}, nil
}

func (s *StoryService) Delete(ctx context.Context, actor *auth.Actor, id uuid.UUID) error {
	st, err := s.stories.Get(ctx, id)
	if err != nil {
		_, err = s.writes.Settle(auth.OpStoryDelete, err)
		return translate(err, "story")
	}
	if !actor.Owns(st.AuthorID) {
		return apperr.Forbidden("not authorized to delete this story")
	}
	if err := s.stories.Delete(ctx, id); err != nil {
		_, err = s.writes.Settle(auth.OpStoryDelete, err)
		return translate(err, "story")
	}
	s.logger.Info("story deleted", zap.String("story_id", id.String()), zap.String("author_id", actor.ID))
	return nil
}
