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

type PostService struct {
	posts    repository.Posts
	users    *UserService
	writes   auth.WritePolicy
	notifier Notifier
	now      Clock
	logger   *zap.Logger
}

func NewPostService(store repository.Store, users *UserService, writes auth.WritePolicy, notifier Notifier, logger *zap.Logger) *PostService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &PostService{
		posts:    store.Posts,
		users:    users,
		writes:   writes,
		notifier: notifier,
		now:      time.Now,
		logger:   logger,
	}
}

type PostList struct {
	Posts    []models.PostView
	Page     models.Page
	Degraded bool
}

// List returns public posts newest first. A store outage yields an empty
// degraded page rather than an error.
func (s *PostService) List(ctx context.Context, actorID string, page, limit int) (*PostList, error) {
	page, limit, opts := Pagination(page, limit)
	return s.list(ctx, actorID, page, limit, func() ([]*models.Post, int, error) {
		return s.posts.ListPublic(ctx, opts)
	})
}

func (s *PostService) ListSaved(ctx context.Context, actorID string, page, limit int) (*PostList, error) {
	page, limit, opts := Pagination(page, limit)
	return s.list(ctx, actorID, page, limit, func() ([]*models.Post, int, error) {
		return s.posts.ListSavedBy(ctx, actorID, opts)
	})
}

func (s *PostService) list(ctx context.Context, actorID string, page, limit int,
	query func() ([]*models.Post, int, error)) (*PostList, error) {
	posts, total, err := query()
	if err != nil {
		if isUnavailable(err) {
			s.logger.Warn("post listing fell back", zap.Error(err))
			return &PostList{Posts: []models.PostView{}, Page: models.NewPage(page, limit, 0), Degraded: true}, nil
		}
		return nil, translate(err, "post")
	}
	views := make([]models.PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, models.NewPostView(p, actorID))
	}
	return &PostList{Posts: views, Page: models.NewPage(page, limit, total)}, nil
}

func (s *PostService) Get(ctx context.Context, id uuid.UUID, actorID string) (*models.PostView, error) {
	p, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, translate(err, "post")
	}
	v := models.NewPostView(p, actorID)
	return &v, nil
}

func (s *PostService) strict(op auth.Operation, err error, what string) error {
	_, err = s.writes.Settle(op, err)
	return translate(err, what)
}

func (s *PostService) Create(ctx context.Context, actor *auth.Actor, req models.CreatePostRequest) (*models.PostView, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperr.InvalidInput("content is required")
	}
	if len([]rune(content)) > models.MaxPostContent {
		return nil, apperr.InvalidInput("content must be at most 2000 characters")
	}

	now := s.now()
	p := &models.Post{
		ID:          uuid.New(),
		AuthorID:    actor.ID,
		AuthorName:  actor.Name(),
		AuthorPhoto: actor.Photo(),
		Content:     content,
		Media:       append(models.MediaList{}, req.Media...),
		Likes:       []string{},
		Comments:    models.Comments{},
		Saves:       []string{},
		IsPublic:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.IsPublic != nil {
		p.IsPublic = *req.IsPublic
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, s.strict(auth.OpPostCreate, err, "post")
	}
	metrics.PostsCreatedTotal.Inc()
	s.logger.Info("post created", zap.String("post_id", p.ID.String()), zap.String("author_id", actor.ID))

	v := models.NewPostView(p, actor.ID)
	return &v, nil
}

// owned loads the post and checks that actor wrote it.
func (s *PostService) owned(ctx context.Context, actor *auth.Actor, id uuid.UUID, op auth.Operation) (*models.Post, error) {
	p, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, s.strict(op, err, "post")
	}
	if !actor.Owns(p.AuthorID) {
		return nil, apperr.Forbidden("not authorized to modify this post")
	}
	return p, nil
}

func (s *PostService) Update(ctx context.Context, actor *auth.Actor, id uuid.UUID, req models.UpdatePostRequest) (*models.PostView, error) {
	if _, err := s.owned(ctx, actor, id, auth.OpPostUpdate); err != nil {
		return nil, err
	}

	upd := repository.PostUpdate{IsPublic: req.IsPublic, At: s.now()}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return nil, apperr.InvalidInput("content must not be empty")
		}
		upd.Content = &content
	}
	if req.Media != nil {
		media := models.MediaList(req.Media)
		upd.Media = &media
	}

	p, err := s.posts.Update(ctx, id, upd)
	if err != nil {
		return nil, s.strict(auth.OpPostUpdate, err, "post")
	}
	v := models.NewPostView(p, actor.ID)
	return &v, nil
}

func (s *PostService) Delete(ctx context.Context, actor *auth.Actor, id uuid.UUID) error {
	if _, err := s.owned(ctx, actor, id, auth.OpPostDelete); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return s.strict(auth.OpPostDelete, err, "post")
	}
	s.logger.Info("post deleted", zap.String("post_id", id.String()), zap.String("author_id", actor.ID))
	return nil
}

type ToggleResult struct {
	Active bool
	Count  int
	// Mirrored reports whether the profile copy was updated too.
	Mirrored bool
}

func (s *PostService) ToggleLike(ctx context.Context, actor *auth.Actor, id uuid.UUID) (*ToggleResult, error) {
	p, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, s.strict(auth.OpPostToggle, err, "post")
	}
	liked, count, err := s.posts.ToggleLike(ctx, id, actor.ID)
	if err != nil {
		return nil, s.strict(auth.OpPostToggle, err, "post")
	}
	metrics.Toggle("post", "like", liked)

	if liked && !actor.Owns(p.AuthorID) {
		s.notifier.SendToUser(models.NormalizeActorID(p.AuthorID), websocket.Event{
			Type:    websocket.EventPostLiked,
			Payload: websocket.PostLikedEvent{PostID: id.String(), UserID: actor.ID, LikesCount: count},
		})
	}
	return &ToggleResult{Active: liked, Count: count}, nil
}

// ToggleSave flips the save and mirrors it into the actor's savedPosts.
func (s *PostService) ToggleSave(ctx context.Context, actor *auth.Actor, id uuid.UUID) (*ToggleResult, error) {
	saved, count, err := s.posts.ToggleSave(ctx, id, actor.ID)
	if err != nil {
		return nil, s.strict(auth.OpPostToggle, err, "post")
	}
	metrics.Toggle("post", "save", saved)

	mirrored := s.users.MirrorSavedPost(ctx, actor.ID, id.String(), saved)
	return &ToggleResult{Active: saved, Count: count, Mirrored: mirrored}, nil
}

type CommentResult struct {
	Comment       models.Comment
	CommentsCount int
}

func (s *PostService) Comment(ctx context.Context, actor *auth.Actor, id uuid.UUID, text string) (*CommentResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.InvalidInput("comment text is required")
	}
	if len([]rune(text)) > models.MaxCommentText {
		return nil, apperr.InvalidInput("comment must be at most 500 characters")
	}

	p, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, s.strict(auth.OpPostComment, err, "post")
	}

	c := models.Comment{
		ID:        uuid.New(),
		User:      actor.ID,
		Username:  actor.Name(),
		Photo:     actor.Photo(),
		Text:      text,
		CreatedAt: s.now(),
	}
	count, err := s.posts.AddComment(ctx, id, c)
	if err != nil {
		return nil, s.strict(auth.OpPostComment, err, "post")
	}
	metrics.CommentsTotal.Inc()

	if !actor.Owns(p.AuthorID) {
		s.notifier.SendToUser(models.NormalizeActorID(p.AuthorID), websocket.Event{
			Type: websocket.EventPostCommented,
			Payload: websocket.PostCommentedEvent{
				PostID: id.String(), CommentID: c.ID.String(), UserID: actor.ID, Username: c.Username, Text: text,
			},
		})
	}
	return &CommentResult{Comment: c, CommentsCount: count}, nil
}

// Share reposts the original under the actor and bumps its share counter
// as a second write.
func (s *PostService) Share(ctx context.Context, actor *auth.Actor, id uuid.UUID, req models.SharePostRequest) (*models.PostView, error) {
	original, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, s.strict(auth.OpPostShare, err, "post")
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		content = original.Content
	}
	now := s.now()
	p := &models.Post{
		ID:          uuid.New(),
		AuthorID:    actor.ID,
		AuthorName:  actor.Name(),
		AuthorPhoto: actor.Photo(),
		Content:     content,
		Media:       append(models.MediaList{}, original.Media...),
		Likes:       []string{},
		Comments:    models.Comments{},
		Saves:       []string{},
		IsPublic:    true,
		SharedFrom: &models.SharedFrom{
			PostID:     original.ID,
			AuthorID:   original.AuthorID,
			AuthorName: original.AuthorName,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, s.strict(auth.OpPostShare, err, "post")
	}
	metrics.PostsCreatedTotal.Inc()

	if _, err := s.posts.IncrementShares(ctx, original.ID); err != nil {
		s.logger.Warn("failed to increment share count", zap.String("post_id", original.ID.String()), zap.Error(err))
	}
	v := models.NewPostView(p, actor.ID)
	return &v, nil
}
