package models

import (
	"time"

	"github.com/google/uuid"
)

// StoryLifetime is the fixed time a story stays visible after creation.
const StoryLifetime = 24 * time.Hour

type Story struct {
	ID          uuid.UUID `json:"id"`
	AuthorID    string    `json:"user"`
	AuthorName  string    `json:"username"`
	AuthorPhoto *string   `json:"userPhoto"`
	Media       Media     `json:"media"`
	Caption     string    `json:"caption"`
	Likes       []string  `json:"likes"`
	Viewers     []string  `json:"viewers"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Active reports whether the story is still visible at now.
func (s *Story) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

type StoryView struct {
	Story
	LikesCount int  `json:"likesCount"`
	ViewsCount int  `json:"viewsCount"`
	IsLiked    bool `json:"isLiked"`
	IsViewed   bool `json:"isViewed"`
}

func NewStoryView(s *Story, actorID string) StoryView {
	v := StoryView{
		Story:      *s,
		LikesCount: len(s.Likes),
		ViewsCount: len(s.Viewers),
	}
	if actorID != "" {
		v.IsLiked = Contains(s.Likes, actorID)
		v.IsViewed = Contains(s.Viewers, actorID)
	}
	return v
}

type CreateStoryRequest struct {
	Media   Media  `json:"media"`
	Caption string `json:"caption" binding:"max=200"`
}
