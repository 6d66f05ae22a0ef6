package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// PostSnapshot freezes the original post at share time.
type PostSnapshot struct {
	PostID      uuid.UUID `json:"postId"`
	Content     string    `json:"content"`
	Media       MediaList `json:"media"`
	AuthorID    string    `json:"authorId"`
	AuthorName  string    `json:"authorName"`
	AuthorPhoto *string   `json:"authorPhoto"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (s PostSnapshot) Value() (driver.Value, error) { return valueJSON(s) }
func (s *PostSnapshot) Scan(src interface{}) error  { return scanJSON(src, s) }

func NewPostSnapshot(p *Post) PostSnapshot {
	media := make(MediaList, len(p.Media))
	copy(media, p.Media)
	return PostSnapshot{
		PostID:      p.ID,
		Content:     p.Content,
		Media:       media,
		AuthorID:    p.AuthorID,
		AuthorName:  p.AuthorName,
		AuthorPhoto: p.AuthorPhoto,
		CreatedAt:   p.CreatedAt,
	}
}

type SharedPost struct {
	ID          uuid.UUID    `json:"id"`
	SharerID    string       `json:"sharedBy"`
	SharerName  string       `json:"sharedByName"`
	SharerPhoto *string      `json:"sharedByPhoto"`
	Caption     string       `json:"caption"`
	Original    PostSnapshot `json:"originalPost"`
	Likes       []string     `json:"likes"`
	Saves       []string     `json:"saves"`
	IsDeleted   bool         `json:"-"`
	CreatedAt   time.Time    `json:"createdAt"`
}

type SharedPostView struct {
	SharedPost
	LikesCount int  `json:"likesCount"`
	SavesCount int  `json:"savesCount"`
	IsLiked    bool `json:"isLiked"`
	IsSaved    bool `json:"isSaved"`
}

func NewSharedPostView(s *SharedPost, actorID string) SharedPostView {
	v := SharedPostView{
		SharedPost: *s,
		LikesCount: len(s.Likes),
		SavesCount: len(s.Saves),
	}
	if actorID != "" {
		v.IsLiked = Contains(s.Likes, actorID)
		v.IsSaved = Contains(s.Saves, actorID)
	}
	return v
}

type CreateSharedPostRequest struct {
	OriginalPostID string `json:"originalPostId" binding:"required,uuid"`
	Caption        string `json:"caption" binding:"max=500"`
}
