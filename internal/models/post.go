package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

const (
	MaxPostContent  = 2000
	MaxCommentText  = 500
	MaxStoryCaption = 200
)

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

type Media struct {
	Type MediaType `json:"type" binding:"required,oneof=image video"`
	URL  string    `json:"url" binding:"required,url"`
}

func (m Media) Value() (driver.Value, error) { return valueJSON(m) }
func (m *Media) Scan(src interface{}) error  { return scanJSON(src, m) }

type MediaList []Media

func (m MediaList) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	return valueJSON([]Media(m))
}

func (m *MediaList) Scan(src interface{}) error { return scanJSON(src, m) }

type Comment struct {
	ID        uuid.UUID `json:"id"`
	User      string    `json:"user"`
	Username  string    `json:"username"`
	Photo     *string   `json:"photo"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type Comments []Comment

func (c Comments) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	return valueJSON([]Comment(c))
}

func (c *Comments) Scan(src interface{}) error { return scanJSON(src, c) }

// SharedFrom marks a post created by re-sharing another post.
type SharedFrom struct {
	PostID     uuid.UUID `json:"postId"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
}

func (s SharedFrom) Value() (driver.Value, error) { return valueJSON(s) }
func (s *SharedFrom) Scan(src interface{}) error  { return scanJSON(src, s) }

type Post struct {
	ID          uuid.UUID   `json:"id"`
	AuthorID    string      `json:"user"`
	AuthorName  string      `json:"username"`
	AuthorPhoto *string     `json:"userPhoto"`
	Content     string      `json:"content"`
	Media       MediaList   `json:"media"`
	Likes       []string    `json:"likes"`
	Comments    Comments    `json:"comments"`
	ShareCount  int         `json:"shareCount"`
	Saves       []string    `json:"saves"`
	IsPublic    bool        `json:"isPublic"`
	SharedFrom  *SharedFrom `json:"sharedFrom,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// PostView is a post decorated with counts and the viewer's engagement.
type PostView struct {
	Post
	LikesCount    int  `json:"likesCount"`
	CommentsCount int  `json:"commentsCount"`
	SavesCount    int  `json:"savesCount"`
	IsLiked       bool `json:"isLiked"`
	IsSaved       bool `json:"isSaved"`
}

func NewPostView(p *Post, actorID string) PostView {
	v := PostView{
		Post:          *p,
		LikesCount:    len(p.Likes),
		CommentsCount: len(p.Comments),
		SavesCount:    len(p.Saves),
	}
	if actorID != "" {
		v.IsLiked = Contains(p.Likes, actorID)
		v.IsSaved = Contains(p.Saves, actorID)
	}
	return v
}

type CreatePostRequest struct {
	Content  string  `json:"content" binding:"required,max=2000"`
	Media    []Media `json:"media" binding:"omitempty,dive"`
	IsPublic *bool   `json:"isPublic"`
}

type UpdatePostRequest struct {
	Content  *string `json:"content" binding:"omitempty,max=2000"`
	Media    []Media `json:"media" binding:"omitempty,dive"`
	IsPublic *bool   `json:"isPublic"`
}

type CommentRequest struct {
	Text string `json:"text" binding:"required,max=500"`
}

type SharePostRequest struct {
	Content string `json:"content" binding:"max=2000"`
}

// Page describes a paginated listing.
type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func NewPage(page, limit, total int) Page {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Page{Page: page, Limit: limit, Total: total, Pages: pages}
}
