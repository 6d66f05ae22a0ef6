// Package services holds the domain operations behind the HTTP handlers.
// Services translate repository sentinels into apperr kinds and apply the
// write policy for store outages.
package services

import (
	"errors"
	"time"

	"signlearn-service/internal/apperr"
	"signlearn-service/internal/models"
	"signlearn-service/internal/repository"
	"signlearn-service/internal/websocket"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 50
	StoryListLimit  = 100
	MaxPage         = 100000 // bounds the offset well below overflow
)

type Clock func() time.Time

// Notifier pushes realtime events to an actor's open connections.
type Notifier interface {
	SendToUser(userID string, event websocket.Event)
}

type nopNotifier struct{}

func (nopNotifier) SendToUser(string, websocket.Event) {}

// translate maps a repository error onto the apperr taxonomy. what names
// the entity in not-found messages.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.As(err, new(*apperr.Error)):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(what + " not found")
	case errors.Is(err, repository.ErrConflict):
		return apperr.Wrap(apperr.KindConflict, what+" already exists", err)
	case errors.Is(err, repository.ErrUnavailable):
		return apperr.Unavailable(err)
	case errors.As(err, new(*models.ValidationError)):
		return apperr.InvalidInput(err.Error())
	default:
		return apperr.Internal(err)
	}
}

func isUnavailable(err error) bool {
	return errors.Is(err, repository.ErrUnavailable) || apperr.Is(err, apperr.KindUnavailable)
}

// Pagination normalizes page/limit query values.
func Pagination(page, limit int) (int, int, repository.ListOptions) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit, repository.ListOptions{Offset: (page - 1) * limit, Limit: limit}
}
