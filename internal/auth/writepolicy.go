package auth

import (
	"signlearn-service/internal/apperr"
)

// Mode decides what a write does when the store is unavailable.
type Mode int

const (
	// Strict writes fail with 503.
	Strict Mode = iota
	// Optimistic writes answer 200 with persisted=false.
	Optimistic
)

func (m Mode) String() string {
	if m == Optimistic {
		return "optimistic"
	}
	return "strict"
}

type Operation string

const (
	OpSetCoins          Operation = "user.set_coins"
	OpAddCoins          Operation = "user.add_coins"
	OpSubtractCoins     Operation = "user.subtract_coins"
	OpCompleteChallenge Operation = "user.complete_challenge"
	OpMirrorLike        Operation = "user.mirror_like"
	OpMirrorSave        Operation = "user.mirror_save"
	OpProgressUpdate    Operation = "progress.update"
	OpQuizCredit        Operation = "quiz.credit"

	OpPostCreate       Operation = "post.create"
	OpPostUpdate       Operation = "post.update"
	OpPostDelete       Operation = "post.delete"
	OpPostToggle       Operation = "post.toggle"
	OpPostComment      Operation = "post.comment"
	OpPostShare        Operation = "post.share"
	OpStoryCreate      Operation = "story.create"
	OpStoryDelete      Operation = "story.delete"
	OpStoryToggle      Operation = "story.toggle"
	OpSharedPostCreate Operation = "shared_post.create"
	OpSharedPostDelete Operation = "shared_post.delete"
	OpSharedPostToggle Operation = "shared_post.toggle"
	OpCatalogWrite     Operation = "catalog.write"
)

// WritePolicy maps operations to a Mode; unlisted operations are Strict.
type WritePolicy map[Operation]Mode

func DefaultWritePolicy() WritePolicy {
	return WritePolicy{
		OpSetCoins:          Optimistic,
		OpAddCoins:          Optimistic,
		OpSubtractCoins:     Optimistic,
		OpCompleteChallenge: Optimistic,
		OpMirrorLike:        Optimistic,
		OpMirrorSave:        Optimistic,
		OpProgressUpdate:    Optimistic,
		OpQuizCredit:        Optimistic,
	}
}

func (w WritePolicy) Mode(op Operation) Mode {
	if m, ok := w[op]; ok {
		return m
	}
	return Strict
}

// Settle interprets the outcome of a write. Unavailable errors on an
// Optimistic operation are absorbed and reported as not persisted.
func (w WritePolicy) Settle(op Operation, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if isUnavailable(err) {
		if w.Mode(op) == Optimistic {
			return false, nil
		}
		if !apperr.Is(err, apperr.KindUnavailable) {
			err = apperr.Unavailable(err)
		}
	}
	return false, err
}
