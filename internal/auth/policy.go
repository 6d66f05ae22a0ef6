package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"signlearn-service/internal/apperr"
	"signlearn-service/internal/models"
	"signlearn-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options describe what a route needs from the caller.
type Options struct {
	RequireAuth    bool
	AllowDegraded  bool
	Provision      bool
	RequireProfile bool
}

var (
	Optional = Options{}
	// OptionalLookup loads the profile of callers that send a token.
	OptionalLookup = Options{AllowDegraded: true}
	Protected      = Options{RequireAuth: true}
	// Lookup loads the profile when present; a missing one is not an error.
	Lookup = Options{RequireAuth: true, AllowDegraded: true}
	// Profile routes load the stored user and fail when it cannot be loaded.
	Profile = Options{RequireAuth: true, RequireProfile: true}
	// Tolerant routes keep working on a synthesized profile during outages.
	Tolerant = Options{RequireAuth: true, RequireProfile: true, AllowDegraded: true}
	// Login provisions the profile on first sight.
	Login = Options{RequireAuth: true, RequireProfile: true, AllowDegraded: true, Provision: true}
)

// Actor is the resolved caller of a request.
type Actor struct {
	ID       string
	Identity Identity
	Profile  *models.User
	Degraded bool
}

// Name is the display name recorded on authored content.
func (a *Actor) Name() string {
	if a.Profile != nil && a.Profile.DisplayName != "" {
		return a.Profile.DisplayName
	}
	if a.Identity.DisplayName != "" {
		return a.Identity.DisplayName
	}
	if a.Profile != nil && a.Profile.Username != "" {
		return a.Profile.Username
	}
	return "User"
}

func (a *Actor) Photo() *string {
	if a.Profile != nil && a.Profile.ProfilePhoto != nil {
		return a.Profile.ProfilePhoto
	}
	if a.Identity.PictureURL != "" {
		p := a.Identity.PictureURL
		return &p
	}
	return nil
}

// Owns reports whether ownerID names this actor.
func (a *Actor) Owns(ownerID string) bool {
	return a != nil && a.ID != "" && models.NormalizeActorID(ownerID) == a.ID
}

// ProfileResolver loads the profile for an identity, creating it when
// provision is set.
type ProfileResolver interface {
	Resolve(ctx context.Context, id *Identity, provision bool) (*models.User, error)
}

type Policy struct {
	verifier     Verifier
	resolver     ProfileResolver
	defaultCoins int
	logger       *zap.Logger
}

func NewPolicy(verifier Verifier, resolver ProfileResolver, defaultCoins int, logger *zap.Logger) *Policy {
	return &Policy{
		verifier:     verifier,
		resolver:     resolver,
		defaultCoins: defaultCoins,
		logger:       logger,
	}
}

// Authorize resolves the actor for an Authorization header value. A nil
// actor with a nil error is an anonymous request.
func (p *Policy) Authorize(ctx context.Context, header string, opts Options) (*Actor, error) {
	token := BearerToken(header)
	if token == "" {
		if opts.RequireAuth {
			return nil, apperr.Unauthorized("authorization token required")
		}
		return nil, nil
	}
	return p.AuthorizeToken(ctx, token, opts)
}

func (p *Policy) AuthorizeToken(ctx context.Context, token string, opts Options) (*Actor, error) {
	id, err := p.verifier.Verify(ctx, token)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, "invalid or expired token", err)
	}
	actor := &Actor{ID: models.NormalizeActorID(id.Subject), Identity: *id}
	if actor.ID == "" {
		return nil, apperr.Unauthorized("invalid or expired token")
	}
	if !opts.Provision && !opts.RequireProfile && !opts.AllowDegraded {
		return actor, nil
	}

	profile, err := p.resolver.Resolve(ctx, id, opts.Provision)
	switch {
	case err == nil:
		actor.Profile = profile
	case isUnavailable(err):
		if !opts.AllowDegraded {
			return nil, apperr.Unavailable(err)
		}
		p.logger.Warn("store unavailable, serving degraded actor",
			zap.String("subject", actor.ID), zap.Error(err))
		actor.Profile = p.Synthesize(id)
		actor.Degraded = true
	case isNotFound(err):
		if opts.RequireProfile {
			return nil, apperr.NotFound("user not found")
		}
	default:
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperr.Internal(err)
	}
	return actor, nil
}

// Synthesize builds a profile from the identity alone.
func (p *Policy) Synthesize(id *Identity) *models.User {
	now := time.Now()
	u := &models.User{
		ID:           uuid.Nil,
		FirebaseUID:  models.NormalizeActorID(id.Subject),
		Email:        id.Email,
		Username:     DeriveUsername(id),
		DisplayName:  id.DisplayName,
		Gender:       models.GenderMale,
		AuthProvider: id.Provider,
		Coins:        p.defaultCoins,
		LikedStories: []string{},
		SavedPosts:   []string{},
		IsActive:     true,
		LastLogin:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if id.PictureURL != "" {
		photo := id.PictureURL
		u.ProfilePhoto = &photo
	}
	return u
}

// DeriveUsername is the base username for an identity: the email local part
// (or display name, or subject prefix) reduced to [a-z0-9_.].
func DeriveUsername(id *Identity) string {
	source := id.Email
	if at := strings.IndexByte(source, '@'); at >= 0 {
		source = source[:at]
	}
	if source == "" {
		source = id.DisplayName
	}
	var b strings.Builder
	for _, r := range strings.ToLower(source) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteByte('_')
		}
	}
	name := strings.Trim(b.String(), "._")
	if name == "" {
		subject := strings.ToLower(models.NormalizeActorID(id.Subject))
		if len(subject) > 8 {
			subject = subject[:8]
		}
		name = "user_" + subject
	}
	return name
}

func isUnavailable(err error) bool {
	return errors.Is(err, repository.ErrUnavailable) || apperr.Is(err, apperr.KindUnavailable)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || apperr.Is(err, apperr.KindNotFound)
}
