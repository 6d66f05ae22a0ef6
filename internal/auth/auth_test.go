package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"signlearn-service/internal/apperr"
	"signlearn-service/internal/models"
	"signlearn-service/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type stubResolver struct {
	user *models.User
	err  error
}

func (s *stubResolver) Resolve(_ context.Context, id *Identity, provision bool) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func newPolicy(t *testing.T, r ProfileResolver) *Policy {
	t.Helper()
	v, err := NewJWTVerifier(testSecret)
	require.NoError(t, err)
	return NewPolicy(v, r, 25, zaptest.NewLogger(t))
}

func bearer(t *testing.T, subject string) string {
	t.Helper()
	tok, err := GenerateToken(testSecret, Identity{Subject: subject, Email: subject + "@example.com", DisplayName: "Test"}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestJWTVerifierRoundTrip(t *testing.T) {
	v, err := NewJWTVerifier(testSecret)
	require.NoError(t, err)

	tok, err := GenerateToken(testSecret, Identity{Subject: "uid-1", Email: "a@b.c", EmailVerified: true}, time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", id.Subject)
	assert.Equal(t, "a@b.c", id.Email)
	assert.True(t, id.EmailVerified)
	assert.Equal(t, "password", id.Provider)
}

func TestJWTVerifierRejects(t *testing.T) {
	v, err := NewJWTVerifier(testSecret)
	require.NoError(t, err)
	ctx := context.Background()

	other, err := GenerateToken("other-secret", Identity{Subject: "uid"}, time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(ctx, other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := GenerateToken(testSecret, Identity{Subject: "uid"}, -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(ctx, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "uid"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = v.Verify(ctx, none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewJWTVerifier("")
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Empty(t, BearerToken("Basic abc"))
	assert.Empty(t, BearerToken(""))
}

func TestAuthorizeMissingCredential(t *testing.T) {
	p := newPolicy(t, &stubResolver{})

	_, err := p.Authorize(context.Background(), "", Protected)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	actor, err := p.Authorize(context.Background(), "", Optional)
	require.NoError(t, err)
	assert.Nil(t, actor)
}

func TestAuthorizeInvalidCredentialOnOptionalRoute(t *testing.T) {
	p := newPolicy(t, &stubResolver{})
	_, err := p.Authorize(context.Background(), "Bearer garbage", Optional)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestAuthorizeResolvesProfile(t *testing.T) {
	user := &models.User{FirebaseUID: "uid-1", Username: "alice"}
	p := newPolicy(t, &stubResolver{user: user})

	actor, err := p.Authorize(context.Background(), bearer(t, " uid-1"), Profile)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", actor.ID)
	assert.Same(t, user, actor.Profile)
	assert.False(t, actor.Degraded)
}

func TestAuthorizeDegraded(t *testing.T) {
	p := newPolicy(t, &stubResolver{err: repository.ErrUnavailable})

	actor, err := p.Authorize(context.Background(), bearer(t, "uid-1"), Tolerant)
	require.NoError(t, err)
	assert.True(t, actor.Degraded)
	assert.Equal(t, 25, actor.Profile.Coins)
	assert.Equal(t, models.GenderMale, actor.Profile.Gender)
	assert.Equal(t, "uid-1", actor.Profile.FirebaseUID)

	_, err = p.Authorize(context.Background(), bearer(t, "uid-1"), Profile)
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
}

func TestAuthorizeMissingProfile(t *testing.T) {
	p := newPolicy(t, &stubResolver{err: repository.ErrNotFound})

	_, err := p.Authorize(context.Background(), bearer(t, "uid-1"), Profile)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "user not found", apperr.Message(err))

	_, err = p.Authorize(context.Background(), bearer(t, "uid-1"), Tolerant)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAuthorizeSkipsLookupWhenProfileUnneeded(t *testing.T) {
	p := newPolicy(t, &stubResolver{err: errors.New("should not be called")})
	actor, err := p.Authorize(context.Background(), bearer(t, "uid-1"), Protected)
	require.NoError(t, err)
	assert.Nil(t, actor.Profile)
}

func TestActorOwns(t *testing.T) {
	a := &Actor{ID: "uid-1"}
	assert.True(t, a.Owns(" uid-1 "))
	assert.False(t, a.Owns("uid-2"))
	assert.False(t, (&Actor{}).Owns(""))
}

func TestDeriveUsername(t *testing.T) {
	assert.Equal(t, "john.doe", DeriveUsername(&Identity{Email: "John.Doe@example.com"}))
	assert.Equal(t, "jane_smith", DeriveUsername(&Identity{DisplayName: "Jane Smith"}))
	assert.Equal(t, "user_abcdefgh", DeriveUsername(&Identity{Subject: "ABCDEFGHIJ", Email: "!!!@x.y"}))
}

func TestWritePolicySettle(t *testing.T) {
	w := DefaultWritePolicy()

	persisted, err := w.Settle(OpAddCoins, repository.ErrUnavailable)
	assert.NoError(t, err)
	assert.False(t, persisted)

	persisted, err = w.Settle(OpPostCreate, repository.ErrUnavailable)
	assert.False(t, persisted)
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))

	_, err = w.Settle(OpAddCoins, repository.ErrNotFound)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	persisted, err = w.Settle(OpPostCreate, nil)
	assert.NoError(t, err)
	assert.True(t, persisted)

	strict := WritePolicy{}
	_, err = strict.Settle(OpAddCoins, repository.ErrUnavailable)
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
}

func TestCheckAdminKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, CheckAdminKey(string(hash), "s3cret"))
	assert.False(t, CheckAdminKey(string(hash), "wrong"))
	assert.False(t, CheckAdminKey("", "s3cret"))
}
