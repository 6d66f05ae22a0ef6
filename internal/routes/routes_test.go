package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"signlearn-service/internal/auth"
	"signlearn-service/internal/cache"
	"signlearn-service/internal/config"
	"signlearn-service/internal/repository/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret   = "test-secret"
	testAdminKey = "admin-key"
)

type server struct {
	t      *testing.T
	router *gin.Engine
	db     *memory.DB
}

func newServer(t *testing.T, tweak func(*config.Config)) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminKey), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := &config.Config{
		CORSOrigins:      "*",
		CacheTTL:         30 * time.Second,
		AdminKeyHash:     string(hash),
		PostRateLimit:    20,
		StoryRateLimit:   20,
		CommentRateLimit: 60,
	}
	if tweak != nil {
		tweak(cfg)
	}

	verifier, err := auth.NewJWTVerifier(testSecret)
	require.NoError(t, err)
	store, db := memory.New()

	router, _ := NewRouter(Deps{
		Config:   cfg,
		Store:    store,
		Verifier: verifier,
		Cache:    cache.NewMemory(nil),
		Limiter:  cache.NewMemoryLimiter(nil),
		Logger:   zaptest.NewLogger(t),
	})
	return &server{t: t, router: router, db: db}
}

func (s *server) token(subject string) string {
	s.t.Helper()
	tok, err := auth.GenerateToken(testSecret, auth.Identity{
		Subject:     subject,
		Email:       subject + "@example.com",
		DisplayName: "User " + subject,
	}, time.Hour)
	require.NoError(s.t, err)
	return tok
}

type call struct {
	method, path, token string
	body                interface{}
	header              map[string]string
}

func (s *server) do(c call) (*httptest.ResponseRecorder, map[string]interface{}) {
	s.t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func (s *server) verify(subject string) string {
	s.t.Helper()
	tok := s.token(subject)
	w, _ := s.do(call{method: http.MethodPost, path: "/api/auth/verify", token: tok})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return tok
}

func TestPreflightAnswers200(t *testing.T) {
	s := newServer(t, nil)
	w, _ := s.do(call{method: http.MethodOptions, path: "/api/posts"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, w.Body.Len())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMissingBearerIs401(t *testing.T) {
	s := newServer(t, nil)
	w, body := s.do(call{method: http.MethodGet, path: "/api/auth/me"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestInvalidTokenOnOptionalRouteIs401(t *testing.T) {
	s := newServer(t, nil)
	w, _ := s.do(call{method: http.MethodGet, path: "/api/posts", token: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeBeforeAndAfterVerify(t *testing.T) {
	s := newServer(t, nil)
	tok := s.token("u1")

	w, body := s.do(call{method: http.MethodGet, path: "/api/auth/me", token: tok})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["exists"])

	s.verify("u1")
	w, body = s.do(call{method: http.MethodGet, path: "/api/auth/me", token: tok})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["exists"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "u1", user["firebaseUid"])
}

func TestVerifyWithTakenEmailIsConflict(t *testing.T) {
	s := newServer(t, nil)
	s.verify("u1")

	tok, err := auth.GenerateToken(testSecret, auth.Identity{
		Subject: "u1-other",
		Email:   "u1@example.com",
	}, time.Hour)
	require.NoError(t, err)

	w, body := s.do(call{method: http.MethodPost, path: "/api/auth/verify", token: tok})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "email is already registered to another account", body["error"])

	// The original account is untouched.
	w, body = s.do(call{method: http.MethodGet, path: "/api/auth/me", token: s.token("u1")})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["exists"])
}

func TestCoinFlow(t *testing.T) {
	s := newServer(t, nil)
	tok := s.verify("u1")

	w, body := s.do(call{method: http.MethodPost, path: "/api/auth/update-coins", token: tok, body: gin.H{"coins": 100}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 100, body["coins"])

	_, body = s.do(call{method: http.MethodPost, path: "/api/auth/add-coins", token: tok, body: gin.H{"amount": 50}})
	assert.EqualValues(t, 150, body["coins"])
	assert.Equal(t, true, body["persisted"])

	_, body = s.do(call{method: http.MethodPost, path: "/api/auth/subtract-coins", token: tok, body: gin.H{"amount": 200}})
	assert.EqualValues(t, 0, body["coins"])

	w, _ = s.do(call{method: http.MethodPost, path: "/api/auth/add-coins", token: tok, body: gin.H{"amount": 0}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDegradedModeAcceptsCoinsButRejectsPosts(t *testing.T) {
	s := newServer(t, nil)
	tok := s.verify("u1")
	s.db.SetUnavailable(true)

	w, body := s.do(call{method: http.MethodPost, path: "/api/auth/add-coins", token: tok, body: gin.H{"amount": 5}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, body["persisted"])

	w, _ = s.do(call{method: http.MethodPost, path: "/api/posts", token: tok, body: gin.H{"content": "hello"}})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w, body = s.do(call{method: http.MethodGet, path: "/api/posts"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["fallback"])
	assert.Empty(t, body["posts"])

	// Degraded listings are not cached.
	s.db.SetUnavailable(false)
	w, body = s.do(call{method: http.MethodGet, path: "/api/posts"})
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Nil(t, body["fallback"])
}

func TestPostOwnershipFlow(t *testing.T) {
	s := newServer(t, nil)
	author := s.verify("u1")
	other := s.verify("u2")

	w, body := s.do(call{method: http.MethodPost, path: "/api/posts", token: author, body: gin.H{"content": "first post"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := body["post"].(map[string]interface{})["id"].(string)

	_, body = s.do(call{method: http.MethodPost, path: "/api/posts/" + id + "/like", token: author})
	assert.Equal(t, true, body["isLiked"])
	assert.EqualValues(t, 1, body["likesCount"])
	_, body = s.do(call{method: http.MethodPost, path: "/api/posts/" + id + "/like", token: author})
	assert.Equal(t, false, body["isLiked"])
	assert.EqualValues(t, 0, body["likesCount"])

	w, _ = s.do(call{method: http.MethodDelete, path: "/api/posts/" + id, token: other})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(call{method: http.MethodDelete, path: "/api/posts/" + id, token: author})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(call{method: http.MethodGet, path: "/api/posts/" + id})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = s.do(call{method: http.MethodGet, path: "/api/posts/not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid post id", body["error"])
}

func TestStoryViewToggles(t *testing.T) {
	s := newServer(t, nil)
	author := s.verify("u1")
	viewer := s.verify("u2")

	w, body := s.do(call{method: http.MethodPost, path: "/api/stories", token: author, body: gin.H{
		"media": gin.H{"type": "image", "url": "https://cdn.example.com/s.png"},
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := body["story"].(map[string]interface{})["id"].(string)

	_, body = s.do(call{method: http.MethodPost, path: "/api/stories/" + id + "/view", token: viewer})
	assert.Equal(t, true, body["isViewed"])
	assert.EqualValues(t, 1, body["viewsCount"])

	_, body = s.do(call{method: http.MethodPost, path: "/api/stories/" + id + "/view", token: viewer})
	assert.Equal(t, false, body["isViewed"])
	assert.EqualValues(t, 0, body["viewsCount"])

	_, body = s.do(call{method: http.MethodGet, path: "/api/stories"})
	assert.Len(t, body["stories"], 1)
}

func TestResponseCache(t *testing.T) {
	s := newServer(t, nil)

	w, _ := s.do(call{method: http.MethodGet, path: "/api/signs/categories"})
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	w, _ = s.do(call{method: http.MethodGet, path: "/api/signs/categories"})
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	w, _ = s.do(call{method: http.MethodGet, path: "/api/posts", token: s.token("u1")})
	assert.Empty(t, w.Header().Get("X-Cache"))
}

func TestAdminKeyGuardsCatalogWrites(t *testing.T) {
	s := newServer(t, nil)
	sign := gin.H{
		"word":          "hello",
		"difficulty":    "easy",
		"correctAnswer": "Hello",
		"wrongAnswers":  []string{"Bye", "Thanks", "Sorry"},
		"category":      "greetings",
	}

	w, _ := s.do(call{method: http.MethodPost, path: "/api/signs", body: sign})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(call{method: http.MethodPost, path: "/api/signs", body: sign,
		header: map[string]string{"X-Admin-Key": "wrong"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := s.do(call{method: http.MethodPost, path: "/api/signs", body: sign,
		header: map[string]string{"X-Admin-Key": testAdminKey}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := body["sign"].(map[string]interface{})["id"].(string)

	tok := s.verify("u1")
	_, body = s.do(call{method: http.MethodPost, path: "/api/signs/" + id + "/check_answer", token: tok,
		body: gin.H{"answer": "  hello "}})
	assert.Equal(t, true, body["isCorrect"])
	assert.EqualValues(t, 10, body["coinsAwarded"])
	assert.Equal(t, true, body["persisted"])

	_, body = s.do(call{method: http.MethodPost, path: "/api/signs/" + id + "/check_answer",
		body: gin.H{"answer": "bye"}})
	assert.Equal(t, false, body["isCorrect"])
	assert.EqualValues(t, 0, body["coinsAwarded"])

	_, body = s.do(call{method: http.MethodGet, path: "/api/progress", token: tok})
	progress := body["progress"].(map[string]interface{})
	assert.EqualValues(t, 10, progress["totalCoins"])
	assert.Equal(t, []interface{}{id}, progress["learnedSigns"])
}

func TestPostCreationIsRateLimited(t *testing.T) {
	s := newServer(t, func(c *config.Config) { c.PostRateLimit = 2 })
	tok := s.verify("u1")

	for i := 0; i < 2; i++ {
		w, _ := s.do(call{method: http.MethodPost, path: "/api/posts", token: tok, body: gin.H{"content": "post"}})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w, body := s.do(call{method: http.MethodPost, path: "/api/posts", token: tok, body: gin.H{"content": "post"}})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate limit exceeded", body["error"])
}

func TestUploadWithoutStorage(t *testing.T) {
	s := newServer(t, nil)
	tok := s.token("u1")

	w, _ := s.do(call{method: http.MethodPost, path: "/api/upload/presigned", token: tok,
		body: gin.H{"contentType": "application/pdf", "fileName": "a.pdf"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(call{method: http.MethodPost, path: "/api/upload/presigned", token: tok,
		body: gin.H{"contentType": "image/png", "fileName": "a.png"}})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealth(t *testing.T) {
	s := newServer(t, nil)
	w, body := s.do(call{method: http.MethodGet, path: "/healthz"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["healthy"])

	s.db.SetUnavailable(true)
	w, _ = s.do(call{method: http.MethodGet, path: "/healthz"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
