package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"signlearn-service/internal/apperr"
	"signlearn-service/internal/cache"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS("*"))
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := serve(r, http.MethodOptions, "/x", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, w.Body.Len())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	w = serve(r, http.MethodGet, "/x", nil)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAllowList(t *testing.T) {
	r := gin.New()
	r.Use(CORS("https://app.example.com, https://admin.example.com"))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/x", map[string]string{"Origin": "https://admin.example.com"})
	assert.Equal(t, "https://admin.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodGet, "/x", map[string]string{"Origin": "https://evil.example.com"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func TestResponseCache(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := cache.NewMemory(clock.Now)
	calls := 0

	r := gin.New()
	r.GET("/signs", ResponseCache(store, 30*time.Second, zaptest.NewLogger(t)), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.GET("/degraded", ResponseCache(store, 30*time.Second, zaptest.NewLogger(t)), func(c *gin.Context) {
		calls++
		MarkDegraded(c)
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})

	w := serve(r, http.MethodGet, "/signs", nil)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	w = serve(r, http.MethodGet, "/signs", nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"calls":1}`, w.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	// Credentials always reach the handler.
	serve(r, http.MethodGet, "/signs", map[string]string{"Authorization": "Bearer t"})
	assert.Equal(t, 2, calls)

	clock.now = clock.now.Add(31 * time.Second)
	w = serve(r, http.MethodGet, "/signs", nil)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, 3, calls)

	serve(r, http.MethodGet, "/degraded", nil)
	w = serve(r, http.MethodGet, "/degraded", nil)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
}

func TestRequireAdmin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	r := gin.New()
	r.POST("/signs", RequireAdmin(string(hash)), func(c *gin.Context) { c.Status(http.StatusCreated) })

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/signs", nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/signs", map[string]string{AdminKeyHeader: "nope"}).Code)
	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/signs", map[string]string{AdminKeyHeader: "secret"}).Code)
}

func TestRequireAdminWithoutHashLocksWrites(t *testing.T) {
	r := gin.New()
	r.POST("/signs", RequireAdmin(""), func(c *gin.Context) { c.Status(http.StatusCreated) })
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/signs", map[string]string{AdminKeyHeader: "x"}).Code)
}

type failingLimiter struct{}

func (failingLimiter) Allow(_ context.Context, _ string, _ int, _ time.Duration) (bool, error) {
	return true, errors.New("redis down")
}

func TestRateLimit(t *testing.T) {
	limiter := cache.NewMemoryLimiter(nil)
	r := gin.New()
	r.POST("/posts", RateLimit(limiter, "create_post", 2, time.Minute, zaptest.NewLogger(t)), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/posts", nil).Code)
	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/posts", nil).Code)
	w := serve(r, http.MethodPost, "/posts", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"rate limit exceeded"}`, w.Body.String())
}

func TestRateLimitFailsOpen(t *testing.T) {
	r := gin.New()
	r.POST("/posts", RateLimit(failingLimiter{}, "create_post", 1, time.Minute, zaptest.NewLogger(t)), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/posts", nil).Code)
	}
}

func TestAbortUsesKindStatus(t *testing.T) {
	r := gin.New()
	r.GET("/x", func(c *gin.Context) { Abort(c, apperr.NotFound("user not found")) })

	w := serve(r, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"user not found"}`, w.Body.String())
}
