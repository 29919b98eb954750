package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/pos-terminal-api/internal/infrastructure/repository"
	"github.com/sangkips/pos-terminal-api/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// withOperator stands in for AuthMiddleware in tests of later middleware.
func withOperator(id uuid.UUID, permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextOperatorID, id)
		c.Set(ContextOperatorPermissions, permissions)
		c.Next()
	}
}

func serve(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader("{}"))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	jwtManager := utils.NewJWTManager("secret")
	operatorID := uuid.New()
	token, err := jwtManager.GenerateAccessToken(operatorID, "Caja 1", []string{"cashier"}, []string{"operate-terminal"}, time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", AuthMiddleware(jwtManager), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":    c.MustGet(ContextOperatorID).(uuid.UUID).String(),
			"name":  c.GetString(ContextOperatorName),
			"token": c.GetString(ContextAccessToken),
		})
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "Bearer not-a-token", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			w := serve(r, http.MethodGet, "/me", headers)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), operatorID.String())
				assert.Contains(t, w.Body.String(), `"name":"Caja 1"`)
				assert.Contains(t, w.Body.String(), token)
			}
		})
	}

	expired, err := jwtManager.GenerateAccessToken(operatorID, "Caja 1", nil, nil, -time.Minute)
	require.NoError(t, err)
	w := serve(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + expired})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequirePermission(t *testing.T) {
	r := gin.New()
	r.GET("/none", RequirePermission("view-sales"), okHandler)
	r.GET("/other", withOperator(uuid.New(), "operate-terminal"), RequirePermission("view-sales"), okHandler)
	r.GET("/granted", withOperator(uuid.New(), "operate-terminal", "view-sales"), RequirePermission("view-sales"), okHandler)

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/none", nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/other", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/granted", nil).Code)
}

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func idempotencyRouter(operatorID uuid.UUID, calls *int32, status *int32) *gin.Engine {
	repo := repository.NewMemoryIdempotencyRepository()
	r := gin.New()
	r.Use(withOperator(operatorID))
	handler := func(c *gin.Context) {
		n := atomic.AddInt32(calls, 1)
		c.JSON(int(atomic.LoadInt32(status)), gin.H{"call": n})
	}
	mw := Idempotency(IdempotencyConfig{Repo: repo})
	r.POST("/settle", mw, handler)
	r.POST("/other", mw, handler)
	r.GET("/settle", mw, handler)
	return r
}

func TestIdempotencyReplaysSuccessfulResponse(t *testing.T) {
	var calls int32
	status := int32(http.StatusCreated)
	r := idempotencyRouter(uuid.New(), &calls, &status)
	key := map[string]string{IdempotencyKeyHeader: "k-1"}

	first := serve(r, http.MethodPost, "/settle", key)
	second := serve(r, http.MethodPost, "/settle", key)

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(IdempotencyReplayedHeader))
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(IdempotencyReplayedHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIdempotencyDoesNotStoreFailures(t *testing.T) {
	var calls int32
	status := int32(http.StatusBadGateway)
	r := idempotencyRouter(uuid.New(), &calls, &status)
	key := map[string]string{IdempotencyKeyHeader: "k-2"}

	assert.Equal(t, http.StatusBadGateway, serve(r, http.MethodPost, "/settle", key).Code)

	atomic.StoreInt32(&status, http.StatusCreated)
	retry := serve(r, http.MethodPost, "/settle", key)

	assert.Equal(t, http.StatusCreated, retry.Code)
	assert.Empty(t, retry.Header().Get(IdempotencyReplayedHeader))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyKeyScope(t *testing.T) {
	var calls int32
	status := int32(http.StatusOK)
	r := idempotencyRouter(uuid.New(), &calls, &status)
	key := map[string]string{IdempotencyKeyHeader: "k-3"}

	require.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/settle", key).Code)

	// a different endpoint with the same key is rejected
	assert.Equal(t, http.StatusUnprocessableEntity, serve(r, http.MethodPost, "/other", key).Code)

	// GET requests are never deduplicated
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/settle", key).Code)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	// requests without a key pass through
	serve(r, http.MethodPost, "/settle", nil)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	tooLong := map[string]string{IdempotencyKeyHeader: strings.Repeat("x", maxIdempotencyKeyLength+1)}
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/settle", tooLong).Code)
}

func TestIdempotencyKeysArePerOperator(t *testing.T) {
	repo := repository.NewMemoryIdempotencyRepository()
	var calls int32
	handler := func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"call": atomic.AddInt32(&calls, 1)})
	}
	mw := Idempotency(IdempotencyConfig{Repo: repo})

	r := gin.New()
	r.POST("/a/settle", withOperator(uuid.New()), mw, handler)
	r.POST("/b/settle", withOperator(uuid.New()), mw, handler)

	key := map[string]string{IdempotencyKeyHeader: "shared"}
	serve(r, http.MethodPost, "/a/settle", key)
	w := serve(r, http.MethodPost, "/b/settle", key)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get(IdempotencyReplayedHeader))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestOperatorRateLimiter(t *testing.T) {
	rl := NewOperatorRateLimiter(RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 2})
	defer rl.Stop()

	first, second := uuid.New(), uuid.New()
	r := gin.New()
	r.GET("/first", withOperator(first), rl.Middleware(), okHandler)
	r.GET("/second", withOperator(second), rl.Middleware(), okHandler)
	r.GET("/anonymous", rl.Middleware(), okHandler)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/first", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/first", nil).Code)

	limited := serve(r, http.MethodGet, "/first", nil)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "2", limited.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	// buckets are independent per operator
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/second", nil).Code)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/anonymous", nil).Code)
	}
	assert.Equal(t, 2, rl.Len())
}

func TestOperatorRateLimiterCleanup(t *testing.T) {
	rl := NewOperatorRateLimiter(RateLimiterConfig{EntryTTL: time.Minute})
	defer rl.Stop()

	rl.getLimiter(uuid.New())
	rl.getLimiter(uuid.New())
	require.Equal(t, 2, rl.Len())

	rl.cleanup(time.Now())
	assert.Equal(t, 2, rl.Len())

	rl.cleanup(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, rl.Len())
}
