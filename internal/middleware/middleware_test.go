package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tukio/config"
	"tukio/internal/auth"
	"tukio/internal/requestid"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var jwtCfg = &config.JWTConfig{Secret: "s", AdminRole: "admin", AccessExpiry: time.Hour}

func do(r http.Handler, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(t *testing.T, userID, role string) map[string]string {
	t.Helper()
	tok, err := auth.GenerateAccessToken(jwtCfg, userID, "", role)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + tok}
}

func TestAuthRequired(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthRequired(jwtCfg), func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c))
	})

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", map[string]string{"Authorization": "Token abc"}).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer abc"}).Code)

	w := do(r, http.MethodGet, "/me", bearer(t, "u1", ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
}

func TestAdminRequired(t *testing.T) {
	r := gin.New()
	r.GET("/admin", AuthRequired(jwtCfg), AdminRequired("admin"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin", bearer(t, "u1", "")).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/admin", bearer(t, "u1", "admin")).Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		assert.Equal(t, GetRequestID(c), requestid.From(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	w := do(r, http.MethodGet, "/", map[string]string{"X-Request-ID": "req-1"})
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))

	w = do(r, http.MethodGet, "/", nil)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestInMemoryRateLimiter(t *testing.T) {
	l := NewInMemoryRateLimiter(2, time.Minute)
	defer l.Stop()
	ctx := context.Background()
	assert.True(t, l.Allow(ctx, "a"))
	assert.True(t, l.Allow(ctx, "a"))
	assert.False(t, l.Allow(ctx, "a"))
	assert.True(t, l.Allow(ctx, "b"))
}

func TestRedisRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	l := NewRedisRateLimiter(rdb, 2, time.Minute, "rl:test")
	ctx := context.Background()
	assert.True(t, l.Allow(ctx, "a"))
	assert.True(t, l.Allow(ctx, "a"))
	assert.False(t, l.Allow(ctx, "a"))
	assert.Greater(t, mr.TTL("rl:test:a"), time.Duration(0))

	mr.FastForward(time.Minute + time.Second)
	assert.True(t, l.Allow(ctx, "a"))

	mr.Close()
	assert.True(t, l.Allow(ctx, "a"), "fails open without redis")
}

func TestRateLimitMiddleware(t *testing.T) {
	l := NewInMemoryRateLimiter(1, time.Minute)
	defer l.Stop()
	r := gin.New()
	r.Use(RateLimit(l))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodGet, "/", nil).Code)
}

func TestRateLimitByUser(t *testing.T) {
	l := NewInMemoryRateLimiter(1, time.Minute)
	defer l.Stop()
	r := gin.New()
	r.GET("/", AuthRequired(jwtCfg), RateLimitByUser(l), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", bearer(t, "u1", "")).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodGet, "/", bearer(t, "u1", "")).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", bearer(t, "u2", "")).Code)
}

func TestCallbackGuard(t *testing.T) {
	newRouter := func(token string, allowed []string) *gin.Engine {
		r := gin.New()
		r.POST("/cb", CallbackGuard(token, allowed, nil, nil), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return r
	}

	open := newRouter("", nil)
	assert.Equal(t, http.StatusOK, do(open, http.MethodPost, "/cb", nil).Code)

	tokened := newRouter("s3cret", nil)
	assert.Equal(t, http.StatusUnauthorized, do(tokened, http.MethodPost, "/cb", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(tokened, http.MethodPost, "/cb?token=wrong", nil).Code)
	assert.Equal(t, http.StatusOK, do(tokened, http.MethodPost, "/cb?token=s3cret", nil).Code)

	// httptest requests come from 192.0.2.1
	listed := newRouter("", []string{"192.0.2.0/24"})
	assert.Equal(t, http.StatusOK, do(listed, http.MethodPost, "/cb", nil).Code)
	single := newRouter("", []string{"196.201.214.200"})
	assert.Equal(t, http.StatusForbidden, do(single, http.MethodPost, "/cb", nil).Code)
}
