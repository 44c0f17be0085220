package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"garage-backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupRouter(limiter ratelimit.Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(limiter, nil))
	router.GET("/api/v1/vehicles", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"vehicles": []string{}})
	})
	router.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func get(router *gin.Engine, path, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remote
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware(t *testing.T) {
	router := setupRouter(ratelimit.NewMemoryLimiter(ratelimit.Limit{RequestsPerSecond: 0.5, Burst: 2}))

	assert.Equal(t, http.StatusOK, get(router, "/api/v1/vehicles", "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, get(router, "/api/v1/vehicles", "10.0.0.1:1234").Code)

	blocked := get(router, "/api/v1/vehicles", "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
	assert.Contains(t, blocked.Body.String(), "RATE_LIMIT_EXCEEDED")

	assert.Equal(t, http.StatusOK, get(router, "/api/v1/vehicles", "10.0.0.2:1234").Code, "other clients are unaffected")
	assert.Equal(t, http.StatusOK, get(router, "/api/v1/health", "10.0.0.1:1234").Code, "health is never limited")
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return false, 0, errors.New("redis down")
}

func TestRateLimitMiddleware_FailOpen(t *testing.T) {
	router := setupRouter(failingLimiter{})
	w := get(router, "/api/v1/vehicles", "10.0.0.1:1234")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Rate limiter unavailable", w.Header().Get("X-RateLimit-Error"))
}
