package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"garage-backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitMiddleware rejects clients that exceed the limiter with 429.
// Limiter failures let the request through.
func RateLimitMiddleware(limiter ratelimit.Limiter, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/api/v1/health" {
			c.Next()
			return
		}

		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), clientID(c))
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Header("X-RateLimit-Error", "Rate limiter unavailable")
			c.Next()
			return
		}
		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":    false,
				"message":    fmt.Sprintf("Too many requests. Try again in %ds", seconds),
				"error":      "RATE_LIMIT_EXCEEDED",
				"retryAfter": seconds,
			})
			return
		}
		c.Next()
	}
}

// clientID identifies the caller by API key when present, otherwise by IP.
func clientID(c *gin.Context) string {
	if apiKey := c.GetHeader("X-API-Key"); apiKey != "" {
		return "api:" + apiKey
	}
	return "ip:" + c.ClientIP()
}
