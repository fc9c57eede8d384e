package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/lms-progress-go/pkg/apperrors"
	"github.com/mo-amir99/lms-progress-go/pkg/cache"
	"github.com/mo-amir99/lms-progress-go/pkg/response"
)

// RateLimiter enforces a fixed window request budget per client IP. Counters
// live in the shared cache so every instance behind a load balancer sees them.
type RateLimiter struct {
	store  cache.Client
	limit  int
	window time.Duration
	logger *slog.Logger
}

// NewRateLimiter allows limit requests per window for each client.
func NewRateLimiter(store cache.Client, limit int, window time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{store: store, limit: limit, window: window, logger: logger}
}

// Middleware returns a Gin middleware that enforces rate limiting.
// Cache failures let the request through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		key := "ratelimit:" + c.ClientIP()
		count, err := rl.store.IncrementWindow(c.Request.Context(), key, rl.window)
		if err != nil {
			rl.logger.Warn("rate limiter unavailable", slog.String("error", err.Error()))
			c.Next()
			return
		}

		remaining := rl.limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if int(count) > rl.limit {
			c.Header("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			response.Error(c, http.StatusTooManyRequests, "Too many requests. Please try again later.", string(apperrors.ErrTooMany))
			c.Abort()
			return
		}

		c.Next()
	}
}
