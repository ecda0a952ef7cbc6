package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campuspoint/auth-service/internal/core/port"
	"github.com/campuspoint/auth-service/internal/infra/logger"
)

// RateLimiter enforces an IP scoped sliding window per endpoint. The store
// being unreachable fails open: availability of login outweighs the limit.
type RateLimiter struct {
	store  port.RateLimitStore
	window time.Duration
	log    *zap.Logger
}

func NewRateLimiter(store port.RateLimitStore, window time.Duration, log *zap.Logger) *RateLimiter {
	return &RateLimiter{store: store, window: window, log: log}
}

// Limit returns a middleware that allows at most maxAttempts requests per
// client IP within the sliding window, keyed by scope.
func (rl *RateLimiter) Limit(scope string, maxAttempts int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxAttempts <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		identifier := scope + ":" + c.ClientIP()
		now := time.Now()

		if err := rl.store.TrimWindow(ctx, identifier, rl.window, now); err != nil {
			rl.log.Warn("rate limit trim failed, allowing request",
				zap.String("scope", scope),
				zap.Error(err),
			)
			c.Next()
			return
		}

		count, err := rl.store.CountAttempts(ctx, identifier, rl.window, now)
		if err != nil {
			rl.log.Warn("rate limit count failed, allowing request",
				zap.String("scope", scope),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if count >= maxAttempts {
			retryAfter := rl.window
			if oldest, ok, err := rl.store.OldestAttempt(ctx, identifier, rl.window, now); err == nil && ok {
				retryAfter = oldest.Add(rl.window).Sub(now)
				if retryAfter < time.Second {
					retryAfter = time.Second
				}
			}

			rl.log.Warn("rate limit exceeded",
				zap.String("scope", scope),
				zap.String("client_ip", logger.MaskIP(c.ClientIP())),
				zap.Int("attempts", count),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests",
				"code":  "RATE_LIMITED",
			})
			return
		}

		if err := rl.store.RecordAttempt(ctx, identifier, now); err != nil {
			rl.log.Warn("rate limit record failed",
				zap.String("scope", scope),
				zap.Error(err),
			)
		}

		c.Next()
	}
}
