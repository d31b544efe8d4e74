package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"authorai-api/internal/config"
	apperrors "authorai-api/pkg/errors"
	"authorai-api/pkg/logger"
)

// RateLimiter 限流器接口，由 redis.RateLimiter 实现
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimitKeyFunc 根据客户端与路由构建限流 Key
type RateLimitKeyFunc func(clientKey, endpoint string) string

// RateLimit 按客户端 IP 与路由的滑动窗口限流中间件
func RateLimit(cfg config.RateLimitConfig, limiter RateLimiter, keyFn RateLimitKeyFunc) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	limit := cfg.RequestsPerSecond
	if limit <= 0 {
		limit = 20
	}
	if keyFn == nil {
		keyFn = func(clientKey, endpoint string) string {
			return "ratelimit:" + clientKey + ":" + endpoint
		}
	}

	return func(c *gin.Context) {
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		key := keyFn(c.ClientIP(), endpoint)

		allowed, err := limiter.Allow(c.Request.Context(), key, limit, time.Second)
		if err != nil {
			// 限流器故障时放行
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err.Error())
			c.Next()
			return
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"msg":      apperrors.ErrTooManyRequests.Message,
				"trace_id": c.GetString("trace_id"),
			})
			return
		}

		c.Next()
	}
}
