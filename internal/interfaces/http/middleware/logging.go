package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"authorai-api/pkg/logger"
)

// AccessLog 请求日志中间件
func AccessLog(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		ctx := c.Request.Context()
		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Warn(ctx, "http request failed", args...)
		case status >= 400:
			logger.Info(ctx, "http request rejected", args...)
		default:
			logger.Debug(ctx, "http request", args...)
		}
	}
}
