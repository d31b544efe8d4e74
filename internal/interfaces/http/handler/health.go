// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"authorai-api/internal/infrastructure/persistence/postgres"
	"authorai-api/internal/infrastructure/persistence/redis"
)

// RootMessage 根路径存活提示
const RootMessage = "AuthorAI API is running..."

// HealthChecker 可探活的依赖
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	pg    HealthChecker
	redis HealthChecker
}

// NewHealthHandler 创建健康检查处理器；Redis 未启用时传 nil
func NewHealthHandler(pg *postgres.Client, redisClient *redis.Client) *HealthHandler {
	h := &HealthHandler{}
	if pg != nil {
		h.pg = pg
	}
	if redisClient != nil {
		h.redis = redisClient
	}
	return h
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status string `json:"status"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Root 根路径
// @Summary 存活提示
// @Tags System
// @Produce plain
// @Success 200 {string} string
// @Router / [get]
func (h *HealthHandler) Root(c *gin.Context) {
	c.String(http.StatusOK, RootMessage)
}

// Health 健康检查接口
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Live 存活检查接口
// @Summary 存活检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready 就绪检查接口
// @Summary 就绪检查
// @Description Postgres 必需；Redis 仅作缓存，故障时降级不影响就绪
// @Tags System
// @Produce json
// @Success 200 {object} readinessResponse
// @Failure 503 {object} readinessResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]*readinessCheck{
		"postgres": {Status: "missing", Error: "postgres client not configured"},
		"redis":    {Status: "disabled"},
	}

	ready := false
	if h.pg != nil {
		checks["postgres"] = runCheck(ctx, h.pg, "error")
		ready = checks["postgres"].Status == "ok"
	}
	if h.redis != nil {
		checks["redis"] = runCheck(ctx, h.redis, "degraded")
	}

	resp := readinessResponse{Status: "ok", Checks: checks}
	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func runCheck(ctx context.Context, checker HealthChecker, failStatus string) *readinessCheck {
	start := time.Now()
	err := checker.HealthCheck(ctx)
	check := &readinessCheck{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		check.Status = failStatus
		check.Error = err.Error()
	}
	return check
}
