// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "authorai-api/pkg/errors"
	"authorai-api/pkg/logger"
	"authorai-api/pkg/tracer"
)

// ErrorResponse 错误响应结构，msg 字段与前端约定一致
type ErrorResponse struct {
	Msg     string `json:"msg"`
	Detail  any    `json:"detail,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// OK 直接返回文档或模型输出，不做包装
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created 返回创建成功响应 (201)
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// Error 返回错误响应
func Error(c *gin.Context, httpCode int, message string) {
	c.AbortWithStatusJSON(httpCode, ErrorResponse{
		Msg:     message,
		TraceID: traceID(c),
	})
}

// BadRequest 返回 400 错误
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func traceID(c *gin.Context) string {
	if id := c.GetString("trace_id"); id != "" {
		return id
	}
	return tracer.TraceID(c.Request.Context())
}

// HandleError 将服务层错误映射为 HTTP 响应；未识别的错误统一为 500
func HandleError(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	ctx := c.Request.Context()
	if status >= http.StatusInternalServerError {
		logger.Error(ctx, "request failed", err, "path", c.FullPath(), "code", appErr.Code)
	} else {
		logger.Debug(ctx, "request rejected", "path", c.FullPath(), "code", appErr.Code, "msg", appErr.Message)
	}
	_ = c.Error(err)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Msg:     appErr.Message,
		Detail:  appErr.Detail,
		TraceID: traceID(c),
	})
}
