package dto

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
)

// BindJSON 绑定 JSON 请求体；空请求体视为 {}，由服务层给出缺失字段提示
func BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}
