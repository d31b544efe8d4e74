package handler

import (
	"github.com/gin-gonic/gin"

	"authorai-api/internal/application/story"
	"authorai-api/internal/interfaces/http/dto"
)

// StoryHandler 故事蓝图处理器
type StoryHandler struct {
	svc *story.Service
}

// NewStoryHandler 创建故事蓝图处理器
func NewStoryHandler(svc *story.Service) *StoryHandler {
	return &StoryHandler{svc: svc}
}

// CreateStory 创建空白蓝图
// @Summary 创建故事蓝图
// @Description 请求体被忽略，新蓝图的所有字段都是空默认值
// @Tags Stories
// @Produce json
// @Success 201 {object} entity.Story
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/stories [post]
func (h *StoryHandler) CreateStory(c *gin.Context) {
	created, err := h.svc.Create(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.Created(c, created)
}

// GetStory 获取蓝图
// @Summary 获取故事蓝图
// @Tags Stories
// @Produce json
// @Param id path string true "蓝图 ID"
// @Success 200 {object} entity.Story
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/stories/{id} [get]
func (h *StoryHandler) GetStory(c *gin.Context) {
	var uri dto.StoryIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		dto.BadRequest(c, "invalid story id")
		return
	}

	found, err := h.svc.Get(c.Request.Context(), uri.ID)
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.OK(c, found)
}

// ReplaceStory 整体替换蓝图
// @Summary 替换故事蓝图
// @Description 请求体完整覆盖已有蓝图，未提供的字段恢复为空默认值
// @Tags Stories
// @Accept json
// @Produce json
// @Param id path string true "蓝图 ID"
// @Param body body dto.StoryRequest true "蓝图内容"
// @Success 200 {object} entity.Story
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/stories/{id} [put]
func (h *StoryHandler) ReplaceStory(c *gin.Context) {
	var uri dto.StoryIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		dto.BadRequest(c, "invalid story id")
		return
	}

	var req dto.StoryRequest
	if !dto.BindJSON(c, &req) {
		return
	}

	saved, err := h.svc.Replace(c.Request.Context(), uri.ID, req.ToEntity())
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.OK(c, saved)
}

// MergeStory 在指定路径写入一个键后保存
// @Summary 合并到故事蓝图
// @Description targetPath 为点分路径，根必须是 characterCodex、worldBible 或 styleGuide
// @Tags Stories
// @Accept json
// @Produce json
// @Param id path string true "蓝图 ID"
// @Param body body dto.MergeStoryRequest true "合并内容"
// @Success 200 {object} entity.Story
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/stories/{id}/merge [post]
func (h *StoryHandler) MergeStory(c *gin.Context) {
	var uri dto.StoryIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		dto.BadRequest(c, "invalid story id")
		return
	}

	var req dto.MergeStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "targetPath and key are required")
		return
	}

	saved, err := h.svc.Merge(c.Request.Context(), uri.ID, story.MergeInput{
		TargetPath: req.TargetPath,
		Key:        req.Key,
		Value:      req.Value,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.OK(c, saved)
}
