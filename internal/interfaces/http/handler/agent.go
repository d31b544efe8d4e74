package handler

import (
	"github.com/gin-gonic/gin"

	"authorai-api/internal/application/agent"
	"authorai-api/internal/interfaces/http/dto"
)

// AgentHandler 写作 Agent 处理器，成功时原样返回模型输出
type AgentHandler struct {
	svc *agent.Service
}

// NewAgentHandler 创建 Agent 处理器
func NewAgentHandler(svc *agent.Service) *AgentHandler {
	return &AgentHandler{svc: svc}
}

// Architect 生成情节图
// @Summary 情节架构
// @Tags Agents
// @Accept json
// @Produce json
// @Param body body dto.ArchitectRequest true "前提与结构"
// @Success 200 {object} object
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/agents/architect [post]
func (h *AgentHandler) Architect(c *gin.Context) {
	var req dto.ArchitectRequest
	if !dto.BindJSON(c, &req) {
		return
	}
	out, err := h.svc.Architect(c.Request.Context(), req.ToInput())
	writeResult(c, out, err)
}

// WorldBuild 扩展世界观概念
// @Summary 世界观构建
// @Tags Agents
// @Accept json
// @Produce json
// @Param body body dto.WorldBuildRequest true "概念与蓝图 ID"
// @Success 200 {object} object
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/agents/worldbuilder [post]
func (h *AgentHandler) WorldBuild(c *gin.Context) {
	var req dto.WorldBuildRequest
	if !dto.BindJSON(c, &req) {
		return
	}
	out, err := h.svc.WorldBuild(c.Request.Context(), req.ToInput())
	writeResult(c, out, err)
}

// WriteScene 撰写场景
// @Summary 场景写作
// @Tags Agents
// @Accept json
// @Produce json
// @Param body body dto.SceneWriteRequest true "节点、蓝图 ID 与字数"
// @Success 200 {object} agent.SceneResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/agents/scenewriter [post]
func (h *AgentHandler) WriteScene(c *gin.Context) {
	var req dto.SceneWriteRequest
	if !dto.BindJSON(c, &req) {
		return
	}
	out, err := h.svc.WriteScene(c.Request.Context(), req.ToInput())
	writeResult(c, out, err)
}

// AnalyzeStyle 分析样例文本风格
// @Summary 风格分析
// @Tags Agents
// @Accept json
// @Produce json
// @Param body body dto.StyleAnalyzeRequest true "样例文本"
// @Success 200 {object} object
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/agents/stylist/analyze [post]
func (h *AgentHandler) AnalyzeStyle(c *gin.Context) {
	var req dto.StyleAnalyzeRequest
	if !dto.BindJSON(c, &req) {
		return
	}
	out, err := h.svc.AnalyzeStyle(c.Request.Context(), req.ToInput())
	writeResult(c, out, err)
}

// ExecuteStyle 按风格指南改写
// @Summary 风格改写
// @Tags Agents
// @Accept json
// @Produce json
// @Param body body dto.StyleExecuteRequest true "草稿与蓝图 ID"
// @Success 200 {object} object
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/agents/stylist/execute [post]
func (h *AgentHandler) ExecuteStyle(c *gin.Context) {
	var req dto.StyleExecuteRequest
	if !dto.BindJSON(c, &req) {
		return
	}
	out, err := h.svc.ExecuteStyle(c.Request.Context(), req.ToInput())
	writeResult(c, out, err)
}

// Audit 审查场景
// @Summary 场景审查
// @Tags Agents
// @Accept json
// @Produce json
// @Param body body dto.AuditRequest true "场景与蓝图 ID"
// @Success 200 {object} object
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/agents/critic/audit [post]
func (h *AgentHandler) Audit(c *gin.Context) {
	var req dto.AuditRequest
	if !dto.BindJSON(c, &req) {
		return
	}
	out, err := h.svc.Audit(c.Request.Context(), req.ToInput())
	writeResult(c, out, err)
}

func writeResult(c *gin.Context, out any, err error) {
	if err != nil {
		dto.HandleError(c, err)
		return
	}
	dto.OK(c, out)
}
