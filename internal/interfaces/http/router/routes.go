package router

import (
	"github.com/gin-gonic/gin"

	"authorai-api/internal/interfaces/http/handler"
)

// RegisterAPIRoutes 注册 /api 路由
func RegisterAPIRoutes(api *gin.RouterGroup, storyHandler *handler.StoryHandler, agentHandler *handler.AgentHandler) {
	// 故事蓝图
	stories := api.Group("/stories")
	{
		stories.POST("", storyHandler.CreateStory)
		stories.GET("/:id", storyHandler.GetStory)
		stories.PUT("/:id", storyHandler.ReplaceStory)
		stories.POST("/:id/merge", storyHandler.MergeStory)
	}

	// 写作 Agent
	agents := api.Group("/agents")
	{
		agents.POST("/architect", agentHandler.Architect)
		agents.POST("/worldbuilder", agentHandler.WorldBuild)
		agents.POST("/scenewriter", agentHandler.WriteScene)
		agents.POST("/stylist/analyze", agentHandler.AnalyzeStyle)
		agents.POST("/stylist/execute", agentHandler.ExecuteStyle)
		agents.POST("/critic/audit", agentHandler.Audit)
	}
}
