//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"authorai-api/internal/application/agent"
	"authorai-api/internal/application/agent/prompt"
	"authorai-api/internal/application/story"
	"authorai-api/internal/config"
	"authorai-api/internal/infrastructure/llm"
	"authorai-api/internal/infrastructure/persistence/postgres"
	"authorai-api/internal/interfaces/http/handler"
	"authorai-api/internal/interfaces/http/router"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		PostgresSet,
		RedisSet,
		LLMSet,
		RouterSet,
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewStoryRepository,
)

// RedisSet Redis 提供者集合（可选）
var RedisSet = wire.NewSet(
	ProvideRedisClientOptional,
	ProvideStoryRepository,
	ProvideRateLimiter,
)

// LLMSet LLM 网关与提示词
var LLMSet = wire.NewSet(
	llm.NewGateway,
	prompt.NewRegistry,
	wire.Bind(new(agent.TextGenerator), new(*llm.Gateway)),
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	story.NewService,
	agent.NewService,
	handler.NewHealthHandler,
	handler.NewStoryHandler,
	handler.NewAgentHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)
