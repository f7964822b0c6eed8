//go:build wireinject
// +build wireinject

// Wire依赖注入配置,`wire gen ./cmd/api` 生成 wire_gen.go

package main

import (
	"github.com/google/wire"
	"github.com/sirupsen/logrus"

	appuser "github.com/xiebiao/bookshop/internal/application/user"
	"github.com/xiebiao/bookshop/internal/infrastructure/config"
	"github.com/xiebiao/bookshop/internal/interface/http/handler"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
)

// infrastructureSet 存储、Redis、消息队列
var infrastructureSet = wire.NewSet(
	provideStorage,
	provideRedisClient,
	provideSessionStore,
	provideBookCache,
	provideEventPublisher,
	provideAuditConsumer,
)

// domainSet 领域服务和订单引擎
var domainSet = wire.NewSet(
	provideBookService,
	provideCategoryService,
	provideUserService,
	provideOrderEngine,
)

// applicationSet 登录/登出/刷新用例
var applicationSet = wire.NewSet(
	provideJWTManager,
	provideLoginUseCase,
	provideLogoutUseCase,
	appuser.NewRefreshUseCase,
)

// interfaceSet HTTP处理器、中间件、路由、gRPC健康检查
var interfaceSet = wire.NewSet(
	provideTokenBlacklist,
	middleware.NewAuthMiddleware,
	handler.NewUserHandler,
	handler.NewCategoryHandler,
	handler.NewBookHandler,
	handler.NewOrderHandler,
	provideHandlers,
	provideGinEngine,
	provideHealthServer,
)

// InitializeApp 组装整个应用,cleanup按创建的逆序释放资源
func InitializeApp(cfg *config.Config, log *logrus.Logger) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		domainSet,
		applicationSet,
		interfaceSet,
		newApp,
	)
	return nil, nil, nil
}
