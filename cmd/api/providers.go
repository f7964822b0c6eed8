package main

import (
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	apporder "github.com/xiebiao/bookshop/internal/application/order"
	appuser "github.com/xiebiao/bookshop/internal/application/user"
	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/category"
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/internal/infrastructure/config"
	"github.com/xiebiao/bookshop/internal/infrastructure/messaging"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/redis"
	grpcserver "github.com/xiebiao/bookshop/internal/interface/grpc"
	"github.com/xiebiao/bookshop/internal/interface/http/handler"
	"github.com/xiebiao/bookshop/internal/interface/http/middleware"
	"github.com/xiebiao/bookshop/internal/interface/http/router"
	"github.com/xiebiao/bookshop/pkg/jwt"
	"github.com/xiebiao/bookshop/pkg/mq"
)

// 这些Provider需要从Config里取字段,或者在可选组件关闭时返回nil接口,
// Wire无法直接推导,所以手写

// orderEventRoutingKey 审计消费者订阅全部订单事件
const orderEventRoutingKey = "order.*"

func provideStorage(cfg *config.Config, log *logrus.Logger) (*persistence.Storage, func(), error) {
	return persistence.Open(cfg.Database, log)
}

// provideRedisClient redis.enabled=false时返回nil
func provideRedisClient(cfg *config.Config, log *logrus.Logger) (*goredis.Client, func(), error) {
	if !cfg.Redis.Enabled {
		log.Info("Redis未启用,跳过图书缓存和会话存储")
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func provideSessionStore(client *goredis.Client) *redis.SessionStore {
	if client == nil {
		return nil
	}
	return redis.NewSessionStore(client)
}

// provideBookCache 返回接口类型,Redis关闭时必须是nil接口而不是nil指针
func provideBookCache(cfg *config.Config, client *goredis.Client, log *logrus.Logger) book.Cache {
	if client == nil {
		return nil
	}
	return redis.NewBookCache(client, cfg.Redis.CacheTTL, log)
}

func provideTokenBlacklist(sessions *redis.SessionStore) middleware.TokenBlacklist {
	if sessions == nil {
		return nil
	}
	return sessions
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

// provideEventPublisher mq.enabled=false时只记调试日志
func provideEventPublisher(cfg *config.Config, log *logrus.Logger) (order.EventPublisher, func(), error) {
	if !cfg.MQ.Enabled {
		return messaging.NewNoopPublisher(log), func() {}, nil
	}
	publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.ExchangeType, log)
	if err != nil {
		return nil, nil, err
	}
	return messaging.NewOrderEventPublisher(publisher, log), func() { _ = publisher.Close() }, nil
}

// provideAuditConsumer 未配置audit_queue时返回nil
func provideAuditConsumer(cfg *config.Config, log *logrus.Logger) (*mq.Consumer, func(), error) {
	if !cfg.MQ.Enabled || cfg.MQ.AuditQueue == "" {
		return nil, func() {}, nil
	}
	consumer, err := mq.NewConsumer(
		cfg.MQ.URL,
		cfg.MQ.Exchange,
		cfg.MQ.ExchangeType,
		cfg.MQ.AuditQueue,
		[]string{orderEventRoutingKey},
		log,
	)
	if err != nil {
		return nil, nil, err
	}
	return consumer, func() { _ = consumer.Close() }, nil
}

func provideBookService(s *persistence.Storage, cache book.Cache) book.Service {
	return book.NewService(s.Books, s.Categories, s.TxManager, cache)
}

func provideCategoryService(s *persistence.Storage, books book.Service) category.Service {
	return category.NewService(s.Categories, books, s.TxManager)
}

func provideUserService(s *persistence.Storage) user.Service {
	return user.NewService(s.Users, s.Orders, s.TxManager)
}

func provideOrderEngine(s *persistence.Storage, books book.Service, events order.EventPublisher, log *logrus.Logger) *apporder.Engine {
	return apporder.NewEngine(s.TxManager, s.Orders, s.Users, s.Books, books, events, log)
}

func provideLoginUseCase(cfg *config.Config, users user.Service, jwtManager *jwt.Manager, sessions *redis.SessionStore, log *logrus.Logger) *appuser.LoginUseCase {
	return appuser.NewLoginUseCase(users, jwtManager, sessions, cfg.Redis.SessionTTL, log)
}

func provideLogoutUseCase(sessions *redis.SessionStore, jwtManager *jwt.Manager) *appuser.LogoutUseCase {
	return appuser.NewLogoutUseCase(sessions, jwtManager.AccessTokenTTL())
}

func provideHandlers(
	users *handler.UserHandler,
	categories *handler.CategoryHandler,
	books *handler.BookHandler,
	orders *handler.OrderHandler,
) router.Handlers {
	return router.Handlers{User: users, Category: categories, Book: books, Order: orders}
}

// provideGinEngine release模式下关闭Swagger
func provideGinEngine(cfg *config.Config, h router.Handlers, auth *middleware.AuthMiddleware, log *logrus.Logger) *gin.Engine {
	return router.New(router.Options{
		Mode:          cfg.Server.Mode,
		EnableSwagger: cfg.Server.Mode != gin.ReleaseMode,
	}, h, auth, log)
}

func provideHealthServer(cfg *config.Config, s *persistence.Storage, log *logrus.Logger) *grpcserver.HealthServer {
	if !cfg.GRPC.Enabled {
		return nil
	}
	var pinger grpcserver.Pinger
	if s.Ping != nil {
		pinger = grpcserver.PingFunc(s.Ping)
	}
	return grpcserver.NewHealthServer(pinger, 0, log)
}
