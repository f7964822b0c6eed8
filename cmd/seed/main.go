// seed 向空库写入示例数据(3个用户、5个分类、5本书、2个订单)
//
// 用户表非空时什么也不做,可以重复执行。
package main

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookshop/internal/application/bootstrap"
	apporder "github.com/xiebiao/bookshop/internal/application/order"
	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/category"
	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/internal/infrastructure/config"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence"
	"github.com/xiebiao/bookshop/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("加载配置失败")
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		logrus.WithError(err).Fatal("初始化日志失败")
	}
	if cfg.Database.Driver == config.DriverMemory {
		log.Fatal("内存存储不需要初始化示例数据")
	}

	storage, cleanup, err := persistence.Open(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("打开存储失败")
	}
	defer cleanup()

	// 手动组装,不需要缓存和消息队列
	books := book.NewService(storage.Books, storage.Categories, storage.TxManager, nil)
	categories := category.NewService(storage.Categories, books, storage.TxManager)
	users := user.NewService(storage.Users, storage.Orders, storage.TxManager)
	engine := apporder.NewEngine(storage.TxManager, storage.Orders, storage.Users, storage.Books, books, nil, log)

	seeder := bootstrap.NewSeeder(storage.TxManager, users, categories, books, engine, log)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := seeder.Seed(ctx); err != nil {
		log.WithError(err).Error("初始化示例数据失败")
		cleanup()
		os.Exit(1)
	}
}
