// Package persistence 按配置选择存储驱动并组装仓储
package persistence

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/category"
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/transaction"
	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/internal/infrastructure/config"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql"
)

// Storage 一组共享同一事务管理器的仓储
type Storage struct {
	TxManager  transaction.Manager
	Books      book.Repository
	Categories category.Repository
	Users      user.Repository
	Orders     order.Repository

	// Ping 存储连通性探测,内存驱动为nil
	Ping func(ctx context.Context) error
}

// Open 打开存储,返回的cleanup负责关闭连接池
//
//	mysql/postgres → GORM + TxManager(死锁重试)
//	memory         → 进程内存储,重启后数据丢失
func Open(cfg config.DatabaseConfig, log logrus.FieldLogger) (*Storage, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		log.Warn("使用内存存储,数据不会持久化")
		return NewMemoryStorage(memory.NewStore()), func() {}, nil

	case config.DriverMySQL, config.DriverPostgres:
		db, err := mysql.NewDB(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("获取连接池失败: %w", err)
		}

		cleanup := func() {
			if err := sqlDB.Close(); err != nil {
				log.WithError(err).Warn("关闭数据库连接失败")
			}
		}
		return &Storage{
			TxManager:  mysql.NewTxManager(db, cfg.TxMaxRetries, log),
			Books:      mysql.NewBookRepository(db),
			Categories: mysql.NewCategoryRepository(db),
			Users:      mysql.NewUserRepository(db),
			Orders:     mysql.NewOrderRepository(db),
			Ping:       sqlDB.PingContext,
		}, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}
}

// NewMemoryStorage 基于内存存储组装
func NewMemoryStorage(store *memory.Store) *Storage {
	return &Storage{
		TxManager:  store,
		Books:      store.Books(),
		Categories: store.Categories(),
		Users:      store.Users(),
		Orders:     store.Orders(),
	}
}
