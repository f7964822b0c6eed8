package mysql

import (
	"context"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/xiebiao/bookshop/internal/domain/transaction"
	"github.com/xiebiao/bookshop/pkg/logger"
)

type txKey struct{}

// retryBackoff 第一次重试前的等待时间,之后每次翻倍
const retryBackoff = 50 * time.Millisecond

// TxManager 事务管理器,实现transaction.Manager
// 1. 事务DB通过context传递给仓储
// 2. ctx中已有事务时直接加入,不开启新事务
// 3. 死锁/锁等待超时/序列化失败时整体重试,最多maxRetries次
// 4. 提交成功后执行transaction.AfterCommit注册的回调
type TxManager struct {
	db         *gorm.DB
	maxRetries int
	log        logrus.FieldLogger
}

// NewTxManager 创建事务管理器
func NewTxManager(db *gorm.DB, maxRetries int, log logrus.FieldLogger) *TxManager {
	return &TxManager{db: db, maxRetries: maxRetries, log: log}
}

// Transaction fn返回error时ROLLBACK,返回nil时COMMIT
//
//	err := txManager.Transaction(ctx, func(ctx context.Context) error {
//	    b, err := bookRepo.LockByID(ctx, bookID)
//	    if err != nil {
//	        return err
//	    }
//	    if err := orderRepo.Create(ctx, o); err != nil {
//	        return err
//	    }
//	    return bookRepo.UpdateStock(ctx, b.ID, -quantity)
//	})
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	backoff := retryBackoff
	for attempt := 0; ; attempt++ {
		hookCtx, runHooks := transaction.WithCommitHooks(ctx)
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(context.WithValue(hookCtx, txKey{}, tx))
		})
		if err == nil {
			runHooks()
			return nil
		}
		if !isRetryable(err) || attempt >= m.maxRetries {
			return err
		}

		wait := backoff + time.Duration(rand.Int63n(int64(backoff/4)))
		logger.FromContext(ctx, m.log).WithError(err).WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"wait":    wait.String(),
		}).Warn("事务冲突,准备重试")

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
}

// getDB 从context取事务DB,没有则使用默认DB
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
