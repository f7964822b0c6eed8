// Package order 订单引擎
//
// 订单引擎负责所有跨聚合的订单写操作: 下单、加减明细、取消、改状态。
// 每个写操作都在一个事务中完成:
//  1. SELECT FOR UPDATE 锁定订单和涉及的图书行
//  2. 库存校验 + 原子扣减/回补(通过book.Service.AdjustStock,加入当前事务)
//  3. 写明细并从头重算订单总额
//
// 任何一步失败整个事务回滚,不会出现"库存扣了但订单没建"的中间状态。
// 事务提交后再记录指标、发布订单事件,事件发布失败只记日志。
package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/transaction"
	"github.com/xiebiao/bookshop/internal/domain/user"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
	"github.com/xiebiao/bookshop/pkg/logger"
	"github.com/xiebiao/bookshop/pkg/metrics"
	"github.com/xiebiao/bookshop/pkg/tracing"
)

const tracerName = "bookshop/order-engine"

// UserChecker 用户存在性检查(user.Repository满足该接口)
type UserChecker interface {
	ExistsByID(ctx context.Context, id uint) (bool, error)
}

// BookLocker 锁定图书行(book.Repository满足该接口)
type BookLocker interface {
	LockByID(ctx context.Context, id uint) (*book.Book, error)
}

// StockAdjuster 库存调整(book.Service满足该接口)
type StockAdjuster interface {
	AdjustStock(ctx context.Context, id uint, delta int) (*book.Book, error)
}

// Engine 订单引擎
type Engine struct {
	txManager transaction.Manager
	orders    order.Repository
	users     UserChecker
	books     BookLocker
	stock     StockAdjuster
	events    order.EventPublisher
	log       logrus.FieldLogger
}

// NewEngine 创建订单引擎
func NewEngine(
	txManager transaction.Manager,
	orders order.Repository,
	users UserChecker,
	books BookLocker,
	stock StockAdjuster,
	events order.EventPublisher,
	log logrus.FieldLogger,
) *Engine {
	metrics.InitMetrics()
	return &Engine{
		txManager: txManager,
		orders:    orders,
		users:     users,
		books:     books,
		stock:     stock,
		events:    events,
		log:       log,
	}
}

// lockBookWithStock 锁定图书并检查库存是否够quantity
func (e *Engine) lockBookWithStock(ctx context.Context, bookID uint, quantity int) (*book.Book, error) {
	b, err := e.books.LockByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if b.Stock < quantity {
		metrics.IncCounter(metrics.InsufficientStockTotal)
		return nil, &apperrors.AppError{
			Code:    apperrors.ErrCodeInsufficientStock,
			Message: fmt.Sprintf("图书《%s》库存不足,当前库存:%d,需要:%d", b.Title, b.Stock, quantity),
			Err:     book.ErrInsufficientStock,
		}
	}
	return b, nil
}

// restock 回补库存,图书已被删除时跳过
func (e *Engine) restock(ctx context.Context, item order.OrderItem) error {
	_, err := e.stock.AdjustStock(ctx, item.BookID, item.Quantity)
	if errors.Is(err, book.ErrBookNotFound) {
		logger.FromContext(ctx, e.log).WithFields(logrus.Fields{
			"order_id": item.OrderID,
			"book_id":  item.BookID,
			"quantity": item.Quantity,
		}).Warn("图书已删除,跳过库存回补")
		return nil
	}
	if err != nil {
		return err
	}
	metrics.IncCounterVec(metrics.StockAdjustmentsTotal, map[string]string{"reason": metrics.StockReasonRestock})
	return nil
}

func (e *Engine) reserve(ctx context.Context, bookID uint, quantity int) error {
	if _, err := e.stock.AdjustStock(ctx, bookID, -quantity); err != nil {
		return err
	}
	metrics.IncCounterVec(metrics.StockAdjustmentsTotal, map[string]string{"reason": metrics.StockReasonReserve})
	return nil
}

func (e *Engine) requireUser(ctx context.Context, userID uint) error {
	exists, err := e.users.ExistsByID(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return user.ErrUserNotFound
	}
	return nil
}

// committed 事务提交后的收尾: 指标、日志、事件
func (e *Engine) committed(ctx context.Context, operation, eventType string, o *order.Order) {
	metrics.IncCounterVec(metrics.OrderOperationsTotal, map[string]string{"operation": operation, "result": "success"})

	log := logger.FromContext(ctx, e.log).WithFields(logrus.Fields{
		"operation": operation,
		"order_id":  o.ID,
		"status":    o.Status,
		"total":     o.TotalAmount.StringFixed(2),
	})
	if traceID := tracing.ExtractTraceID(ctx); traceID != "" {
		log = log.WithField("trace_id", traceID)
	}
	log.Info("订单操作完成")

	if e.events == nil {
		return
	}
	if err := e.events.Publish(ctx, order.NewEvent(eventType, o)); err != nil {
		log.WithError(err).Warn("订单事件发布失败")
	}
}

func (e *Engine) failed(operation string, err error) {
	metrics.IncCounterVec(metrics.OrderOperationsTotal, map[string]string{"operation": operation, "result": metrics.Result(err)})
}
