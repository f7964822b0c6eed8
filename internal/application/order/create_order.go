package order

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/pkg/metrics"
	"github.com/xiebiao/bookshop/pkg/tracing"
)

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	UserID          uint
	Items           []CreateOrderItem
	ShippingAddress string
	BillingAddress  string
	PaymentMethod   string
}

// CreateOrderItem 下单明细
type CreateOrderItem struct {
	BookID   uint
	Quantity int
}

// CreateOrder 下单
//
// 防超卖流程(全部在一个事务中):
//  1. 校验用户存在
//  2. 逐本 SELECT FOR UPDATE 锁定图书,检查库存
//  3. 以锁定时的价格生成明细快照,计算总额
//  4. 保存订单和明细
//  5. 逐本扣减库存
//
// 同一本书的多行先合并,订单中每本书只有一条明细。
func (e *Engine) CreateOrder(ctx context.Context, req CreateOrderRequest) (result *order.Order, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "order.create")
	defer func() { tracing.EndSpan(span, err) }()

	start := time.Now()
	metrics.IncGauge(metrics.OrdersInProgress)
	defer metrics.DecGauge(metrics.OrdersInProgress)
	defer func() {
		metrics.ObserveHistogram(metrics.OrderCreationDuration, time.Since(start).Seconds())
		if err != nil {
			metrics.IncCounter(metrics.OrdersFailedTotal)
		}
	}()

	lines, err := mergeLines(req.Items)
	if err != nil {
		return nil, err
	}

	err = e.txManager.Transaction(ctx, func(txCtx context.Context) error {
		if err := e.requireUser(txCtx, req.UserID); err != nil {
			return err
		}

		locked := make(map[uint]*book.Book, len(lines))
		for _, line := range lines {
			b, err := e.lockBookWithStock(txCtx, line.BookID, line.Quantity)
			if err != nil {
				return err
			}
			locked[line.BookID] = b
		}

		items := make([]order.OrderItem, len(lines))
		for i, line := range lines {
			items[i] = order.OrderItem{
				BookID:   line.BookID,
				Quantity: line.Quantity,
				Price:    locked[line.BookID].Price,
			}
		}

		o := order.NewOrder(order.GenerateOrderNo(), req.UserID, items,
			req.ShippingAddress, req.BillingAddress, req.PaymentMethod)
		if err := e.orders.Create(txCtx, o); err != nil {
			return err
		}

		for _, line := range lines {
			if err := e.reserve(txCtx, line.BookID, line.Quantity); err != nil {
				return err
			}
		}

		result = o
		return nil
	})
	if err != nil {
		e.failed("create", err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("order.id", int64(result.ID)),
		attribute.String("order.no", result.OrderNo),
		attribute.Int("order.items", len(result.Items)),
	)
	metrics.IncCounter(metrics.OrdersCreatedTotal)
	metrics.ObserveHistogram(metrics.OrderAmount, result.TotalAmount.InexactFloat64())
	e.committed(ctx, "create", order.EventCreated, result)
	return result, nil
}

// mergeLines 校验数量并合并同一本书的多行,保持首次出现的顺序
func mergeLines(items []CreateOrderItem) ([]CreateOrderItem, error) {
	if len(items) == 0 {
		return nil, order.ErrInvalidOrderItems
	}

	merged := make([]CreateOrderItem, 0, len(items))
	index := make(map[uint]int, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, order.ErrInvalidQuantity
		}
		if i, ok := index[item.BookID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.BookID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}
