package order

import (
	"context"
	"errors"

	"github.com/xiebiao/bookshop/internal/domain/order"
)

// GetOrder 查询订单(含明细),不存在返回nil
func (e *Engine) GetOrder(ctx context.Context, orderID uint) (*order.Order, error) {
	o, err := e.orders.FindByID(ctx, orderID)
	if errors.Is(err, order.ErrOrderNotFound) {
		return nil, nil
	}
	return o, err
}

// ListOrders 条件查询
func (e *Engine) ListOrders(ctx context.Context, filter order.Filter) ([]*order.Order, error) {
	return e.orders.List(ctx, filter)
}

// ListUserOrders 用户的全部订单,用户不存在返回ErrUserNotFound
func (e *Engine) ListUserOrders(ctx context.Context, userID uint) ([]*order.Order, error) {
	if err := e.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return e.orders.List(ctx, order.Filter{UserID: &userID})
}
