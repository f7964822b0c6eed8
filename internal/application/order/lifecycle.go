package order

import (
	"context"

	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/pkg/tracing"
)

// CancelOrder 取消订单并回补全部明细的库存
// 已发货/已送达不能取消;已取消的订单不能重复取消(否则会重复回补)
func (e *Engine) CancelOrder(ctx context.Context, orderID uint) (result *order.Order, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "order.cancel")
	defer func() { tracing.EndSpan(span, err) }()

	err = e.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := e.orders.LockByID(txCtx, orderID)
		if err != nil {
			return err
		}
		if err := o.CanCancel(); err != nil {
			return err
		}

		for _, item := range o.Items {
			if err := e.restock(txCtx, item); err != nil {
				return err
			}
		}

		if err := o.Cancel(); err != nil {
			return err
		}
		if err := e.orders.Update(txCtx, o); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		e.failed("cancel", err)
		return nil, err
	}

	e.committed(ctx, "cancel", order.EventCancelled, result)
	return result, nil
}

// UpdateOrderStatus 直接设置状态,不做流转校验,也不影响库存
func (e *Engine) UpdateOrderStatus(ctx context.Context, orderID uint, status order.Status) (*order.Order, error) {
	if !status.IsValid() {
		return nil, order.ErrInvalidStatus
	}

	result, err := e.updateHeader(ctx, orderID, func(o *order.Order) error {
		return o.SetStatus(status)
	})
	if err != nil {
		e.failed("update_status", err)
		return nil, err
	}

	e.committed(ctx, "update_status", order.EventStatusChanged, result)
	return result, nil
}

// UpdateOrderShipping 只覆盖传入的字段
func (e *Engine) UpdateOrderShipping(ctx context.Context, orderID uint, shippingAddress, trackingNumber *string) (*order.Order, error) {
	result, err := e.updateHeader(ctx, orderID, func(o *order.Order) error {
		o.UpdateShipping(shippingAddress, trackingNumber)
		return nil
	})
	if err != nil {
		e.failed("update_shipping", err)
		return nil, err
	}

	e.committed(ctx, "update_shipping", order.EventShippingSet, result)
	return result, nil
}

// DeleteOrder 删除订单及明细,不回补库存;不存在返回false
// 明细和订单在同一事务中删除
func (e *Engine) DeleteOrder(ctx context.Context, orderID uint) (bool, error) {
	var deleted bool
	err := e.txManager.Transaction(ctx, func(txCtx context.Context) error {
		var err error
		deleted, err = e.orders.Delete(txCtx, orderID)
		return err
	})
	if err != nil {
		e.failed("delete", err)
		return false, err
	}
	if deleted {
		e.committed(ctx, "delete", order.EventDeleted, &order.Order{ID: orderID})
	}
	return deleted, nil
}

func (e *Engine) updateHeader(ctx context.Context, orderID uint, mutate func(o *order.Order) error) (*order.Order, error) {
	var result *order.Order
	err := e.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := e.orders.LockByID(txCtx, orderID)
		if err != nil {
			return err
		}
		if err := mutate(o); err != nil {
			return err
		}
		if err := e.orders.Update(txCtx, o); err != nil {
			return err
		}
		result = o
		return nil
	})
	return result, err
}
