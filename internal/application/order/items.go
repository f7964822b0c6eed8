package order

import (
	"context"

	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/pkg/tracing"
)

// AddOrderItem 向订单加书
// 订单里已有同一本书时累加数量,沿用原明细的价格快照;否则按当前价格新增明细。
// 除已取消外不限制订单状态。
func (e *Engine) AddOrderItem(ctx context.Context, orderID, bookID uint, quantity int) (result *order.Order, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "order.add_item")
	defer func() { tracing.EndSpan(span, err) }()

	if quantity <= 0 {
		return nil, order.ErrInvalidQuantity
	}

	err = e.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := e.orders.LockByID(txCtx, orderID)
		if err != nil {
			return err
		}
		if err := o.CanModifyItems(); err != nil {
			return err
		}

		b, err := e.lockBookWithStock(txCtx, bookID, quantity)
		if err != nil {
			return err
		}

		if idx := o.ItemForBook(bookID); idx >= 0 {
			item := o.Items[idx]
			item.Quantity += quantity
			if err := e.orders.SaveItem(txCtx, &item); err != nil {
				return err
			}
			o.Items[idx] = item
		} else {
			item := order.OrderItem{
				OrderID:  o.ID,
				BookID:   bookID,
				Quantity: quantity,
				Price:    b.Price,
			}
			if err := e.orders.SaveItem(txCtx, &item); err != nil {
				return err
			}
			o.Items = append(o.Items, item)
		}

		if err := e.reserve(txCtx, bookID, quantity); err != nil {
			return err
		}

		o.RecalculateTotal()
		if err := e.orders.Update(txCtx, o); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		e.failed("add_item", err)
		return nil, err
	}

	e.committed(ctx, "add_item", order.EventItemAdded, result)
	return result, nil
}

// RemoveOrderItem 删除明细并回补库存
func (e *Engine) RemoveOrderItem(ctx context.Context, orderID, itemID uint) (result *order.Order, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "order.remove_item")
	defer func() { tracing.EndSpan(span, err) }()

	err = e.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := e.orders.LockByID(txCtx, orderID)
		if err != nil {
			return err
		}
		if err := o.CanModifyItems(); err != nil {
			return err
		}

		item, err := e.orders.FindItemByID(txCtx, itemID)
		if err != nil {
			return err
		}
		if item.OrderID != o.ID {
			return order.ErrItemNotInOrder
		}

		if err := e.restock(txCtx, *item); err != nil {
			return err
		}
		if err := e.orders.DeleteItem(txCtx, item.ID); err != nil {
			return err
		}

		o.RemoveItem(item.ID)
		o.RecalculateTotal()
		if err := e.orders.Update(txCtx, o); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		e.failed("remove_item", err)
		return nil, err
	}

	e.committed(ctx, "remove_item", order.EventItemRemoved, result)
	return result, nil
}
