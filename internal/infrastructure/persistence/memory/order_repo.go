package memory

import (
	"context"
	"sort"
	"time"

	"github.com/xiebiao/bookshop/internal/domain/order"
)

type orderRepository struct {
	s *Store
}

func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	defer r.s.lock(ctx)()

	now := time.Now()
	o.ID = r.s.nextID()
	o.CreatedAt, o.UpdatedAt = now, now
	for i := range o.Items {
		o.Items[i].ID = r.s.nextID()
		o.Items[i].OrderID = o.ID
		r.s.data.items[o.Items[i].ID] = o.Items[i]
	}
	r.s.data.orders[o.ID] = copyOrder(*o)
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	defer r.s.lock(ctx)()
	return r.get(id)
}

func (r *orderRepository) LockByID(ctx context.Context, id uint) (*order.Order, error) {
	return r.FindByID(ctx, id)
}

// Update 只更新订单头,明细通过SaveItem/DeleteItem维护
func (r *orderRepository) Update(ctx context.Context, o *order.Order) error {
	defer r.s.lock(ctx)()

	stored, ok := r.s.data.orders[o.ID]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.CreatedAt = stored.CreatedAt
	o.UpdatedAt = time.Now()
	r.s.data.orders[o.ID] = copyOrder(*o)
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id uint) (bool, error) {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.orders[id]; !ok {
		return false, nil
	}
	r.deleteOrder(id)
	return true, nil
}

func (r *orderRepository) DeleteByUserID(ctx context.Context, userID uint) (int64, error) {
	defer r.s.lock(ctx)()

	var n int64
	for id, o := range r.s.data.orders {
		if o.UserID == userID {
			r.deleteOrder(id)
			n++
		}
	}
	return n, nil
}

func (r *orderRepository) List(ctx context.Context, filter order.Filter) ([]*order.Order, error) {
	defer r.s.lock(ctx)()

	result := make([]*order.Order, 0)
	for id, o := range r.s.data.orders {
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.CreatedAfter != nil && !o.CreatedAt.After(*filter.CreatedAfter) {
			continue
		}
		if filter.CreatedBefore != nil && !o.CreatedAt.Before(*filter.CreatedBefore) {
			continue
		}
		found, _ := r.get(id)
		result = append(result, found)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *orderRepository) FindItemByID(ctx context.Context, itemID uint) (*order.OrderItem, error) {
	defer r.s.lock(ctx)()
	item, ok := r.s.data.items[itemID]
	if !ok {
		return nil, order.ErrOrderItemNotFound
	}
	return &item, nil
}

func (r *orderRepository) SaveItem(ctx context.Context, item *order.OrderItem) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.orders[item.OrderID]; !ok {
		return order.ErrOrderNotFound
	}
	if item.ID == 0 {
		item.ID = r.s.nextID()
		r.s.data.items[item.ID] = *item
		return nil
	}

	stored, ok := r.s.data.items[item.ID]
	if !ok {
		return order.ErrOrderItemNotFound
	}
	stored.Quantity = item.Quantity
	r.s.data.items[item.ID] = stored
	return nil
}

func (r *orderRepository) DeleteItem(ctx context.Context, itemID uint) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.items[itemID]; !ok {
		return order.ErrOrderItemNotFound
	}
	delete(r.s.data.items, itemID)
	return nil
}

// get 调用方已持锁,明细按ID升序
func (r *orderRepository) get(id uint) (*order.Order, error) {
	o, ok := r.s.data.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	found := copyOrder(o)
	found.Items = make([]order.OrderItem, 0)
	for _, item := range r.s.data.items {
		if item.OrderID == id {
			found.Items = append(found.Items, item)
		}
	}
	sort.Slice(found.Items, func(i, j int) bool { return found.Items[i].ID < found.Items[j].ID })
	return &found, nil
}

func (r *orderRepository) deleteOrder(id uint) {
	for itemID, item := range r.s.data.items {
		if item.OrderID == id {
			delete(r.s.data.items, itemID)
		}
	}
	delete(r.s.data.orders, id)
}
