package order

import (
	"context"
	"time"
)

// 订单事件类型,同时作为消息的routing key
const (
	EventCreated       = "order.created"
	EventItemAdded     = "order.item_added"
	EventItemRemoved   = "order.item_removed"
	EventCancelled     = "order.cancelled"
	EventStatusChanged = "order.status_changed"
	EventShippingSet   = "order.shipping_updated"
	EventDeleted       = "order.deleted"
)

// Event 订单事件(事务提交后发布)
type Event struct {
	Type        string    `json:"type"`
	OrderID     uint      `json:"order_id"`
	OrderNo     string    `json:"order_no,omitempty"`
	UserID      uint      `json:"user_id,omitempty"`
	Status      Status    `json:"status,omitempty"`
	TotalAmount string    `json:"total_amount,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewEvent 根据订单当前状态构造事件
func NewEvent(eventType string, o *Order) Event {
	return Event{
		Type:        eventType,
		OrderID:     o.ID,
		OrderNo:     o.OrderNo,
		UserID:      o.UserID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount.StringFixed(2),
		OccurredAt:  time.Now(),
	}
}

// EventPublisher 订单事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
