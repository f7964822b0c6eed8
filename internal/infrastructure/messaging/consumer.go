package messaging

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/pkg/mq"
)

// OrderEventLogger 订阅订单事件并写入审计日志
type OrderEventLogger struct {
	log logrus.FieldLogger
}

// NewOrderEventLogger 创建审计日志消费处理器
func NewOrderEventLogger(log logrus.FieldLogger) *OrderEventLogger {
	return &OrderEventLogger{log: log}
}

// Handle 实现mq.Handler
// 无法解析的消息直接丢弃(返回nil),避免毒消息反复入队
func (l *OrderEventLogger) Handle(_ context.Context, routingKey string, body []byte) error {
	var event order.Event
	if err := json.Unmarshal(body, &event); err != nil {
		l.log.WithError(err).WithField("routing_key", routingKey).Warn("订单事件解析失败,已丢弃")
		return nil
	}

	l.log.WithFields(logrus.Fields{
		"event":        event.Type,
		"order_id":     event.OrderID,
		"order_no":     event.OrderNo,
		"user_id":      event.UserID,
		"status":       event.Status,
		"total_amount": event.TotalAmount,
		"occurred_at":  event.OccurredAt,
	}).Info("订单事件")
	return nil
}

// Run 阻塞消费直到ctx取消
func (l *OrderEventLogger) Run(ctx context.Context, consumer *mq.Consumer) error {
	return consumer.Consume(ctx, l.Handle)
}
