// Package messaging 订单事件的消息队列适配
package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/pkg/circuitbreaker"
	"github.com/xiebiao/bookshop/pkg/mq"
)

// mqPublisher 抽出mq.Publisher的发布方法,便于替换
type mqPublisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// OrderEventPublisher 把订单事件发布到RabbitMQ,routing key即事件类型
// 发布经过熔断器,RabbitMQ不可用时订单操作不再逐个等待发布失败
type OrderEventPublisher struct {
	publisher mqPublisher
	breaker   *circuitbreaker.CircuitBreaker
}

// NewOrderEventPublisher 创建订单事件发布者
func NewOrderEventPublisher(publisher *mq.Publisher, log logrus.FieldLogger) *OrderEventPublisher {
	return newOrderEventPublisher(publisher, newBreaker(log))
}

func newOrderEventPublisher(publisher mqPublisher, breaker *circuitbreaker.CircuitBreaker) *OrderEventPublisher {
	return &OrderEventPublisher{publisher: publisher, breaker: breaker}
}

// newBreaker 连续失败5次后熔断30秒
func newBreaker(log logrus.FieldLogger) *circuitbreaker.CircuitBreaker {
	return circuitbreaker.New("rabbitmq", circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("熔断器状态变化")
		},
	})
}

// Publish 熔断器打开时返回circuitbreaker.ErrOpenState
func (p *OrderEventPublisher) Publish(ctx context.Context, event order.Event) error {
	return p.breaker.Execute(func() error {
		return p.publisher.Publish(ctx, event.Type, event)
	})
}

// NoopPublisher 未启用消息队列时使用,只记录调试日志
type NoopPublisher struct {
	log logrus.FieldLogger
}

// NewNoopPublisher 创建空发布者
func NewNoopPublisher(log logrus.FieldLogger) *NoopPublisher {
	return &NoopPublisher{log: log}
}

func (p *NoopPublisher) Publish(_ context.Context, event order.Event) error {
	p.log.WithFields(logrus.Fields{"type": event.Type, "order_id": event.OrderID}).Debug("消息队列未启用,事件已丢弃")
	return nil
}

// RecordingPublisher 在内存中记录事件,测试和演示使用
type RecordingPublisher struct {
	mu     sync.Mutex
	events []order.Event
}

func (p *RecordingPublisher) Publish(_ context.Context, event order.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events 已记录的事件副本
func (p *RecordingPublisher) Events() []order.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]order.Event(nil), p.events...)
}

// Types 已记录的事件类型
func (p *RecordingPublisher) Types() []string {
	events := p.Events()
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}
