// Package mq 基于RabbitMQ的消息发布与消费
//
// 使用Topic类型的Exchange,发布方只关心routing key(如 order.created),
// 消费方通过通配符(order.*)绑定自己的Queue。
// 消息体统一为JSON,持久化投递;消费端手动ACK,处理失败时重新入队。
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookshop/pkg/metrics"
)

// Publisher 消息发布者
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      logrus.FieldLogger
}

// NewPublisher 连接RabbitMQ并声明Exchange
func NewPublisher(url, exchange, exchangeType string, log logrus.FieldLogger) (*Publisher, error) {
	conn, channel, err := dial(url, exchange, exchangeType)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"exchange": exchange, "type": exchangeType}).Info("消息发布者已创建")
	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		log:      log,
	}, nil
}

// Publish 发布JSON消息
func (p *Publisher) Publish(ctx context.Context, routingKey string, message interface{}) error {
	err := p.publish(ctx, routingKey, message)
	metrics.InitMetrics()
	metrics.IncCounterVec(metrics.MessagesPublishedTotal, map[string]string{
		"exchange":    p.exchange,
		"routing_key": routingKey,
		"result":      metrics.Result(err),
	})
	return err
}

func (p *Publisher) publish(ctx context.Context, routingKey string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("消息序列化失败: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("发布消息失败: %w", err)
	}

	p.log.WithField("routing_key", routingKey).Debug("消息已发布")
	return nil
}

// Close 关闭Channel和连接
func (p *Publisher) Close() error {
	return closeAll(p.channel, p.conn)
}

// Handler 消息处理函数,返回错误时消息重新入队
type Handler func(ctx context.Context, routingKey string, body []byte) error

// Consumer 消息消费者
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	log     logrus.FieldLogger
}

// NewConsumer 声明Exchange和持久化Queue,并按routingKeys绑定
func NewConsumer(url, exchange, exchangeType, queue string, routingKeys []string, log logrus.FieldLogger) (*Consumer, error) {
	conn, channel, err := dial(url, exchange, exchangeType)
	if err != nil {
		return nil, err
	}

	q, err := channel.QueueDeclare(
		queue,
		true,  // Durable
		false, // AutoDelete
		false, // Exclusive
		false, // NoWait
		nil,
	)
	if err != nil {
		_ = closeAll(channel, conn)
		return nil, fmt.Errorf("声明Queue失败: %w", err)
	}

	for _, routingKey := range routingKeys {
		if err := channel.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
			_ = closeAll(channel, conn)
			return nil, fmt.Errorf("绑定Queue失败: %w", err)
		}
	}

	log.WithFields(logrus.Fields{"queue": q.Name, "routing_keys": routingKeys}).Info("消息消费者已创建")
	return &Consumer{
		conn:    conn,
		channel: channel,
		queue:   q.Name,
		log:     log,
	}, nil
}

// Consume 阻塞消费,直到ctx取消或连接断开
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("设置Qos失败: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.queue,
		"",    // Consumer标签,自动生成
		false, // AutoAck
		false, // Exclusive
		false, // NoLocal
		false, // NoWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("开始消费失败: %w", err)
	}

	c.log.WithField("queue", c.queue).Info("开始消费消息")
	for {
		select {
		case <-ctx.Done():
			c.log.WithField("queue", c.queue).Info("消费者退出")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("消息Channel已关闭")
			}
			if err := handler(ctx, msg.RoutingKey, msg.Body); err != nil {
				c.log.WithError(err).WithField("routing_key", msg.RoutingKey).Warn("消息处理失败,重新入队")
				_ = msg.Nack(false, true)
				continue
			}
			_ = msg.Ack(false)
		}
	}
}

// Close 关闭Channel和连接
func (c *Consumer) Close() error {
	return closeAll(c.channel, c.conn)
}

func dial(url, exchange, exchangeType string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("创建Channel失败: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange,
		exchangeType,
		true,  // Durable
		false, // AutoDelete
		false, // Internal
		false, // NoWait
		nil,
	)
	if err != nil {
		_ = closeAll(channel, conn)
		return nil, nil, fmt.Errorf("声明Exchange失败: %w", err)
	}
	return conn, channel, nil
}

func closeAll(channel *amqp.Channel, conn *amqp.Connection) error {
	if channel != nil {
		_ = channel.Close()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}
