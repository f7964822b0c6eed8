// Package metrics 基于Prometheus的指标收集
//
// 指标类型选择:
//   - 计数用Counter: 请求数、订单数、库存调整次数
//   - 瞬时值用Gauge: 正在处理的请求数
//   - 分布用Histogram: 耗时、订单金额
//
// 所有指标通过promauto注册到默认Registry,由/metrics端点暴露。
// InitMetrics可以重复调用,只有第一次生效。
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 库存调整原因(StockAdjustmentsTotal的reason标签)
const (
	StockReasonReserve = "reserve" // 下单/加购预占
	StockReasonRestock = "restock" // 移除明细/取消订单回补
	StockReasonManual  = "manual"  // 管理端直接调整
)

var (
	initOnce sync.Once

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数
	// 标签: method、path(路由模板)、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// 订单业务指标

	// OrdersCreatedTotal 订单创建总数
	OrdersCreatedTotal prometheus.Counter

	// OrdersFailedTotal 订单创建失败总数
	OrdersFailedTotal prometheus.Counter

	// OrderCreationDuration 订单创建耗时
	OrderCreationDuration prometheus.Histogram

	// OrdersInProgress 正在处理的下单请求数
	OrdersInProgress prometheus.Gauge

	// OrderAmount 订单金额分布(元)
	OrderAmount prometheus.Histogram

	// OrderOperationsTotal 订单操作总数
	// 标签: operation(add_item/remove_item/cancel/...)、result(success/failure)
	OrderOperationsTotal *prometheus.CounterVec

	// 库存指标

	// StockAdjustmentsTotal 库存调整次数,标签: reason
	StockAdjustmentsTotal *prometheus.CounterVec

	// InsufficientStockTotal 因库存不足被拒绝的请求数
	InsufficientStockTotal prometheus.Counter

	// 消息队列指标

	// MessagesPublishedTotal 消息发布总数
	// 标签: exchange、routing_key、result
	MessagesPublishedTotal *prometheus.CounterVec
)

// InitMetrics 初始化所有指标
func InitMetrics() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP请求耗时(秒)",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	OrdersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "订单创建总数",
		},
	)

	OrdersFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_failed_total",
			Help: "订单创建失败总数",
		},
	)

	OrderCreationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "order_creation_duration_seconds",
			Help:    "订单创建耗时(秒)",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
	)

	OrdersInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orders_in_progress",
			Help: "正在处理的下单请求数",
		},
	)

	OrderAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "order_amount",
			Help:    "订单金额分布(元)",
			Buckets: []float64{10, 50, 100, 500, 1000},
		},
	)

	OrderOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_operations_total",
			Help: "订单操作总数",
		},
		[]string{"operation", "result"},
	)

	StockAdjustmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_adjustments_total",
			Help: "库存调整次数",
		},
		[]string{"reason"},
	)

	InsufficientStockTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stock_insufficient_total",
			Help: "库存不足被拒绝的请求数",
		},
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "消息发布总数",
		},
		[]string{"exchange", "routing_key", "result"},
	)
}

// Result 把错误转换成result标签值
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// IncCounter 递增Counter
func IncCounter(counter prometheus.Counter) {
	counter.Inc()
}

// IncCounterVec 递增CounterVec(带标签)
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	counter.With(labels).Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	gauge.Dec()
}

// ObserveHistogram 记录Histogram观测值
func ObserveHistogram(histogram prometheus.Histogram, value float64) {
	histogram.Observe(value)
}

// ObserveHistogramVec 记录HistogramVec观测值(带标签)
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	histogram.With(labels).Observe(value)
}
