// Package circuitbreaker 熔断器
//
// 保护对不稳定下游(消息队列)的调用: 连续失败达到阈值后打开,
// 打开期间直接返回ErrOpenState,超时后进入半开状态放行少量探测请求,
// 探测成功则关闭,失败则重新打开。
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State 熔断器状态
type State int

const (
	StateClosed   State = iota // 正常放行并统计失败
	StateOpen                  // 快速失败
	StateHalfOpen              // 放行探测请求
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// ErrOpenState 熔断器打开时返回
var ErrOpenState = errors.New("circuit breaker is open")

// Config 熔断器配置
type Config struct {
	MaxRequests uint32        // 半开状态允许的探测请求数,0按1处理
	Interval    time.Duration // 关闭状态下的统计窗口,0表示不重置
	Timeout     time.Duration // 打开状态持续时间

	// ReadyToTrip 关闭状态下每次失败后调用,返回true时打开熔断器
	// 为nil时连续失败5次打开
	ReadyToTrip func(counts Counts) bool

	// OnStateChange 状态变化回调,在持锁状态下调用,不要在其中访问熔断器
	OnStateChange func(name string, from, to State)
}

// Counts 当前窗口内的统计
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// FailureRate 失败率
func (c Counts) FailureRate() float64 {
	if c.Requests == 0 {
		return 0
	}
	return float64(c.TotalFailures) / float64(c.Requests)
}

func (c *Counts) success() {
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) failure() {
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// CircuitBreaker 熔断器,并发安全
type CircuitBreaker struct {
	name          string
	maxRequests   uint32
	interval      time.Duration
	timeout       time.Duration
	readyToTrip   func(counts Counts) bool
	onStateChange func(name string, from, to State)

	mu         sync.Mutex
	state      State
	generation uint64 // 每次状态切换递增,丢弃切换前发出的请求结果
	counts     Counts
	expiry     time.Time
	now        func() time.Time
}

// New 创建熔断器
//
//	cb := circuitbreaker.New("rabbitmq", circuitbreaker.Config{Timeout: 30 * time.Second})
//	err := cb.Execute(func() error { return publisher.Publish(ctx, key, msg) })
func New(name string, cfg Config) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:          name,
		maxRequests:   cfg.MaxRequests,
		interval:      cfg.Interval,
		timeout:       cfg.Timeout,
		readyToTrip:   cfg.ReadyToTrip,
		onStateChange: cfg.OnStateChange,
		now:           time.Now,
	}
	if cb.maxRequests == 0 {
		cb.maxRequests = 1
	}
	if cb.readyToTrip == nil {
		cb.readyToTrip = func(c Counts) bool { return c.ConsecutiveFailures >= 5 }
	}
	cb.resetWindow(cb.now())
	return cb
}

// Name 熔断器名称
func (cb *CircuitBreaker) Name() string { return cb.name }

// Execute 熔断器允许时执行fn并记录结果,否则返回ErrOpenState
func (cb *CircuitBreaker) Execute(fn func() error) error {
	generation, err := cb.beforeRequest()
	if err != nil {
		return err
	}

	err = fn()
	cb.afterRequest(generation, err == nil)
	return err
}

// State 当前状态
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state, _ := cb.currentState(cb.now())
	return state
}

// Counts 当前窗口统计
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts
}

func (cb *CircuitBreaker) beforeRequest() (uint64, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state, generation := cb.currentState(cb.now())
	switch {
	case state == StateOpen:
		return generation, ErrOpenState
	case state == StateHalfOpen && cb.counts.Requests >= cb.maxRequests:
		return generation, ErrOpenState
	}

	cb.counts.Requests++
	return generation, nil
}

func (cb *CircuitBreaker) afterRequest(before uint64, success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	state, generation := cb.currentState(now)
	if generation != before {
		return
	}

	if success {
		cb.counts.success()
		if state == StateHalfOpen {
			cb.setState(StateClosed, now)
		}
		return
	}

	cb.counts.failure()
	switch state {
	case StateClosed:
		if cb.readyToTrip(cb.counts) {
			cb.setState(StateOpen, now)
		}
	case StateHalfOpen:
		cb.setState(StateOpen, now)
	}
}

// currentState 处理窗口过期和OPEN超时
func (cb *CircuitBreaker) currentState(now time.Time) (State, uint64) {
	switch cb.state {
	case StateClosed:
		if !cb.expiry.IsZero() && cb.expiry.Before(now) {
			cb.resetWindow(now)
		}
	case StateOpen:
		if cb.expiry.Before(now) {
			cb.setState(StateHalfOpen, now)
		}
	}
	return cb.state, cb.generation
}

func (cb *CircuitBreaker) setState(state State, now time.Time) {
	if cb.state == state {
		return
	}

	prev := cb.state
	cb.state = state
	cb.generation++

	switch state {
	case StateClosed:
		cb.resetWindow(now)
	case StateOpen:
		cb.counts = Counts{}
		cb.expiry = now.Add(cb.timeout)
	case StateHalfOpen:
		cb.counts = Counts{}
		cb.expiry = time.Time{}
	}

	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, prev, state)
	}
}

func (cb *CircuitBreaker) resetWindow(now time.Time) {
	cb.counts = Counts{}
	if cb.interval > 0 {
		cb.expiry = now.Add(cb.interval)
	} else {
		cb.expiry = time.Time{}
	}
}
