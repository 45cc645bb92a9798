package xbreaker

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

type (
	// Counts 统计计数
	Counts = gobreaker.Counts

	// State 熔断器状态
	State = gobreaker.State
)

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// 默认配置
const (
	DefaultThreshold   = 5
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRequests = 1
)

// TripPolicy 熔断判定策略
type TripPolicy interface {
	// ReadyToTrip 返回 true 时从 Closed 转为 Open
	ReadyToTrip(counts Counts) bool
}

// Breaker 熔断器
type Breaker struct {
	name          string
	tripPolicy    TripPolicy
	timeout       time.Duration
	maxRequests   uint32
	onStateChange func(name string, from, to State)

	cb *gobreaker.CircuitBreaker[struct{}]
}

// BreakerOption 熔断器配置选项
type BreakerOption func(*Breaker)

// WithTripPolicy 设置熔断判定策略，默认连续失败 DefaultThreshold 次
func WithTripPolicy(p TripPolicy) BreakerOption {
	return func(b *Breaker) {
		if p != nil {
			b.tripPolicy = p
		}
	}
}

// WithTimeout 设置 Open 到 HalfOpen 的冷却时间，默认 DefaultTimeout
func WithTimeout(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithMaxRequests 设置 HalfOpen 状态下放行的探测请求数，默认 1
func WithMaxRequests(n uint32) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.maxRequests = n
		}
	}
}

// WithOnStateChange 设置状态变化回调
//
// 回调在触发状态变化的调用方 goroutine 上同步执行，且持有熔断器内部锁，
// 不得再调用同一熔断器的方法。
func WithOnStateChange(f func(name string, from, to State)) BreakerOption {
	return func(b *Breaker) {
		b.onStateChange = f
	}
}

// NewBreaker 创建熔断器
func NewBreaker(name string, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		name:        name,
		tripPolicy:  NewConsecutiveFailures(DefaultThreshold),
		timeout:     DefaultTimeout,
		maxRequests: DefaultMaxRequests,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	st := gobreaker.Settings{
		Name:        b.name,
		MaxRequests: b.maxRequests,
		Timeout:     b.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return b.tripPolicy.ReadyToTrip(counts)
		},
	}
	if b.onStateChange != nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			b.onStateChange(name, from, to)
		}
	}
	b.cb = gobreaker.NewCircuitBreaker[struct{}](st)
	return b
}

// Do 执行受保护的操作
//
// Open 状态下 fn 不会执行，返回的错误满足 [IsOpen]；
// HalfOpen 状态下超出探测名额返回满足 [IsTooManyRequests] 的错误。
// fn 发生 panic 时计为一次失败并继续向上 panic。
func (b *Breaker) Do(fn func() error) error {
	if fn == nil {
		return ErrNilFunc
	}
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return wrapBreakerError(err, b.name)
}

// State 返回当前状态
func (b *Breaker) State() State {
	return b.cb.State()
}

// Counts 返回当前统计
func (b *Breaker) Counts() Counts {
	return b.cb.Counts()
}

// Name 返回名称
func (b *Breaker) Name() string {
	return b.name
}
