package xbridge

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xsink"
	"github.com/omeyang/xlogmetrics/pkg/observability/xlog"
	"github.com/omeyang/xlogmetrics/pkg/resilience/xbreaker"
)

const (
	kindExtract  = xsink.KindExtract
	kindRegister = xsink.KindRegister
	kindUpdate   = xsink.KindUpdate
	kindPanic    = xsink.KindPanic
)

// 待发出的状态通知
const (
	transitionNone uint32 = iota
	transitionDegraded
	transitionRecovered
)

// guard 自身失败熔断器
//
// gobreaker 在内部锁中执行状态回调，回调只记录转换；通知由 flush
// 在 Do 返回后于锁外发出。两次 flush 之间的多次转换只保留最后一次。
type guard struct {
	breaker  *xbreaker.Breaker
	cooldown time.Duration
	pending  atomic.Uint32
}

func newGuard(cfg FailureConfig) *guard {
	g := &guard{cooldown: cfg.Cooldown}
	g.breaker = xbreaker.NewBreaker("xlogmetrics",
		xbreaker.WithTripPolicy(xbreaker.NewConsecutiveFailures(cfg.Threshold)),
		xbreaker.WithTimeout(cfg.Cooldown),
		xbreaker.WithMaxRequests(1),
		xbreaker.WithOnStateChange(func(_ string, from, to xbreaker.State) {
			switch {
			case to == xbreaker.StateOpen:
				g.pending.Store(transitionDegraded)
			case to == xbreaker.StateClosed && from == xbreaker.StateHalfOpen:
				g.pending.Store(transitionRecovered)
			}
		}),
	)
	return g
}

// Do 在熔断器保护下执行 fn
func (g *guard) Do(fn func() error) error {
	return g.breaker.Do(fn)
}

// State 返回熔断器当前状态
func (g *guard) State() xbreaker.State {
	return g.breaker.State()
}

// flush 发出待处理的状态通知，不得在熔断器回调中调用
func (g *guard) flush(sink *xsink.Sink) {
	if g.pending.Load() == transitionNone {
		return
	}
	switch g.pending.Swap(transitionNone) {
	case transitionDegraded:
		sink.Notice(xsink.KindDegraded, "log metrics bridge degraded, events are skipped",
			xlog.Duration(g.cooldown))
	case transitionRecovered:
		sink.Notice(xsink.KindRecovered, "log metrics bridge recovered")
	}
}

// protect 执行 fn，把 panic 转换为指定类别的 *Error
func protect(kind xsink.Kind, familyName string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Kind: kind, Family: familyName, Err: panicError(r)}
		}
	}()
	fn()
	return nil
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
