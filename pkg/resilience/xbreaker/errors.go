package xbreaker

import (
	"errors"
	"fmt"

	"github.com/sony/gobreaker/v2"
)

// ErrNilFunc 传入的操作函数为 nil
var ErrNilFunc = errors.New("xbreaker: function cannot be nil")

// BreakerError 熔断器拒绝执行时返回的错误
type BreakerError struct {
	Err   error // gobreaker.ErrOpenState 或 gobreaker.ErrTooManyRequests
	Name  string
	State State
}

func (e *BreakerError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("breaker %s: %v", e.Name, e.Err)
	}
	return e.Err.Error()
}

func (e *BreakerError) Unwrap() error {
	return e.Err
}

// wrapBreakerError 只包装熔断器自身的拒绝错误，fn 返回的错误原样透传
//
// 设计决策: 状态从错误类型推导而非事后查询 State()，避免返回后状态已变化。
func wrapBreakerError(err error, name string) error {
	switch {
	case err == nil:
		return nil
	case err == gobreaker.ErrOpenState:
		return &BreakerError{Err: err, Name: name, State: StateOpen}
	case err == gobreaker.ErrTooManyRequests:
		return &BreakerError{Err: err, Name: name, State: StateHalfOpen}
	default:
		return err
	}
}

// IsOpen 报告错误是否因熔断器打开而拒绝
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState)
}

// IsTooManyRequests 报告错误是否因半开探测名额用尽而拒绝
func IsTooManyRequests(err error) bool {
	return errors.Is(err, gobreaker.ErrTooManyRequests)
}

// IsRejected 报告错误是否为熔断器拒绝（fn 未执行）
func IsRejected(err error) bool {
	var be *BreakerError
	return errors.As(err, &be)
}
