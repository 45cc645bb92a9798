package xbridge

import (
	"errors"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xsink"
)

var (
	// ErrNilRegistry 表示 New 收到 nil 注册表
	ErrNilRegistry = errors.New("xbridge: nil registry")

	// ErrRestartRequired 表示新配置包含无法热更新的结构性变更
	ErrRestartRequired = errors.New("xbridge: configuration change requires restart")

	// ErrCardinalityLimit 表示指标族已达到基数上限，键被改写为溢出键
	ErrCardinalityLimit = errors.New("xbridge: cardinality limit reached")

	// ErrInvalidConfig 表示配置校验失败
	ErrInvalidConfig = errors.New("xbridge: invalid config")

	// ErrClosed 表示桥接器已关闭
	ErrClosed = errors.New("xbridge: bridge is closed")
)

// Error 处理单个事件时的失败
type Error struct {
	Kind   xsink.Kind
	Family string
	Err    error
}

func (e *Error) Error() string {
	msg := "xbridge: " + e.Kind.String()
	if e.Family != "" {
		msg += " " + e.Family
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }
