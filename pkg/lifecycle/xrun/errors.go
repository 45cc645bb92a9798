package xrun

import "errors"

var (
	// ErrNilFunc 表示服务函数为 nil
	ErrNilFunc = errors.New("xrun: nil service func")

	// ErrNilServer 表示 HTTPServer 收到 nil server 或 listener
	ErrNilServer = errors.New("xrun: nil server")

	// ErrInvalidInterval 表示 Ticker 的间隔参数无效（必须为正数）
	ErrInvalidInterval = errors.New("xrun: interval must be positive")

	// ErrStop 作为 Cancel 的 cause 表示整组正常结束，Wait 返回 nil
	ErrStop = errors.New("xrun: stop")
)
