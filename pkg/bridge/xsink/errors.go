package xsink

import "errors"

var (
	// ErrInvalidRate 诊断日志速率必须为正数
	ErrInvalidRate = errors.New("xsink: diagnostics rate must be positive")

	// ErrInvalidBurst 突发容量必须为正数
	ErrInvalidBurst = errors.New("xsink: diagnostics burst must be positive")

	// ErrInvalidRecent 最近失败集合容量必须为正数
	ErrInvalidRecent = errors.New("xsink: recent failure capacity must be positive")
)
