package xlog

import (
	"log/slog"
	"time"
)

// 诊断日志的标准字段名
const (
	KeyError     = "error"
	KeyComponent = "component"
	KeyKind      = "kind"
	KeyFamily    = "family"
	KeyCount     = "count"
	KeyDuration  = "duration"
)

// Err 错误属性，nil 返回空属性（被 slog 忽略）
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Component 组件名属性
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Kind 失败类别属性
func Kind(kind string) slog.Attr {
	return slog.String(KeyKind, kind)
}

// Family 指标族属性
func Family(name string) slog.Attr {
	return slog.String(KeyFamily, name)
}

// Count 计数属性
func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// Duration 耗时属性，输出人类可读格式
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}
