package xlog

import (
	"context"
	"log/slog"
)

// Logger 诊断日志接口
//
// 方法只接受 slog.Attr，避免隐式 key-value 转换。
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 返回带固定属性的派生 Logger
	//
	// 派生 logger 共享父级的 LevelVar 与错误计数器。
	With(attrs ...slog.Attr) Logger
}

// Leveler 级别控制
type Leveler interface {
	SetLevel(level Level)
	GetLevel() Level
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel Build 的返回类型
type LoggerWithLevel interface {
	Logger
	Leveler

	// ErrorCount 返回写入失败（含回调 panic）的累计次数
	ErrorCount() uint64
}
