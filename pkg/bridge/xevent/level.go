package xevent

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level 日志级别，取值有序，可直接比较
type Level int8

// 日志级别常量
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// levelNames 级别的规范小写名称，下标即 Level 值
var levelNames = [...]string{"trace", "debug", "info", "warn", "error"}

// String 返回级别的规范小写名称
//
// 越界值返回 "level(N)"，不会 panic。
func (l Level) String() string {
	if l.Valid() {
		return levelNames[l]
	}
	return fmt.Sprintf("level(%d)", int8(l))
}

// Valid 报告级别是否为已定义的五个取值之一
func (l Level) Valid() bool {
	return l >= LevelTrace && l <= LevelError
}

// MarshalText 实现 encoding.TextMarshaler
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLevel, int8(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler，配置文件可直接使用级别名称
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := ParseLevel(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel 解析级别名称（大小写不敏感，忽略首尾空白）
//
// 除规范名称外还接受常见别名：warning、err、fatal、panic、critical。
// 解析失败返回 LevelInfo 和 ErrUnknownLevel。
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error", "err", "fatal", "panic", "critical":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
}

// FromSlog 将 slog.Level 映射为 Level
func FromSlog(l slog.Level) Level {
	switch {
	case l < slog.LevelDebug:
		return LevelTrace
	case l < slog.LevelInfo:
		return LevelDebug
	case l < slog.LevelWarn:
		return LevelInfo
	case l < slog.LevelError:
		return LevelWarn
	default:
		return LevelError
	}
}

// Slog 返回与级别对应的 slog.Level，LevelTrace 映射为 slog.LevelDebug-4
func (l Level) Slog() slog.Level {
	switch l {
	case LevelTrace:
		return slog.LevelDebug - 4
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
