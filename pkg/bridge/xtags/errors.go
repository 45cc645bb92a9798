package xtags

import "errors"

// NewExtractor 返回的配置错误
var (
	// ErrReservedKey 表示允许列表中的 key 与固定标签冲突
	ErrReservedKey = errors.New("xtags: attribute key collides with a reserved tag")

	// ErrEmptyKey 表示允许列表或拒绝列表中存在空 key
	ErrEmptyKey = errors.New("xtags: empty attribute key")

	// ErrInvalidMaxValueLength 表示 MaxValueLength 为负数
	ErrInvalidMaxValueLength = errors.New("xtags: invalid max value length")

	// ErrInvalidLoggerDepth 表示 LoggerDepth 为负数
	ErrInvalidLoggerDepth = errors.New("xtags: invalid logger depth")
)
