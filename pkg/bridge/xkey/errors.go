package xkey

import "errors"

var (
	// ErrInvalidMaxKeys 表示基数上限为负数
	ErrInvalidMaxKeys = errors.New("xkey: invalid max keys")

	// ErrEmptyFamily 表示指标族名称为空
	ErrEmptyFamily = errors.New("xkey: empty family name")

	// ErrInvalidKind 表示未知的指标类型
	ErrInvalidKind = errors.New("xkey: invalid instrument kind")
)
