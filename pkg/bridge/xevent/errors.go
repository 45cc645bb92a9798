package xevent

import "errors"

// ErrUnknownLevel 表示无法识别的级别名称或越界的级别值
var ErrUnknownLevel = errors.New("xevent: unknown level")
