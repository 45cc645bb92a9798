package xevent

import (
	"errors"
	"reflect"
)

// MaxChainDepth 错误包装链的最大记录深度
const MaxChainDepth = 8

// ErrorInfo 附带错误的描述
type ErrorInfo struct {
	// Type 最外层具名错误的简单类型名（不含包路径和指针标记）
	Type string

	// Chain 从外到内的类型名链，长度不超过 MaxChainDepth
	Chain []string
}

// DescribeError 构造错误描述，err 为 nil 时返回 nil
//
// 只跟随 errors.Unwrap 单链；errors.Join 产生的多错误只取其自身类型。
// fmt 包的匿名包装类型（wrapError/wrapErrors）出现在 Chain 中，但不会作为 Type，
// 除非整条链上没有其他具名类型。
func DescribeError(err error) *ErrorInfo {
	if err == nil {
		return nil
	}

	info := &ErrorInfo{Chain: make([]string, 0, 2)}
	for cur := err; cur != nil && len(info.Chain) < MaxChainDepth; cur = errors.Unwrap(cur) {
		name, wrapper := typeName(cur)
		info.Chain = append(info.Chain, name)
		if info.Type == "" && !wrapper {
			info.Type = name
		}
	}
	if info.Type == "" {
		info.Type = info.Chain[0]
	}
	return info
}

// typeName 返回错误的简单类型名，wrapper 表示是否为 fmt 的匿名包装类型
func typeName(err error) (name string, wrapper bool) {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name = t.Name()
	if name == "" {
		name = t.String()
	}
	return name, t.PkgPath() == "fmt"
}
