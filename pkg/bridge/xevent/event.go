package xevent

import "time"

// Event 一条已发出的日志事件
//
// Event 由日志框架适配层（如 xbridge.Handler）构造，桥接器只读不写。
// 零值合法：Logger 为空时标签提取使用 "unknown" 哨兵值。
type Event struct {
	// Level 事件级别
	Level Level

	// Logger 日志器名称，点分层级（如 "app.http.server"）
	Logger string

	// Message 日志消息，指标只关心其存在，不参与标签
	Message string

	// Error 附带的错误描述，nil 表示未附带错误
	Error *ErrorInfo

	// Attrs 结构化上下文属性（已扁平化为字符串）
	// 只有被允许列表选中的 key 才会成为标签
	Attrs map[string]string

	// Time 事件时间戳
	Time time.Time

	// Thread 发出事件的执行单元标识（goroutine/worker 名称等），可为空
	Thread string
}

// Attr 返回指定属性值，属性不存在时 ok 为 false
func (e *Event) Attr(key string) (value string, ok bool) {
	if e == nil || e.Attrs == nil {
		return "", false
	}
	value, ok = e.Attrs[key]
	return value, ok
}
