// Package jsonlog 把 JSON Lines 日志解码为 xevent.Event，用于离线回放。
//
// 每行一个 JSON 对象，识别的字段：
//
//	level / lvl          级别名称（"info"、"ERROR"）或 slog 数值级别
//	logger / name        日志器名称
//	msg / message        消息
//	error_type / exception  错误类型名
//	error                字符串或 {"type": ..., "chain": [...]} 对象
//	thread               线程标识
//	time                 RFC 3339 时间；timestamp 为 Unix 纳秒
//
// 其余字段作为属性，嵌套对象展开为 "a.b"，非字符串值保留 JSON 文本。
//
// Open 与 NewReader 根据魔数识别 gzip、zstd 压缩输入。
package jsonlog
