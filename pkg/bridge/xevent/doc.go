// Package xevent 定义桥接器消费的日志事件模型。
//
// # 核心类型
//
//   - [Level]: 封闭的有序级别枚举 TRACE < DEBUG < INFO < WARN < ERROR
//   - [Event]: 单条日志事件（只读），由日志框架适配层构造
//   - [ErrorInfo]: 附带错误的描述（最外层类型名 + 包装链）
//
// # 级别映射
//
// [FromSlog] 将 slog.Level 映射到最近的不高于它的级别：
// 低于 slog.LevelDebug 的映射为 [LevelTrace]，高于 slog.LevelError 的映射为 [LevelError]。
//
// # 错误描述
//
// [DescribeError] 沿 errors.Unwrap 链收集类型名，最多 [MaxChainDepth] 层。
// fmt.Errorf 产生的匿名包装类型会被跳过，Type 取第一个具名的业务错误类型。
package xevent
