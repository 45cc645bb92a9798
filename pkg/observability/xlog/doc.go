// Package xlog 提供桥接器自身使用的诊断日志。
//
// 诊断 logger 与被观测的应用日志管道完全独立：它总是直接构造
// slog.TextHandler / slog.JSONHandler 写入自己的输出目标（stderr、文件或丢弃），
// 从不经过桥接器的 slog.Handler，因此诊断输出不会再被转换为指标，也不会递归。
//
// # 创建 Logger
//
// 使用 Builder 模式（first-error-wins：遇到第一个配置错误后，后续错误被忽略）：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("warn").
//		SetFormat("json").
//		SetRotation("/var/log/app/bridge.log").
//		Build()
//	defer cleanup()
//
// # 内部错误
//
// 写入失败不会向调用方返回错误，也不会 panic：失败计入 [LoggerWithLevel.ErrorCount]，
// 并通过 [Builder.SetOnError] 注册的回调尽力通知。回调带递归保护与 panic 隔离。
package xlog
