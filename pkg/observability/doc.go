// Package observability 提供桥接器自身诊断所需的子包。
//
// 子包列表：
//   - xlog: 结构化诊断日志，基于 log/slog 扩展
//   - xrotate: 日志文件轮转
//
// 桥接器产出的业务指标不经过这里，诊断日志只描述桥接器自身的故障。
package observability
