// Package xsink 是桥接器的失败接收端。
//
// 热路径上的任何失败（提取、注册、更新、panic、基数溢出、降级）都交给 [Sink]：
//   - 每个类别一个原子计数器，总是递增
//   - 有界 LRU 保存最近的不同失败（类别 + 消息），附带次数与首末时间
//   - 诊断日志经令牌桶限流，超出部分只计入 dropped
//
// 诊断日志通过独立的 xlog logger 输出（stderr、stdout、文件或丢弃），
// 从不写回被观测的应用日志管道。[Sink.Report] 不会 panic，也不会阻塞调用方。
package xsink
