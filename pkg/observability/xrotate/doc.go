// Package xrotate 为诊断日志文件提供按大小轮转的写入器。
//
// 桥接器的诊断输出可以写入独立文件，此包基于 lumberjack 负责：
//   - 单文件大小上限与自动轮转
//   - 备份数量与保留天数清理
//   - 可选 gzip 压缩
//
// [Rotator] 实现 io.WriteCloser，可直接作为 xlog.Builder 的输出目标。
package xrotate
