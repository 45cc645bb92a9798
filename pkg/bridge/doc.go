// Package bridge 提供日志事件到指标的桥接子包。
//
// 子包列表（按依赖顺序）：
//   - xevent: 日志事件模型（有序级别枚举、错误描述、结构化属性）
//   - xtags: 标签提取，从事件派生有界、确定性的 TagSet
//   - xkey: 指标键与基数上限（超限时路由到 "_other_" 溢出键）
//   - xinstrument: 指标仪表缓存与注册表适配（OpenTelemetry / Prometheus）
//   - xsink: 桥接器内部故障的兜底记录通道
//   - xbridge: 事件处理器与 slog.Handler 接入
//
// 设计原则：
//   - 热路径同步执行，不阻塞、不返回错误、不 panic
//   - 标签基数有界，溢出显式可观测
//   - 内部故障只进入独立诊断通道，不回流到被观测的日志管道
package bridge
