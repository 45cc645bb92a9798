// Package xinstrument 管理指标实例的注册与缓存，并提供两个生产注册表适配器。
//
// # 缓存
//
// [Cache] 以 [xkey.Key] 为键保存已注册的实例句柄：
//   - 命中：按 xxhash 选择分片，只持有分片读锁，不访问注册表
//   - 未命中：singleflight 把同一键的并发调用合并为一次注册
//   - 注册失败：错误返回给调用方且不缓存，下一个事件会重试
//
// 条目在缓存生命周期内不会被淘汰，只能通过 [Cache.Reset] 整体清空。
//
// # 注册表
//
// [Registry] 是外部指标后端的抽象边界：
//   - [NewOTelRegistry]: 基于 OpenTelemetry metric.Meter
//   - [NewPrometheusRegistry]: 基于 prometheus.Registerer，使用固定 label 集合
//
// 句柄方法（Add/Record/Observe）不返回错误，适配器不得在其中阻塞。
package xinstrument
