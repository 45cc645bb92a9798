// Package xbreaker 基于 gobreaker 的熔断器，用于在自身持续失败时快速降级。
//
// 桥接器把每次事件处理包在 [Breaker.Do] 中：
//   - Closed：正常处理，连续失败达到阈值后转为 Open
//   - Open：直接拒绝（[IsOpen]），经过 Timeout 后转为 HalfOpen
//   - HalfOpen：放行 MaxRequests 个探测请求，成功则关闭，失败则重新打开
//
// 熔断器的内部互斥锁只在 fn 执行前后的簿记阶段持有，不跨越 fn 本身。
package xbreaker
