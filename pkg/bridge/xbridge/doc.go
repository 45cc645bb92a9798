// Package xbridge 把日志事件实时转换为指标。
//
// # 处理流程
//
// 每个事件在发出日志的 goroutine 上同步处理，且至多一遍：
//
//	slog.Record → Handler → Bridge.Record → Extractor.Extract
//	            → Resolver.Resolve → Cache.GetOrCreate → Add/Record/Observe
//
// 产生的观测：
//   - <namespace>.events 计数器加一
//   - 启用 timing 时，<namespace>.event.duration 记录桥接器处理本事件的耗时
//   - 配置 histogram_attrs 时，每个可解析为数值的属性在 <namespace>.attr.<key> 上记录一次
//
// # 失败隔离
//
// 提取、解析、缓存、注册表中的任何错误或 panic 都在 [Bridge.Record] 内部转换为 [*Error]，
// 交给 xsink.Sink 后吞掉，日志调用方既看不到错误也不会 panic。
//
// 连续失败达到 failure.threshold 后熔断器打开，桥接器退化为空操作，只计数被跳过的事件；
// 经过 failure.cooldown 后放行一个探测事件，成功则恢复。
//
// # 接入 slog
//
//	bridge, err := xbridge.New(cfg, registry)
//	logger := xbridge.Attach(slog.Default(), bridge)
//	logger.Error("query failed", "logger", "app.db", "err", err)
//
// 保留原来的 *slog.Logger 即可摘除桥接器。
//
//go:generate mockgen -destination=registry_mock_test.go -package=xbridge github.com/omeyang/xlogmetrics/pkg/bridge/xinstrument Registry,Counter
package xbridge
