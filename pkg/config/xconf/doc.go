// Package xconf 加载桥接器配置，基于 koanf 实现。
//
// # 加载
//
// Load 从文件加载，根据扩展名识别格式（.yaml/.yml、.json）；
// Parse 解析字节数据，需要显式指定格式。
// 两者都以 xbridge.DefaultConfig() 为底，文件中出现的字段覆盖默认值，
// 解析后执行 Config.Validate。
//
// 时长字段接受 "30s"、"1m" 形式的字符串；数值字段允许字符串形式（弱类型转换）。
//
//	cfg, err := xconf.Load("/etc/xlogmetrics/bridge.yaml", xconf.WithSection("bridge"))
//
// # 配置监视
//
// Watch 监视配置文件所在目录（兼容 vim/emacs 的原子写入），内置防抖。
// 每次变更重新执行 Load，并把结果交给回调；通常回调中调用 Bridge.Apply。
// Stop() 之后不再触发新的重载，在回调中调用 Stop() 不会死锁。
package xconf
