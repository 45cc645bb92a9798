// Package xtags 从日志事件派生有界、确定性的指标标签集合。
//
// # 标签规则
//
// 固定标签：
//   - level: 级别的规范小写名称
//   - logger: 日志器名称；可按 LoggerDepth 截取前 N 段；缺失时为 "unknown"
//
// 条件标签：
//   - exception: 附带错误时的最外层类型名
//   - thread: 仅在 IncludeThread 时输出；缺失时为 "unknown"
//   - 允许列表中的结构化属性（减去拒绝列表）
//
// 完整的上下文属性映射永远不会整体进入标签，这是基数失控的主要来源。
// 不在允许列表中的属性被静默忽略；空值属性被省略；超长值按 UTF-8 边界截断。
//
// # 确定性
//
// 相同内容的事件总是得到逐字节相同、按 key 排序的 [TagSet]，
// 因此可以直接用于构造稳定的指标键。
package xtags
