// Package xkey 定义规范化的指标键，并为每个指标族提供基数上限守卫。
//
// # 指标键
//
// [Key] 是 (Family, TagSet) 二元组。相等性只由二元组内容决定：
// 两个内容相同的 Key 拥有逐字节相同的 [Key.ID]，总是解析到同一个指标实例。
// ID 使用长度前缀编码，key 或 value 中出现任何分隔符都不会产生歧义。
//
// # 基数守卫
//
// [Resolver] 记录某个指标族已经见过的 Key：
//   - 已见过的 Key 直接返回
//   - 新 Key 通过原子 CAS 预留一个名额，名额用尽后改写为溢出键
//   - 溢出键保留 level 标签，其余标签值替换为 [OverflowValue]
//   - 溢出键不占用名额
//
// 因此一个指标族的实例数量不超过 上限 + 溢出变体数（每个级别一个）。
package xkey
