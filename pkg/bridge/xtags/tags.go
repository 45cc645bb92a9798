package xtags

import (
	"slices"
	"strings"
)

// 固定标签 key 与哨兵值
const (
	KeyLevel     = "level"
	KeyLogger    = "logger"
	KeyException = "exception"
	KeyThread    = "thread"

	// Unknown 缺失日志器名称或线程标识时使用的哨兵值
	Unknown = "unknown"
)

// reservedKeys 不允许被属性占用的标签 key
var reservedKeys = map[string]struct{}{
	KeyLevel:     {},
	KeyLogger:    {},
	KeyException: {},
	KeyThread:    {},
}

// IsReserved 报告 key 是否为固定标签 key
func IsReserved(key string) bool {
	_, ok := reservedKeys[key]
	return ok
}

// Tag 单个标签
type Tag struct {
	Key   string
	Value string
}

// TagSet 按 key 升序排列、key 唯一的标签序列
//
// TagSet 按值传递但共享底层数组，调用方不应修改其元素。
type TagSet []Tag

// Get 返回指定 key 的标签值
func (s TagSet) Get(key string) (string, bool) {
	i, ok := slices.BinarySearchFunc(s, key, func(t Tag, k string) int {
		return strings.Compare(t.Key, k)
	})
	if !ok {
		return "", false
	}
	return s[i].Value, true
}

// Keys 返回全部 key（有序）
func (s TagSet) Keys() []string {
	keys := make([]string, len(s))
	for i, t := range s {
		keys[i] = t.Key
	}
	return keys
}

// Map 返回标签的 map 形式，便于测试与调试输出
func (s TagSet) Map() map[string]string {
	m := make(map[string]string, len(s))
	for _, t := range s {
		m[t.Key] = t.Value
	}
	return m
}

// Equal 报告两个 TagSet 是否逐项相等
func (s TagSet) Equal(other TagSet) bool {
	return slices.Equal(s, other)
}

// String 返回 "k=v,k=v" 形式，仅用于调试输出
func (s TagSet) String() string {
	var b strings.Builder
	for i, t := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.Key)
		b.WriteByte('=')
		b.WriteString(t.Value)
	}
	return b.String()
}

// Normalize 按 key 排序并去重（后出现的同名 key 覆盖先前的），返回新的 TagSet
//
// 供手工构造 TagSet 的调用方（如测试、外部适配器）使用；Extractor 的输出已是规范形式。
func Normalize(tags []Tag) TagSet {
	out := make(TagSet, 0, len(tags))
	for _, t := range tags {
		if i := slices.IndexFunc(out, func(x Tag) bool { return x.Key == t.Key }); i >= 0 {
			out[i].Value = t.Value
			continue
		}
		out = append(out, t)
	}
	sortTags(out)
	return out
}

func sortTags(s TagSet) {
	slices.SortFunc(s, func(a, b Tag) int {
		return strings.Compare(a.Key, b.Key)
	})
}
