package xkey

import (
	"strconv"
	"sync"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xtags"
)

// Kind 指标类型
type Kind uint8

const (
	// KindCounter 单调递增计数器
	KindCounter Kind = iota + 1
	// KindTimer 耗时分布
	KindTimer
	// KindHistogram 数值分布
	KindHistogram
)

// String 返回类型名称
func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindTimer:
		return "timer"
	case KindHistogram:
		return "histogram"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Valid 报告是否为已定义的类型
func (k Kind) Valid() bool {
	return k >= KindCounter && k <= KindHistogram
}

// Family 指标族：同名、同类型、标签维度不同的一组指标
type Family struct {
	// Name 点分名称，如 "log.events"
	Name string
	// Description 说明文字，由注册表写入后端元数据
	Description string
	// Unit 单位（UCUM 风格，如 "s"、"{event}"），可为空
	Unit string
	// Kind 指标类型
	Kind Kind
}

// Validate 检查指标族定义
func (f Family) Validate() error {
	if f.Name == "" {
		return ErrEmptyFamily
	}
	if !f.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

// Key 规范化的指标键
//
// Key 是值类型，可以安全复制与跨 goroutine 共享。零值表示无效键。
type Key struct {
	family Family
	tags   xtags.TagSet
	id     string
}

// NewKey 构造指标键
//
// tags 必须已是规范形式（按 key 排序且 key 唯一），[xtags.Extractor] 的输出满足此条件；
// 手工构造的标签应先经过 [xtags.Normalize]。
func NewKey(family Family, tags xtags.TagSet) Key {
	return Key{family: family, tags: tags, id: encodeID(family, tags)}
}

// Family 返回指标族
func (k Key) Family() Family { return k.family }

// Tags 返回标签集，调用方不应修改
func (k Key) Tags() xtags.TagSet { return k.tags }

// ID 返回规范身份字符串，可直接用作 map key
func (k Key) ID() string { return k.id }

// IsZero 报告是否为零值
func (k Key) IsZero() bool { return k.id == "" }

// Equal 报告两个键是否相等
func (k Key) Equal(other Key) bool { return k.id == other.id }

// String 返回便于阅读的形式，仅用于诊断输出
func (k Key) String() string {
	if len(k.tags) == 0 {
		return k.family.Name
	}
	return k.family.Name + "{" + k.tags.String() + "}"
}

var idBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 256)
		return &b
	},
}

func getIDBuf() *[]byte { return idBufPool.Get().(*[]byte) }

// putIDBuf 归还缓冲区，异常大的缓冲区不回收
func putIDBuf(bp *[]byte) {
	if cap(*bp) <= 4096 {
		*bp = (*bp)[:0]
		idBufPool.Put(bp)
	}
}

func encodeID(family Family, tags xtags.TagSet) string {
	bp := getIDBuf()
	*bp = appendID((*bp)[:0], family, tags, false)
	id := string(*bp)
	putIDBuf(bp)
	return id
}

// appendID 追加长度前缀编码：kind:len:name(len:key len:value)*
//
// 长度前缀保证不同二元组永远得到不同的字符串，与内容中的分隔符无关。
// overflow 为 true 时按溢出键编码，除 level 外的标签值写为 OverflowValue。
func appendID(b []byte, family Family, tags xtags.TagSet, overflow bool) []byte {
	b = strconv.AppendUint(b, uint64(family.Kind), 10)
	b = append(b, ':')
	b = appendField(b, family.Name)
	for _, t := range tags {
		b = appendField(b, t.Key)
		if overflow && t.Key != xtags.KeyLevel {
			b = appendField(b, OverflowValue)
		} else {
			b = appendField(b, t.Value)
		}
	}
	return b
}

func appendField(b []byte, s string) []byte {
	b = strconv.AppendInt(b, int64(len(s)), 10)
	b = append(b, ':')
	return append(b, s...)
}
