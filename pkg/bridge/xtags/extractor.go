package xtags

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xevent"
)

// DefaultMaxValueLength 标签值默认最大字节数
const DefaultMaxValueLength = 128

// Config 标签提取配置
type Config struct {
	// AllowedAttrs 允许成为标签的结构化属性 key
	AllowedAttrs []string

	// DeniedAttrs 拒绝列表，同时出现在两个列表中的 key 以拒绝为准
	DeniedAttrs []string

	// MaxValueLength 标签值最大字节数，0 使用 DefaultMaxValueLength
	MaxValueLength int

	// LoggerDepth 日志器名称保留的前 N 个点分段，0 表示保留全名
	LoggerDepth int

	// IncludeThread 是否输出 thread 标签
	IncludeThread bool
}

// Extractor 标签提取器，构造后不可变，可并发使用
type Extractor struct {
	attrKeys      []string // 生效的属性 key（允许列表减去拒绝列表，有序）
	maxLen        int
	loggerDepth   int
	includeThread bool
}

// NewExtractor 根据配置创建提取器
func NewExtractor(cfg Config) (*Extractor, error) {
	if cfg.MaxValueLength < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxValueLength, cfg.MaxValueLength)
	}
	if cfg.LoggerDepth < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLoggerDepth, cfg.LoggerDepth)
	}

	denied := make(map[string]struct{}, len(cfg.DeniedAttrs))
	for _, k := range cfg.DeniedAttrs {
		if k == "" {
			return nil, ErrEmptyKey
		}
		denied[k] = struct{}{}
	}

	keys := make([]string, 0, len(cfg.AllowedAttrs))
	for _, k := range cfg.AllowedAttrs {
		if k == "" {
			return nil, ErrEmptyKey
		}
		if IsReserved(k) {
			return nil, fmt.Errorf("%w: %q", ErrReservedKey, k)
		}
		if _, ok := denied[k]; ok {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)

	maxLen := cfg.MaxValueLength
	if maxLen == 0 {
		maxLen = DefaultMaxValueLength
	}

	return &Extractor{
		attrKeys:      keys,
		maxLen:        maxLen,
		loggerDepth:   cfg.LoggerDepth,
		includeThread: cfg.IncludeThread,
	}, nil
}

// AttrKeys 返回生效的属性 key（有序副本）
func (e *Extractor) AttrKeys() []string {
	return slices.Clone(e.attrKeys)
}

// TagKeys 返回提取器可能输出的全部标签 key（有序）
//
// 固定 label 集合的后端（如 Prometheus）用它声明 label 名称。
func (e *Extractor) TagKeys() []string {
	keys := make([]string, 0, len(e.attrKeys)+4)
	keys = append(keys, KeyLevel, KeyLogger, KeyException)
	if e.includeThread {
		keys = append(keys, KeyThread)
	}
	keys = append(keys, e.attrKeys...)
	slices.Sort(keys)
	return keys
}

// Extract 从事件派生 TagSet
//
// 纯函数：不修改事件，不依赖事件身份或时间戳。nil 事件得到只含哨兵值的标签集。
func (e *Extractor) Extract(ev *xevent.Event) TagSet {
	return e.AppendTags(make(TagSet, 0, 4+len(e.attrKeys)), ev)
}

// AppendTags 把事件的标签追加到 dst 并返回扩展后的切片
//
// 追加部分按 key 排序，dst 原有内容不变。热路径用它复用缓冲区。
func (e *Extractor) AppendTags(dst TagSet, ev *xevent.Event) TagSet {
	start := len(dst)
	if ev == nil {
		dst = append(dst,
			Tag{Key: KeyLevel, Value: levelName(0)},
			Tag{Key: KeyLogger, Value: Unknown},
		)
		if e.includeThread {
			dst = append(dst, Tag{Key: KeyThread, Value: Unknown})
		}
		sortTags(dst[start:])
		return dst
	}

	dst = append(dst,
		Tag{Key: KeyLevel, Value: levelName(ev.Level)},
		Tag{Key: KeyLogger, Value: e.truncate(e.bucketLogger(ev.Logger))},
	)
	if ev.Error != nil {
		exc := ev.Error.Type
		if exc == "" {
			exc = Unknown
		}
		dst = append(dst, Tag{Key: KeyException, Value: e.truncate(exc)})
	}
	if e.includeThread {
		thread := ev.Thread
		if thread == "" {
			thread = Unknown
		}
		dst = append(dst, Tag{Key: KeyThread, Value: e.truncate(thread)})
	}
	if len(ev.Attrs) > 0 {
		for _, k := range e.attrKeys {
			v, ok := ev.Attrs[k]
			if !ok || v == "" {
				continue
			}
			dst = append(dst, Tag{Key: k, Value: e.truncate(v)})
		}
	}

	sortTags(dst[start:])
	return dst
}

// bucketLogger 处理缺失名称与层级截取
func (e *Extractor) bucketLogger(name string) string {
	name = strings.Trim(name, ".")
	if name == "" {
		return Unknown
	}
	if e.loggerDepth == 0 {
		return name
	}
	idx := 0
	for range e.loggerDepth {
		next := strings.IndexByte(name[idx:], '.')
		if next < 0 {
			return name
		}
		idx += next + 1
	}
	return name[:idx-1]
}

// truncate 按 UTF-8 边界截断到 maxLen 字节以内
func (e *Extractor) truncate(v string) string {
	if len(v) <= e.maxLen {
		return v
	}
	cut := e.maxLen
	for cut > 0 && !utf8.RuneStart(v[cut]) {
		cut--
	}
	return v[:cut]
}

func levelName(l xevent.Level) string {
	if !l.Valid() {
		return Unknown
	}
	return l.String()
}
