package xbridge

import (
	"context"
	"log/slog"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xevent"
)

// 默认从这些属性读取日志器名称与线程标识
const (
	DefaultLoggerKey = "logger"
	DefaultThreadKey = "thread"
)

// HandlerOption Handler 选项
type HandlerOption func(*Handler)

// WithLoggerKey 设置承载日志器名称的属性 key
func WithLoggerKey(key string) HandlerOption {
	return func(h *Handler) {
		if key != "" {
			h.loggerKey = key
		}
	}
}

// WithThreadKey 设置承载线程标识的属性 key
func WithThreadKey(key string) HandlerOption {
	return func(h *Handler) {
		if key != "" {
			h.threadKey = key
		}
	}
}

// Handler 把 slog 记录交给 Bridge 的 slog.Handler 装饰器
//
// next 为 nil 时只产生指标；否则记录先转换为指标，再原样交给 next。
// 属性按分组展开为 "group.key"；只有 Bridge 关心的属性、日志器名称、
// 线程标识和第一个 error 值会被物化。
type Handler struct {
	bridge    *Bridge
	next      slog.Handler
	loggerKey string
	threadKey string

	prefix string // 当前分组前缀，以 "." 结尾
	pre    preset // WithAttrs 预先收集的值
}

// preset WithAttrs 累积的事件字段，派生 Handler 时整体复制
type preset struct {
	logger string
	thread string
	err    error
	attrs  map[string]string
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler 创建 Handler
func NewHandler(bridge *Bridge, next slog.Handler, opts ...HandlerOption) *Handler {
	h := &Handler{
		bridge:    bridge,
		next:      next,
		loggerKey: DefaultLoggerKey,
		threadKey: DefaultThreadKey,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Attach 返回在 logger 原有 handler 外包一层桥接的 *slog.Logger
//
// 继续使用原 logger 即为摘除。logger 为 nil 时使用 slog.Default()。
func Attach(logger *slog.Logger, bridge *Bridge, opts ...HandlerOption) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return slog.New(NewHandler(bridge, logger.Handler(), opts...))
}

// Enabled 桥接器或下游任一方需要该级别即返回 true
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.bridge != nil && h.bridge.Enabled(xevent.FromSlog(level)) {
		return true
	}
	return h.next != nil && h.next.Enabled(ctx, level)
}

// Handle 记录指标后转交下游
//
// 指标路径不会返回错误；返回值只来自下游 handler。
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if h.bridge != nil && h.bridge.Enabled(xevent.FromSlog(r.Level)) {
		h.record(r)
	}
	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

func (h *Handler) record(r slog.Record) {
	defer func() {
		// 属性物化中的 panic（如 LogValuer 实现有误）不能影响日志调用
		if rec := recover(); rec != nil {
			h.bridge.sink.Observe(kindExtract)
		}
	}()

	ev := xevent.Event{
		Level:   xevent.FromSlog(r.Level),
		Message: r.Message,
		Time:    r.Time,
		Logger:  h.pre.logger,
		Thread:  h.pre.thread,
	}
	if h.pre.err != nil {
		ev.Error = xevent.DescribeError(h.pre.err)
	}
	if len(h.pre.attrs) > 0 {
		ev.Attrs = make(map[string]string, len(h.pre.attrs)+r.NumAttrs())
		for k, v := range h.pre.attrs {
			ev.Attrs[k] = v
		}
	}

	c := collector{h: h, ev: &ev}
	r.Attrs(func(a slog.Attr) bool {
		c.collect(h.prefix, a)
		return true
	})
	if c.err != nil && ev.Error == nil {
		ev.Error = xevent.DescribeError(c.err)
	}
	h.bridge.Record(&ev)
}

// WithAttrs 实现 slog.Handler
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := h.clone()
	if h.next != nil {
		h2.next = h.next.WithAttrs(attrs)
	}
	if h.bridge != nil {
		c := presetCollector{h: h2}
		for _, a := range attrs {
			c.collect(h2.prefix, a)
		}
	}
	return h2
}

// WithGroup 实现 slog.Handler
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	if h.next != nil {
		h2.next = h.next.WithGroup(name)
	}
	h2.prefix = h.prefix + name + "."
	return h2
}

func (h *Handler) clone() *Handler {
	h2 := *h
	if h.pre.attrs != nil {
		h2.pre.attrs = make(map[string]string, len(h.pre.attrs))
		for k, v := range h.pre.attrs {
			h2.pre.attrs[k] = v
		}
	}
	return &h2
}

// collector 把单条记录的属性物化到事件
type collector struct {
	h   *Handler
	ev  *xevent.Event
	err error
}

func (c *collector) collect(prefix string, a slog.Attr) {
	walk(prefix, a, func(key string, v slog.Value) {
		switch {
		case key == c.h.loggerKey:
			c.ev.Logger = v.String()
		case key == c.h.threadKey:
			c.ev.Thread = v.String()
		}
		if c.err == nil {
			if err, ok := errorValue(v); ok {
				c.err = err
			}
		}
		if c.h.bridge.Interested(key) {
			if c.ev.Attrs == nil {
				c.ev.Attrs = make(map[string]string, 4)
			}
			c.ev.Attrs[key] = v.String()
		}
	})
}

// presetCollector 把 WithAttrs 的属性收集到 Handler 的 preset
type presetCollector struct {
	h *Handler
}

func (c presetCollector) collect(prefix string, a slog.Attr) {
	pre := &c.h.pre
	walk(prefix, a, func(key string, v slog.Value) {
		switch {
		case key == c.h.loggerKey:
			pre.logger = v.String()
		case key == c.h.threadKey:
			pre.thread = v.String()
		}
		if pre.err == nil {
			if err, ok := errorValue(v); ok {
				pre.err = err
			}
		}
		if c.h.bridge.Interested(key) {
			if pre.attrs == nil {
				pre.attrs = make(map[string]string, 4)
			}
			pre.attrs[key] = v.String()
		}
	})
}

// walk 展开分组并解析 LogValuer，对每个叶子属性调用 fn
func walk(prefix string, a slog.Attr, fn func(key string, v slog.Value)) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		p := prefix
		// 空 key 的分组内联到当前层级
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range v.Group() {
			walk(p, ga, fn)
		}
		return
	}
	if a.Key == "" {
		return
	}
	fn(prefix+a.Key, v)
}

func errorValue(v slog.Value) (error, bool) {
	if v.Kind() != slog.KindAny {
		return nil, false
	}
	err, ok := v.Any().(error)
	return err, ok && err != nil
}
