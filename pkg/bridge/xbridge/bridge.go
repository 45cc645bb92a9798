package xbridge

import (
	"errors"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xevent"
	"github.com/omeyang/xlogmetrics/pkg/bridge/xinstrument"
	"github.com/omeyang/xlogmetrics/pkg/bridge/xkey"
	"github.com/omeyang/xlogmetrics/pkg/bridge/xsink"
	"github.com/omeyang/xlogmetrics/pkg/bridge/xtags"
	"github.com/omeyang/xlogmetrics/pkg/resilience/xbreaker"
)

// Option 桥接器选项
type Option func(*options)

type options struct {
	sink  *xsink.Sink
	clock func() time.Time
}

// WithSink 使用外部 Sink，替代按 Config.Diagnostics 构建的 Sink
//
// 外部 Sink 的生命周期由调用方管理，Close 不会释放它。
func WithSink(s *xsink.Sink) Option {
	return func(o *options) { o.sink = s }
}

// WithClock 注入时间源，用于 timing 测试
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

// Bridge 日志事件到指标的转换器，可并发使用
type Bridge struct {
	id        string
	cfg       Config
	extractor *xtags.Extractor
	sink      *xsink.Sink
	closeSink func() error
	guard     *guard
	now       func() time.Time

	events     *family[xinstrument.Counter]
	duration   *family[xinstrument.Timer]
	histograms []histogramFamily
	interested map[string]struct{}

	minLevel atomic.Int32
	timing   atomic.Bool
	closed   atomic.Bool
	applyMu  sync.Mutex
}

type histogramFamily struct {
	attr string
	*family[xinstrument.Histogram]
}

// New 创建桥接器
func New(cfg Config, registry xinstrument.Registry, opts ...Option) (*Bridge, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	extractor, err := cfg.newExtractor()
	if err != nil {
		return nil, err
	}
	minLevel, _ := cfg.minLevel() // Validate 已检查

	b := &Bridge{
		id:        uuid.NewString(),
		cfg:       cfg,
		extractor: extractor,
		now:       o.clock,
		closeSink: func() error { return nil },
	}

	b.sink = o.sink
	if b.sink == nil {
		sink, cleanup, err := xsink.New(cfg.Diagnostics, xsink.WithAttrs(slog.String("bridge", b.id)))
		if err != nil {
			return nil, err
		}
		b.sink, b.closeSink = sink, cleanup
	}

	if err := b.initFamilies(registry); err != nil {
		_ = b.closeSink()
		return nil, err
	}

	b.guard = newGuard(cfg.Failure)
	b.minLevel.Store(int32(minLevel))
	b.timing.Store(cfg.EnableTiming)
	return b, nil
}

func (b *Bridge) initFamilies(registry xinstrument.Registry) error {
	cfg := b.cfg
	var err error
	b.events, err = newFamily(xkey.Family{
		Name:        familyName(cfg.Namespace, "events"),
		Description: "Number of log events",
		Unit:        "{event}",
		Kind:        xkey.KindCounter,
	}, cfg.MaxKeys, registry.Counter)
	if err != nil {
		return err
	}

	b.duration, err = newFamily(xkey.Family{
		Name:        familyName(cfg.Namespace, "event.duration"),
		Description: "Time spent converting a log event into metrics",
		Unit:        "s",
		Kind:        xkey.KindTimer,
	}, cfg.MaxKeys, registry.Timer)
	if err != nil {
		return err
	}

	attrs := slices.Sorted(slices.Values(cfg.HistogramAttrs))
	for _, attr := range attrs {
		f, err := newFamily(xkey.Family{
			Name:        familyName(cfg.Namespace, "attr."+attr),
			Description: "Distribution of numeric log attribute " + attr,
			Kind:        xkey.KindHistogram,
		}, cfg.MaxKeys, registry.Histogram)
		if err != nil {
			return err
		}
		b.histograms = append(b.histograms, histogramFamily{attr: attr, family: f})
	}

	b.interested = make(map[string]struct{})
	for _, k := range b.extractor.AttrKeys() {
		b.interested[k] = struct{}{}
	}
	for _, k := range attrs {
		b.interested[k] = struct{}{}
	}
	return nil
}

// ID 返回实例标识，出现在每条诊断日志中
func (b *Bridge) ID() string { return b.id }

// Interested 报告属性 key 是否可能影响指标（标签或数值分布）
//
// 适配层据此只物化需要的属性。
func (b *Bridge) Interested(key string) bool {
	_, ok := b.interested[key]
	return ok
}

// Enabled 报告该级别的事件是否会被处理
func (b *Bridge) Enabled(level xevent.Level) bool {
	return !b.closed.Load() && int32(level) >= b.minLevel.Load()
}

// Record 处理一个日志事件
//
// 不返回错误、不 panic、不阻塞在 I/O 上。
func (b *Bridge) Record(ev *xevent.Event) {
	if b == nil || ev == nil || !b.Enabled(ev.Level) {
		return
	}
	defer func() {
		// 熔断器簿记或 sink 自身的意外 panic 同样不能外泄
		if r := recover(); r != nil {
			b.sink.Observe(kindPanic)
		}
	}()

	start := b.now()
	err := b.guard.Do(func() error { return b.process(ev, start) })
	b.guard.flush(b.sink)
	switch {
	case err == nil:
	case xbreaker.IsRejected(err):
		b.sink.Observe(xsink.KindSuppressed)
	default:
		b.report(err)
	}
}

func (b *Bridge) report(err error) {
	var e *Error
	if errors.As(err, &e) {
		b.sink.Report(e.Kind, e)
		return
	}
	b.sink.Report(kindPanic, err)
}

// process 单个事件的完整处理，任何失败都以 *Error 返回
func (b *Bridge) process(ev *xevent.Event, start time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Kind: kindPanic, Err: panicError(r)}
		}
	}()

	tp := tagBufPool.Get().(*xtags.TagSet)
	defer putTagBuf(tp)

	var tags xtags.TagSet
	if err := protect(kindExtract, "", func() { tags = b.extractor.AppendTags((*tp)[:0], ev) }); err != nil {
		return err
	}
	*tp = tags

	counter, overflowed, err := b.events.instrument(tags)
	b.noticeOverflow(b.events.def.Name, &b.events.overflowNoticed, overflowed)
	if err != nil {
		return err
	}
	if err := protect(kindUpdate, b.events.def.Name, func() { counter.Add(1) }); err != nil {
		return err
	}

	for _, h := range b.histograms {
		raw, ok := ev.Attr(h.attr)
		if !ok {
			continue
		}
		v, ok := parseNumber(raw)
		if !ok {
			continue
		}
		hist, overflowed, err := h.instrument(tags)
		b.noticeOverflow(h.def.Name, &h.overflowNoticed, overflowed)
		if err != nil {
			return err
		}
		if err := protect(kindUpdate, h.def.Name, func() { hist.Observe(v) }); err != nil {
			return err
		}
	}

	if b.timing.Load() {
		timer, overflowed, err := b.duration.instrument(tags)
		b.noticeOverflow(b.duration.def.Name, &b.duration.overflowNoticed, overflowed)
		if err != nil {
			return err
		}
		elapsed := b.now().Sub(start)
		if err := protect(kindUpdate, b.duration.def.Name, func() { timer.Record(elapsed) }); err != nil {
			return err
		}
	}
	return nil
}

// tagBufPool 复用 process 的标签缓冲区；解析器返回的键不引用它
var tagBufPool = sync.Pool{
	New: func() any {
		tags := make(xtags.TagSet, 0, 8)
		return &tags
	},
}

func putTagBuf(tp *xtags.TagSet) {
	if cap(*tp) > 64 {
		return
	}
	// 清除对事件字符串的引用
	clear(*tp)
	*tp = (*tp)[:0]
	tagBufPool.Put(tp)
}

// noticeOverflow 每个族首次溢出输出一条通知，之后只计数
func (b *Bridge) noticeOverflow(name string, noticed *atomic.Bool, overflowed bool) {
	if !overflowed {
		return
	}
	if noticed.CompareAndSwap(false, true) {
		b.sink.Report(xsink.KindOverflow, &Error{Kind: xsink.KindOverflow, Family: name, Err: ErrCardinalityLimit})
		return
	}
	b.sink.Observe(xsink.KindOverflow)
}

// parseNumber 解析数值属性，空白、非数值、NaN 与 ±Inf 返回 false
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Apply 应用新配置
//
// MinLevel 与 EnableTiming 立即生效；其它字段与当前配置不一致时
// 返回 ErrRestartRequired，可热更新的部分仍然生效。
func (b *Bridge) Apply(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := cfg.minLevel()

	b.applyMu.Lock()
	defer b.applyMu.Unlock()
	b.minLevel.Store(int32(level))
	b.timing.Store(cfg.EnableTiming)
	b.cfg.MinLevel = cfg.MinLevel
	b.cfg.EnableTiming = cfg.EnableTiming

	if !sameStructure(b.cfg, cfg) {
		return ErrRestartRequired
	}
	return nil
}

// Config 返回当前生效的配置
func (b *Bridge) Config() Config {
	b.applyMu.Lock()
	defer b.applyMu.Unlock()
	return b.cfg
}

// Stats 桥接器统计
type Stats struct {
	ID       string
	Families []FamilyStats
	// Breaker 熔断器状态：closed、half-open、open
	Breaker string
	Sink    xsink.Snapshot
}

// Stats 返回当前统计
func (b *Bridge) Stats() Stats {
	s := Stats{
		ID:      b.id,
		Breaker: b.guard.State().String(),
		Sink:    b.sink.Snapshot(),
	}
	s.Families = append(s.Families, b.events.stats(), b.duration.stats())
	for _, h := range b.histograms {
		s.Families = append(s.Families, h.stats())
	}
	return s
}

// Reset 清空全部解析器与实例缓存
//
// 已注册到后端的实例不会被注销；用于测试与重建。
func (b *Bridge) Reset() {
	b.events.reset()
	b.duration.reset()
	for _, h := range b.histograms {
		h.reset()
	}
}

// Close 停止处理事件并释放诊断输出，重复调用返回 ErrClosed
func (b *Bridge) Close() error {
	if b.closed.Swap(true) {
		return ErrClosed
	}
	return b.closeSink()
}
