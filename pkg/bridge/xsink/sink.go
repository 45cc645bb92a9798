package xsink

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/omeyang/xlogmetrics/pkg/observability/xlog"
	"github.com/omeyang/xlogmetrics/pkg/observability/xrotate"
)

// maxMessageLength 最近失败集合中消息的最大字节数
const maxMessageLength = 256

// Option Sink 选项
type Option func(*Sink)

// WithLogger 使用外部诊断 logger，替代按 Config 构建的 logger
func WithLogger(logger xlog.Logger) Option {
	return func(s *Sink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAttrs 为每条诊断日志追加固定属性
func WithAttrs(attrs ...slog.Attr) Option {
	return func(s *Sink) { s.attrs = append(s.attrs, attrs...) }
}

// WithClock 注入时间源，仅用于测试
func WithClock(now func() time.Time) Option {
	return func(s *Sink) {
		if now != nil {
			s.now = now
		}
	}
}

// Sink 失败接收端，可并发使用
type Sink struct {
	counters [numKinds]atomic.Int64
	dropped  atomic.Int64

	recent  *lru.Cache[failureKey, *failure]
	limiter *rate.Limiter
	logger  xlog.Logger
	attrs   []slog.Attr
	now     func() time.Time
}

type failureKey struct {
	kind Kind
	msg  string
}

type failure struct {
	mu    sync.Mutex
	count int64
	first time.Time
	last  time.Time
}

// Failure 最近失败集合中的一项
type Failure struct {
	Kind    Kind
	Message string
	Count   int64
	First   time.Time
	Last    time.Time
}

// Snapshot Sink 状态快照
type Snapshot struct {
	// Counts 按类别名称的累计次数
	Counts map[string]int64
	// Dropped 因限流未输出的诊断日志行数
	Dropped int64
	// Recent 最近的不同失败，按最后发生时间降序
	Recent []Failure
}

// New 按配置创建 Sink，返回的 cleanup 释放诊断输出（如关闭文件）
func New(cfg Config, opts ...Option) (*Sink, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	recent, err := lru.New[failureKey, *failure](cfg.Recent)
	if err != nil {
		return nil, nil, err
	}
	s := &Sink{
		recent:  recent,
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	cleanup := func() error { return nil }
	if s.logger == nil {
		logger, c, err := buildLogger(cfg)
		if err != nil {
			return nil, nil, err
		}
		s.logger, cleanup = logger, c
	}
	if len(s.attrs) > 0 {
		s.logger = s.logger.With(s.attrs...)
	}
	return s, cleanup, nil
}

func buildLogger(cfg Config) (xlog.Logger, func() error, error) {
	b := xlog.New().
		SetFormat(cfg.Format).
		SetLevelString(cfg.Level).
		SetAttrs(xlog.Component("xlogmetrics"))
	switch cfg.Output {
	case "", OutputStderr:
		b.SetOutput(os.Stderr)
	case OutputStdout:
		b.SetOutput(os.Stdout)
	case OutputDiscard:
		b.SetOutput(io.Discard)
	default:
		b.SetRotation(cfg.Output,
			xrotate.WithMaxSize(cfg.MaxSizeMB),
			xrotate.WithMaxBackups(cfg.MaxBackups),
		)
	}
	return b.Build()
}

// Report 记录一次失败
//
// 总是递增计数；消息进入最近失败集合；令牌允许时输出一行诊断日志。
// err 为 nil 时以类别名称作为消息。
func (s *Sink) Report(kind Kind, err error) {
	if s == nil {
		return
	}
	defer func() {
		// 诊断路径自身的问题不能影响调用方
		_ = recover()
	}()

	s.count(kind)
	msg := kind.String()
	if err != nil {
		msg = err.Error()
	}
	if len(msg) > maxMessageLength {
		msg = msg[:maxMessageLength]
	}
	now := s.now()
	s.remember(failureKey{kind: kind, msg: msg}, now)

	if !s.limiter.AllowN(now, 1) {
		s.dropped.Add(1)
		return
	}
	s.logger.Warn(context.Background(), "log metrics bridge failure",
		xlog.Kind(kind.String()), slog.String(xlog.KeyError, msg))
}

// Notice 输出一条不计入失败集合的状态通知（如降级、恢复），同样受限流约束
func (s *Sink) Notice(kind Kind, msg string, attrs ...slog.Attr) {
	if s == nil {
		return
	}
	defer func() { _ = recover() }()

	s.count(kind)
	if !s.limiter.AllowN(s.now(), 1) {
		s.dropped.Add(1)
		return
	}
	all := make([]slog.Attr, 0, len(attrs)+1)
	all = append(all, xlog.Kind(kind.String()))
	all = append(all, attrs...)
	if kind == KindDegraded {
		s.logger.Error(context.Background(), msg, all...)
		return
	}
	s.logger.Info(context.Background(), msg, all...)
}

// Observe 只计数不记录
func (s *Sink) Observe(kind Kind) {
	if s == nil {
		return
	}
	s.count(kind)
}

func (s *Sink) count(kind Kind) {
	if kind < numKinds {
		s.counters[kind].Add(1)
	}
}

func (s *Sink) remember(key failureKey, now time.Time) {
	f, ok := s.recent.Get(key)
	if !ok {
		f = &failure{first: now}
		if prev, found, _ := s.recent.PeekOrAdd(key, f); found {
			f = prev
		}
	}
	f.mu.Lock()
	f.count++
	f.last = now
	f.mu.Unlock()
}

// Count 返回某类别的累计次数
func (s *Sink) Count(kind Kind) int64 {
	if s == nil || kind >= numKinds {
		return 0
	}
	return s.counters[kind].Load()
}

// Dropped 返回被限流丢弃的诊断日志行数
func (s *Sink) Dropped() int64 {
	if s == nil {
		return 0
	}
	return s.dropped.Load()
}

// Snapshot 返回当前状态
func (s *Sink) Snapshot() Snapshot {
	snap := Snapshot{Counts: make(map[string]int64, numKinds)}
	if s == nil {
		return snap
	}
	for _, k := range Kinds() {
		snap.Counts[k.String()] = s.counters[k].Load()
	}
	snap.Dropped = s.dropped.Load()

	for _, key := range s.recent.Keys() {
		f, ok := s.recent.Peek(key)
		if !ok {
			continue
		}
		f.mu.Lock()
		snap.Recent = append(snap.Recent, Failure{
			Kind:    key.kind,
			Message: key.msg,
			Count:   f.count,
			First:   f.first,
			Last:    f.last,
		})
		f.mu.Unlock()
	}
	slices.SortStableFunc(snap.Recent, func(a, b Failure) int {
		return b.Last.Compare(a.Last)
	})
	return snap
}
