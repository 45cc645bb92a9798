package xinstrument

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xkey"
)

// PrometheusOption Prometheus 注册表配置选项
type PrometheusOption func(*PrometheusRegistry)

// WithBuckets 设置 Histogram 指标族的桶边界，默认 prometheus.DefBuckets
func WithBuckets(buckets []float64) PrometheusOption {
	return func(r *PrometheusRegistry) {
		if len(buckets) > 0 {
			r.buckets = buckets
		}
	}
}

// WithTimerBuckets 设置 Timer 指标族的桶边界（单位秒）
func WithTimerBuckets(buckets []float64) PrometheusOption {
	return func(r *PrometheusRegistry) {
		if len(buckets) > 0 {
			r.timerBuckets = buckets
		}
	}
}

// PrometheusRegistry 基于 prometheus.Registerer 的注册表
//
// Prometheus 要求同名指标的 label 集合固定，因此构造时声明全部 label 名称
// （通常取 xtags.Extractor.TagKeys()）。键中缺少的 label 取空字符串，
// 出现未声明的 label 时返回 ErrUnknownLabel。
//
// 命名规则：点号等非法字符替换为下划线；Counter 追加 "_total"，Timer 追加 "_seconds"。
type PrometheusRegistry struct {
	reg          prometheus.Registerer
	labels       []string       // 规范化后的 label 名称，与构造参数顺序一致
	index        map[string]int // 原始标签 key -> labels 下标
	buckets      []float64
	timerBuckets []float64

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheusRegistry 创建 Prometheus 注册表
func NewPrometheusRegistry(reg prometheus.Registerer, labelNames []string, opts ...PrometheusOption) (*PrometheusRegistry, error) {
	if reg == nil {
		return nil, ErrNilRegisterer
	}
	r := &PrometheusRegistry{
		reg:          reg,
		labels:       make([]string, 0, len(labelNames)),
		index:        make(map[string]int, len(labelNames)),
		buckets:      prometheus.DefBuckets,
		timerBuckets: prometheus.DefBuckets,
		counters:     make(map[string]*prometheus.CounterVec),
		histograms:   make(map[string]*prometheus.HistogramVec),
	}
	seen := make(map[string]struct{}, len(labelNames))
	for _, name := range labelNames {
		label := SanitizeName(name)
		if name == "" {
			return nil, fmt.Errorf("%w: empty", ErrInvalidLabel)
		}
		if _, dup := seen[label]; dup {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLabel, name)
		}
		seen[label] = struct{}{}
		r.index[name] = len(r.labels)
		r.labels = append(r.labels, label)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Counter 实现 Registry
func (r *PrometheusRegistry) Counter(key xkey.Key) (Counter, error) {
	if err := checkKind(key, xkey.KindCounter); err != nil {
		return nil, err
	}
	values, err := r.labelValues(key)
	if err != nil {
		return nil, err
	}
	vec, err := r.counterVec(key.Family())
	if err != nil {
		return nil, err
	}
	c, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		return nil, fmt.Errorf("xinstrument: counter %s: %w", key.Family().Name, err)
	}
	return promCounter{c: c}, nil
}

// Timer 实现 Registry
func (r *PrometheusRegistry) Timer(key xkey.Key) (Timer, error) {
	if err := checkKind(key, xkey.KindTimer); err != nil {
		return nil, err
	}
	o, err := r.observer(key, r.timerBuckets)
	if err != nil {
		return nil, err
	}
	return promTimer{o: o}, nil
}

// Histogram 实现 Registry
func (r *PrometheusRegistry) Histogram(key xkey.Key) (Histogram, error) {
	if err := checkKind(key, xkey.KindHistogram); err != nil {
		return nil, err
	}
	o, err := r.observer(key, r.buckets)
	if err != nil {
		return nil, err
	}
	return promHistogram{o: o}, nil
}

func (r *PrometheusRegistry) observer(key xkey.Key, buckets []float64) (prometheus.Observer, error) {
	values, err := r.labelValues(key)
	if err != nil {
		return nil, err
	}
	vec, err := r.histogramVec(key.Family(), buckets)
	if err != nil {
		return nil, err
	}
	o, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		return nil, fmt.Errorf("xinstrument: histogram %s: %w", key.Family().Name, err)
	}
	return o, nil
}

func (r *PrometheusRegistry) labelValues(key xkey.Key) ([]string, error) {
	values := make([]string, len(r.labels))
	for _, t := range key.Tags() {
		i, ok := r.index[t.Key]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLabel, t.Key)
		}
		values[i] = t.Value
	}
	return values, nil
}

func (r *PrometheusRegistry) counterVec(f xkey.Family) (*prometheus.CounterVec, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.counters[f.Name]; ok {
		return v, nil
	}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricName(f),
		Help: help(f),
	}, r.labels)
	if err := r.reg.Register(vec); err != nil {
		existing, err := reuseCollector[*prometheus.CounterVec](err)
		if err != nil {
			return nil, fmt.Errorf("xinstrument: register %s: %w", MetricName(f), err)
		}
		vec = existing
	}
	r.counters[f.Name] = vec
	return vec, nil
}

func (r *PrometheusRegistry) histogramVec(f xkey.Family, buckets []float64) (*prometheus.HistogramVec, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.histograms[f.Name]; ok {
		return v, nil
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    MetricName(f),
		Help:    help(f),
		Buckets: buckets,
	}, r.labels)
	if err := r.reg.Register(vec); err != nil {
		existing, err := reuseCollector[*prometheus.HistogramVec](err)
		if err != nil {
			return nil, fmt.Errorf("xinstrument: register %s: %w", MetricName(f), err)
		}
		vec = existing
	}
	r.histograms[f.Name] = vec
	return vec, nil
}

// reuseCollector 在同名 collector 已注册时返回已有实例
//
// 同一进程内重建桥接器（如测试或配置重载）会重复注册同名指标。
func reuseCollector[C prometheus.Collector](err error) (C, error) {
	var zero C
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return zero, err
	}
	existing, ok := are.ExistingCollector.(C)
	if !ok {
		return zero, ErrIncompatibleCollector
	}
	return existing, nil
}

// MetricName 返回指标族在 Prometheus 中的名称
func MetricName(f xkey.Family) string {
	name := SanitizeName(f.Name)
	switch f.Kind {
	case xkey.KindCounter:
		if !strings.HasSuffix(name, "_total") {
			name += "_total"
		}
	case xkey.KindTimer:
		if !strings.HasSuffix(name, "_seconds") {
			name += "_seconds"
		}
	}
	return name
}

// SanitizeName 把任意名称转换为合法的 Prometheus 指标/label 名称
//
// 合法字符为 [a-zA-Z0-9_]，首字符不能是数字；其余字符替换为下划线。
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 1)
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
			b.WriteByte(c)
		case c >= '0' && c <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func help(f xkey.Family) string {
	if f.Description != "" {
		return f.Description
	}
	return "Derived from log events: " + f.Name
}

type promCounter struct{ c prometheus.Counter }

func (p promCounter) Add(n int64) {
	if n > 0 {
		p.c.Add(float64(n))
	}
}

type promTimer struct{ o prometheus.Observer }

func (p promTimer) Record(d time.Duration) { p.o.Observe(d.Seconds()) }

type promHistogram struct{ o prometheus.Observer }

func (p promHistogram) Observe(v float64) { p.o.Observe(v) }

var _ Registry = (*PrometheusRegistry)(nil)
