package xinstrument

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xkey"
)

// OTelRegistry 基于 OpenTelemetry metric.Meter 的注册表
//
// 每个指标族对应一个 OTel 实例（Int64Counter 或 Float64Histogram），
// 每个键对应一个预先构建的 attribute.Set，热路径上不再分配属性切片。
type OTelRegistry struct {
	meter metric.Meter

	mu         sync.Mutex
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
}

// NewOTelRegistry 创建 OTel 注册表
func NewOTelRegistry(meter metric.Meter) (*OTelRegistry, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	return &OTelRegistry{
		meter:      meter,
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
	}, nil
}

// Counter 实现 Registry
func (r *OTelRegistry) Counter(key xkey.Key) (Counter, error) {
	if err := checkKind(key, xkey.KindCounter); err != nil {
		return nil, err
	}
	inst, err := r.counter(key.Family())
	if err != nil {
		return nil, err
	}
	return &otelCounter{inst: inst, opts: []metric.AddOption{attributeOption(key)}}, nil
}

// Timer 实现 Registry，耗时以秒为单位记录
func (r *OTelRegistry) Timer(key xkey.Key) (Timer, error) {
	if err := checkKind(key, xkey.KindTimer); err != nil {
		return nil, err
	}
	f := key.Family()
	if f.Unit == "" {
		f.Unit = "s"
	}
	inst, err := r.histogram(f)
	if err != nil {
		return nil, err
	}
	return &otelTimer{inst: inst, opts: []metric.RecordOption{attributeOption(key)}}, nil
}

// Histogram 实现 Registry
func (r *OTelRegistry) Histogram(key xkey.Key) (Histogram, error) {
	if err := checkKind(key, xkey.KindHistogram); err != nil {
		return nil, err
	}
	inst, err := r.histogram(key.Family())
	if err != nil {
		return nil, err
	}
	return &otelHistogram{inst: inst, opts: []metric.RecordOption{attributeOption(key)}}, nil
}

func (r *OTelRegistry) counter(f xkey.Family) (metric.Int64Counter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[f.Name]; ok {
		return c, nil
	}
	var opts []metric.Int64CounterOption
	for _, o := range instrumentOptions(f) {
		opts = append(opts, o)
	}
	c, err := r.meter.Int64Counter(f.Name, opts...)
	if err != nil {
		return nil, fmt.Errorf("xinstrument: create counter %s: %w", f.Name, err)
	}
	r.counters[f.Name] = c
	return c, nil
}

func (r *OTelRegistry) histogram(f xkey.Family) (metric.Float64Histogram, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.histograms[f.Name]; ok {
		return h, nil
	}
	var opts []metric.Float64HistogramOption
	for _, o := range instrumentOptions(f) {
		opts = append(opts, o)
	}
	h, err := r.meter.Float64Histogram(f.Name, opts...)
	if err != nil {
		return nil, fmt.Errorf("xinstrument: create histogram %s: %w", f.Name, err)
	}
	r.histograms[f.Name] = h
	return h, nil
}

// instrumentOptions 把指标族元数据转换为 OTel 实例选项
func instrumentOptions(f xkey.Family) []metric.InstrumentOption {
	var opts []metric.InstrumentOption
	if f.Description != "" {
		opts = append(opts, metric.WithDescription(f.Description))
	}
	if f.Unit != "" {
		opts = append(opts, metric.WithUnit(f.Unit))
	}
	return opts
}

func attributeOption(key xkey.Key) metric.MeasurementOption {
	tags := key.Tags()
	kvs := make([]attribute.KeyValue, len(tags))
	for i, t := range tags {
		kvs[i] = attribute.String(t.Key, t.Value)
	}
	return metric.WithAttributeSet(attribute.NewSet(kvs...))
}

// 句柄使用不可取消的 Background context：记录发生在日志调用内部，没有请求 context 可用。
// 选项切片在注册时构建，更新路径不分配。

type otelCounter struct {
	inst metric.Int64Counter
	opts []metric.AddOption
}

func (c *otelCounter) Add(n int64) {
	c.inst.Add(context.Background(), n, c.opts...)
}

type otelTimer struct {
	inst metric.Float64Histogram
	opts []metric.RecordOption
}

func (t *otelTimer) Record(d time.Duration) {
	t.inst.Record(context.Background(), d.Seconds(), t.opts...)
}

type otelHistogram struct {
	inst metric.Float64Histogram
	opts []metric.RecordOption
}

func (h *otelHistogram) Observe(v float64) {
	h.inst.Record(context.Background(), v, h.opts...)
}

var _ Registry = (*OTelRegistry)(nil)
