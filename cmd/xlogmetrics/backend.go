package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xbridge"
	"github.com/omeyang/xlogmetrics/pkg/bridge/xinstrument"
)

// 支持的指标后端。
const (
	backendPrometheus = "prometheus"
	backendOTel       = "otel"
)

// backend 指标后端及其输出方式。
type backend struct {
	registry xinstrument.Registry
	dump     func(ctx context.Context, w io.Writer) error
	handler  http.Handler
	close    func() error
}

// newBackend 按名称创建后端。
func newBackend(name string, cfg xbridge.Config) (*backend, error) {
	switch strings.ToLower(name) {
	case backendPrometheus, "prom":
		return newPrometheusBackend(cfg)
	case backendOTel, "opentelemetry":
		return newOTelBackend()
	default:
		return nil, newUsageError("unknown backend %q (prometheus/otel)", name)
	}
}

func newPrometheusBackend(cfg xbridge.Config) (*backend, error) {
	labels, err := cfg.TagKeys()
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	registry, err := xinstrument.NewPrometheusRegistry(reg, labels)
	if err != nil {
		return nil, err
	}
	return &backend{
		registry: registry,
		dump: func(_ context.Context, w io.Writer) error {
			mfs, err := reg.Gather()
			if err != nil {
				return err
			}
			return writeFamilies(w, mfs)
		},
		handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		close:   func() error { return nil },
	}, nil
}

// writeFamilies 以 Prometheus 文本格式输出，按名称排序。
func writeFamilies(w io.Writer, mfs []*dto.MetricFamily) error {
	slices.SortFunc(mfs, func(a, b *dto.MetricFamily) int {
		return strings.Compare(a.GetName(), b.GetName())
	})
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func newOTelBackend() (*backend, error) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	registry, err := xinstrument.NewOTelRegistry(mp.Meter("github.com/omeyang/xlogmetrics"))
	if err != nil {
		return nil, errors.Join(err, mp.Shutdown(context.Background()))
	}
	return &backend{
		registry: registry,
		dump: func(ctx context.Context, w io.Writer) error {
			var rm metricdata.ResourceMetrics
			if err := reader.Collect(ctx, &rm); err != nil {
				return err
			}
			return writeResourceMetrics(w, rm)
		},
		close: func() error { return mp.Shutdown(context.Background()) },
	}, nil
}

// writeResourceMetrics 以 "name{k="v",...} 值" 逐行输出，行按字典序排序。
func writeResourceMetrics(w io.Writer, rm metricdata.ResourceMetrics) error {
	var lines []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					lines = append(lines, fmt.Sprintf("%s%s %d", m.Name, formatAttrs(dp.Attributes), dp.Value))
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					lines = append(lines, fmt.Sprintf("%s%s count=%d sum=%g", m.Name, formatAttrs(dp.Attributes), dp.Count, dp.Sum))
				}
			}
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatAttrs(set attribute.Set) string {
	if set.Len() == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteByte('{')
	iter := set.Iter()
	for i := 0; iter.Next(); i++ {
		kv := iter.Attribute()
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%q", kv.Key, kv.Value.Emit())
	}
	b.WriteByte('}')
	return b.String()
}

// listenMetrics 在 addr 上监听并返回挂载 /metrics 的服务器，由调用方负责运行。
func listenMetrics(addr string, handler http.Handler) (*http.Server, net.Listener, error) {
	if handler == nil {
		return nil, nil, newUsageError("backend does not expose an HTTP handler")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	return &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}, ln, nil
}
