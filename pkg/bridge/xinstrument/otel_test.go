package xinstrument

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xkey"
	"github.com/omeyang/xlogmetrics/pkg/bridge/xtags"
)

// newTestMeterProvider 创建用于测试的 MeterProvider
func newTestMeterProvider(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func TestNewOTelRegistry_NilMeter(t *testing.T) {
	_, err := NewOTelRegistry(nil)
	assert.ErrorIs(t, err, ErrNilMeter)
}

func TestOTelRegistry_Counter(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	reg, err := NewOTelRegistry(mp.Meter("test"))
	require.NoError(t, err)

	family := xkey.Family{Name: "log.events", Description: "log events", Unit: "{event}", Kind: xkey.KindCounter}
	key := xkey.NewKey(family, xtags.TagSet{
		{Key: "exception", Value: "TimeoutError"},
		{Key: "level", Value: "error"},
		{Key: "logger", Value: "app.db"},
	})
	c, err := reg.Counter(key)
	require.NoError(t, err)
	c.Add(1)
	c.Add(2)

	m, ok := findMetric(collect(t, reader), "log.events")
	require.True(t, ok)
	assert.Equal(t, "log events", m.Description)
	assert.Equal(t, "{event}", m.Unit)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	dp := sum.DataPoints[0]
	assert.Equal(t, int64(3), dp.Value)
	v, ok := dp.Attributes.Value(attribute.Key("exception"))
	assert.True(t, ok)
	assert.Equal(t, "TimeoutError", v.AsString())
}

func TestOTelRegistry_TimerAndHistogram(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	reg, err := NewOTelRegistry(mp.Meter("test"))
	require.NoError(t, err)

	tags := xtags.TagSet{{Key: "level", Value: "info"}}
	timer, err := reg.Timer(xkey.NewKey(xkey.Family{Name: "log.event.duration", Kind: xkey.KindTimer}, tags))
	require.NoError(t, err)
	timer.Record(250 * time.Millisecond)

	hist, err := reg.Histogram(xkey.NewKey(xkey.Family{Name: "log.attr.bytes", Kind: xkey.KindHistogram}, tags))
	require.NoError(t, err)
	hist.Observe(42)
	hist.Observe(8)

	rm := collect(t, reader)

	m, ok := findMetric(rm, "log.event.duration")
	require.True(t, ok)
	assert.Equal(t, "s", m.Unit)
	h, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, h.DataPoints, 1)
	assert.InDelta(t, 0.25, h.DataPoints[0].Sum, 1e-9)

	m, ok = findMetric(rm, "log.attr.bytes")
	require.True(t, ok)
	h, ok = m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Equal(t, uint64(2), h.DataPoints[0].Count)
	assert.InDelta(t, 50.0, h.DataPoints[0].Sum, 1e-9)
}

func TestOTelRegistry_KindMismatch(t *testing.T) {
	mp, _ := newTestMeterProvider(t)
	reg, err := NewOTelRegistry(mp.Meter("test"))
	require.NoError(t, err)

	key := xkey.NewKey(xkey.Family{Name: "log.events", Kind: xkey.KindCounter}, nil)
	_, err = reg.Timer(key)
	assert.ErrorIs(t, err, ErrKindMismatch)

	var kerr *KindError
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, xkey.KindTimer, kerr.Want)
	assert.Equal(t, xkey.KindCounter, kerr.Got)
}

func TestOTelRegistry_SharesInstrumentPerFamily(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	reg, err := NewOTelRegistry(mp.Meter("test"))
	require.NoError(t, err)

	for _, l := range []string{"a", "b"} {
		c, err := reg.Counter(testKey(l))
		require.NoError(t, err)
		c.Add(1)
	}
	assert.Len(t, reg.counters, 1)

	m, ok := findMetric(collect(t, reader), "log.events")
	require.True(t, ok)
	assert.Len(t, m.Data.(metricdata.Sum[int64]).DataPoints, 2)
}
