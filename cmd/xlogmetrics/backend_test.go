package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xbridge"
	"github.com/omeyang/xlogmetrics/pkg/bridge/xevent"
	"github.com/omeyang/xlogmetrics/pkg/bridge/xsink"
	"github.com/omeyang/xlogmetrics/pkg/lifecycle/xrun"
)

func newQuietBridge(t *testing.T, be *backend) *xbridge.Bridge {
	t.Helper()
	cfg := xbridge.DefaultConfig()
	cfg.Diagnostics.Output = xsink.OutputDiscard
	b, err := xbridge.New(cfg, be.registry)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestPrometheusBackend_Handler(t *testing.T) {
	be, err := newBackend("prom", xbridge.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = be.close() })

	b := newQuietBridge(t, be)
	b.Record(&xevent.Event{Level: xevent.LevelWarn, Logger: "svc"})

	srv := httptest.NewServer(be.handler)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `level="warn",logger="svc"} 1`)
}

func TestOTelBackend_Dump(t *testing.T) {
	be, err := newBackend("OTel", xbridge.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = be.close() })
	assert.Nil(t, be.handler)

	b := newQuietBridge(t, be)
	b.Record(&xevent.Event{Level: xevent.LevelError, Logger: "z"})
	b.Record(&xevent.Event{Level: xevent.LevelInfo, Logger: "a"})

	var buf bytes.Buffer
	require.NoError(t, be.dump(context.Background(), &buf))
	assert.Equal(t, "log.events{level=\"error\",logger=\"z\"} 1\nlog.events{level=\"info\",logger=\"a\"} 1\n", buf.String())
}

func TestListenMetrics_NilHandler(t *testing.T) {
	_, _, err := listenMetrics("127.0.0.1:0", nil)
	var usageErr *usageError
	assert.ErrorAs(t, err, &usageErr)
}

func TestListenMetrics(t *testing.T) {
	be, err := newBackend(backendPrometheus, xbridge.DefaultConfig())
	require.NoError(t, err)
	b := newQuietBridge(t, be)
	b.Record(&xevent.Event{Level: xevent.LevelInfo, Logger: "x"})

	srv, ln, err := listenMetrics("127.0.0.1:0", be.handler)
	require.NoError(t, err)
	g, _ := xrun.NewGroup(context.Background())
	g.Go("http", xrun.HTTPServer(srv, ln, time.Second))
	t.Cleanup(func() {
		g.Cancel(xrun.ErrStop)
		assert.NoError(t, g.Wait())
	})

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "log_events_total")
}
