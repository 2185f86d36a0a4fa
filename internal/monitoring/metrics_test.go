package monitoring

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metricValue(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	if m.Counter != nil {
		return m.GetCounter().GetValue()
	}
	require.NotNil(t, m.Gauge, "expected counter or gauge")
	return m.GetGauge().GetValue()
}

func histogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, h.Write(&m))
	require.NotNil(t, m.Histogram)
	return m.GetHistogram().GetSampleCount()
}

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))

	m.BuildFinished(120*time.Millisecond, true)
	m.BuildFinished(80*time.Millisecond, false)
	m.PageCompiled(true)
	m.PageCompiled(true)
	m.PageCompiled(false)
	m.SetComponents(7)
	m.AssetsCopied(3)
	m.WatcherEvent("write")
	m.ClientConnected(true)
	m.ClientConnected(true)
	m.ClientConnected(false)
	m.ReloadBroadcast()

	assert.Equal(t, 1.0, metricValue(t, m.buildsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, metricValue(t, m.buildsTotal.WithLabelValues("failure")))
	assert.Equal(t, 2.0, metricValue(t, m.pagesTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, metricValue(t, m.pagesTotal.WithLabelValues("failure")))
	assert.Equal(t, 7.0, metricValue(t, m.components))
	assert.Equal(t, 3.0, metricValue(t, m.assetsCopied))
	assert.Equal(t, 1.0, metricValue(t, m.watcherEvents.WithLabelValues("write")))
	assert.Equal(t, 1.0, metricValue(t, m.wsClients))
	assert.Equal(t, 1.0, metricValue(t, m.reloadBroadcast))
	assert.Equal(t, uint64(2), histogramCount(t, m.buildDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.BuildFinished(time.Second, true)
		m.PageCompiled(false)
		m.SetComponents(1)
		m.AssetsCopied(1)
		m.WatcherEvent("create")
		m.ClientConnected(true)
		m.ReloadBroadcast()
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics(WithNamespace("site"))
	m.BuildFinished(time.Millisecond, true)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `site_builds_total{status="success"} 1`)
	assert.Contains(t, text, "site_build_duration_seconds_bucket")
	assert.True(t, strings.Contains(text, "go_goroutines"))
}
