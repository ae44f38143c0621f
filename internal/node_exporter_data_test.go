package montop

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exposition = `# HELP node_load1 1m load average.
# TYPE node_load1 gauge
node_load1 0.42
# HELP node_cpu_seconds_total Seconds the CPUs spent in each mode.
# TYPE node_cpu_seconds_total counter
node_cpu_seconds_total{cpu="0",mode="idle"} 1000.5
node_cpu_seconds_total{cpu="0",mode="user"} 20
node_cpu_seconds_total{cpu="1",mode="idle"} 990
# HELP http_request_duration_seconds Request latency.
# TYPE http_request_duration_seconds summary
http_request_duration_seconds{quantile="0.5"} 0.05
http_request_duration_seconds_sum 12.5
http_request_duration_seconds_count 250
`

func newNodeExporterServer(t *testing.T) (*NodeExporterService, *url.URL) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/metrics" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = w.Write([]byte(exposition))
	}))
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL + "/metrics")
	require.NoError(t, err)
	n, err := NewNodeExporterService([]*url.URL{u}, 2*time.Second)
	require.NoError(t, err)
	return n, u
}

func TestNodeExporter_CounterFamily(t *testing.T) {
	n, _ := newNodeExporterServer(t)

	resp, err := n.FetchMetrics(context.Background(), 1, "node_cpu_seconds_total")
	require.NoError(t, err)
	require.True(t, resp.Succeeded())

	data := resp.Data
	assert.Equal(t, []Field{
		{Name: "cpu", Type: FieldTypeString, Label: true},
		{Name: "mode", Type: FieldTypeString, Label: true},
		{Name: "value", Type: FieldTypeNumber},
	}, data.Fields)
	require.Len(t, data.ValueRows, 3)
	assert.Equal(t, []string{"0", "idle", "1000.5"}, data.ValueRows[0].Origins())
	assert.Equal(t, map[string]string{"cpu": "1", "mode": "idle"}, data.ValueRows[2].Labels)
}

func TestNodeExporter_GaugeHasSingleRow(t *testing.T) {
	n, _ := newNodeExporterServer(t)

	resp, err := n.FetchMetrics(context.Background(), 1, "node_load1")
	require.NoError(t, err)
	require.Len(t, resp.Data.ValueRows, 1)
	assert.Equal(t, []string{"0.42"}, resp.Data.ValueRows[0].Origins())
}

func TestNodeExporter_SummaryFamily(t *testing.T) {
	n, _ := newNodeExporterServer(t)

	resp, err := n.FetchMetrics(context.Background(), 1, "http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, []Field{
		{Name: "count", Type: FieldTypeNumber},
		{Name: "sum", Type: FieldTypeNumber},
	}, resp.Data.Fields)
	require.Len(t, resp.Data.ValueRows, 1)
	assert.Equal(t, []string{"250", "12.5"}, resp.Data.ValueRows[0].Origins())
}

func TestFamilyToData_NewestTimestamp(t *testing.T) {
	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(strings.NewReader(`# TYPE node_load1 gauge
node_load1{cpu="0"} 1 1700000002000
node_load1{cpu="1"} 2 1700000001000
node_load1{cpu="2"} 3
`))
	require.NoError(t, err)

	data := familyToData(1, "node", families["node_load1"])
	assert.Equal(t, int64(1700000002000), data.Time)
	assert.Len(t, data.ValueRows, 3)
}

func TestNodeExporter_NotFound(t *testing.T) {
	n, _ := newNodeExporterServer(t)

	resp, err := n.FetchMetrics(context.Background(), 1, "node_missing")
	require.NoError(t, err)
	assert.Equal(t, CodeMetricsNotFound, resp.Code)

	resp, err = n.FetchMetrics(context.Background(), 2, "node_load1")
	require.NoError(t, err)
	assert.Equal(t, CodeMonitorNotFound, resp.Code)
}

func TestNodeExporter_DescribeMonitor(t *testing.T) {
	n, u := newNodeExporterServer(t)

	m, err := n.DescribeMonitor(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, u.Host, m.Name)
	assert.Equal(t, "node_exporter", m.App)
	assert.Equal(t, []string{"http_request_duration_seconds", "node_cpu_seconds_total", "node_load1"}, m.Metrics)
	assert.NotZero(t, m.Port)

	_, err = n.DescribeMonitor(context.Background(), 3)
	assert.Error(t, err)
}

func TestNodeExporter_BadEndpoint(t *testing.T) {
	n, u := newNodeExporterServer(t)
	bad := *u
	bad.Path = "/nope"
	n.targets = append(n.targets, &bad)

	_, err := n.FetchMetrics(context.Background(), 2, "node_load1")
	assert.True(t, IsTransportError(err))
	assert.NoError(t, n.Check(context.Background()))
}

func TestNodeExporter_RequiresTargets(t *testing.T) {
	_, err := NewNodeExporterService(nil, time.Second)
	assert.Error(t, err)
}
