package montop

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPrometheusServer(t *testing.T, queries *[]string) *PrometheusService {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/query", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		query := r.Form.Get("query")
		if queries != nil {
			*queries = append(*queries, query)
		}
		w.Header().Set("Content-Type", "application/json")
		switch query {
		case `node_cpu_seconds_total{monitor_id="7"}`:
			_, _ = w.Write([]byte(`{"status":"success","data":{"resultType":"vector","result":[
				{"metric":{"__name__":"node_cpu_seconds_total","monitor_id":"7","cpu":"1","mode":"idle"},"value":[1700000001.5,"42.5"]},
				{"metric":{"__name__":"node_cpu_seconds_total","monitor_id":"7","cpu":"0","mode":"idle"},"value":[1700000000,"100"]}
			]}}`))
		case `scalar_metric{monitor_id="7"}`:
			_, _ = w.Write([]byte(`{"status":"success","data":{"resultType":"scalar","result":[1700000000,"1"]}}`))
		default:
			_, _ = w.Write([]byte(`{"status":"success","data":{"resultType":"vector","result":[]}}`))
		}
	})
	mux.HandleFunc("/api/v1/series", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","data":[
			{"__name__":"up","job":"node","instance":"10.0.0.5:9100","monitor_id":"7"},
			{"__name__":"node_load1","job":"node","instance":"10.0.0.5:9100","monitor_id":"7"},
			{"__name__":"up","job":"node","instance":"10.0.0.5:9100","monitor_id":"7"}
		]}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	p, err := NewPrometheusService(u, "", zap.NewNop().Sugar())
	require.NoError(t, err)
	return p
}

func TestPrometheus_FetchMetrics(t *testing.T) {
	var queries []string
	p := newPrometheusServer(t, &queries)

	resp, err := p.FetchMetrics(context.Background(), 7, "node_cpu_seconds_total")
	require.NoError(t, err)
	require.True(t, resp.Succeeded())
	assert.Contains(t, queries, `node_cpu_seconds_total{monitor_id="7"}`)

	data := resp.Data
	assert.Equal(t, []Field{
		{Name: "cpu", Type: FieldTypeString, Label: true},
		{Name: "mode", Type: FieldTypeString, Label: true},
		{Name: "value", Type: FieldTypeNumber},
	}, data.Fields)
	require.Len(t, data.ValueRows, 2)
	assert.Equal(t, []string{"0", "idle", "100"}, data.ValueRows[0].Origins())
	assert.Equal(t, []string{"1", "idle", "42.5"}, data.ValueRows[1].Origins())
	assert.Equal(t, map[string]string{"cpu": "1", "mode": "idle"}, data.ValueRows[1].Labels)
	assert.Equal(t, int64(1700000001500), data.Time)
}

func TestPrometheus_EmptyResult(t *testing.T) {
	p := newPrometheusServer(t, nil)

	resp, err := p.FetchMetrics(context.Background(), 7, "missing")
	require.NoError(t, err)
	require.True(t, resp.Succeeded())
	assert.Empty(t, resp.Data.ValueRows)
	assert.Equal(t, []Field{{Name: "value", Type: FieldTypeNumber}}, resp.Data.Fields)
}

func TestPrometheus_NonVectorResult(t *testing.T) {
	p := newPrometheusServer(t, nil)

	resp, err := p.FetchMetrics(context.Background(), 7, "scalar_metric")
	require.NoError(t, err)
	assert.Equal(t, CodeFail, resp.Code)
	assert.Contains(t, resp.Msg, "scalar")
}

func TestPrometheus_DescribeMonitor(t *testing.T) {
	p := newPrometheusServer(t, nil)

	m, err := p.DescribeMonitor(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "node", m.Name)
	assert.Equal(t, "10.0.0.5", m.Host)
	assert.Equal(t, 9100, m.Port)
	assert.Equal(t, []string{"node_load1", "up"}, m.Metrics)
}

func TestPrometheus_Check(t *testing.T) {
	p := newPrometheusServer(t, nil)
	assert.NoError(t, p.Check(context.Background()))
}

func TestPrometheus_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	u, _ := url.Parse(srv.URL)
	srv.Close()

	p, err := NewPrometheusService(u, "instance_id", zap.NewNop().Sugar())
	require.NoError(t, err)
	_, err = p.FetchMetrics(context.Background(), 1, "up")
	assert.True(t, IsTransportError(err))
}
