package montop

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadConfig_Defaults(t *testing.T) {
	v := newViper()
	v.Set("server_url", "hertzbeat.lan:1157")
	v.Set("monitor_id", 42)

	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, BackendAuto, cfg.Backend)
	assert.Equal(t, "monitor_id", cfg.IDLabel)
	assert.Equal(t, UpdateDuration(), cfg.Refresh)
	assert.Equal(t, FetchTimeout(), cfg.Timeout)
	assert.Equal(t, int64(42), cfg.MonitorID)
}

func TestLoadConfig_Lists(t *testing.T) {
	v := newViper()
	v.Set("backend", "Local")
	v.Set("metrics", "cpu, memory")
	v.Set("favorites", []string{"memory"})

	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, BackendLocal, cfg.Backend)
	assert.Equal(t, []string{"cpu", "memory"}, cfg.Metrics)
	assert.Equal(t, []string{"memory"}, cfg.Favorites)
	assert.Equal(t, int64(1), cfg.MonitorID, "local has a single monitor")
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "montop.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: prometheus
server_url: http://prometheus.lan:9090
monitor_id: 7
id_label: instance_id
refresh: 30s
metrics:
  - up
  - node_load1
`), 0o600))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, BackendPrometheus, cfg.Backend)
	assert.Equal(t, "instance_id", cfg.IDLabel)
	assert.Equal(t, 30*time.Second, cfg.Refresh)
	assert.Equal(t, []string{"up", "node_load1"}, cfg.Metrics)

	d := cfg.Dashboard()
	assert.Equal(t, int64(7), d.MonitorID)
	assert.Equal(t, cfg.Metrics, d.Metrics)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		err  error
	}{
		{"missing id", Config{Backend: BackendHertzbeat, ServerURL: "x"}, ErrMissingMonitorID},
		{"missing url", Config{Backend: BackendAuto, MonitorID: 1}, ErrMissingServerURL},
		{"node_exporter urls", Config{Backend: BackendNodeExporter, MonitorID: 1, NodeExporterURL: []string{"x"}}, nil},
		{"node_exporter without url", Config{Backend: BackendNodeExporter, MonitorID: 1}, ErrMissingServerURL},
		{"local", Config{Backend: BackendLocal, MonitorID: 1}, nil},
		{"unknown", Config{Backend: "graphite", MonitorID: 1, ServerURL: "x"}, ErrUnknownBackend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestNewService_Explicit(t *testing.T) {
	log := zap.NewNop().Sugar()

	svc, err := NewService(context.Background(), Config{Backend: BackendLocal, MonitorID: 1}, log)
	require.NoError(t, err)
	assert.Equal(t, "local", svc.Type())

	svc, err = NewService(context.Background(), Config{Backend: BackendHertzbeat, ServerURL: "hb.lan:1157", MonitorID: 1}, log)
	require.NoError(t, err)
	assert.Equal(t, "hertzbeat", svc.Type())

	svc, err = NewService(context.Background(), Config{Backend: BackendNodeExporter, ServerURL: "localhost:9100/metrics", MonitorID: 1}, log)
	require.NoError(t, err)
	assert.Equal(t, "node_exporter", svc.Type())
}

func TestNewService_DetectsHertzbeat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code": 0}`))
	}))
	defer srv.Close()

	cfg := Config{Backend: BackendAuto, ServerURL: srv.URL, MonitorID: 1, Timeout: time.Second}
	svc, err := NewService(context.Background(), cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, "hertzbeat", svc.Type())
}

func TestParseURL(t *testing.T) {
	u, err := parseURL("prometheus.lan:9090")
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "prometheus.lan:9090", u.Host)

	u, err = parseURL("https://hb.lan")
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
}
