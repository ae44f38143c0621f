package montop

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Backends
const (
	BackendAuto         = "auto"
	BackendHertzbeat    = "hertzbeat"
	BackendPrometheus   = "prometheus"
	BackendNodeExporter = "node_exporter"
	BackendLocal        = "local"
)

// Config is the resolved montop configuration
type Config struct {
	ServerURL       string        `mapstructure:"server_url"`
	Backend         string        `mapstructure:"backend"`
	Token           string        `mapstructure:"token"`
	IDLabel         string        `mapstructure:"id_label"`
	NodeExporterURL []string      `mapstructure:"node_exporter_url"`
	MonitorID       int64         `mapstructure:"monitor_id"`
	App             string        `mapstructure:"app"`
	Port            int           `mapstructure:"port"`
	Metrics         []string      `mapstructure:"metrics"`
	Favorites       []string      `mapstructure:"favorites"`
	Height          int           `mapstructure:"height"`
	Refresh         time.Duration `mapstructure:"refresh"`
	Timeout         time.Duration `mapstructure:"timeout"`
	LogFile         string        `mapstructure:"log_file"`
	Debug           bool          `mapstructure:"debug"`
}

// SetDefaults registers the default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend", BackendAuto)
	v.SetDefault("id_label", "monitor_id")
	v.SetDefault("refresh", UpdateDuration())
	v.SetDefault("timeout", FetchTimeout())
	v.SetDefault("height", 0)
}

// LoadConfig unmarshals and validates the configuration held by v
func LoadConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.Metrics = splitList(cfg.Metrics)
	cfg.Favorites = splitList(cfg.Favorites)
	cfg.NodeExporterURL = splitList(cfg.NodeExporterURL)
	if cfg.Backend == BackendLocal && cfg.MonitorID == 0 {
		cfg.MonitorID = 1
	}
	return cfg, cfg.Validate()
}

// splitList accepts both repeated values and comma separated ones, as
// environment variables arrive as a single string
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c Config) Validate() error {
	if c.MonitorID == 0 {
		return ErrMissingMonitorID
	}
	switch c.Backend {
	case BackendLocal:
		return nil
	case BackendNodeExporter:
		if len(c.NodeExporterURL) == 0 && c.ServerURL == "" {
			return ErrMissingServerURL
		}
		return nil
	case BackendAuto, BackendHertzbeat, BackendPrometheus:
		if c.ServerURL == "" {
			return ErrMissingServerURL
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
}

// Dashboard returns the part of the configuration the dashboard uses
func (c Config) Dashboard() DashboardConfig {
	return DashboardConfig{
		MonitorID: c.MonitorID,
		App:       c.App,
		Port:      c.Port,
		Height:    c.Height,
		Metrics:   c.Metrics,
		Favorites: c.Favorites,
		Refresh:   c.Refresh,
		Timeout:   c.Timeout,
	}
}

func parseURL(raw string) (*url.URL, error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", raw, err)
	}
	return u, nil
}

// NewService builds the backend selected by the configuration
func NewService(ctx context.Context, cfg Config, log *zap.SugaredLogger) (Service, error) {
	switch cfg.Backend {
	case BackendLocal:
		return LocalService{}, nil

	case BackendNodeExporter:
		raws := cfg.NodeExporterURL
		if len(raws) == 0 {
			raws = []string{cfg.ServerURL}
		}
		targets := make([]*url.URL, 0, len(raws))
		for _, raw := range raws {
			u, err := parseURL(raw)
			if err != nil {
				return nil, err
			}
			targets = append(targets, u)
		}
		return NewNodeExporterService(targets, cfg.Timeout)
	}

	u, err := parseURL(cfg.ServerURL)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendHertzbeat:
		return NewHertzbeatService(u, cfg.Token, cfg.Timeout), nil
	case BackendPrometheus:
		return NewPrometheusService(u, cfg.IDLabel, log)
	}

	detected := TryConnectWithFallbacks(ctx, u, cfg, log)
	if len(detected) == 0 {
		return nil, fmt.Errorf("%w at %s", ErrNoBackend, u.Host)
	}
	log.Infow("using backend", "backend", detected[0].Service.Type(), "source", detected[0].Name)
	return detected[0].Service, nil
}
