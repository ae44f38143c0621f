package montop

import (
	"context"
	"net"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DetectedSource holds a reachable backend and its display name
type DetectedSource struct {
	Service Service
	Name    string
}

// Default ports of the supported backends
var (
	hertzbeatPorts    = []string{"1157"}
	prometheusPorts   = []string{"9090"}
	nodeExporterPorts = []string{"9100"}
	fallbackPorts     = []string{"443", "80"}
)

// TryConnectWithFallbacks tries URL variants of baseURL against every
// backend kind and returns each kind that answered, in preference order
// hertzbeat, prometheus, node_exporter
func TryConnectWithFallbacks(ctx context.Context, baseURL *url.URL, cfg Config, log *zap.SugaredLogger) []DetectedSource {
	var detected []DetectedSource

	probe := func(kind string, ports []string, build func(*url.URL) (Service, error)) {
		for _, variant := range generateURLVariants(baseURL, ports) {
			log.Debugw("trying backend", "backend", kind, "url", variant.String())
			svc, err := build(variant)
			if err != nil {
				log.Debugw("failed to create client", "backend", kind, "error", err)
				continue
			}
			checkCtx, cancel := context.WithTimeout(ctx, checkTimeout(cfg))
			err = svc.Check(checkCtx)
			cancel()
			if err != nil {
				log.Debugw("check failed", "backend", kind, "url", variant.String(), "error", err)
				continue
			}
			log.Infow("found backend", "backend", kind, "url", variant.String())
			detected = append(detected, DetectedSource{Service: svc, Name: variant.Host})
			return
		}
	}

	probe("hertzbeat", hertzbeatPorts, func(u *url.URL) (Service, error) {
		return NewHertzbeatService(u, cfg.Token, cfg.Timeout), nil
	})
	probe("prometheus", prometheusPorts, func(u *url.URL) (Service, error) {
		return NewPrometheusService(u, cfg.IDLabel, log)
	})
	probe("node_exporter", nodeExporterPorts, func(u *url.URL) (Service, error) {
		return NewNodeExporterService([]*url.URL{u}, cfg.Timeout)
	})

	return detected
}

func checkTimeout(cfg Config) time.Duration {
	if cfg.Timeout > 0 && cfg.Timeout < 5*time.Second {
		return cfg.Timeout
	}
	return 5 * time.Second
}

// generateURLVariants creates the URL combinations to try for one backend
func generateURLVariants(base *url.URL, defaultPorts []string) []*url.URL {
	var variants []*url.URL
	hostname := base.Hostname()
	path := base.Path

	// Schemes to try: prefer HTTPS, fallback to HTTP
	schemes := []string{"https", "http"}
	if base.Scheme == "http" {
		schemes = []string{"http", "https"}
	}

	// Use the specified port first, then the backend default, then the web ports
	var ports []string
	if p := base.Port(); p != "" {
		ports = append(ports, p)
	}
	ports = append(ports, defaultPorts...)
	ports = append(ports, fallbackPorts...)

	seen := make(map[string]bool)
	uniquePorts := []string{}
	for _, p := range ports {
		if !seen[p] {
			seen[p] = true
			uniquePorts = append(uniquePorts, p)
		}
	}

	paths := []string{path}
	if path == "" || path == "/" {
		paths = []string{"", "/metrics"}
	}

	for _, scheme := range schemes {
		for _, p := range uniquePorts {
			for _, urlPath := range paths {
				variants = append(variants, &url.URL{
					Scheme: scheme,
					Host:   net.JoinHostPort(hostname, p),
					Path:   urlPath,
				})
			}
		}
	}

	return variants
}
