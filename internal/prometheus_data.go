package montop

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"go.uber.org/zap"
)

// PrometheusService treats a metric name as a metric-set and the monitor id
// as the value of an identifying label
type PrometheusService struct {
	client  api.Client
	url     *url.URL
	idLabel string
	log     *zap.SugaredLogger
}

func NewPrometheusService(prometheusURL *url.URL, idLabel string, log *zap.SugaredLogger) (*PrometheusService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus client: %w", err)
	}
	if idLabel == "" {
		idLabel = "monitor_id"
	}

	return &PrometheusService{
		client:  client,
		url:     prometheusURL,
		idLabel: idLabel,
		log:     log,
	}, nil
}

func (p *PrometheusService) Type() string {
	return "prometheus"
}

func (p *PrometheusService) Check(ctx context.Context) error {
	v1api := v1.NewAPI(p.client)

	// Test basic Prometheus API connectivity
	_, warnings, err := v1api.Query(ctx, "up", time.Now())
	if err != nil {
		return transportErr("prometheus check", err)
	}
	if len(warnings) > 0 {
		p.log.Warnw("prometheus warnings", "warnings", warnings)
	}
	return nil
}

func (p *PrometheusService) selector(id int64) string {
	return fmt.Sprintf(`{%s="%d"}`, p.idLabel, id)
}

func (p *PrometheusService) FetchMetrics(ctx context.Context, id int64, metrics string) (*Response, error) {
	v1api := v1.NewAPI(p.client)
	query := metrics + p.selector(id)
	result, warnings, err := v1api.Query(ctx, query, time.Now())
	if err != nil {
		return nil, transportErr("prometheus query", err)
	}
	if len(warnings) > 0 {
		p.log.Warnw("prometheus warnings", "query", query, "warnings", warnings)
	}

	vector, ok := result.(model.Vector)
	if !ok {
		return failResponse(CodeFail, fmt.Sprintf("unsupported result type %s", result.Type())), nil
	}
	return successResponse(p.vectorToData(id, metrics, vector)), nil
}

func (p *PrometheusService) vectorToData(id int64, metrics string, vector model.Vector) *MetricsData {
	// label names shared by the series become label fields
	seen := make(map[model.LabelName]bool)
	for _, sample := range vector {
		for name := range sample.Metric {
			if name == model.MetricNameLabel || string(name) == p.idLabel {
				continue
			}
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, string(name))
	}
	sort.Strings(names)

	data := &MetricsData{ID: id, Metrics: metrics}
	for _, name := range names {
		data.Fields = append(data.Fields, Field{Name: name, Type: FieldTypeString, Label: true})
	}
	data.Fields = append(data.Fields, Field{Name: "value", Type: FieldTypeNumber})

	sort.Slice(vector, func(i, j int) bool {
		return vector[i].Metric.String() < vector[j].Metric.String()
	})
	for _, sample := range vector {
		row := ValueRow{Labels: make(map[string]string, len(names))}
		for _, name := range names {
			v := string(sample.Metric[model.LabelName(name)])
			row.Labels[name] = v
			row.Values = append(row.Values, Value{Origin: v})
		}
		row.Values = append(row.Values, Value{Origin: strconv.FormatFloat(float64(sample.Value), 'f', -1, 64)})
		data.ValueRows = append(data.ValueRows, row)
		if ts := int64(sample.Timestamp); ts > data.Time {
			data.Time = ts
		}
	}
	return data
}

func (p *PrometheusService) DescribeMonitor(ctx context.Context, id int64) (*Monitor, error) {
	v1api := v1.NewAPI(p.client)
	end := time.Now()
	series, warnings, err := v1api.Series(ctx, []string{p.selector(id)}, end.Add(-5*time.Minute), end)
	if err != nil {
		return nil, transportErr("prometheus series", err)
	}
	if len(warnings) > 0 {
		p.log.Warnw("prometheus warnings", "warnings", warnings)
	}

	m := &Monitor{ID: id, App: p.Type()}
	names := make(map[string]bool)
	for _, set := range series {
		names[string(set[model.MetricNameLabel])] = true
		if m.Name == "" {
			m.Name = string(set["job"])
		}
		if m.Host == "" {
			if host, port, err := net.SplitHostPort(string(set["instance"])); err == nil {
				m.Host = host
				m.Port, _ = strconv.Atoi(port)
			}
		}
	}
	for name := range names {
		m.Metrics = append(m.Metrics, name)
	}
	sort.Strings(m.Metrics)
	return m, nil
}
