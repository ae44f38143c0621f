package montop

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// NodeExporterService scrapes node_exporter endpoints directly. Monitor ids
// are 1-based indexes into the configured targets and a metric-set is a
// metric family.
type NodeExporterService struct {
	client  *resty.Client
	targets []*url.URL
}

func NewNodeExporterService(targets []*url.URL, timeout time.Duration) (*NodeExporterService, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("at least one node_exporter url is required")
	}
	return &NodeExporterService{
		client:  resty.New().SetTimeout(timeout),
		targets: targets,
	}, nil
}

func (n *NodeExporterService) Type() string {
	return "node_exporter"
}

func (n *NodeExporterService) target(id int64) *url.URL {
	if id < 1 || int(id) > len(n.targets) {
		return nil
	}
	return n.targets[id-1]
}

func (n *NodeExporterService) scrape(ctx context.Context, target *url.URL) (map[string]*dto.MetricFamily, error) {
	resp, err := n.client.R().
		SetContext(ctx).
		Get(target.String())
	if err != nil {
		return nil, transportErr("scrape node_exporter", err)
	}
	if resp.IsError() {
		return nil, transportErr("scrape node_exporter", fmt.Errorf("unexpected status %d", resp.StatusCode()))
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, transportErr("parse node_exporter metrics", err)
	}
	return families, nil
}

func (n *NodeExporterService) Check(ctx context.Context) error {
	_, err := n.scrape(ctx, n.targets[0])
	return err
}

func (n *NodeExporterService) FetchMetrics(ctx context.Context, id int64, metrics string) (*Response, error) {
	target := n.target(id)
	if target == nil {
		return failResponse(CodeMonitorNotFound, fmt.Sprintf("no node_exporter target %d", id)), nil
	}
	families, err := n.scrape(ctx, target)
	if err != nil {
		return nil, err
	}
	family, ok := families[metrics]
	if !ok {
		return failResponse(CodeMetricsNotFound, fmt.Sprintf("metric family %s not found", metrics)), nil
	}
	return successResponse(familyToData(id, target.Hostname(), family)), nil
}

// valueFields returns the value columns of a family type
func valueFields(t dto.MetricType) []string {
	switch t {
	case dto.MetricType_SUMMARY, dto.MetricType_HISTOGRAM:
		return []string{"count", "sum"}
	default:
		return []string{"value"}
	}
}

func metricValues(t dto.MetricType, m *dto.Metric) []float64 {
	switch t {
	case dto.MetricType_COUNTER:
		return []float64{m.GetCounter().GetValue()}
	case dto.MetricType_GAUGE:
		return []float64{m.GetGauge().GetValue()}
	case dto.MetricType_SUMMARY:
		return []float64{float64(m.GetSummary().GetSampleCount()), m.GetSummary().GetSampleSum()}
	case dto.MetricType_HISTOGRAM:
		return []float64{float64(m.GetHistogram().GetSampleCount()), m.GetHistogram().GetSampleSum()}
	default:
		return []float64{m.GetUntyped().GetValue()}
	}
}

func familyToData(id int64, app string, family *dto.MetricFamily) *MetricsData {
	var labelNames []string
	for _, metric := range family.GetMetric() {
		for _, label := range metric.GetLabel() {
			if !slices.Contains(labelNames, label.GetName()) {
				labelNames = append(labelNames, label.GetName())
			}
		}
	}
	slices.Sort(labelNames)

	data := &MetricsData{ID: id, App: app, Metrics: family.GetName(), Time: time.Now().UnixMilli()}
	for _, name := range labelNames {
		data.Fields = append(data.Fields, Field{Name: name, Type: FieldTypeString, Label: true})
	}
	for _, name := range valueFields(family.GetType()) {
		data.Fields = append(data.Fields, Field{Name: name, Type: FieldTypeNumber})
	}

	stamped := false
	for _, metric := range family.GetMetric() {
		row := ValueRow{Labels: make(map[string]string, len(labelNames))}
		for _, label := range metric.GetLabel() {
			row.Labels[label.GetName()] = label.GetValue()
		}
		for _, name := range labelNames {
			row.Values = append(row.Values, Value{Origin: row.Labels[name]})
		}
		for _, v := range metricValues(family.GetType(), metric) {
			row.Values = append(row.Values, Value{Origin: strconv.FormatFloat(v, 'f', -1, 64)})
		}
		if ts := metric.GetTimestampMs(); ts > 0 {
			if !stamped || ts > data.Time {
				data.Time = ts
			}
			stamped = true
		}
		data.ValueRows = append(data.ValueRows, row)
	}
	return data
}

func (n *NodeExporterService) DescribeMonitor(ctx context.Context, id int64) (*Monitor, error) {
	target := n.target(id)
	if target == nil {
		return nil, fmt.Errorf("no node_exporter target %d", id)
	}
	families, err := n.scrape(ctx, target)
	if err != nil {
		return nil, err
	}

	m := &Monitor{ID: id, Name: target.Host, App: n.Type(), Host: target.Hostname()}
	m.Port, _ = strconv.Atoi(target.Port())
	for name := range families {
		m.Metrics = append(m.Metrics, name)
	}
	slices.Sort(m.Metrics)
	return m, nil
}
