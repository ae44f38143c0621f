package montop

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// LocalService reports metrics of the machine montop runs on
type LocalService struct{}

var localMetricSets = []string{"cpu", "memory"}

func (LocalService) Type() string {
	return "local"
}

func (LocalService) Check(context.Context) error {
	return nil
}

func (l LocalService) DescribeMonitor(_ context.Context, id int64) (*Monitor, error) {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	return &Monitor{
		ID:      id,
		Name:    host,
		App:     l.Type(),
		Host:    host,
		Metrics: localMetricSets,
	}, nil
}

func (LocalService) FetchMetrics(ctx context.Context, id int64, metrics string) (*Response, error) {
	switch metrics {
	case "cpu":
		percents, err := cpu.PercentWithContext(ctx, 0, true)
		if err != nil {
			return nil, transportErr("read cpu", err)
		}
		data := &MetricsData{
			ID:      id,
			App:     "local",
			Metrics: metrics,
			Time:    time.Now().UnixMilli(),
			Fields: []Field{
				{Name: "core", Type: FieldTypeString, Label: true},
				{Name: "usage", Type: FieldTypeNumber, Unit: "%"},
			},
		}
		for i, p := range percents {
			core := strconv.Itoa(i)
			data.ValueRows = append(data.ValueRows, ValueRow{
				Labels: map[string]string{"core": core},
				Values: []Value{{Origin: core}, {Origin: fmt.Sprintf("%.1f", p)}},
			})
		}
		return successResponse(data), nil

	case "memory":
		vm, err := mem.VirtualMemoryWithContext(ctx)
		if err != nil {
			return nil, transportErr("read memory", err)
		}
		toGB := func(bytes uint64) string {
			return fmt.Sprintf("%.2f", float64(bytes)/(1024*1024*1024))
		}
		data := &MetricsData{
			ID:      id,
			App:     "local",
			Metrics: metrics,
			Time:    time.Now().UnixMilli(),
			Fields: []Field{
				{Name: "total", Type: FieldTypeNumber, Unit: "GB"},
				{Name: "used", Type: FieldTypeNumber, Unit: "GB"},
				{Name: "available", Type: FieldTypeNumber, Unit: "GB"},
				{Name: "free", Type: FieldTypeNumber, Unit: "GB"},
				{Name: "usage", Type: FieldTypeNumber, Unit: "%"},
			},
			ValueRows: []ValueRow{{
				Values: []Value{
					{Origin: toGB(vm.Total)},
					{Origin: toGB(vm.Used)},
					{Origin: toGB(vm.Available)},
					{Origin: toGB(vm.Free)},
					{Origin: fmt.Sprintf("%.1f", vm.UsedPercent)},
				},
			}},
		}
		return successResponse(data), nil
	}
	return failResponse(CodeMetricsNotFound, fmt.Sprintf("unknown local metric-set %s", metrics)), nil
}
