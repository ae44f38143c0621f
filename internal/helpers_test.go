package montop

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fetchCall struct {
	id      int64
	metrics string
}

// fakeService answers every fetch with the queued responses, last one repeating
type fakeService struct {
	mu        sync.Mutex
	responses []*Response
	err       error
	monitor   *Monitor
	calls     []fetchCall
	describes int
}

func (f *fakeService) FetchMetrics(_ context.Context, id int64, metrics string) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{id: id, metrics: metrics})
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return successResponse(&MetricsData{Metrics: metrics}), nil
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func (f *fakeService) DescribeMonitor(_ context.Context, id int64) (*Monitor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.describes++
	if f.monitor == nil {
		return nil, &TransportError{Op: "describe", Err: context.DeadlineExceeded}
	}
	return f.monitor, nil
}

func (f *fakeService) Check(context.Context) error { return nil }
func (f *fakeService) Type() string { return "fake" }

type warning struct {
	message string
	title   string
}

type fakeNotifier struct {
	warnings []warning
}

func (n *fakeNotifier) Warn(message, title string) {
	n.warnings = append(n.warnings, warning{message: message, title: title})
}

func observedLogger() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core).Sugar(), logs
}

// runCmd executes cmd and flattens batches into their messages
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "pgdown":
		return tea.KeyMsg{Type: tea.KeyPgDown}
	case "pgup":
		return tea.KeyMsg{Type: tea.KeyPgUp}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	case "home":
		return tea.KeyMsg{Type: tea.KeyHome}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func rows(n int) []ValueRow {
	out := make([]ValueRow, n)
	for i := range out {
		out[i] = ValueRow{
			Labels: map[string]string{"core": string(rune('0' + i%10))},
			Values: []Value{{Origin: string(rune('0' + i%10))}, {Origin: "1.5"}},
		}
	}
	return out
}

func tableData(n int) *MetricsData {
	return &MetricsData{
		Metrics: "cpu",
		Time:    1700000000000,
		Fields: []Field{
			{Name: "core", Type: FieldTypeString, Label: true},
			{Name: "usage", Type: FieldTypeNumber, Unit: "%"},
		},
		ValueRows: rows(n),
	}
}
