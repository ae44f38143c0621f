package montop

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// FavoriteToggleMsg asks the owner of the favorite state to flip it for a metric-set
type FavoriteToggleMsg struct {
	Metrics string
}

// metricsLoadedMsg carries the result of one LoadData call
type metricsLoadedMsg struct {
	owner *MetricsTable
	seq   uint64
	resp  *Response
	err   error
}

// Entry is one key/value pair of a label mapping
type Entry struct {
	Key   string
	Value string
}

// Key bindings of the table
const (
	KeyRowUp       = "up"
	KeyRowUpK      = "k"
	KeyRowDown     = "down"
	KeyRowDownJ    = "j"
	KeyPageUp      = "pgup"
	KeyPageDown    = "pgdown"
	KeyFirstRow    = "home"
	KeyLastRow     = "end"
	KeyTooltip     = "i"
	KeyFavorite    = "f"
	maxColumnWidth = 32
)

// MetricsTable shows one metric-set of a monitor, either as a scrollable
// table or, when the set has a single row, as a field/value summary.
//
// Inputs are assigned through the Set methods. SetMonitorID must come last:
// it starts the load once both the id and the metric-set name are known.
type MetricsTable struct {
	svc     Service
	notify  Notifier
	log     *zap.SugaredLogger
	timeout time.Duration
	now     func() time.Time

	monitorID int64
	app       string
	port      int
	monitor   *Monitor
	metrics   string
	height    int
	favorite  bool

	time      int64
	fields    []Field
	valueRows []ValueRow
	rowValues []Value
	isTable   bool
	loading   bool

	// only the result of request seq is acted on, and only once
	seq      uint64
	inflight bool

	width      int
	available  int
	bodyHeight int
	body       table.Model
	bodyID     uint64
	hasBody    bool
	scrollSub  *ScrollObservation
	tooltips   Tooltips
	focused    bool
}

// NewMetricsTable creates a table reading from svc. Warnings go to notify.
func NewMetricsTable(svc Service, notify Notifier, log *zap.SugaredLogger) *MetricsTable {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if notify == nil {
		notify = LogNotifier{Log: log}
	}
	return &MetricsTable{
		svc:     svc,
		notify:  notify,
		log:     log,
		timeout: FetchTimeout(),
		now:     time.Now,
		isTable: true,
		focused: true,
	}
}

func (t *MetricsTable) SetApp(app string) *MetricsTable {
	t.app = app
	return t
}

func (t *MetricsTable) SetPort(port int) *MetricsTable {
	t.port = port
	return t
}

func (t *MetricsTable) SetMonitor(m *Monitor) *MetricsTable {
	t.monitor = m
	return t
}

func (t *MetricsTable) SetMetrics(metrics string) *MetricsTable {
	t.metrics = metrics
	return t
}

// SetHeight sets the height of the component in lines. Zero fills the space
// given by SetSize.
func (t *MetricsTable) SetHeight(height int) *MetricsTable {
	t.height = height
	return t
}

func (t *MetricsTable) SetFavoriteStatus(favorite bool) *MetricsTable {
	t.favorite = favorite
	return t
}

func (t *MetricsTable) SetTimeout(timeout time.Duration) *MetricsTable {
	t.timeout = timeout
	return t
}

// SetMonitorID assigns the monitor id and, when a metric-set name is set
// too, starts loading it
func (t *MetricsTable) SetMonitorID(id int64) tea.Cmd {
	t.monitorID = id
	if t.monitorID != 0 && t.metrics != "" {
		return t.LoadData()
	}
	return nil
}

// SetSize gives the table the space it may use
func (t *MetricsTable) SetSize(width, height int) {
	t.width = width
	t.available = height
	t.Init()
	if t.hasBody {
		t.body.SetHeight(t.bodyHeight)
		t.body.SetWidth(width)
	}
}

func (t *MetricsTable) SetFocused(focused bool) {
	t.focused = focused
	if !focused {
		t.tooltips.HideAll()
	}
}

// Init computes the body height from the configured height
func (t *MetricsTable) Init() tea.Cmd {
	t.bodyHeight = BodyHeight(t.effectiveHeight())
	return nil
}

func (t *MetricsTable) effectiveHeight() int {
	if t.height > 0 {
		return t.height
	}
	return t.available
}

// Destroy releases the scroll observation
func (t *MetricsTable) Destroy() {
	t.scrollSub.Cancel()
	t.scrollSub = nil
}

// LoadData fetches the metric-set. The loading flag is set until the
// result has been handled.
func (t *MetricsTable) LoadData() tea.Cmd {
	t.loading = true
	t.inflight = true
	t.seq++

	seq := t.seq
	svc, id, metrics, timeout := t.svc, t.monitorID, t.metrics, t.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		resp, err := svc.FetchMetrics(ctx, id, metrics)
		return metricsLoadedMsg{owner: t, seq: seq, resp: resp, err: err}
	}
}

func (t *MetricsTable) handleLoaded(msg metricsLoadedMsg) tea.Cmd {
	if msg.seq != t.seq || !t.inflight {
		return nil
	}
	t.inflight = false
	t.loading = false

	if msg.err != nil {
		t.log.Errorw("failed to load metrics",
			"monitor", t.monitorID, "metrics", t.metrics, "error", msg.err)
		return nil
	}

	resp := msg.resp
	if resp == nil {
		t.log.Errorw("empty metrics response", "monitor", t.monitorID, "metrics", t.metrics)
		return nil
	}

	if resp.Code == CodeSuccess && resp.Data != nil {
		t.time = resp.Data.Time
		t.fields = resp.Data.Fields
		t.valueRows = resp.Data.ValueRows
		t.isTable = len(t.valueRows) != 1
		t.tooltips.Reset()
		if !t.isTable {
			t.rowValues = t.valueRows[0].Values
			t.unbindTableScroll()
			return nil
		}
		return t.buildBody()
	}

	if resp.Code != CodeSuccess {
		message := fmt.Sprintf("%s:%s", t.metrics, resp.Msg)
		t.notify.Warn(message, "")
		t.log.Infow(message, "monitor", t.monitorID, "code", resp.Code)
	}
	return nil
}

// buildBody renders a fresh table body and returns the command announcing
// it once it is on screen
func (t *MetricsTable) buildBody() tea.Cmd {
	columns := make([]table.Column, len(t.fields))
	for i, f := range t.fields {
		title := f.Name
		if f.Unit != "" {
			title = fmt.Sprintf("%s(%s)", f.Name, f.Unit)
		}
		columns[i] = table.Column{Title: title, Width: lipgloss.Width(title)}
	}

	rows := make([]table.Row, len(t.valueRows))
	for r, vr := range t.valueRows {
		row := make(table.Row, len(columns))
		for i := range row {
			if i < len(vr.Values) {
				row[i] = vr.Values[i].Origin
			}
			columns[i].Width = min(max(columns[i].Width, lipgloss.Width(row[i])), maxColumnWidth)
		}
		rows[r] = row
	}

	t.Init()
	t.body = table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(t.bodyHeight),
		table.WithFocused(true),
	)
	if t.width > 0 {
		t.body.SetWidth(t.width)
	}
	t.body.SetStyles(tableStyles())
	t.hasBody = true
	t.bodyID++

	owner, body := t, t.bodyID
	return func() tea.Msg {
		return tableMountedMsg{owner: owner, body: body}
	}
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("170")).
		Bold(true)
	return s
}

// bindTableScroll replaces the scroll observation with one on the current body
func (t *MetricsTable) bindTableScroll() {
	t.scrollSub.Cancel()
	t.scrollSub = NewScrollObservation(t.bodyID, SCROLL_THROTTLE, t.hideAllTooltips)
}

func (t *MetricsTable) unbindTableScroll() {
	t.scrollSub.Cancel()
	t.scrollSub = nil
	t.hasBody = false
}

func (t *MetricsTable) hideAllTooltips() {
	if n := t.tooltips.HideAll(); n > 0 {
		t.log.Debugw("hid tooltips on scroll", "metrics", t.metrics, "count", n)
	}
}

// Update handles the messages addressed to this table
func (t *MetricsTable) Update(msg tea.Msg) (*MetricsTable, tea.Cmd) {
	switch msg := msg.(type) {
	case metricsLoadedMsg:
		if msg.owner == t {
			return t, t.handleLoaded(msg)
		}
	case tableMountedMsg:
		if msg.owner == t && t.hasBody && msg.body == t.bodyID {
			t.bindTableScroll()
		}
	case scrollFlushMsg:
		return t, t.scrollSub.Flush(msg, t.now())
	case tea.KeyMsg:
		return t, t.handleKey(msg.String())
	case tea.MouseMsg:
		if !t.isTable || !t.hasBody {
			return t, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			return t, t.scroll(func() { t.body.MoveUp(1) })
		case tea.MouseButtonWheelDown:
			return t, t.scroll(func() { t.body.MoveDown(1) })
		}
	}
	return t, nil
}

func (t *MetricsTable) handleKey(key string) tea.Cmd {
	if key == KeyFavorite {
		return t.ToggleFavorite()
	}
	if !t.isTable || !t.hasBody {
		return nil
	}

	switch key {
	case KeyRowUp, KeyRowUpK:
		return t.scroll(func() { t.body.MoveUp(1) })
	case KeyRowDown, KeyRowDownJ:
		return t.scroll(func() { t.body.MoveDown(1) })
	case KeyPageUp:
		return t.scroll(func() { t.body.MoveUp(t.bodyHeight) })
	case KeyPageDown:
		return t.scroll(func() { t.body.MoveDown(t.bodyHeight) })
	case KeyFirstRow:
		return t.scroll(t.body.GotoTop)
	case KeyLastRow:
		return t.scroll(t.body.GotoBottom)
	case KeyTooltip:
		t.toggleRowTooltip()
	}
	return nil
}

// scroll moves the body and reports a scroll event when the position changed
func (t *MetricsTable) scroll(move func()) tea.Cmd {
	before := t.body.Cursor()
	move()
	if t.body.Cursor() == before {
		return nil
	}
	return t.scrollSub.Observe(t.now())
}

func (t *MetricsTable) toggleRowTooltip() {
	cursor := t.body.Cursor()
	if cursor < 0 || cursor >= len(t.valueRows) {
		return
	}
	labels := t.valueRows[cursor].Labels
	title := fmt.Sprintf("labels (%d)", ObjectLength(labels))

	var body string
	if entries := ObjectEntries(labels); len(entries) > 0 {
		lines := make([]string, len(entries))
		for i, e := range entries {
			lines[i] = e.Key + ": " + e.Value
		}
		body = strings.Join(lines, "\n")
	} else {
		body = "no labels"
	}
	t.tooltips.Toggle(cursor, title, body)
}

// ToggleFavorite asks the owner to flip the favorite state of this metric-set
func (t *MetricsTable) ToggleFavorite() tea.Cmd {
	if t.metrics == "" {
		return nil
	}
	metrics := t.metrics
	return func() tea.Msg {
		return FavoriteToggleMsg{Metrics: metrics}
	}
}

func (t *MetricsTable) IsFavorite() bool {
	return t.favorite
}

// ObjectLength returns the number of entries of an optional mapping
func ObjectLength(obj map[string]string) int {
	if obj == nil {
		return 0
	}
	return len(obj)
}

// ObjectEntries returns the entries of an optional mapping ordered by key
func ObjectEntries(obj map[string]string) []Entry {
	if obj == nil {
		return []Entry{}
	}
	entries := make([]Entry, 0, len(obj))
	for k, v := range obj {
		entries = append(entries, Entry{Key: k, Value: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries
}

func (t *MetricsTable) Loading() bool { return t.loading }
func (t *MetricsTable) IsTable() bool { return t.isTable }
func (t *MetricsTable) RowValues() []Value { return t.rowValues }
func (t *MetricsTable) Fields() []Field { return t.fields }
func (t *MetricsTable) ValueRows() []ValueRow { return t.valueRows }
func (t *MetricsTable) Time() int64 { return t.time }
func (t *MetricsTable) Metrics() string { return t.metrics }
func (t *MetricsTable) App() string { return t.app }
func (t *MetricsTable) Port() int { return t.port }
func (t *MetricsTable) Monitor() *Monitor { return t.monitor }
func (t *MetricsTable) BodyHeight() int { return t.bodyHeight }
func (t *MetricsTable) Tooltips() *Tooltips { return &t.tooltips }
func (t *MetricsTable) Scroll() *ScrollObservation { return t.scrollSub }

// Title returns the metric-set name, starred when it is a favorite
func (t *MetricsTable) Title() string {
	if t.favorite {
		return "★ " + t.metrics
	}
	return t.metrics
}

func (t *MetricsTable) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("33")).
		Bold(true)
	mutedStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))

	header := titleStyle.Render(t.Title())
	if t.time > 0 {
		header += mutedStyle.Render("  " + time.UnixMilli(t.time).Format("15:04:05"))
	}
	if t.loading {
		header += mutedStyle.Render("  loading…")
	}
	b.WriteString(header)
	b.WriteString("\n")

	switch {
	case t.fields == nil && t.loading:
		b.WriteString(mutedStyle.Render("Waiting for data..."))
	case t.fields == nil:
		b.WriteString(mutedStyle.Render("No data"))
	case !t.isTable:
		b.WriteString(t.renderSingleRow())
	case t.hasBody:
		b.WriteString(t.body.View())
		if tip := t.tooltips.Render(t.width); tip != "" {
			b.WriteString("\n")
			b.WriteString(tip)
		}
	}
	return b.String()
}

// renderSingleRow lays the fields of a one-row metric-set out as field/value pairs
func (t *MetricsTable) renderSingleRow() string {
	rows := make([][]string, 0, len(t.fields))
	for i, f := range t.fields {
		name := f.Name
		if f.Unit != "" {
			name = fmt.Sprintf("%s(%s)", f.Name, f.Unit)
		}
		value := ""
		if i < len(t.rowValues) {
			value = t.rowValues[i].Origin
		}
		rows = append(rows, []string{name, value})
	}

	return NewWrapTable().
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		MaxHeight(t.bodyHeight+TABLE_CHROME-1).
		Headers("Field", "Value").
		Rows(rows...).
		Render()
}
