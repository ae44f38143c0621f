package montop

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"go.uber.org/zap"
)

// DashboardConfig is what the dashboard needs to know about the monitor it shows
type DashboardConfig struct {
	MonitorID int64
	App       string
	Port      int
	Height    int
	Metrics   []string // empty means every metric-set of the monitor
	Favorites []string
	Refresh   time.Duration
	Timeout   time.Duration
}

// Dashboard key bindings
const (
	KeyQuit       = "q"
	KeyQuitAlt    = "ctrl+c"
	KeyPrevTab    = "["
	KeyNextTab    = "]"
	KeyReload     = "r"
	KeyBoard      = "b"
	sidebarMargin = 6
)

type tickMsg time.Time

// monitorDescribedMsg carries the descriptor of the monitor, or why it is missing
type monitorDescribedMsg struct {
	monitor *Monitor
	err     error
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type dashboardModel struct {
	svc         *Cache
	cfg         DashboardConfig
	log         *zap.SugaredLogger
	toaster     *Toaster
	monitor     *Monitor
	tabs        *TabSet
	favorites   map[string]bool
	board       bool // favorites grid instead of the active tab
	described   bool
	lastRefresh time.Time
	width       int
	height      int
	ready       bool
}

func newDashboard(svc Service, cfg DashboardConfig, log *zap.SugaredLogger) *dashboardModel {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.Refresh <= 0 {
		cfg.Refresh = UpdateDuration()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = FetchTimeout()
	}

	favorites := make(map[string]bool, len(cfg.Favorites))
	for _, name := range cfg.Favorites {
		favorites[name] = true
	}

	return &dashboardModel{
		svc:       NewCache(svc),
		cfg:       cfg,
		log:       log,
		toaster:   NewToaster(TOAST_TTL, 3),
		tabs:      NewTabSet(),
		favorites: favorites,
	}
}

func (m *dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.describeCmd(), tickCmd())
}

func (m *dashboardModel) describeCmd() tea.Cmd {
	svc, id, timeout := m.svc, m.cfg.MonitorID, m.cfg.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		mon, err := svc.DescribeMonitor(ctx, id)
		return monitorDescribedMsg{monitor: mon, err: err}
	}
}

// buildTables creates one table per metric-set and starts loading them all
func (m *dashboardModel) buildTables(msg monitorDescribedMsg) tea.Cmd {
	if msg.err != nil {
		m.log.Errorw("failed to describe monitor", "monitor", m.cfg.MonitorID, "error", msg.err)
		title := "monitor"
		if IsTransportError(msg.err) {
			title = "unreachable"
		}
		m.toaster.Warn(msg.err.Error(), title)
	}
	m.monitor = msg.monitor
	m.described = true

	metrics := m.cfg.Metrics
	app, port := m.cfg.App, m.cfg.Port
	if m.monitor != nil {
		if len(metrics) == 0 {
			metrics = m.monitor.Metrics
		}
		if app == "" {
			app = m.monitor.App
		}
		if port == 0 {
			port = m.monitor.Port
		}
	}

	cmds := make([]tea.Cmd, 0, len(metrics))
	for _, name := range metrics {
		if m.tabs.Find(name) != nil {
			continue
		}
		t := NewMetricsTable(m.svc, m.toaster, m.log).
			SetTimeout(m.cfg.Timeout).
			SetApp(app).
			SetPort(port).
			SetMonitor(m.monitor).
			SetMetrics(name).
			SetHeight(m.cfg.Height).
			SetFavoriteStatus(m.favorites[name])
		t.Init()
		m.tabs.Add(t)
		// the id goes last so the table is fully configured when it loads
		cmds = append(cmds, t.SetMonitorID(m.cfg.MonitorID))
	}
	m.tabs.SortFavoritesFirst().SelectTab(0)
	m.focusCurrent()
	m.resize()
	m.lastRefresh = time.Now()

	m.log.Infow("monitor ready", "monitor", m.cfg.MonitorID, "metric_sets", len(metrics))
	return tea.Batch(cmds...)
}

func (m *dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		if cur := m.tabs.Current(); cur != nil {
			_, cmd := cur.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()

	case monitorDescribedMsg:
		return m, m.buildTables(msg)

	case FavoriteToggleMsg:
		m.toggleFavorite(msg.Metrics)

	case tickMsg:
		now := time.Time(msg)
		cmds := []tea.Cmd{tickCmd()}
		if now.Sub(m.lastRefresh) >= m.cfg.Refresh {
			m.lastRefresh = now
			for _, t := range m.visibleTables() {
				if !t.Loading() {
					cmds = append(cmds, t.LoadData())
				}
			}
		}
		return m, tea.Batch(cmds...)

	default:
		// results, mount and scroll messages name their table; the others ignore them
		var cmds []tea.Cmd
		for _, t := range m.tabs.Tables() {
			_, cmd := t.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *dashboardModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case KeyQuit, KeyQuitAlt:
		m.destroy()
		return tea.Quit
	case KeyPrevTab:
		m.tabs.PrevTab(m.tabFilter())
		m.focusCurrent()
		return nil
	case KeyNextTab:
		m.tabs.NextTab(m.tabFilter())
		m.focusCurrent()
		return nil
	case KeyBoard:
		if len(m.tabs.Favorites()) > 0 {
			m.board = !m.board
		} else {
			m.board = false
		}
		if m.board && !m.tabs.Current().IsFavorite() {
			m.tabs.NextTab(m.tabFilter())
		}
		m.focusCurrent()
		m.resize()
		return nil
	case KeyReload:
		if cur := m.tabs.Current(); cur != nil {
			m.lastRefresh = time.Now()
			return cur.LoadData()
		}
		return nil
	}

	if cur := m.tabs.Current(); cur != nil {
		_, cmd := cur.Update(msg)
		return cmd
	}
	return nil
}

// visibleTables returns the tables on screen: every favorite on the board,
// the active tab otherwise
func (m *dashboardModel) visibleTables() []*MetricsTable {
	if m.board {
		return m.tabs.Favorites()
	}
	if cur := m.tabs.Current(); cur != nil {
		return []*MetricsTable{cur}
	}
	return nil
}

// tabFilter restricts tab navigation to favorites while the board is shown
func (m *dashboardModel) tabFilter() func(*MetricsTable) bool {
	if !m.board {
		return nil
	}
	return (*MetricsTable).IsFavorite
}

func (m *dashboardModel) toggleFavorite(metrics string) {
	t := m.tabs.Find(metrics)
	if t == nil {
		return
	}
	m.favorites[metrics] = !m.favorites[metrics]
	t.SetFavoriteStatus(m.favorites[metrics])
	m.tabs.SortFavoritesFirst()
	m.log.Infow("favorite toggled", "metrics", metrics, "favorite", m.favorites[metrics])

	if m.board && len(m.tabs.Favorites()) == 0 {
		m.board = false
	}
	// the board only draws favorites, so focus must not stay on a dropped one
	if m.board && !m.tabs.Current().IsFavorite() {
		m.tabs.NextTab(m.tabFilter())
	}
	m.focusCurrent()
	m.resize()
}

// Favorites returns the metric-sets currently marked favorite
func (m *dashboardModel) Favorites() []string {
	var out []string
	for _, t := range m.tabs.Tables() {
		if m.favorites[t.Metrics()] {
			out = append(out, t.Metrics())
		}
	}
	return out
}

func (m *dashboardModel) focusCurrent() {
	cur := m.tabs.Current()
	for _, t := range m.tabs.Tables() {
		t.SetFocused(t == cur)
	}
}

func (m *dashboardModel) destroy() {
	for _, t := range m.tabs.Tables() {
		t.Destroy()
	}
}

func (m *dashboardModel) sidebarWidth() int {
	w := lipgloss.Width(m.monitorName())
	for _, t := range m.tabs.Tables() {
		w = max(w, lipgloss.Width(t.Title())+4)
	}
	return min(w+sidebarMargin, max(m.width/3, 12))
}

// mainSize returns the outer size of the main area, help bar excluded
func (m *dashboardModel) mainSize() (int, int) {
	return m.width, max(m.height-3, 3)
}

// resize hands every table the space it will be drawn in
func (m *dashboardModel) resize() {
	if !m.ready {
		return
	}
	w, h := m.mainSize()
	if m.board {
		favs := m.tabs.Favorites()
		cols := GridColumns(len(favs))
		rows := (len(favs) + cols - 1) / cols
		pw, ph := w/cols-2, h/max(rows, 1)-2
		for _, t := range favs {
			cw, ch := NewPane(t.Title(), pw, ph).ContentSize()
			t.SetSize(cw, ch)
		}
		return
	}
	pw := w - m.sidebarWidth() - 4
	cw, ch := NewPane("x", pw, h-2).ContentSize()
	for _, t := range m.tabs.Tables() {
		// tab bar line
		t.SetSize(cw, ch-1)
	}
}

func (m *dashboardModel) monitorName() string {
	if m.monitor == nil {
		return fmt.Sprintf("monitor %d", m.cfg.MonitorID)
	}
	name := m.monitor.Name
	if name == "" {
		name = fmt.Sprintf("monitor %d", m.monitor.ID)
	}
	return name
}

func (m *dashboardModel) monitorBadge() string {
	cur := m.tabs.Current()
	if cur == nil {
		return ""
	}
	parts := []string{}
	if cur.App() != "" {
		parts = append(parts, cur.App())
	}
	if mon := cur.Monitor(); mon != nil && mon.Host != "" {
		host := mon.Host
		if cur.Port() != 0 {
			host = fmt.Sprintf("%s:%d", host, cur.Port())
		}
		parts = append(parts, host)
	}
	return strings.Join(parts, " · ")
}

func (m *dashboardModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.tabs.Len() == 0 {
		helpStyle := lipgloss.NewStyle().
			Foreground(colorBorder).
			Padding(2, 4)
		text := "Loading metric-sets of " + m.monitorName() + "..."
		if m.described {
			text = "No metric-sets for " + m.monitorName() + "\n\nPress 'q' to quit"
		}
		view := helpStyle.Render(text)
		if toasts := m.toaster.Render(m.width); toasts != "" {
			view += "\n" + toasts
		}
		return view
	}

	w, h := m.mainSize()
	var mainView string
	if m.board {
		mainView = m.renderBoard(w, h)
	} else {
		sw := m.sidebarWidth()
		sidebar := NewPane(m.monitorName(), sw, h-2).
			SetContent(m.renderMetricTree())
		main := NewPane(m.monitorName(), w-sw-4, h-2).
			SetBadge(m.monitorBadge()).
			SetContent(m.tabs.Render() + "\n" + m.tabs.Current().View()).
			SetFocused(true)
		mainView = Horizontal(sidebar, main)
	}

	helpBar := lipgloss.NewStyle().
		Foreground(colorBorder).
		Background(lipgloss.Color("235")).
		Width(m.width).
		Align(lipgloss.Center).
		Render("[]=Switch  ↑↓/pgup/pgdn=Scroll  i=Labels  f=Favorite  b=Board  r=Reload  q=Quit")

	view := mainView + "\n" + helpBar
	if toasts := m.toaster.Render(m.width); toasts != "" {
		view = lipgloss.JoinVertical(lipgloss.Left, mainView, toasts, helpBar)
	}
	return view
}

// renderBoard lays the favorite tables out in a grid
func (m *dashboardModel) renderBoard(w, h int) string {
	favs := m.tabs.Favorites()
	cols := GridColumns(len(favs))
	rows := (len(favs) + cols - 1) / cols
	pw, ph := w/cols-2, h/max(rows, 1)-2

	cur := m.tabs.Current()
	panes := make([]Pane, len(favs))
	for i, t := range favs {
		panes[i] = NewPane(t.Title(), pw, ph).
			SetContent(t.View()).
			SetFocused(t == cur)
	}
	return Wrap(cols, panes...)
}

// renderMetricTree draws the monitor and its metric-sets as a tree
func (m *dashboardModel) renderMetricTree() string {
	selectedStyle := lipgloss.NewStyle().
		Foreground(colorFocused).
		Bold(true)

	rootStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Bold(true)

	t := tree.New().Root(rootStyle.Render(m.monitorName()))
	cur := m.tabs.Current()
	for _, table := range m.tabs.Tables() {
		if table == cur {
			t = t.Child(selectedStyle.Render("▶ " + table.Title()))
		} else {
			t = t.Child(table.Title())
		}
	}
	return t.String()
}

// Dashboard runs the terminal dashboard until the user quits
func Dashboard(svc Service, cfg DashboardConfig, log *zap.SugaredLogger) error {
	m := newDashboard(svc, cfg, log)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running bubbletea program: %w", err)
	}
	return nil
}
