package montop

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// TabSet holds the metric-set tables of a monitor with one of them active
type TabSet struct {
	tables      []*MetricsTable
	selectedTab int
}

// NewTabSet creates a new TabSet
func NewTabSet(tables ...*MetricsTable) *TabSet {
	return &TabSet{tables: tables}
}

func (ts *TabSet) Add(t *MetricsTable) *TabSet {
	ts.tables = append(ts.tables, t)
	return ts
}

func (ts *TabSet) Tables() []*MetricsTable {
	return ts.tables
}

func (ts *TabSet) Len() int {
	return len(ts.tables)
}

// Current returns the active table, or nil when the set is empty
func (ts *TabSet) Current() *MetricsTable {
	if ts.selectedTab < 0 || ts.selectedTab >= len(ts.tables) {
		return nil
	}
	return ts.tables[ts.selectedTab]
}

func (ts *TabSet) SelectedTab() int {
	return ts.selectedTab
}

// SelectTab changes the active tab
func (ts *TabSet) SelectTab(index int) *TabSet {
	if index >= 0 && index < len(ts.tables) {
		ts.selectedTab = index
	}
	return ts
}

// NextTab moves to the next tab accepted by keep (wraps around). A nil
// keep accepts every tab.
func (ts *TabSet) NextTab(keep func(*MetricsTable) bool) *TabSet {
	return ts.step(1, keep)
}

// PrevTab moves to the previous tab accepted by keep (wraps around)
func (ts *TabSet) PrevTab(keep func(*MetricsTable) bool) *TabSet {
	return ts.step(-1, keep)
}

func (ts *TabSet) step(dir int, keep func(*MetricsTable) bool) *TabSet {
	n := len(ts.tables)
	if n == 0 {
		return ts
	}
	for i := 1; i <= n; i++ {
		idx := (ts.selectedTab + dir*i + n) % n
		if keep == nil || keep(ts.tables[idx]) {
			ts.selectedTab = idx
			break
		}
	}
	return ts
}

// Find returns the table of a metric-set, or nil
func (ts *TabSet) Find(metrics string) *MetricsTable {
	for _, t := range ts.tables {
		if t.Metrics() == metrics {
			return t
		}
	}
	return nil
}

// Favorites returns the favorite tables in tab order
func (ts *TabSet) Favorites() []*MetricsTable {
	var out []*MetricsTable
	for _, t := range ts.tables {
		if t.IsFavorite() {
			out = append(out, t)
		}
	}
	return out
}

// SortFavoritesFirst moves favorite tables to the front, keeping the
// relative order otherwise, and keeps the active table selected
func (ts *TabSet) SortFavoritesFirst() *TabSet {
	current := ts.Current()
	sort.SliceStable(ts.tables, func(i, j int) bool {
		return ts.tables[i].IsFavorite() && !ts.tables[j].IsFavorite()
	})
	for i, t := range ts.tables {
		if t == current {
			ts.selectedTab = i
		}
	}
	return ts
}

// Render renders the tab bar
func (ts *TabSet) Render() string {
	if len(ts.tables) == 0 {
		return ""
	}

	activeTabStyle := lipgloss.NewStyle().
		Foreground(colorFocused).
		Background(lipgloss.Color("235")).
		Bold(true).
		Padding(0, 1)

	inactiveTabStyle := lipgloss.NewStyle().
		Foreground(colorBorder).
		Padding(0, 1)

	renderedTabs := make([]string, len(ts.tables))
	for i, t := range ts.tables {
		if i == ts.selectedTab {
			renderedTabs[i] = activeTabStyle.Render(t.Title())
		} else {
			renderedTabs[i] = inactiveTabStyle.Render(t.Title())
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, renderedTabs...)
}

func (ts *TabSet) String() string {
	return ts.Render()
}
