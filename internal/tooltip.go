package montop

import (
	"github.com/charmbracelet/lipgloss"
)

// Tooltip is a hint box anchored to a row of a table body
type Tooltip struct {
	Anchor  int
	Title   string
	Body    string
	visible bool
}

func (t *Tooltip) Visible() bool {
	return t.visible
}

func (t *Tooltip) Show() {
	t.visible = true
}

func (t *Tooltip) Hide() {
	t.visible = false
}

// Tooltips is the set of tooltips owned by one component
type Tooltips struct {
	items []*Tooltip
}

// Open shows the tooltip for anchor, creating it on first use. Any other
// visible tooltip is hidden.
func (ts *Tooltips) Open(anchor int, title, body string) *Tooltip {
	var tip *Tooltip
	for _, t := range ts.items {
		if t.Anchor == anchor {
			tip = t
			continue
		}
		t.Hide()
	}
	if tip == nil {
		tip = &Tooltip{Anchor: anchor}
		ts.items = append(ts.items, tip)
	}
	tip.Title = title
	tip.Body = body
	tip.Show()
	return tip
}

// Toggle hides the tooltip for anchor if it is visible and opens it otherwise
func (ts *Tooltips) Toggle(anchor int, title, body string) {
	if t := ts.Visible(); t != nil && t.Anchor == anchor {
		t.Hide()
		return
	}
	ts.Open(anchor, title, body)
}

// HideAll force-closes every visible tooltip and returns how many it closed
func (ts *Tooltips) HideAll() int {
	closed := 0
	for _, t := range ts.items {
		if t.Visible() {
			t.Hide()
			closed++
		}
	}
	return closed
}

// Visible returns the first visible tooltip, or nil
func (ts *Tooltips) Visible() *Tooltip {
	for _, t := range ts.items {
		if t.Visible() {
			return t
		}
	}
	return nil
}

// VisibleCount returns the number of visible tooltips
func (ts *Tooltips) VisibleCount() int {
	n := 0
	for _, t := range ts.items {
		if t.Visible() {
			n++
		}
	}
	return n
}

// Reset drops every tooltip, used when the rows they were anchored to go away
func (ts *Tooltips) Reset() {
	ts.items = nil
}

// Render draws the visible tooltip, or returns an empty string
func (ts *Tooltips) Render(width int) string {
	t := ts.Visible()
	if t == nil {
		return ""
	}
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Bold(true)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("170")).
		Padding(0, 1)
	if width > 4 {
		box = box.MaxWidth(width)
	}
	return box.Render(titleStyle.Render(t.Title) + "\n" + t.Body)
}
