package montop

import (
	"github.com/charmbracelet/lipgloss"
)

// Horizontal renders panes side by side
func Horizontal(panes ...Pane) string {
	if len(panes) == 0 {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, renderAll(panes)...)
}

// Wrap renders panes in rows of the given number of columns
func Wrap(columns int, panes ...Pane) string {
	if len(panes) == 0 {
		return ""
	}
	columns = max(columns, 1)

	var rows []string
	for i := 0; i < len(panes); i += columns {
		rows = append(rows, Horizontal(panes[i:min(i+columns, len(panes))]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// GridColumns returns the number of columns used to show n panes
func GridColumns(n int) int {
	switch {
	case n <= 1:
		return 1
	case n <= 4:
		return 2
	default:
		return 3
	}
}

func renderAll(panes []Pane) []string {
	views := make([]string, len(panes))
	for i, pane := range panes {
		views[i] = pane.Render()
	}
	return views
}
