package montop

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// WrapTable renders rows as one lipgloss table, or as several tables side
// by side when the rows do not fit in maxHeight. Used for single-row
// metric-sets whose fields are laid out as field/value pairs.
type WrapTable struct {
	headers     []string
	rows        [][]string
	maxHeight   int
	maxWidth    int
	borderStyle lipgloss.Style
	keyStyle    lipgloss.Style
}

// NewWrapTable creates a new wrap table
func NewWrapTable() *WrapTable {
	return &WrapTable{
		borderStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		keyStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
}

func (wt *WrapTable) Headers(headers ...string) *WrapTable {
	wt.headers = headers
	return wt
}

func (wt *WrapTable) Rows(rows ...[]string) *WrapTable {
	wt.rows = rows
	return wt
}

// MaxHeight sets the height a single table may take, borders included
func (wt *WrapTable) MaxHeight(height int) *WrapTable {
	wt.maxHeight = height
	return wt
}

func (wt *WrapTable) MaxWidth(width int) *WrapTable {
	wt.maxWidth = width
	return wt
}

func (wt *WrapTable) BorderStyle(style lipgloss.Style) *WrapTable {
	wt.borderStyle = style
	return wt
}

// RowsPerTable returns how many rows fit in one table. A header line plus
// top, bottom and header separator borders take four lines.
func (wt *WrapTable) RowsPerTable() int {
	return max(wt.maxHeight-4, 1)
}

// Chunks splits the rows into the groups rendered side by side
func (wt *WrapTable) Chunks() [][][]string {
	per := wt.RowsPerTable()
	var chunks [][][]string
	for i := 0; i < len(wt.rows); i += per {
		chunks = append(chunks, wt.rows[i:min(i+per, len(wt.rows))])
	}
	return chunks
}

func (wt *WrapTable) newTable(rows [][]string) *table.Table {
	keyStyle := wt.keyStyle
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(wt.borderStyle).
		Headers(wt.headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row != table.HeaderRow && col == 0 {
				return keyStyle
			}
			return lipgloss.NewStyle()
		})
	return t
}

// Render renders the table, wrapped into columns if needed
func (wt *WrapTable) Render() string {
	chunks := wt.Chunks()
	switch len(chunks) {
	case 0:
		return ""
	case 1:
		t := wt.newTable(chunks[0])
		if wt.maxWidth > 0 {
			t = t.Width(wt.maxWidth)
		}
		return t.String()
	}

	tables := make([]string, len(chunks))
	for i, chunk := range chunks {
		tables[i] = wt.newTable(chunk).String()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tables...)
}

func (wt *WrapTable) String() string {
	return wt.Render()
}
