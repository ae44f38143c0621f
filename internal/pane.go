package montop

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorBorder  = lipgloss.Color("240")
	colorFocused = lipgloss.Color("170")
	colorTitle   = lipgloss.Color("33")
)

// Pane is a bordered box of the dashboard.
//
//	pane := NewPane("cpu", 40, 10).
//	    SetContent(table.View()).
//	    SetFocused(true)
//	fmt.Println(pane.Render())
type Pane struct {
	title   string
	badge   string
	content string
	width   int
	height  int
	focused bool
}

// NewPane creates a new pane with default styling
func NewPane(title string, width, height int) Pane {
	return Pane{
		title:  title,
		width:  width,
		height: height,
	}
}

func (p Pane) SetTitle(title string) Pane {
	p.title = title
	return p
}

// SetBadge sets a short status shown right of the title
func (p Pane) SetBadge(badge string) Pane {
	p.badge = badge
	return p
}

func (p Pane) SetContent(content string) Pane {
	p.content = content
	return p
}

func (p Pane) SetSize(width, height int) Pane {
	p.width = width
	p.height = height
	return p
}

// SetFocused highlights the border of the focused pane
func (p Pane) SetFocused(focused bool) Pane {
	p.focused = focused
	return p
}

// ContentSize returns the space left inside the border and title line
func (p Pane) ContentSize() (int, int) {
	h := p.height
	if p.title != "" {
		h--
	}
	return max(p.width-2, 0), max(h, 0)
}

func (p Pane) Render() string {
	border := colorBorder
	if p.focused {
		border = colorFocused
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border)

	var b strings.Builder
	if p.title != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(colorTitle).Bold(true).Render(p.title))
		if p.badge != "" {
			b.WriteString(lipgloss.NewStyle().Foreground(colorBorder).Render("  " + p.badge))
		}
		b.WriteString("\n")
	}
	b.WriteString(p.content)

	if p.width > 0 {
		box = box.Width(p.width)
	}
	if p.height > 0 {
		box = box.Height(p.height)
	}
	return box.Render(b.String())
}

func (p Pane) String() string {
	return p.Render()
}
