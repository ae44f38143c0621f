package montop

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// Notifier surfaces warnings to the user
type Notifier interface {
	Warn(message, title string)
}

// Notice is one warning shown by the Toaster
type Notice struct {
	Title   string
	Message string
	Expires time.Time
}

// Toaster keeps the warnings shown under the dashboard until they expire
type Toaster struct {
	notices []Notice
	ttl     time.Duration
	max     int
	now     func() time.Time
}

// NewToaster creates a toaster keeping at most max notices for ttl each
func NewToaster(ttl time.Duration, max int) *Toaster {
	return &Toaster{ttl: ttl, max: max, now: time.Now}
}

func (t *Toaster) Warn(message, title string) {
	t.notices = append(t.notices, Notice{
		Title:   title,
		Message: message,
		Expires: t.now().Add(t.ttl),
	})
	if t.max > 0 && len(t.notices) > t.max {
		t.notices = t.notices[len(t.notices)-t.max:]
	}
}

// Notices returns the notices that have not expired yet
func (t *Toaster) Notices() []Notice {
	t.expire()
	return t.notices
}

func (t *Toaster) expire() {
	now := t.now()
	kept := t.notices[:0]
	for _, n := range t.notices {
		if now.Before(n.Expires) {
			kept = append(kept, n)
		}
	}
	t.notices = kept
}

// Render draws the live notices, newest last
func (t *Toaster) Render(width int) string {
	notices := t.Notices()
	if len(notices) == 0 {
		return ""
	}
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("214")).
		Padding(0, 1)
	if width > 0 {
		style = style.Width(width)
	}
	lines := make([]string, 0, len(notices))
	for _, n := range notices {
		text := "⚠ " + n.Message
		if n.Title != "" {
			text = "⚠ " + n.Title + ": " + n.Message
		}
		lines = append(lines, style.Render(text))
	}
	return strings.Join(lines, "\n")
}

// LogNotifier writes warnings to a logger, for use without a terminal
type LogNotifier struct {
	Log *zap.SugaredLogger
}

func (n LogNotifier) Warn(message, title string) {
	n.Log.Warnw(message, "title", title)
}
