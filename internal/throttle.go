package montop

import (
	"time"
)

// Gate asks the caller to call Flush with Epoch once After has elapsed
type Gate struct {
	Epoch uint64
	After time.Duration
}

// Throttle coalesces bursts of events to at most one handled event per
// window. The first event of a burst is handled immediately (leading) and,
// if more events arrived while the window was open, one more is handled when
// it closes (trailing). A trailing fire opens a new window.
//
// Throttle holds no timers of its own: Event and Flush hand back a Gate that
// the owner turns into a timer on its own loop.
type Throttle struct {
	window  time.Duration
	open    bool
	pending bool
	until   time.Time
	epoch   uint64
}

// NewThrottle creates a throttle with the given window
func NewThrottle(window time.Duration) *Throttle {
	return &Throttle{window: window}
}

// Event registers an event at now and reports whether it should be handled
func (t *Throttle) Event(now time.Time) (bool, *Gate) {
	if t.open && now.Before(t.until) {
		t.pending = true
		return false, nil
	}
	return true, t.openWindow(now)
}

// Flush closes the window identified by epoch. It reports whether a trailing
// event should be handled; in that case a new window is opened and its Gate
// returned. Gates from older windows are ignored.
func (t *Throttle) Flush(epoch uint64, now time.Time) (bool, *Gate) {
	if !t.open || epoch != t.epoch {
		return false, nil
	}
	if !t.pending {
		t.open = false
		return false, nil
	}
	return true, t.openWindow(now)
}

// Reset drops any open window and pending event
func (t *Throttle) Reset() {
	t.open = false
	t.pending = false
	t.epoch++
}

func (t *Throttle) openWindow(now time.Time) *Gate {
	t.epoch++
	t.open = true
	t.pending = false
	t.until = now.Add(t.window)
	return &Gate{Epoch: t.epoch, After: t.window}
}
