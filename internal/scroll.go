package montop

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// scrollFlushMsg closes a throttle window of the observation that scheduled it
type scrollFlushMsg struct {
	obs   *ScrollObservation
	epoch uint64
}

// tableMountedMsg is delivered one loop iteration after a table body has been
// built, the earliest point at which scrolling can be observed on it
type tableMountedMsg struct {
	owner *MetricsTable
	body  uint64
}

// ScrollObservation watches the scroll events of one table body and runs its
// handler for them, throttled. Once cancelled it ignores everything.
type ScrollObservation struct {
	body     uint64
	throttle *Throttle
	handler  func()
	canceled bool
}

// NewScrollObservation observes the body with the given id
func NewScrollObservation(body uint64, window time.Duration, handler func()) *ScrollObservation {
	return &ScrollObservation{
		body:     body,
		throttle: NewThrottle(window),
		handler:  handler,
	}
}

// Body returns the id of the observed table body
func (o *ScrollObservation) Body() uint64 {
	if o == nil {
		return 0
	}
	return o.body
}

// Observe registers a scroll event at now. The returned command, if any,
// closes the throttle window.
func (o *ScrollObservation) Observe(now time.Time) tea.Cmd {
	if o == nil || o.canceled {
		return nil
	}
	fire, gate := o.throttle.Event(now)
	if fire {
		o.handler()
	}
	return o.schedule(gate)
}

// Flush handles a window-close message. Messages addressed to another
// observation are ignored.
func (o *ScrollObservation) Flush(msg scrollFlushMsg, now time.Time) tea.Cmd {
	if o == nil || o.canceled || msg.obs != o {
		return nil
	}
	fire, gate := o.throttle.Flush(msg.epoch, now)
	if fire {
		o.handler()
	}
	return o.schedule(gate)
}

// Cancel stops the observation
func (o *ScrollObservation) Cancel() {
	if o == nil {
		return
	}
	o.canceled = true
	o.throttle.Reset()
}

func (o *ScrollObservation) Canceled() bool {
	return o == nil || o.canceled
}

func (o *ScrollObservation) schedule(gate *Gate) tea.Cmd {
	if gate == nil {
		return nil
	}
	epoch := gate.Epoch
	return tea.Tick(gate.After, func(time.Time) tea.Msg {
		return scrollFlushMsg{obs: o, epoch: epoch}
	})
}
