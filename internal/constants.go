package montop

import (
	"time"
)

const (
	// SCROLL_THROTTLE is the window in which scroll events on a table body are coalesced
	SCROLL_THROTTLE = 20 * time.Millisecond

	// UPDATE_INTERVAL is the default time between refreshes of the active metric-set in seconds
	UPDATE_INTERVAL = 10

	// FETCH_TIMEOUT is the default deadline of a single metrics fetch in seconds
	FETCH_TIMEOUT = 10

	// TABLE_CHROME is the number of lines around a table body (title, header, borders)
	TABLE_CHROME = 5

	// TOAST_TTL is how long a warning notification stays on screen
	TOAST_TTL = 5 * time.Second
)

// UpdateDuration returns the default refresh interval as a time.Duration
func UpdateDuration() time.Duration {
	return time.Duration(UPDATE_INTERVAL) * time.Second
}

// FetchTimeout returns the default fetch deadline as a time.Duration
func FetchTimeout() time.Duration {
	return time.Duration(FETCH_TIMEOUT) * time.Second
}

// BodyHeight returns the rows left for a table body inside a component of
// the given height. It never drops below one row.
func BodyHeight(height int) int {
	return max(height-TABLE_CHROME, 1)
}
