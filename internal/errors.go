package montop

import (
	"errors"
	"fmt"
)

var (
	ErrMissingServerURL = errors.New("server_url must be set unless backend is local")
	ErrMissingMonitorID = errors.New("monitor_id must be set")
	ErrUnknownBackend   = errors.New("unknown backend")
	ErrNoBackend        = errors.New("no reachable backend found")
)

// TransportError is returned by a Service when the request itself failed,
// as opposed to a Response carrying a non-zero code.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func transportErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}

// IsTransportError reports whether err came from a failed fetch
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
