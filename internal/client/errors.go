package client

import (
	"errors"
	"fmt"
)

// ErrApplication is returned when the server answered with status:false.
var ErrApplication = errors.New("server reported failure")

// TransportError is returned when a request could not complete: network
// failure, timeout, a non-2xx response, or a body that is not an envelope.
type TransportError struct {
	Endpoint   string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: http %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
