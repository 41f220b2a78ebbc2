package execlog

// StatusTracker follows the server's user status message. An empty message
// means idle; anything else means an automation run is in progress.
type StatusTracker struct {
	last string
}

// Observe records msg and reports whether it differs from the previous one.
func (s *StatusTracker) Observe(msg string) bool {
	if msg == s.last {
		return false
	}
	s.last = msg
	return true
}

// Message returns the last observed message.
func (s *StatusTracker) Message() string {
	return s.last
}

// Running reports whether an automation run is in progress.
func (s *StatusTracker) Running() bool {
	return s.last != ""
}
