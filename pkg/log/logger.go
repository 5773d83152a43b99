package log

import "time"

// Logger receives protocol log events. Pass nil or NoopLogger to disable
// logging.
type Logger interface {
	// Log records a protocol event. Implementations must be thread-safe
	// and must not block the caller for long: the transaction engine logs
	// while holding the bus.
	Log(event Event)
}

// NoopLogger discards all events. It is usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}

// OrNoop returns l, or NoopLogger when l is nil.
func OrNoop(l Logger) Logger {
	if l == nil {
		return NoopLogger{}
	}
	return l
}

// Stamp fills in the timestamp of an event if it is unset.
func Stamp(e Event) Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return e
}
