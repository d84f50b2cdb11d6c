package diag

// Logger is the interface tools implement to receive diagnostic events.
// Pass NoopLogger to disable logging.
type Logger interface {
	// Log records a diagnostic event. Implementations must be
	// thread-safe.
	Log(event Event)
}

// NoopLogger discards all events. Use when logging is disabled.
// NoopLogger is safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}
