package interfaces

// Logger is the structured logger handed to every component. keyvals are
// alternating key and value pairs, e.g. "func", name, "user", username.
type Logger interface {
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
	Debug(msg string, keyvals ...interface{})
	// SetLevel accepts zerolog level names in any case; unknown names select info.
	SetLevel(level string)
	WithContext(ctx map[string]interface{}) Logger
}
