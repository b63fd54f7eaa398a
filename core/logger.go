package core

// Logger is the app-wide leveled logger contract.
// args may carry context values appended to the message; implementations
// decide how to render or report them.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}
