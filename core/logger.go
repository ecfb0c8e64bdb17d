package core

// Logger is any leveled logger the app reports to.
// Implementations inspect trailing args for known types (eg. the acting user)
// and attach them to the report.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
