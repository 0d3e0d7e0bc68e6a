package config

// Logger receives diagnostic output from config parsing. The CLI stays
// quiet by default; callers that want parse tracing supply their own
// implementation via Parser.SetLogger.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// discardLogger drops everything. Used when no Logger is supplied.
type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}
