// Package logger defines the structured logging surface used across
// paymcp. Integrations either pass their own implementation or use the
// zap-backed one from this package.
package logger

// Logger is a leveled logger with structured fields. With returns a
// child logger whose entries always carry the given fields, which
// components use to stamp every line with their provider or flow.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
	With(fields map[string]any) Logger
}

// NoopLogger discards everything. It is the default when no logger is
// configured.
type NoopLogger struct{}

func (NoopLogger) Debug(string, map[string]any) {}
func (NoopLogger) Info(string, map[string]any)  {}
func (NoopLogger) Warn(string, map[string]any)  {}
func (NoopLogger) Error(string, map[string]any) {}

func (n NoopLogger) With(map[string]any) Logger { return n }
