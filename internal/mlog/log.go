// Package mlog declares the logging contract shared by every PledgeFlow
// service, so business code never depends on a concrete logging library.
package mlog

// Logger is the common interface implemented by every logging backend used
// across the services.
type Logger interface {
	Info(args ...any)
	Infof(format string, args ...any)

	Error(args ...any)
	Errorf(format string, args ...any)

	Warn(args ...any)
	Warnf(format string, args ...any)

	Debug(args ...any)
	Debugf(format string, args ...any)

	Fatal(args ...any)
	Fatalf(format string, args ...any)

	// WithFields returns a new Logger enriched with structured key/value
	// context, leaving the receiver unchanged.
	WithFields(fields ...any) Logger

	Sync() error
}

// NoneLogger is a no-op Logger, useful as a default or in tests.
type NoneLogger struct{}

func (NoneLogger) Info(args ...any)                   {}
func (NoneLogger) Infof(format string, args ...any)   {}
func (NoneLogger) Error(args ...any)                  {}
func (NoneLogger) Errorf(format string, args ...any)  {}
func (NoneLogger) Warn(args ...any)                   {}
func (NoneLogger) Warnf(format string, args ...any)   {}
func (NoneLogger) Debug(args ...any)                  {}
func (NoneLogger) Debugf(format string, args ...any)  {}
func (NoneLogger) Fatal(args ...any)                  {}
func (NoneLogger) Fatalf(format string, args ...any)  {}
func (n NoneLogger) WithFields(fields ...any) Logger  { return n }
func (NoneLogger) Sync() error                        { return nil }
