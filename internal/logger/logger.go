// Package logger provides the coordinator's structured logging seam, a thin
// wrapper over charmbracelet/log so that call sites can log with
// key/value pairs without depending on the concrete backend.
package logger

import (
	"os"
	"sync/atomic"

	charm "github.com/charmbracelet/log"
)

var defaultLogger atomic.Value

func init() {
	defaultLogger.Store(charm.NewWithOptions(os.Stderr, charm.Options{
		ReportTimestamp: true,
	}))
}

// Default returns the process-global logger.
func Default() *charm.Logger {
	return defaultLogger.Load().(*charm.Logger)
}

// SetDefault replaces the process-global logger. Passing nil is a no-op, so
// callers cannot accidentally disable logging by racing SetDefault(nil)
// against a concurrent Default() call.
func SetDefault(l *charm.Logger) {
	if l != nil {
		defaultLogger.Store(l)
	}
}

// Trace logs at trace level with key/value pairs, e.g.
// Trace("closing lock on contention", "path", path, "mode", mode).
func Trace(msg string, keyvals ...interface{}) {
	Default().Log(charm.DebugLevel-1, msg, keyvals...)
}

// Debug logs at debug level.
func Debug(msg string, keyvals ...interface{}) {
	Default().Debug(msg, keyvals...)
}

// Info logs at info level.
func Info(msg string, keyvals ...interface{}) {
	Default().Info(msg, keyvals...)
}

// Warn logs at warn level.
func Warn(msg string, keyvals ...interface{}) {
	Default().Warn(msg, keyvals...)
}

// Error logs at error level.
func Error(msg string, keyvals ...interface{}) {
	Default().Error(msg, keyvals...)
}
