// Package logger holds the process-wide structured logger.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the shared logger. It starts as a development logger so packages can log before
// Init runs (tests included).
var Log *zap.Logger = newDefault()

func newDefault() *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Init replaces Log with a logger built for the given level.
//
// Parameters:
//   - level: one of debug, info, warn, error (empty means info)
//   - development: true for human-readable console output, false for JSON
//
// Returns:
//   - error: error if the level is unknown or the logger cannot be built
func Init(level string, development bool) error {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	Log = l
	return nil
}

// Sync flushes buffered log entries. Errors are ignored because stderr sync fails on some terminals.
func Sync() {
	_ = Log.Sync()
}
