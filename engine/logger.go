package engine

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the engine's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the engine package's logger.
// This must be called before any engine is opened.
func SetLogger(l *zap.Logger) {
	logger = l
}

// pebbleLogger routes pebble's internal logging through zap. Fatalf does not
// exit the process; it panics so the caller's recovery decides.
type pebbleLogger struct {
	s *zap.SugaredLogger
}

func (l pebbleLogger) Infof(format string, args ...any) {
	l.s.Infof(format, args...)
}

func (l pebbleLogger) Errorf(format string, args ...any) {
	l.s.Errorf(format, args...)
}

func (l pebbleLogger) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.s.Error(msg)
	panic(msg)
}
