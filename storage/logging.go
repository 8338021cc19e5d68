package storage

import (
	"github.com/phuslu/log"
)

// newKernelLogger builds the structured logger the buffer pool emits
// operational events through
func newKernelLogger(level string) *log.Logger {
	return &log.Logger{
		Level: parseLogLevel(level),
		Caller: 0,
		Writer: &log.ConsoleWriter{
			ColorOutput: false,
			EndWithMessage: true,
		},
	}
}

func parseLogLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
