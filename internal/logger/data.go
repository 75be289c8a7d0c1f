package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Logger provides structured logging with levels

type Logger struct {
	MinLevel LogLevel
	mu       sync.Mutex
	sugar    *zap.SugaredLogger
}

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a LOG_LEVEL value to a LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}
