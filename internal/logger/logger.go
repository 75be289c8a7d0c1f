package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logLevelNames = map[LogLevel]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

var zapLevels = map[LogLevel]zapcore.Level{
	LevelDebug: zapcore.DebugLevel,
	LevelInfo:  zapcore.InfoLevel,
	LevelWarn:  zapcore.WarnLevel,
	LevelError: zapcore.ErrorLevel,
}

// New builds a zap-backed logger. Production uses the JSON encoder, otherwise
// the human readable console encoder.
func New(level LogLevel, production bool) (*Logger, error) {
	var cfg zap.Config
	if production {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	// Level filtering happens in log so SetLogLevel keeps working.
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)

	z, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}
	return &Logger{MinLevel: level, sugar: z.Sugar()}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{MinLevel: LevelError, sugar: zap.NewNop().Sugar()}
}

// SetLogLevel sets the minimum log level
func (l *Logger) SetLogLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.MinLevel = level
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

func (l *Logger) log(level LogLevel, component, message string, args ...interface{}) {
	l.mu.Lock()
	minLevel := l.MinLevel
	l.mu.Unlock()
	if level < minLevel {
		return
	}

	formattedMsg := fmt.Sprintf(message, args...)

	s := l.sugar
	if component != "" {
		s = s.With("component", component)
	}
	if ce := s.Desugar().Check(zapLevels[level], formattedMsg); ce != nil {
		ce.Write(zap.String("level_name", logLevelNames[level]))
	}
}

// Debug logs a debug message
func (l *Logger) Debug(component, message string, args ...interface{}) {
	l.log(LevelDebug, component, message, args...)
}

// Info logs an info message
func (l *Logger) Info(component, message string, args ...interface{}) {
	l.log(LevelInfo, component, message, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(component, message string, args ...interface{}) {
	l.log(LevelWarn, component, message, args...)
}

// Error logs an error message
func (l *Logger) Error(component, message string, args ...interface{}) {
	l.log(LevelError, component, message, args...)
}

// Fatal logs an error message and exits
func (l *Logger) Fatal(component, message string, args ...interface{}) {
	l.log(LevelError, component, message, args...)
	_ = l.Sync()
	os.Exit(1)
}
