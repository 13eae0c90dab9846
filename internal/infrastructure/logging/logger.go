// Package logging provides a wrapper around zap for structured logging
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a wrapper around zap.Logger providing a simplified API
type Logger struct {
	logger *zap.Logger
	sugar  *zap.SugaredLogger
}

// Fields is a type alias for key-value pairs
type Fields map[string]interface{}

// LogLevel represents the log severity level
type LogLevel string

// Available log levels
const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

// Config represents the logging configuration
type Config struct {
	Level         LogLevel
	Development   bool
	OutputPaths   []string
	InitialFields Fields
}

// DefaultConfig logs JSON at info level to stderr. Stdout stays free for the
// stdio transport.
func DefaultConfig() Config {
	return Config{
		Level:       InfoLevel,
		OutputPaths: []string{"stderr"},
	}
}

// zapLevel maps a LogLevel onto zap, falling back to info for unknown names.
func zapLevel(level LogLevel) zapcore.Level {
	parsed, err := zapcore.ParseLevel(strings.ToLower(string(level)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return parsed
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// New creates a new logger with the given configuration
func New(config Config) (*Logger, error) {
	outputs := config.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(zapLevel(config.Level)),
		Development:       config.Development,
		DisableCaller:     !config.Development,
		DisableStacktrace: !config.Development,
		Encoding:          "json",
		EncoderConfig:     encoderConfig(),
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
	}

	if len(config.InitialFields) > 0 {
		zapConfig.InitialFields = make(map[string]interface{}, len(config.InitialFields))
		for k, v := range config.InitialFields {
			zapConfig.InitialFields[k] = v
		}
	}

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return FromZap(zapLogger), nil
}

// FromZap wraps an existing zap logger.
func FromZap(zapLogger *zap.Logger) *Logger {
	return &Logger{
		logger: zapLogger,
		sugar:  zapLogger.Sugar(),
	}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return FromZap(zap.NewNop())
}

// Zap exposes the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	return l.logger
}

// Named returns a child logger with the given name segment appended.
func (l *Logger) Named(name string) *Logger {
	return FromZap(l.logger.Named(name))
}

// With returns a logger with the given fields
func (l *Logger) With(fields Fields) *Logger {
	if len(fields) == 0 {
		return l
	}
	return FromZap(l.logger.With(toZap(fields)...))
}

func toZap(fields Fields) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		if err, ok := v.(error); ok {
			zapFields = append(zapFields, zap.NamedError(k, err))
			continue
		}
		zapFields = append(zapFields, zap.Any(k, v))
	}
	return zapFields
}

func merged(fields []Fields) []zap.Field {
	switch len(fields) {
	case 0:
		return nil
	case 1:
		return toZap(fields[0])
	}
	all := Fields{}
	for _, f := range fields {
		for k, v := range f {
			all[k] = v
		}
	}
	return toZap(all)
}

// Debug logs a message at debug level with optional fields
func (l *Logger) Debug(msg string, fields ...Fields) {
	l.logger.Debug(msg, merged(fields)...)
}

// Info logs a message at info level with optional fields
func (l *Logger) Info(msg string, fields ...Fields) {
	l.logger.Info(msg, merged(fields)...)
}

// Warn logs a message at warn level with optional fields
func (l *Logger) Warn(msg string, fields ...Fields) {
	l.logger.Warn(msg, merged(fields)...)
}

// Error logs a message at error level with optional fields
func (l *Logger) Error(msg string, fields ...Fields) {
	l.logger.Error(msg, merged(fields)...)
}

// Debugf logs a formatted message at debug level
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Infof logs a formatted message at info level
func (l *Logger) Infof(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warnf logs a formatted message at warn level
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Errorf logs a formatted message at error level
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	return l.logger.Sync()
}

var defaultLogger = NewNop()

// Default returns the process-wide logger. It discards output until SetDefault
// is called during bootstrap.
func Default() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
