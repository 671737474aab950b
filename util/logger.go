// Package util provides low-level helpers shared by all other packages.
package util

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel controls output verbosity.
type LogLevel int

const (
	LogQuiet   LogLevel = 0
	LogNormal  LogLevel = 1
	LogVerbose LogLevel = 2
	LogDebug   LogLevel = 3
)

// LogOptions selects where and how log entries are written.
type LogOptions struct {
	Verbosity int
	Format    string    // "console" (default) or "json"
	File      string    // optional rotated log file
	Output    io.Writer // defaults to os.Stderr
}

// Logger writes levelled messages through zap.  Verbosity gating keeps
// the four-step scheme (quiet, normal, verbose, debug); zap handles
// encoding, fields and sinks.
type Logger struct {
	level LogLevel
	sugar *zap.SugaredLogger
}

// NewLogger returns a console Logger on stderr that prints messages at
// or below the given verbosity (0 = quiet, 1 = normal, 2 = verbose,
// 3 = debug).
func NewLogger(verbosity int) *Logger {
	return NewLoggerWithOptions(LogOptions{Verbosity: verbosity})
}

// NewLoggerWithOptions builds a Logger from opts.
func NewLoggerWithOptions(opts LogOptions) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var enc zapcore.Encoder
	if opts.Format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(out)}
	if opts.File != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			LocalTime:  true,
		}))
	}

	core := zapcore.NewCore(enc, zapcore.NewMultiWriteSyncer(sinks...), zapcore.DebugLevel)
	return NewLoggerFromZap(zap.New(core), opts.Verbosity)
}

// NewLoggerFromZap wraps an existing zap logger.  Tests use it with
// zaptest/observer to capture entries.
func NewLoggerFromZap(z *zap.Logger, verbosity int) *Logger {
	return &Logger{level: LogLevel(verbosity), sugar: z.Sugar()}
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel { return l.level }

// With returns a child logger that attaches the given key/value pairs
// to every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{level: l.level, sugar: l.sugar.With(keysAndValues...)}
}

// Info prints when verbosity ≥ 1.
func (l *Logger) Info(format string, args ...interface{}) {
	if l.level >= LogNormal {
		l.sugar.Info(sprintf(format, args))
	}
}

// Warn prints when verbosity ≥ 1.
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.level >= LogNormal {
		l.sugar.Warn(sprintf(format, args))
	}
}

// Verbose prints when verbosity ≥ 2.  Entries are emitted at zap's
// info level.
func (l *Logger) Verbose(format string, args ...interface{}) {
	if l.level >= LogVerbose {
		l.sugar.Info(sprintf(format, args))
	}
}

// Debug prints when verbosity ≥ 3.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.level >= LogDebug {
		l.sugar.Debug(sprintf(format, args))
	}
}

// Error always prints regardless of verbosity.
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Error(sprintf(format, args))
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error { return l.sugar.Sync() }

func sprintf(format string, args []interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
