package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	defaultLogger *slog.Logger
	mu            sync.Mutex
)

// FileOptions configures the optional rotating log file sink.
type FileOptions struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Initialize sets up the structured logger writing JSON to stdout.
// Safe to call more than once; later calls are no-ops.
func Initialize() {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = slog.New(newHandler(os.Stdout))
	}
}

// InitializeWithFile sets up the logger writing JSON to stdout and to a
// size-rotated log file. Replaces any previously configured logger.
func InitializeWithFile(opts FileOptions) {
	rotated := &lumberjack.Logger{
		Filename:   opts.Filename,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}

	mu.Lock()
	defer mu.Unlock()
	defaultLogger = slog.New(newHandler(io.MultiWriter(os.Stdout, rotated)))
}

func newHandler(w io.Writer) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     levelFromEnv(),
		AddSource: false,
	})
}

func levelFromEnv() slog.Level {
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Get returns the default structured logger
func Get() *slog.Logger {
	Initialize()
	mu.Lock()
	defer mu.Unlock()
	return defaultLogger
}

// Info logs an info level message
func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

// InfoContext logs an info level message with context
func InfoContext(ctx context.Context, msg string, args ...any) {
	Get().InfoContext(ctx, msg, args...)
}

// Warn logs a warning level message
func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

// Error logs an error level message
func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}

// Debug logs a debug level message
func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger {
	return Get().With(args...)
}
