package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/nadi-pro/browser/pkg/config"
	"github.com/nadi-pro/browser/pkg/privacy"
)

// LogFormat represents the output format for logs.
type LogFormat string

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON LogFormat = "json"
	// FormatText outputs logs in plain text format.
	FormatText LogFormat = "text"
	// FormatConsole outputs logs in human-readable console format.
	FormatConsole LogFormat = "console"
)

// Logger provides structured logging with PII redaction and async buffering.
type Logger struct {
	// slog is the underlying structured logger
	slog *slog.Logger

	// redactor performs PII redaction on log fields
	redactor *Redactor

	// buffer is the async writer, nil for synchronous output
	buffer *LogBuffer
}

// Config contains configuration for the Logger.
type Config struct {
	// Level is the minimum log level ("debug", "info", "warn", "error")
	Level string

	// Format is the output format ("json", "text", "console")
	Format string

	// AddSource includes file and line number in logs
	AddSource bool

	// RedactPII enables automatic PII redaction
	RedactPII bool

	// Privacy configures the patterns and sensitive keys used for
	// redaction. The zero value selects the built-in lists.
	Privacy privacy.Config

	// BufferSize is the async log buffer size in records. Zero or less
	// writes synchronously.
	BufferSize int

	// Writer is the output writer (defaults to os.Stdout)
	Writer io.Writer
}

// ConfigFrom builds a logger Config from the application configuration.
func ConfigFrom(l config.LoggingConfig, p privacy.Config) Config {
	return Config{
		Level:      l.Level,
		Format:     l.Format,
		AddSource:  l.AddSource,
		RedactPII:  l.RedactPII,
		Privacy:    p,
		BufferSize: l.BufferSize,
	}
}

// New creates a new Logger with the given configuration.
func New(cfg Config) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid log format: %w", err)
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	var redactor *Redactor
	if cfg.RedactPII {
		if redactor, err = NewRedactor(cfg.Privacy); err != nil {
			return nil, err
		}
	}

	l := &Logger{redactor: redactor}
	if cfg.BufferSize > 0 {
		l.buffer = NewLogBuffer(writer, cfg.BufferSize)
		writer = l.buffer
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}
	if redactor != nil {
		opts.ReplaceAttr = redactor.ReplaceAttr
	}

	var handler slog.Handler
	switch format {
	case FormatText, FormatConsole:
		handler = slog.NewTextHandler(writer, opts)
	default:
		handler = slog.NewJSONHandler(writer, opts)
	}
	l.slog = slog.New(handler)

	return l, nil
}

// Slog returns the underlying slog.Logger. Records logged through it are
// redacted the same way.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Redactor returns the redactor, or nil when redaction is disabled.
func (l *Logger) Redactor() *Redactor {
	return l.redactor
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(context.Background(), slog.LevelDebug, msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	l.log(context.Background(), slog.LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(context.Background(), slog.LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.log(context.Background(), slog.LevelError, msg, args...)
}

// DebugContext logs a debug message with context fields.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, append(extractContextFields(ctx), args...)...)
}

// InfoContext logs an info message with context fields.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, append(extractContextFields(ctx), args...)...)
}

// WarnContext logs a warning message with context fields.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, append(extractContextFields(ctx), args...)...)
}

// ErrorContext logs an error message with context fields.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, append(extractContextFields(ctx), args...)...)
}

func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if !l.slog.Enabled(ctx, level) {
		return
	}
	l.slog.Log(ctx, level, msg, args...)
}

// With creates a new logger with additional fields.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:     l.slog.With(args...),
		redactor: l.redactor,
		buffer:   l.buffer,
	}
}

// WithContext creates a new logger carrying the request, session and
// trace fields found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	args := extractContextFields(ctx)
	if len(args) == 0 {
		return l
	}
	return l.With(args...)
}

// Dropped returns the number of records dropped because the async buffer
// was full.
func (l *Logger) Dropped() int64 {
	if l.buffer == nil {
		return 0
	}
	return l.buffer.DroppedCount()
}

// Shutdown gracefully shuts down the logger, flushing pending writes.
func (l *Logger) Shutdown() error {
	if l.buffer != nil {
		l.buffer.Stop()
	}
	return nil
}

// LogBuffer is an io.Writer that hands records to a background goroutine.
// Records written while the buffer is full are dropped and counted.
type LogBuffer struct {
	entries  chan []byte
	writer   io.Writer
	dropped  atomic.Int64
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewLogBuffer starts a LogBuffer holding up to size records.
func NewLogBuffer(w io.Writer, size int) *LogBuffer {
	lb := &LogBuffer{
		entries:  make(chan []byte, size),
		writer:   w,
		stopChan: make(chan struct{}),
	}
	lb.wg.Add(1)
	go lb.runWriter()
	return lb
}

// Write queues a copy of p. It never blocks.
func (lb *LogBuffer) Write(p []byte) (int, error) {
	select {
	case <-lb.stopChan:
		return lb.writer.Write(p)
	default:
	}

	entry := append([]byte(nil), p...)
	select {
	case lb.entries <- entry:
	default:
		lb.dropped.Add(1)
	}
	return len(p), nil
}

func (lb *LogBuffer) runWriter() {
	defer lb.wg.Done()

	for {
		select {
		case <-lb.stopChan:
			for {
				select {
				case entry := <-lb.entries:
					_, _ = lb.writer.Write(entry)
				default:
					return
				}
			}
		case entry := <-lb.entries:
			_, _ = lb.writer.Write(entry)
		}
	}
}

// Stop flushes queued records and stops the writer goroutine. Later
// writes go straight to the underlying writer.
func (lb *LogBuffer) Stop() {
	lb.stopOnce.Do(func() {
		close(lb.stopChan)
		lb.wg.Wait()
	})
}

// DroppedCount returns the number of dropped log entries.
func (lb *LogBuffer) DroppedCount() int64 {
	return lb.dropped.Load()
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// parseFormat parses a log format string into LogFormat.
func parseFormat(formatStr string) (LogFormat, error) {
	switch strings.ToLower(formatStr) {
	case "json", "":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	case "console":
		return FormatConsole, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format: %s", formatStr)
	}
}
