// Package logging provides structured logging functionality.
package logging

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// Logger provides structured logging capabilities.
type Logger struct {
	zl    zerolog.Logger
	out   io.Writer
	level zerolog.Level
}

// NewLogger creates a new logger with the specified level writing to stderr.
// Stdout is reserved for the stdio MCP transport.
func NewLogger(level string) *Logger {
	return New(os.Stderr, level)
}

// New creates a logger that writes JSON lines to w.
func New(w io.Writer, level string) *Logger {
	lvl := ParseLevel(level)
	return &Logger{
		zl:    zerolog.New(w).Level(lvl).With().Timestamp().Logger(),
		out:   w,
		level: lvl,
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop(), out: io.Discard, level: zerolog.Disabled}
}

// ParseLevel maps a textual level onto a zerolog level. Unknown values
// fall back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ValidLevel reports whether level is one ParseLevel understands explicitly.
func ValidLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

func (l *Logger) derive(ctx zerolog.Context) *Logger {
	return &Logger{zl: ctx.Logger(), out: l.out, level: l.level}
}

// With returns a logger carrying the given key/value pairs.
func (l *Logger) With(args ...any) *Logger {
	return l.derive(l.zl.With().Fields(args))
}

// WithTool returns a logger with tool information.
func (l *Logger) WithTool(toolName string) *Logger {
	return l.derive(l.zl.With().Str("tool", toolName))
}

// WithSession returns a logger with session information.
func (l *Logger) WithSession(sessionID string) *Logger {
	return l.derive(l.zl.With().Str("session", sessionID))
}

// WithComponent returns a logger tagged with the emitting component.
func (l *Logger) WithComponent(component string) *Logger {
	return l.derive(l.zl.With().Str("component", component))
}

// Debug logs a debug message with optional key/value arguments.
func (l *Logger) Debug(msg string, args ...any) {
	l.zl.Debug().Fields(args).Msg(msg)
}

// Info logs an info message with optional key/value arguments.
func (l *Logger) Info(msg string, args ...any) {
	l.zl.Info().Fields(args).Msg(msg)
}

// Warn logs a warning message with optional key/value arguments.
func (l *Logger) Warn(msg string, args ...any) {
	l.zl.Warn().Fields(args).Msg(msg)
}

// Error logs an error message with optional key/value arguments.
func (l *Logger) Error(msg string, args ...any) {
	l.zl.Error().Fields(args).Msg(msg)
}

// Zerolog exposes the underlying zerolog logger.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zl
}

// Slog returns a *slog.Logger writing to the same sink at the same level.
// The MCP SDK only accepts slog loggers.
func (l *Logger) Slog() *slog.Logger {
	return slog.New(slog.NewJSONHandler(l.out, &slog.HandlerOptions{
		Level: slogLevel(l.level),
	}))
}

func slogLevel(lvl zerolog.Level) slog.Level {
	switch lvl {
	case zerolog.DebugLevel, zerolog.TraceLevel:
		return slog.LevelDebug
	case zerolog.WarnLevel:
		return slog.LevelWarn
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return slog.LevelError
	case zerolog.Disabled:
		return slog.LevelError + 100
	default:
		return slog.LevelInfo
	}
}

// HTTPMiddleware returns chi-compatible middleware that attaches the logger
// to each request and writes one access line per response.
func (l *Logger) HTTPMiddleware() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		hlog.NewHandler(l.zl),
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("http request")
		}),
	}
}
