package ops

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gamestr/scorestr/internal/config"
)

// Logger is a structured logger wrapper
type Logger struct {
	*slog.Logger
	level  slog.Level
	format string
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a new structured logger based on config
func NewLogger(cfg *config.Logging) *Logger {
	return NewLoggerWithWriter(cfg, os.Stdout)
}

// NewLoggerWithWriter creates a logger with a custom writer
func NewLoggerWithWriter(cfg *config.Logging, w io.Writer) *Logger {
	level := parseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
		level:  level,
		format: cfg.Format,
	}
}

// WithComponent adds a component field to all log messages
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", component),
		level:  l.level,
		format: l.format,
	}
}

// WithFields adds custom fields to the logger
func (l *Logger) WithFields(fields ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(fields...),
		level:  l.level,
		format: l.format,
	}
}

// IsDebugEnabled returns true if debug logging is enabled
func (l *Logger) IsDebugEnabled() bool {
	return l.level <= slog.LevelDebug
}

// Component-specific logger helpers

// LogPublishResult logs one relay's outcome for a publish attempt
func (l *Logger) LogPublishResult(relay string, err error) {
	if err != nil {
		l.Warn("publish failed",
			"relay", relay,
			"error", err)
	} else {
		l.Debug("publish accepted",
			"relay", relay)
	}
}

// LogAnnouncement logs a published score announcement
func (l *Logger) LogAnnouncement(tier string, game string, player string, score int64, noteID string) {
	l.Info("announcement published",
		"tier", tier,
		"game", game,
		"player", shortID(player),
		"score", score,
		"note", shortID(noteID))
}

// LogScoreDropped logs a submission that was discarded before the cache
func (l *Logger) LogScoreDropped(eventID string, reason string) {
	l.Debug("score event dropped",
		"event", shortID(eventID),
		"reason", reason)
}

// LogBackfill logs backfill progress
func (l *Logger) LogBackfill(fetched, loaded, games int, duration time.Duration) {
	l.Info("backfill complete",
		"fetched", fetched,
		"loaded", loaded,
		"games", games,
		"duration_ms", duration.Milliseconds())
}

// LogStartup logs service startup information
func (l *Logger) LogStartup(version string, pubkey string, gamesTracked int) {
	l.Info("scorestr starting",
		"version", version,
		"pubkey", pubkey,
		"games", gamesTracked)
}

// LogShutdown logs service shutdown
func (l *Logger) LogShutdown(reason string) {
	l.Info("scorestr shutting down",
		"reason", reason)
}

// shortID truncates event ids and pubkeys for log lines.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return id
}

// Default logger configuration
var defaultLogger *Logger

func init() {
	defaultLogger = NewLogger(&config.Logging{
		Level:  "info",
		Format: "text",
	})
}

// Default returns the default logger
func Default() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger
func SetDefault(l *Logger) {
	defaultLogger = l
}

// Info logs an info message
func Info(msg string, fields ...any) {
	defaultLogger.Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...any) {
	defaultLogger.Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...any) {
	defaultLogger.Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...any) {
	defaultLogger.Error(msg, fields...)
}
