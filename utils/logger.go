package utils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/lmittmann/tint"
)

// LoggerConfig controls where and how log lines are written.
type LoggerConfig struct {
	// Writer defaults to os.Stdout.
	Writer io.Writer
	Level  slog.Level
	// JSON switches from coloured text to one JSON object per line.
	JSON bool
	// Fluent, when set, receives a copy of every record at or above Level.
	Fluent *fluent.Fluent
}

// Logger provides leveled, printf-style logging throughout the application.
// Scoped fields added with With are attached to every record.
type Logger struct {
	slog   *slog.Logger
	level  slog.Level
	fluent *fluent.Fluent
	fields map[string]any
}

// NewLogger creates a Logger writing coloured text to stdout at info level.
func NewLogger() *Logger {
	return NewLoggerWithConfig(LoggerConfig{})
}

func NewLoggerWithConfig(cfg LoggerConfig) *Logger {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(cfg.Writer, &slog.HandlerOptions{Level: cfg.Level})
	} else {
		handler = tint.NewHandler(cfg.Writer, &tint.Options{
			Level:      cfg.Level,
			TimeFormat: "2006-01-02 15:04:05",
		})
	}

	return &Logger{
		slog:   slog.New(handler),
		level:  cfg.Level,
		fluent: cfg.Fluent,
		fields: map[string]any{},
	}
}

// With returns a child logger that adds key=value to every record.
func (l *Logger) With(key string, value any) *Logger {
	fields := make(map[string]any, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value

	return &Logger{
		slog:   l.slog.With(key, value),
		level:  l.level,
		fluent: l.fluent,
		fields: fields,
	}
}

func (l *Logger) Info(format string, args ...any) {
	l.log(slog.LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.log(slog.LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.log(slog.LevelError, format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.log(slog.LevelDebug, format, args...)
}

func (l *Logger) log(level slog.Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.slog.Log(context.Background(), level, msg)

	if l.fluent == nil || level < l.level {
		return
	}
	record := make(map[string]any, len(l.fields)+3)
	for k, v := range l.fields {
		record[k] = v
	}
	levelName := strings.ToLower(level.String())
	record["level"] = levelName
	record["message"] = msg
	record["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	// Fluent errors must not recurse into the logger.
	_ = l.fluent.Post(levelName, record)
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewFluentClient connects to a Fluent Bit forward input. Creation does not
// verify the connection; errors surface on the first Post.
func NewFluentClient(host string, port int, tagPrefix string) (*fluent.Fluent, error) {
	if tagPrefix == "" {
		return nil, fmt.Errorf("fluent: tag prefix is required")
	}
	client, err := fluent.New(fluent.Config{
		FluentHost: host,
		FluentPort: port,
		TagPrefix:  tagPrefix,
		Async:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("fluent: create client: %w", err)
	}
	return client, nil
}
