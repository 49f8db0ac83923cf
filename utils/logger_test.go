package utils

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithConfig(LoggerConfig{Writer: &buf, JSON: true})

	l.With("trace_id", "abc-123").Info("valuated %d leads", 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if rec["msg"] != "valuated 3 leads" {
		t.Errorf("msg: got %v", rec["msg"])
	}
	if rec["trace_id"] != "abc-123" {
		t.Errorf("trace_id: got %v", rec["trace_id"])
	}
	if rec["level"] != "INFO" {
		t.Errorf("level: got %v", rec["level"])
	}
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithConfig(LoggerConfig{Writer: &buf, Level: slog.LevelWarn})

	l.Debug("hidden")
	l.Info("hidden too")
	l.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("records below warn were written: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestWithDoesNotLeakIntoParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLoggerWithConfig(LoggerConfig{Writer: &buf, JSON: true})
	_ = parent.With("component", "server")

	parent.Info("plain")
	if strings.Contains(buf.String(), "component") {
		t.Errorf("child field leaked into parent: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}
