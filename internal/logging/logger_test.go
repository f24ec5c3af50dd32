// Package logging tests for structured JSON logging.
package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("log line is not JSON: %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

// TestInit_idempotent verifies Init is idempotent.
func TestInit_idempotent(t *testing.T) {
	global = nil
	once = *new(sync.Once)

	var buf1 bytes.Buffer
	Init(&buf1, LevelInfo)
	first := Get()

	var buf2 bytes.Buffer
	Init(&buf2, LevelDebug)

	if Get() != first {
		t.Error("Second Init() should be ignored, different logger returned")
	}
	if Get().base.Out != &buf1 {
		t.Error("Second Init() should be ignored, output writer changed")
	}
}

// TestGet_default verifies default logger creation.
func TestGet_default(t *testing.T) {
	global = nil
	once = *new(sync.Once)

	logger := Get()
	if logger.base.Out != os.Stdout {
		t.Error("Get() should default to os.Stdout")
	}
	if got := logger.base.GetLevel(); got != logrus.InfoLevel {
		t.Errorf("level = %v, want info", got)
	}
}

// TestLogger_fields verifies message, level and context are emitted as JSON.
func TestLogger_fields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelDebug)

	l.Info("backup created", map[string]interface{}{"filename": "salon_backup_20240101_000000.db"})
	l.Error("restore failed", errors.New("disk full"), map[string]interface{}{"backend": "local"})

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0]["message"] != "backup created" {
		t.Errorf("message = %v", lines[0]["message"])
	}
	if lines[0]["level"] != "info" {
		t.Errorf("level = %v, want info", lines[0]["level"])
	}
	if lines[0]["filename"] != "salon_backup_20240101_000000.db" {
		t.Errorf("filename field = %v", lines[0]["filename"])
	}
	if _, ok := lines[0]["timestamp"]; !ok {
		t.Error("timestamp field missing")
	}
	if lines[1]["error"] != "disk full" {
		t.Errorf("error field = %v", lines[1]["error"])
	}
}

// TestLogger_minLevel verifies entries below the minimum level are dropped.
func TestLogger_minLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["message"] != "warn" {
		t.Errorf("expected only the warn entry, got %v", lines)
	}

	buf.Reset()
	l.SetLevel(LevelDebug)
	l.Debug("debug")
	if len(decodeLines(t, &buf)) != 1 {
		t.Error("SetLevel(LevelDebug) should enable debug output")
	}
}

// TestLogger_mergedContext verifies multiple context maps are merged.
func TestLogger_mergedContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelInfo)

	l.Info("merged", map[string]interface{}{"a": 1}, map[string]interface{}{"b": 2})

	lines := decodeLines(t, &buf)
	if lines[0]["a"] != float64(1) || lines[0]["b"] != float64(2) {
		t.Errorf("merged context missing: %v", lines[0])
	}
}

// TestParseLevel verifies config string parsing.
func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
