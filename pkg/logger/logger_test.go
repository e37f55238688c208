package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{" error ", ErrorLevel},
		{"unknown", InfoLevel},
		{"", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "debug"},
		{InfoLevel, "info"},
		{WarnLevel, "warn"},
		{ErrorLevel, "error"},
		{Level(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSlogLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{Level: InfoLevel, Format: "json", Writer: &buf})

	log.With("component", "planner").Info("planned tasks", "count", 2)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if record["message"] != "planned tasks" {
		t.Errorf("message = %v, want %q", record["message"], "planned tasks")
	}
	if record["component"] != "planner" {
		t.Errorf("component = %v, want planner", record["component"])
	}
	if record["count"] != float64(2) {
		t.Errorf("count = %v, want 2", record["count"])
	}
}

func TestSlogLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{Level: InfoLevel, Format: "text", Writer: &buf})

	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug message written at info level: %q", buf.String())
	}

	derived := log.With("k", "v")
	log.SetLevel(DebugLevel)
	if derived.GetLevel() != DebugLevel {
		t.Errorf("derived GetLevel() = %v, want debug", derived.GetLevel())
	}

	derived.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("expected debug message after SetLevel, got %q", buf.String())
	}
}

func TestSlogLogger_WithContext(t *testing.T) {
	log := Nop()
	ctx := log.WithContext(context.Background())

	if got := FromContext(ctx); got != log {
		t.Error("FromContext did not return the attached logger")
	}
	if FromContext(context.Background()) == nil {
		t.Error("expected global logger when no logger in context")
	}
}

func TestGlobal(t *testing.T) {
	prev := Global()
	t.Cleanup(func() { SetGlobal(prev) })

	var buf bytes.Buffer
	SetGlobal(New(&Config{Level: DebugLevel, Format: "text", Writer: &buf}))
	Info("hello from global", "key", "value")

	if !strings.Contains(buf.String(), "hello from global") {
		t.Errorf("global logger not replaced, output %q", buf.String())
	}

	SetGlobal(nil)
	if Global() == nil {
		t.Error("SetGlobal(nil) must not clear the global logger")
	}
}

func TestSlogLogger_Close(t *testing.T) {
	t.Run("stdout has nothing to close", func(t *testing.T) {
		log := New(&Config{Level: InfoLevel, Format: "text", Output: "stdout"})
		if err := log.Close(); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	})

	t.Run("file output is flushed", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "agent.log")
		log := New(&Config{Level: InfoLevel, Format: "json", Output: logFile})
		log.Info("written to file")

		if err := log.Close(); err != nil {
			t.Fatalf("unexpected error on close: %v", err)
		}
		content, err := os.ReadFile(logFile)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(content), "written to file") {
			t.Errorf("log file content = %q", content)
		}
	})

	t.Run("invalid path falls back to stdout", func(t *testing.T) {
		log := New(&Config{Level: InfoLevel, Format: "text", Output: "/nonexistent/dir/agent.log"})
		if err := log.Close(); err != nil {
			t.Errorf("expected nil error for stdout fallback, got %v", err)
		}
	})
}
