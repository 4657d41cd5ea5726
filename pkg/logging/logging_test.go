package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},

		{"DEBUG", LevelDebug},
		{"WARNING", LevelWarn},
		{"Error", LevelError},
		{"dEbUg", LevelDebug},

		// Empty and unrecognized default to Info.
		{"", LevelInfo},
		{"trace", LevelInfo},
		{"fatal", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
	}{
		{"json", FormatJSON},
		{"JSON", FormatJSON},
		{"Json", FormatJSON},
		{"text", FormatText},
		{"TEXT", FormatText},
		{"", FormatText},
		{"logfmt", FormatText}, // unrecognized defaults to text
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseFormat(tt.input)
			if result != tt.expected {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	log.Info("generator started", "port", 8080)

	out := buf.String()
	if !strings.Contains(out, `"msg":"generator started"`) {
		t.Errorf("expected JSON output with msg field, got: %s", out)
	}
	if !strings.Contains(out, `"port":8080`) {
		t.Errorf("expected JSON output with port attr, got: %s", out)
	}
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatText, Output: &buf})

	log.Info("tick", "count", 3)

	out := buf.String()
	if !strings.Contains(out, "msg=tick") {
		t.Errorf("expected text output with msg, got: %s", out)
	}
	if !strings.Contains(out, "count=3") {
		t.Errorf("expected text output with count attr, got: %s", out)
	}
}

func TestNewLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelWarn, Format: FormatText, Output: &buf})

	log.Debug("hidden")
	log.Info("also hidden")
	log.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected debug/info to be filtered at warn level, got: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("expected warn message in output, got: %s", out)
	}
}

func TestNewWithLevel(t *testing.T) {
	log := NewWithLevel(LevelError)
	if log.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info to be disabled at error level")
	}
	if !log.Enabled(context.Background(), slog.LevelError) {
		t.Error("expected error to be enabled")
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	if log == nil {
		t.Fatal("Nop() returned nil")
	}
	// Must not panic.
	log.Info("discarded")
	log.Error("also discarded")
}

func TestMultiHandler(t *testing.T) {
	var a, b bytes.Buffer
	multi := NewMultiHandler(
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, nil),
	)
	log := slog.New(multi)

	log.Info("fan out")

	if !strings.Contains(a.String(), "fan out") {
		t.Errorf("first handler missing record: %s", a.String())
	}
	if !strings.Contains(b.String(), "fan out") {
		t.Errorf("second handler missing record: %s", b.String())
	}
}

func TestMultiHandlerLevelGate(t *testing.T) {
	var quiet, chatty bytes.Buffer
	multi := NewMultiHandler(
		slog.NewTextHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&chatty, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)

	if !multi.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Enabled should be true when any handler accepts the level")
	}

	log := slog.New(multi)
	log.Info("routine")

	if quiet.Len() != 0 {
		t.Errorf("error-level handler should not receive info records: %s", quiet.String())
	}
	if !strings.Contains(chatty.String(), "routine") {
		t.Errorf("debug-level handler missing record: %s", chatty.String())
	}
}
