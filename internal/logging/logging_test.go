package logging

import (
	"bytes"
	"encoding/json"
	"log"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConfigure_JSONWithLoggerName(t *testing.T) {
	var buf bytes.Buffer
	closeFn, err := Configure(Config{Level: "debug", JSON: true, Writer: &buf})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	defer closeFn()

	GetLogger("auth.store").Debug("session resolved", "authenticated", true)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decoding record %q: %v", buf.String(), err)
	}
	if rec["logger"] != "auth.store" {
		t.Errorf("expected logger attr, got %v", rec["logger"])
	}
	if rec["msg"] != "session resolved" {
		t.Errorf("unexpected msg %v", rec["msg"])
	}
}

func TestConfigure_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	closeFn, err := Configure(Config{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	defer closeFn()

	GetLogger("x").Info("hidden")
	GetLogger("x").Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestConfigure_StdLogRouted(t *testing.T) {
	var buf bytes.Buffer
	closeFn, err := Configure(Config{Writer: &buf})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	defer closeFn()

	log.Printf("legacy line")
	if !strings.Contains(buf.String(), "legacy line") {
		t.Errorf("std log output not routed: %q", buf.String())
	}
}
