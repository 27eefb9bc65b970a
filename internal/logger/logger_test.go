package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("debug", false, &buf)
	t.Cleanup(func() { Init("info", false) })

	WithComponent("scheduler").Info().Str("backend", "yabai").Msg("Selected")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["component"] != "scheduler" {
		t.Errorf("component = %v, want scheduler", entry["component"])
	}
	if entry["backend"] != "yabai" {
		t.Errorf("backend = %v, want yabai", entry["backend"])
	}
	if entry["message"] != "Selected" {
		t.Errorf("message = %v, want Selected", entry["message"])
	}
}

func TestInitFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("warn", false, &buf)
	t.Cleanup(func() { Init("info", false) })

	WithComponent("test").Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("info line written at warn level: %q", buf.String())
	}
}
