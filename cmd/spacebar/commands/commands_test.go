package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/bryanchriswhite/spacebar/internal/config"
	"github.com/bryanchriswhite/spacebar/internal/notify"
	"github.com/bryanchriswhite/spacebar/internal/window"
	"github.com/fatih/color"
	"github.com/spf13/viper"
)

func testSpaces() []window.Space {
	return []window.Space{
		{ID: "1", Windows: []window.Window{{ID: 10, SpaceID: "1", App: "Mail", Title: "Inbox"}}},
		{ID: "2", IsActive: true, Windows: []window.Window{
			{ID: 20, SpaceID: "2", App: "Terminal", Title: "zsh", IsFocused: true},
			{ID: 21, SpaceID: "2", App: "Safari", Title: "Docs"},
		}},
		{ID: "3", Windows: []window.Window{}},
	}
}

func TestWriteSpaces_Table(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	if err := writeSpaces(&buf, "table", testSpaces()); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want 6:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "SPACE") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[3], "zsh") || !strings.HasSuffix(lines[3], "focused") {
		t.Errorf("focused row = %q", lines[3])
	}
	if !strings.HasSuffix(lines[4], "active") {
		t.Errorf("active row = %q", lines[4])
	}
	if !strings.HasPrefix(lines[5], "3") {
		t.Errorf("empty space row = %q", lines[5])
	}
}

func TestWriteSpaces_JSONAndYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := writeSpaces(&buf, "json", testSpaces()); err != nil {
		t.Fatal(err)
	}
	var decoded []window.Space
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(decoded) != 3 || decoded[1].Windows[0].Title != "zsh" {
		t.Errorf("decoded = %+v", decoded)
	}

	buf.Reset()
	if err := writeSpaces(&buf, "yaml", testSpaces()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "title: zsh") {
		t.Errorf("yaml output:\n%s", buf.String())
	}

	if err := writeSpaces(&buf, "xml", nil); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestSignalAction(t *testing.T) {
	action, err := signalAction("http", 7788)
	if err != nil {
		t.Fatal(err)
	}
	if action != "curl -s -X POST http://localhost:7788/api/signals/%s" {
		t.Errorf("http action = %q", action)
	}

	action, err = signalAction("dbus", 7788)
	if err != nil || action != notify.DBusSendAction {
		t.Errorf("dbus action = %q, %v", action, err)
	}

	if _, err := signalAction("carrier-pigeon", 7788); err == nil {
		t.Error("expected error for unknown transport")
	}
}

func TestPrintSignalCommands(t *testing.T) {
	var buf bytes.Buffer
	printSignalCommands(&buf, [][]string{
		{"yabai", "-m", "signal", "--add", "event=space_changed", "action=curl -s http://localhost/x"},
	})

	want := "yabai -m signal --add event=space_changed action='curl -s http://localhost/x'\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"", "''"},
		{"two words", "'two words'"},
		{"it's", `'it'\''s'`},
		{"label=a b", "label='a b'"},
	}
	for _, tt := range tests {
		if got := shellQuote(tt.in); got != tt.want {
			t.Errorf("shellQuote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteConfig(t *testing.T) {
	var buf bytes.Buffer
	if err := writeConfig(&buf, "yaml", config.Defaults()); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"backend: auto", "poll_interval: 500ms", "server_port: 7788"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("yaml missing %q:\n%s", want, buf.String())
		}
	}

	buf.Reset()
	if err := writeConfig(&buf, "json", config.Defaults()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"poll_interval": "500ms"`) {
		t.Errorf("json output:\n%s", buf.String())
	}

	if err := writeConfig(&buf, "toml", config.Defaults()); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestApplyOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg := applyOverrides(config.Defaults())
	if cfg.ServerPort != 7788 || cfg.Backend != config.BackendAuto {
		t.Errorf("defaults changed without overrides: %+v", cfg)
	}

	viper.Set("server_port", 9090)
	viper.Set("backend", config.BackendAerospace)
	viper.Set("log_level", "")

	cfg = applyOverrides(config.Defaults())
	if cfg.ServerPort != 9090 {
		t.Errorf("ServerPort = %d, want 9090", cfg.ServerPort)
	}
	if cfg.Backend != config.BackendAerospace {
		t.Errorf("Backend = %q", cfg.Backend)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("empty log level override should be ignored, got %q", cfg.LogLevel)
	}
}
