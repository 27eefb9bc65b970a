package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bryanchriswhite/spacebar/internal/logger"
	"gopkg.in/yaml.v3"
)

// Backend selection values
const (
	BackendAuto      = "auto"
	BackendYabai     = "yabai"
	BackendAerospace = "aerospace"
)

// Duration is a time.Duration that reads and writes as a string ("500ms")
type Duration time.Duration

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String formats the duration
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalYAML writes the duration as a string
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML accepts "500ms" style strings or plain milliseconds
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := parseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON writes the duration as a string
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON accepts the same formats as UnmarshalYAML
func (d *Duration) UnmarshalJSON(data []byte) error {
	parsed, err := parseDuration(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func parseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.Atoi(s); err == nil {
		return Duration(time.Duration(ms) * time.Millisecond), nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return Duration(v), nil
}

// Config represents the application configuration
type Config struct {
	// Window manager selection
	Backend       string `json:"backend" yaml:"backend"`
	YabaiPath     string `json:"yabai_path" yaml:"yabai_path"`
	AerospacePath string `json:"aerospace_path" yaml:"aerospace_path"`

	// Scheduling
	PollInterval      Duration `json:"poll_interval" yaml:"poll_interval"`
	ExecTimeout       Duration `json:"exec_timeout" yaml:"exec_timeout"`
	FocusRecheckDelay Duration `json:"focus_recheck_delay" yaml:"focus_recheck_delay"`

	// Drop windows of applications without a Dock presence
	AccessoryFilter bool `json:"accessory_filter" yaml:"accessory_filter"`

	// Notification sources
	DBusSignals bool `json:"dbus_signals" yaml:"dbus_signals"`
	LogindPower bool `json:"logind_power" yaml:"logind_power"`

	ServerPort int    `json:"server_port" yaml:"server_port"`
	LogLevel   string `json:"log_level" yaml:"log_level"`
}

// Defaults returns the default configuration
func Defaults() *Config {
	return &Config{
		Backend:           BackendAuto,
		YabaiPath:         "yabai",
		AerospacePath:     "aerospace",
		PollInterval:      Duration(500 * time.Millisecond),
		ExecTimeout:       Duration(3 * time.Second),
		FocusRecheckDelay: Duration(100 * time.Millisecond),
		AccessoryFilter:   true,
		DBusSignals:       false,
		LogindPower:       false,
		ServerPort:        7788,
		LogLevel:          "info",
	}
}

// Validate checks values that would break the scheduler or the selector
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAuto, BackendYabai, BackendAerospace:
	default:
		return fmt.Errorf("invalid backend %q (use auto, yabai or aerospace)", c.Backend)
	}
	if c.PollInterval.Std() <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if c.ExecTimeout.Std() <= 0 {
		return fmt.Errorf("exec_timeout must be positive")
	}
	if c.FocusRecheckDelay.Std() < 0 {
		return fmt.Errorf("focus_recheck_delay must not be negative")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid server_port %d", c.ServerPort)
	}
	return nil
}

// Manager handles configuration
type Manager struct {
	configPath string
	config     *Config
	mu         sync.RWMutex
}

// DefaultPath returns ~/.config/spacebar/config.yaml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "spacebar", "config.yaml"), nil
}

// NewManager creates a new configuration manager. An empty configFile means
// the default path; a missing file is created with defaults.
func NewManager(configFile string) (*Manager, error) {
	actualConfigPath := configFile
	if actualConfigPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		actualConfigPath = p
	}

	if err := os.MkdirAll(filepath.Dir(actualConfigPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	m := &Manager{
		configPath: actualConfigPath,
	}

	if err := m.load(); err != nil {
		if os.IsNotExist(err) {
			logger.WithComponent("config").Info().
				Str("path", m.configPath).
				Msg("Config file not found, creating new config")
			m.config = Defaults()
			if err := m.Save(); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger.WithComponent("config").Info().
		Str("path", m.configPath).
		Str("backend", m.config.Backend).
		Msg("Config loaded")

	return m, nil
}

// load reads the configuration from disk. Keys missing from the file keep
// their defaults.
func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", m.configPath, err)
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()

	return nil
}

// Reload re-reads the configuration file, keeping the previous values on error
func (m *Manager) Reload() error {
	return m.load()
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return Defaults()
	}
	cfg := *m.config
	return &cfg
}

// Update replaces the configuration and saves it
func (m *Manager) Update(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c := *cfg
	m.mu.Lock()
	m.config = &c
	m.mu.Unlock()
	return m.Save()
}

// Save saves the current configuration to disk
func (m *Manager) Save() error {
	m.mu.RLock()
	cfg := m.config
	m.mu.RUnlock()

	if cfg == nil {
		cfg = Defaults()
	}

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Msg("Saving config")

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// GetConfigPath returns the configuration file path
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// Keys returns the settable configuration keys in sorted order
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the value of a configuration key
func (m *Manager) Lookup(key string) (interface{}, bool) {
	cfg := m.Get()
	switch key {
	case "backend":
		return cfg.Backend, true
	case "yabai_path":
		return cfg.YabaiPath, true
	case "aerospace_path":
		return cfg.AerospacePath, true
	case "poll_interval":
		return cfg.PollInterval.String(), true
	case "exec_timeout":
		return cfg.ExecTimeout.String(), true
	case "focus_recheck_delay":
		return cfg.FocusRecheckDelay.String(), true
	case "accessory_filter":
		return cfg.AccessoryFilter, true
	case "dbus_signals":
		return cfg.DBusSignals, true
	case "logind_power":
		return cfg.LogindPower, true
	case "server_port":
		return cfg.ServerPort, true
	case "log_level":
		return cfg.LogLevel, true
	}
	return nil, false
}

var setters = map[string]func(cfg *Config, value string) error{
	"backend": func(cfg *Config, v string) error {
		cfg.Backend = v
		return nil
	},
	"yabai_path": func(cfg *Config, v string) error {
		cfg.YabaiPath = v
		return nil
	},
	"aerospace_path": func(cfg *Config, v string) error {
		cfg.AerospacePath = v
		return nil
	},
	"poll_interval":       durationSetter(func(cfg *Config) *Duration { return &cfg.PollInterval }),
	"exec_timeout":        durationSetter(func(cfg *Config) *Duration { return &cfg.ExecTimeout }),
	"focus_recheck_delay": durationSetter(func(cfg *Config) *Duration { return &cfg.FocusRecheckDelay }),
	"accessory_filter":    boolSetter(func(cfg *Config) *bool { return &cfg.AccessoryFilter }),
	"dbus_signals":        boolSetter(func(cfg *Config) *bool { return &cfg.DBusSignals }),
	"logind_power":        boolSetter(func(cfg *Config) *bool { return &cfg.LogindPower }),
	"server_port": func(cfg *Config, v string) error {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid port number: %s", v)
		}
		cfg.ServerPort = port
		return nil
	},
	"log_level": func(cfg *Config, v string) error {
		switch v {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("invalid log level: %s (use: debug, info, warn, error)", v)
		}
		cfg.LogLevel = v
		return nil
	},
}

func durationSetter(field func(*Config) *Duration) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		d, err := parseDuration(v)
		if err != nil {
			return err
		}
		*field(cfg) = d
		return nil
	}
}

func boolSetter(field func(*Config) *bool) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s (use: true or false)", v)
		}
		*field(cfg) = b
		return nil
	}
}

// Set parses and stores a single key, then saves the file
func (m *Manager) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("configuration key not found: %s", key)
	}
	cfg := m.Get()
	if err := set(cfg, value); err != nil {
		return err
	}
	return m.Update(cfg)
}
