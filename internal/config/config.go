package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	ModelSize     string       `yaml:"model_size"`
	ModelsDir     string       `yaml:"models_dir"`
	Language      string       `yaml:"language"`
	Hotkey        HotkeyConfig `yaml:"hotkey"`
	Audio         AudioConfig  `yaml:"audio"`
	AutoPaste     bool         `yaml:"auto_paste"`
	Notifications bool         `yaml:"notifications"`
	InjectMethod  string       `yaml:"inject_method"`  // "paste" or "type"
	PasteShortcut string       `yaml:"paste_shortcut"` // "auto", "ctrl+v" or "ctrl+shift+v"
	LogLevel      string       `yaml:"log_level"`
}

// HotkeyConfig holds hotkey-related settings.
type HotkeyConfig struct {
	Key        string `yaml:"key"`
	Mode       string `yaml:"mode"`        // "push_to_talk" or "toggle"
	DebounceMS int    `yaml:"debounce_ms"` // release debounce window for push_to_talk
}

// AudioConfig holds audio capture settings.
type AudioConfig struct {
	// Device selects the input device by name. Empty means the system
	// mixer (the pulse/pipewire default route).
	Device string `yaml:"device"`
}

// modelSizes are the whisper model sizes we know how to download.
var modelSizes = map[string]bool{
	"tiny": true, "base": true, "small": true,
	"medium": true, "large-v3": true,
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "transcriptor")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultModelsDir returns the default directory for whisper model files.
func DefaultModelsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "transcriptor", "models")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		ModelSize: "small",
		ModelsDir: DefaultModelsDir(),
		Language:  "es",
		Hotkey: HotkeyConfig{
			Key:        "f12",
			Mode:       "push_to_talk",
			DebounceMS: 75,
		},
		Audio:         AudioConfig{Device: ""},
		AutoPaste:     true,
		Notifications: true,
		InjectMethod:  "paste",
		PasteShortcut: "auto",
		LogLevel:      "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in models_dir is expanded to the user's home.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.ModelsDir = expandTilde(cfg.ModelsDir)

	return cfg, nil
}

// Save writes the config as YAML to the given path, creating the
// directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// WriteDefault writes a commented default config to the default path.
// Returns the written path, or "" if a config file already exists.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}

	if err := os.MkdirAll(DefaultConfigDir(), 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("marshaling default config: %w", err)
	}

	header := "# transcriptor configuration\n# See README for field documentation.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0644); err != nil {
		return "", fmt.Errorf("writing default config: %w", err)
	}

	return path, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if !modelSizes[c.ModelSize] {
		return fmt.Errorf("model_size must be one of tiny, base, small, medium, large-v3, got %q", c.ModelSize)
	}

	if c.ModelsDir == "" {
		return fmt.Errorf("models_dir must not be empty")
	}

	if c.Hotkey.Key == "" {
		return fmt.Errorf("hotkey.key must not be empty")
	}

	switch c.Hotkey.Mode {
	case "push_to_talk", "toggle":
	default:
		return fmt.Errorf("hotkey.mode must be \"push_to_talk\" or \"toggle\", got %q", c.Hotkey.Mode)
	}

	if c.Hotkey.DebounceMS <= 0 {
		return fmt.Errorf("hotkey.debounce_ms must be > 0")
	}

	switch c.InjectMethod {
	case "paste", "type":
	default:
		return fmt.Errorf("inject_method must be \"paste\" or \"type\", got %q", c.InjectMethod)
	}

	switch c.PasteShortcut {
	case "auto", "ctrl+v", "ctrl+shift+v":
	default:
		return fmt.Errorf("paste_shortcut must be \"auto\", \"ctrl+v\" or \"ctrl+shift+v\", got %q", c.PasteShortcut)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// ModelPath returns the path to the ggml model file for the given size.
func (c *Config) ModelPath(size string) string {
	return filepath.Join(c.ModelsDir, "ggml-"+size+".bin")
}

// ParseLogLevel maps a config log level string to a slog.Level.
// Unknown values default to info.
func ParseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
