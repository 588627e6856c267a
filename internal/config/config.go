// Package config handles configuration loading and management for tracecheck.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ShayCichocki/tracecheck/internal/grammar"
)

// Config holds all configuration for tracecheck.
type Config struct {
	Trace   TraceConfig   `mapstructure:"trace"`
	Grammar GrammarConfig `mapstructure:"grammar"`
	Report  ReportConfig  `mapstructure:"report"`
	History HistoryConfig `mapstructure:"history"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Log     LogConfig     `mapstructure:"log"`
}

// TraceConfig holds trace document settings.
type TraceConfig struct {
	// Field is the top-level document field holding the records.
	Field string `mapstructure:"field"`
}

// GrammarConfig holds grammar verification settings.
type GrammarConfig struct {
	// GroupType is the record type that marks structural group events.
	GroupType string `mapstructure:"group_type"`
	// Mode is "first-child" or "strict".
	Mode string `mapstructure:"mode"`
}

// ReportConfig holds output settings.
type ReportConfig struct {
	// Format is "text", "json" or "yaml".
	Format string `mapstructure:"format"`
	// Color enables ANSI color in text output.
	Color bool `mapstructure:"color"`
}

// HistoryConfig holds validation history settings.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Path is the SQLite file. Empty means the XDG data directory.
	Path string `mapstructure:"path"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	// Debounce is how long to wait after a write before re-validating.
	Debounce time.Duration `mapstructure:"debounce"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `mapstructure:"level"`
}

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// EnvPrefix is prepended to environment variable overrides,
// e.g. TRACECHECK_GRAMMAR_MODE.
const EnvPrefix = "TRACECHECK"

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (TRACECHECK_*)
// 2. Project config (.tracecheck.yaml in current directory or parent)
// 3. User config (~/.config/tracecheck/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := newViper()

	// Load user config from XDG path
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific file, on top of defaults.
// Environment variables still take precedence.
func LoadFromPath(path string) (*Config, error) {
	v := newViper()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return SaveToPath(cfg, filepath.Join(userConfigDir, "config.yaml"))
}

// SaveToPath writes the configuration to path.
func SaveToPath(cfg *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)

	v.Set("trace.field", cfg.Trace.Field)
	v.Set("grammar.group_type", cfg.Grammar.GroupType)
	v.Set("grammar.mode", cfg.Grammar.Mode)
	v.Set("report.format", cfg.Report.Format)
	v.Set("report.color", cfg.Report.Color)
	v.Set("history.enabled", cfg.History.Enabled)
	v.Set("history.path", cfg.History.Path)
	v.Set("watch.debounce", cfg.Watch.Debounce.String())
	v.Set("log.level", cfg.Log.Level)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if _, err := grammar.ParseMode(c.Grammar.Mode); err != nil {
		return err
	}
	switch c.Report.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("unknown report format %q", c.Report.Format)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

// HistoryPath returns the configured history database path,
// falling back to the XDG data directory.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return expandEnv(c.History.Path)
	}
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "tracecheck", "history.db")
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("trace.field", d.Trace.Field)
	v.SetDefault("grammar.group_type", d.Grammar.GroupType)
	v.SetDefault("grammar.mode", d.Grammar.Mode)
	v.SetDefault("report.format", d.Report.Format)
	v.SetDefault("report.color", d.Report.Color)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("watch.debounce", d.Watch.Debounce.String())
	v.SetDefault("log.level", d.Log.Level)
}

// getUserConfigDir returns the XDG config directory for tracecheck.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "tracecheck")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "tracecheck")
	}
	return filepath.Join(home, ".config", "tracecheck")
}

// findProjectConfig searches for .tracecheck.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".tracecheck.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Trace: TraceConfig{
			Field: "trace",
		},
		Grammar: GrammarConfig{
			GroupType: "GroupEvent",
			Mode:      string(grammar.ModeFirstChild),
		},
		Report: ReportConfig{
			Format: FormatText,
			Color:  true,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}
