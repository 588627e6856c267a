package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Keys lists every dot-notation configuration key, in display order.
func Keys() []string {
	return []string{
		"trace.field",
		"grammar.group_type",
		"grammar.mode",
		"report.format",
		"report.color",
		"history.enabled",
		"history.path",
		"watch.debounce",
		"log.level",
	}
}

// Get returns a configuration value by dot-notation key.
func Get(cfg *Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "trace.field":
		return cfg.Trace.Field, nil
	case "grammar.group_type":
		return cfg.Grammar.GroupType, nil
	case "grammar.mode":
		return cfg.Grammar.Mode, nil
	case "report.format":
		return cfg.Report.Format, nil
	case "report.color":
		return strconv.FormatBool(cfg.Report.Color), nil
	case "history.enabled":
		return strconv.FormatBool(cfg.History.Enabled), nil
	case "history.path":
		return cfg.History.Path, nil
	case "watch.debounce":
		return cfg.Watch.Debounce.String(), nil
	case "log.level":
		return cfg.Log.Level, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// Set assigns a configuration value by dot-notation key.
// The resulting config is validated before returning.
func Set(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "trace.field":
		cfg.Trace.Field = value
	case "grammar.group_type":
		cfg.Grammar.GroupType = value
	case "grammar.mode":
		cfg.Grammar.Mode = value
	case "report.format":
		cfg.Report.Format = value
	case "report.color":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for report.color: %w", err)
		}
		cfg.Report.Color = b
	case "history.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for history.enabled: %w", err)
		}
		cfg.History.Enabled = b
	case "history.path":
		cfg.History.Path = value
	case "watch.debounce":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for watch.debounce: %w", err)
		}
		cfg.Watch.Debounce = d
	case "log.level":
		cfg.Log.Level = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return cfg.Validate()
}
