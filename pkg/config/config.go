// Package config resolves command line settings from flags, a guardian.yaml
// file, and GUARDIAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, so the rules-include
// key is read from GUARDIAN_RULES_INCLUDE.
const EnvPrefix = "GUARDIAN"

// Config holds every setting shared by the scan commands and the server.
// Keys match the command line flag names.
type Config struct {
	Categories      []string `mapstructure:"category"`
	Rules           []string `mapstructure:"rules"`
	RulesInclude    string   `mapstructure:"rules-include"`
	RulesExclude    string   `mapstructure:"rules-exclude"`
	Format          string   `mapstructure:"format"`
	Color           string   `mapstructure:"color"`
	Output          string   `mapstructure:"output"`
	Concurrency     int      `mapstructure:"concurrency"`
	IncludeComment  bool     `mapstructure:"include-comment"`
	MaxFileSize     int64    `mapstructure:"max-file-size"`
	IncludeHidden   bool     `mapstructure:"include-hidden"`
	FailOnViolation bool     `mapstructure:"fail-on-violation"`
	LogLevel        string   `mapstructure:"log-level"`
	LogFormat       string   `mapstructure:"log-format"`
}

// Defaults returns the built-in settings.
func Defaults() *Config {
	return &Config{
		Categories:  []string{"PII"},
		Format:      "human",
		Color:       "auto",
		Concurrency: runtime.NumCPU(),
		MaxFileSize: 10 * 1024 * 1024,
		LogLevel:    "warn",
		LogFormat:   "console",
	}
}

// New returns a viper instance with defaults and environment lookup set up.
// Callers bind their flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	d := Defaults()
	v.SetDefault("category", d.Categories)
	v.SetDefault("rules", []string{})
	v.SetDefault("rules-include", "")
	v.SetDefault("rules-exclude", "")
	v.SetDefault("format", d.Format)
	v.SetDefault("color", d.Color)
	v.SetDefault("output", "")
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("include-comment", false)
	v.SetDefault("max-file-size", d.MaxFileSize)
	v.SetDefault("include-hidden", false)
	v.SetDefault("fail-on-violation", false)
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-format", d.LogFormat)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the configuration file, if any, and resolves the final settings.
// An explicit configPath must exist; otherwise guardian.yaml is looked up in
// the working directory and in $HOME/.guardian, and a missing file is fine.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("guardian")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.guardian")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks enumerated and numeric settings.
func Validate(cfg *Config) error {
	if cfg.Format != "human" && cfg.Format != "json" {
		return fmt.Errorf("invalid format: %s (must be human or json)", cfg.Format)
	}
	if cfg.Color != "auto" && cfg.Color != "always" && cfg.Color != "never" {
		return fmt.Errorf("invalid color mode: %s (must be auto, always, or never)", cfg.Color)
	}
	if cfg.Concurrency < 1 {
		return fmt.Errorf("invalid concurrency: %d (must be at least 1)", cfg.Concurrency)
	}
	if cfg.MaxFileSize < 0 {
		return fmt.Errorf("invalid max file size: %d", cfg.MaxFileSize)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", cfg.LogFormat)
	}
	return nil
}
