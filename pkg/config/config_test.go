package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guardian.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"PII"}, cfg.Categories)
	assert.Equal(t, "human", cfg.Format)
	assert.Equal(t, "auto", cfg.Color)
	assert.GreaterOrEqual(t, cfg.Concurrency, 1)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxFileSize)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `category:
  - PII
  - INCLUSION
rules-exclude: "^email"
format: json
concurrency: 2
include-comment: true
`)

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"PII", "INCLUSION"}, cfg.Categories)
	assert.Equal(t, "^email", cfg.RulesExclude)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.True(t, cfg.IncludeComment)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "format: json\n")
	t.Setenv("GUARDIAN_FORMAT", "human")
	t.Setenv("GUARDIAN_FAIL_ON_VIOLATION", "true")

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "human", cfg.Format)
	assert.True(t, cfg.FailOnViolation)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, "format: xml\n")

	_, err := Load(New(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"color", func(c *Config) { c.Color = "sometimes" }},
		{"concurrency", func(c *Config) { c.Concurrency = 0 }},
		{"max file size", func(c *Config) { c.MaxFileSize = -1 }},
		{"log level", func(c *Config) { c.LogLevel = "trace" }},
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
	}

	require.NoError(t, Validate(Defaults()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}
