package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "localhost", cfg.Extract.Host)
	assert.Equal(t, 8000, cfg.Extract.Port)
	assert.Equal(t, "http://localhost:8000", cfg.Extract.BaseURL())
	assert.Equal(t, "/openapi.json", cfg.Extract.SchemaPath)
	assert.Equal(t, 3, cfg.Extract.Retries)

	assert.Equal(t, 300, cfg.Watch.DebounceMs)
	assert.True(t, cfg.Generate.Client)
	assert.True(t, cfg.Generate.Hooks)
	assert.False(t, cfg.Generate.Streaming)
	assert.Equal(t, 3, cfg.Generate.MaxConcurrency)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "farm.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[extract]
port = 9001
retries = 5

[generate]
streaming = true
max_concurrency = 8

[watch]
debounce_ms = 150
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Extract.Port)
	assert.Equal(t, 5, cfg.Extract.Retries)
	assert.True(t, cfg.Generate.Streaming)
	assert.Equal(t, 8, cfg.Generate.MaxConcurrency)
	assert.Equal(t, 150, cfg.Watch.DebounceMs)

	// Untouched keys keep their defaults.
	assert.Equal(t, "localhost", cfg.Extract.Host)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Extract.Port = 0 }},
		{"zero retries", func(c *Config) { c.Extract.Retries = 0 }},
		{"zero debounce", func(c *Config) { c.Watch.DebounceMs = 0 }},
		{"zero concurrency", func(c *Config) { c.Generate.MaxConcurrency = 0 }},
		{"zero cache ttl", func(c *Config) { c.Cache.TTLSeconds = 0 }},
		{"empty output dir", func(c *Config) { c.Output.Dir = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPersistRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "farm.toml")

	cfg := Default()
	cfg.Extract.Port = 9999
	cfg.Generate.AIHooks = true
	cfg.Watch.Roots = []string{"api/src"}

	require.NoError(t, Persist(cfg, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, loaded.Extract.Port)
	assert.True(t, loaded.Generate.AIHooks)
	assert.Equal(t, []string{"api/src"}, loaded.Watch.Roots)
}

func TestPersistCreatesBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "farm.toml")
	require.NoError(t, os.WriteFile(path, []byte("# original\n"), 0o644))

	require.NoError(t, Persist(Default(), path))

	backup, err := os.ReadFile(path + ".back1")
	require.NoError(t, err)
	assert.Equal(t, "# original\n", string(backup))
}

func TestTriggerPathDefault(t *testing.T) {
	o := OutputConfig{Dir: "out"}
	assert.Equal(t, "out/.farm-sync-trigger", o.TriggerPath())

	o.TriggerFile = "/tmp/trigger"
	assert.Equal(t, "/tmp/trigger", o.TriggerPath())
}
