// Package config owns the farm type-sync configuration: feature toggles,
// performance knobs, extraction endpoints, watch roots, and cache locations.
//
// Configuration is read with Viper from farm.toml (project file found by
// walking up from the working directory), overridable through FARM_*
// environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the type-sync pipeline.
type Config struct {
	Extract  ExtractConfig    `mapstructure:"extract" json:"extract" toml:"extract"`
	Cache    CacheConfig      `mapstructure:"cache" json:"cache" toml:"cache"`
	Watch    WatchConfig      `mapstructure:"watch" json:"watch" toml:"watch"`
	Generate GeneratorOptions `mapstructure:"generate" json:"generate" toml:"generate"`
	Output   OutputConfig     `mapstructure:"output" json:"output" toml:"output"`
}

// ExtractConfig configures the schema extractor and its fallback chain.
type ExtractConfig struct {
	Host       string `mapstructure:"host" json:"host" toml:"host"`               // backend host (default: localhost)
	Port       int    `mapstructure:"port" json:"port" toml:"port"`               // backend port (default: 8000)
	SchemaPath string `mapstructure:"schema_path" json:"schema_path" toml:"schema_path"` // schema endpoint (default: /openapi.json)
	HealthPath string `mapstructure:"health_path" json:"health_path" toml:"health_path"` // health endpoint, "" disables the probe

	Retries      int `mapstructure:"retries" json:"retries" toml:"retries"`               // fetch attempts against a running service
	RetryDelayMs int `mapstructure:"retry_delay_ms" json:"retry_delay_ms" toml:"retry_delay_ms"` // base backoff, doubled per attempt

	HealthTimeoutSeconds  int `mapstructure:"health_timeout_seconds" json:"health_timeout_seconds" toml:"health_timeout_seconds"`
	FetchTimeoutSeconds   int `mapstructure:"fetch_timeout_seconds" json:"fetch_timeout_seconds" toml:"fetch_timeout_seconds"`
	StartupTimeoutSeconds int `mapstructure:"startup_timeout_seconds" json:"startup_timeout_seconds" toml:"startup_timeout_seconds"`

	// BackendCommand is the argv used to spawn a temporary backend for the
	// last-resort extraction strategy, e.g. ["uvicorn", "src.main:app"].
	// Empty disables the temporary-service strategy.
	BackendCommand []string `mapstructure:"backend_command" json:"backend_command" toml:"backend_command"`

	// StaticLocations are extra schema file paths checked by the static-file
	// strategy, ahead of the conventional locations.
	StaticLocations []string `mapstructure:"static_locations" json:"static_locations" toml:"static_locations"`
}

// CacheConfig configures the generation cache directory.
type CacheConfig struct {
	Dir        string `mapstructure:"dir" json:"dir" toml:"dir"`
	TTLSeconds int    `mapstructure:"ttl_seconds" json:"ttl_seconds" toml:"ttl_seconds"`
	Compress   bool   `mapstructure:"compress" json:"compress" toml:"compress"`
}

// WatchConfig configures source watching and the regeneration planner.
type WatchConfig struct {
	Roots       []string `mapstructure:"roots" json:"roots" toml:"roots"`
	ModelGlobs  []string `mapstructure:"model_globs" json:"model_globs" toml:"model_globs"`
	RouteGlobs  []string `mapstructure:"route_globs" json:"route_globs" toml:"route_globs"`
	ConfigGlobs []string `mapstructure:"config_globs" json:"config_globs" toml:"config_globs"`

	DebounceMs         int `mapstructure:"debounce_ms" json:"debounce_ms" toml:"debounce_ms"`
	MaxRegensPerMinute int `mapstructure:"max_regens_per_minute" json:"max_regens_per_minute" toml:"max_regens_per_minute"` // 0 = unlimited

	// AlwaysRegenerate / NeverRegenerate are path patterns overriding
	// classification. When a path matches both lists the most specific
	// pattern wins; on equal specificity NeverRegenerate wins.
	AlwaysRegenerate []string `mapstructure:"always_regenerate" json:"always_regenerate" toml:"always_regenerate"`
	NeverRegenerate  []string `mapstructure:"never_regenerate" json:"never_regenerate" toml:"never_regenerate"`
}

// GeneratorOptions carries the feature toggles and performance knobs exposed
// to generators. Its fingerprint is half of the cache key.
type GeneratorOptions struct {
	Client    bool `mapstructure:"client" json:"client" toml:"client"`
	Hooks     bool `mapstructure:"hooks" json:"hooks" toml:"hooks"`
	Streaming bool `mapstructure:"streaming" json:"streaming" toml:"streaming"`
	AIHooks   bool `mapstructure:"ai_hooks" json:"ai_hooks" toml:"ai_hooks"`

	MaxConcurrency              int  `mapstructure:"max_concurrency" json:"max_concurrency" toml:"max_concurrency"`
	CacheTimeoutSeconds         int  `mapstructure:"cache_timeout_seconds" json:"cache_timeout_seconds" toml:"cache_timeout_seconds"`
	EnableIncrementalGeneration bool `mapstructure:"enable_incremental_generation" json:"enable_incremental_generation" toml:"enable_incremental_generation"`
}

// OutputConfig configures where generated artifacts land.
type OutputConfig struct {
	Dir         string `mapstructure:"dir" json:"dir" toml:"dir"`
	TriggerFile string `mapstructure:"trigger_file" json:"trigger_file" toml:"trigger_file"`
}

// BaseURL returns the backend base URL, e.g. "http://localhost:8000".
func (e *ExtractConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", e.Host, e.Port)
}

// RetryDelay returns the base backoff as a duration.
func (e *ExtractConfig) RetryDelay() time.Duration {
	return time.Duration(e.RetryDelayMs) * time.Millisecond
}

// HealthTimeout returns the health-probe timeout.
func (e *ExtractConfig) HealthTimeout() time.Duration {
	return time.Duration(e.HealthTimeoutSeconds) * time.Second
}

// FetchTimeout returns the per-fetch timeout.
func (e *ExtractConfig) FetchTimeout() time.Duration {
	return time.Duration(e.FetchTimeoutSeconds) * time.Second
}

// StartupTimeout returns the temporary-service startup window.
func (e *ExtractConfig) StartupTimeout() time.Duration {
	return time.Duration(e.StartupTimeoutSeconds) * time.Second
}

// TTL returns the cache entry lifetime.
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Debounce returns the debounce window.
func (w *WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// CacheTimeout returns how long a previously extracted schema stays
// acceptable for the cache fallback strategy.
func (g *GeneratorOptions) CacheTimeout() time.Duration {
	return time.Duration(g.CacheTimeoutSeconds) * time.Second
}

// TriggerPath returns the trigger marker location, defaulting to a dotfile
// inside the output directory.
func (o *OutputConfig) TriggerPath() string {
	if o.TriggerFile != "" {
		return o.TriggerFile
	}
	return o.Dir + "/.farm-sync-trigger"
}
