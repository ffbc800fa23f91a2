package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Extraction defaults match a stock FastAPI dev server
	v.SetDefault("extract.host", "localhost")
	v.SetDefault("extract.port", 8000)
	v.SetDefault("extract.schema_path", "/openapi.json")
	v.SetDefault("extract.health_path", "/health")
	v.SetDefault("extract.retries", 3)
	v.SetDefault("extract.retry_delay_ms", 250)
	v.SetDefault("extract.health_timeout_seconds", 2)
	v.SetDefault("extract.fetch_timeout_seconds", 10)
	v.SetDefault("extract.startup_timeout_seconds", 15)
	v.SetDefault("extract.static_locations", []string{})

	// Cache defaults
	v.SetDefault("cache.dir", ".farm/cache")
	v.SetDefault("cache.ttl_seconds", 3600)
	v.SetDefault("cache.compress", true)

	// Watch defaults
	v.SetDefault("watch.roots", []string{"src"})
	v.SetDefault("watch.model_globs", []string{"**/models/**/*.py", "**/models.py"})
	v.SetDefault("watch.route_globs", []string{"**/routes/**/*.py", "**/routers/**/*.py"})
	v.SetDefault("watch.config_globs", []string{"farm.toml", "**/core/config.py"})
	v.SetDefault("watch.debounce_ms", 300)
	v.SetDefault("watch.max_regens_per_minute", 30)

	// Generator defaults
	v.SetDefault("generate.client", true)
	v.SetDefault("generate.hooks", true)
	v.SetDefault("generate.streaming", false)
	v.SetDefault("generate.ai_hooks", false)
	v.SetDefault("generate.max_concurrency", 3)
	v.SetDefault("generate.cache_timeout_seconds", 300)
	v.SetDefault("generate.enable_incremental_generation", true)

	// Output defaults
	v.SetDefault("output.dir", "frontend/src/types/generated")
	v.SetDefault("output.trigger_file", "")
}
