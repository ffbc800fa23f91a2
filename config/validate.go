package config

import "github.com/Cstannahill/farm-framework/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Extract.Port <= 0 || c.Extract.Port > 65535 {
		return errors.Newf("extract.port must be in 1..65535, got %d", c.Extract.Port)
	}
	if c.Extract.Retries < 1 {
		return errors.Newf("extract.retries must be >= 1, got %d", c.Extract.Retries)
	}
	if c.Extract.RetryDelayMs < 0 {
		return errors.Newf("extract.retry_delay_ms must be >= 0, got %d", c.Extract.RetryDelayMs)
	}
	if c.Extract.FetchTimeoutSeconds <= 0 {
		return errors.Newf("extract.fetch_timeout_seconds must be > 0, got %d", c.Extract.FetchTimeoutSeconds)
	}
	if c.Extract.StartupTimeoutSeconds <= 0 {
		return errors.Newf("extract.startup_timeout_seconds must be > 0, got %d", c.Extract.StartupTimeoutSeconds)
	}

	if c.Cache.TTLSeconds <= 0 {
		return errors.Newf("cache.ttl_seconds must be > 0, got %d", c.Cache.TTLSeconds)
	}

	if c.Watch.DebounceMs <= 0 {
		return errors.Newf("watch.debounce_ms must be > 0, got %d", c.Watch.DebounceMs)
	}
	if c.Watch.MaxRegensPerMinute < 0 {
		return errors.Newf("watch.max_regens_per_minute must be >= 0, got %d", c.Watch.MaxRegensPerMinute)
	}

	if c.Generate.MaxConcurrency < 1 {
		return errors.Newf("generate.max_concurrency must be >= 1, got %d", c.Generate.MaxConcurrency)
	}
	if c.Generate.CacheTimeoutSeconds <= 0 {
		return errors.Newf("generate.cache_timeout_seconds must be > 0, got %d", c.Generate.CacheTimeoutSeconds)
	}

	if c.Output.Dir == "" {
		return errors.New("output.dir cannot be empty")
	}

	return nil
}
