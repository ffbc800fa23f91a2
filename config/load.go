package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Cstannahill/farm-framework/errors"
	"github.com/spf13/viper"
)

// ProjectConfigName is the per-project configuration file name.
const ProjectConfigName = "farm.toml"

// Load reads configuration from the project farm.toml (found by walking up
// from the working directory), environment variables, and defaults.
func Load() (*Config, error) {
	v := NewViper()
	if path := FindProjectConfig(); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}
	return unmarshal(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(configPath string) (*Config, error) {
	v := NewViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}
	return unmarshal(v)
}

// Default returns the configuration with only defaults and environment
// variables applied. Useful for tests and for running outside a project.
func Default() *Config {
	cfg, err := unmarshal(NewViper())
	if err != nil {
		// Defaults always unmarshal into Config; this is unreachable short
		// of a schema mismatch introduced in this package.
		panic(err)
	}
	return cfg
}

// NewViper builds a Viper instance with defaults and FARM_* env binding.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("FARM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// FindProjectConfig walks up the directory tree looking for farm.toml.
// Returns "" when none is found.
func FindProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, ProjectConfigName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
