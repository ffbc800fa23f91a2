package config

import (
	"os"

	"github.com/Cstannahill/farm-framework/errors"
	"github.com/pelletier/go-toml/v2"
)

// Persist writes the configuration to path as TOML, creating a .back1 copy
// of any existing file first.
func Persist(cfg *Config, path string) error {
	if err := createBackup(path); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write config file %s", path)
	}
	return nil
}

// createBackup copies the current config aside before it is overwritten.
func createBackup(path string) error {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	if err := os.WriteFile(path+".back1", content, 0o644); err != nil {
		return errors.Wrap(err, "failed to create config backup")
	}
	return nil
}
