package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeTestConfig(t *testing.T, path string, port int) {
	t.Helper()
	cfg := Default()
	cfg.Extract.Port = port
	require.NoError(t, Persist(cfg, path))
}

func TestWatcherReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "farm.toml")
	writeTestConfig(t, path, 8000)

	w, err := NewWatcher(path, zap.NewNop().Sugar())
	require.NoError(t, err)
	w.debouncePeriod = 20 * time.Millisecond
	defer w.Stop()

	reloaded := make(chan *Config, 1)
	w.OnReload(func(cfg *Config) error {
		reloaded <- cfg
		return nil
	})
	w.Start()

	writeTestConfig(t, path, 9000)

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 9000, cfg.Extract.Port)
	case <-time.After(3 * time.Second):
		t.Fatal("config change did not trigger reload")
	}
}

func TestMarkOwnWriteIsConsumedOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "farm.toml")
	writeTestConfig(t, path, 8000)

	w, err := NewWatcher(path, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer w.Stop()

	w.MarkOwnWrite()
	assert.True(t, w.consumeOwnWrite())
	assert.False(t, w.consumeOwnWrite())
}

func TestIsBackupFile(t *testing.T) {
	assert.True(t, isBackupFile("farm.toml.back1"))
	assert.False(t, isBackupFile("farm.toml"))
}
