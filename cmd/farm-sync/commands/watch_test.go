package commands

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Cstannahill/farm-framework/config"
	"github.com/Cstannahill/farm-framework/events"
	"github.com/Cstannahill/farm-framework/syncer"
)

func testWatchConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Cache.Dir = t.TempDir()
	cfg.Output.Dir = t.TempDir()
	return cfg
}

func TestRebuildOnReloadSwapsSyncer(t *testing.T) {
	log := zap.NewNop().Sugar()
	bus := events.NewBus(log)
	cfg := testWatchConfig(t)

	s, err := syncer.New(cfg, bus, log)
	require.NoError(t, err)

	var current atomic.Pointer[syncer.Syncer]
	current.Store(s)

	next := testWatchConfig(t)
	require.NoError(t, rebuildOnReload(&current, bus, log)(next))
	assert.NotSame(t, s, current.Load())
}

func TestRebuildOnReloadKeepsOldSyncerOnError(t *testing.T) {
	log := zap.NewNop().Sugar()
	bus := events.NewBus(log)
	cfg := testWatchConfig(t)

	s, err := syncer.New(cfg, bus, log)
	require.NoError(t, err)

	var current atomic.Pointer[syncer.Syncer]
	current.Store(s)

	bad := testWatchConfig(t)
	bad.Cache.Dir = "/proc/no-such-cache-dir/nested"
	require.Error(t, rebuildOnReload(&current, bus, log)(bad))
	assert.Same(t, s, current.Load())
}

// Reload hooks fire from the config watcher goroutine while the regeneration
// loop reads the pointer, so concurrent swap and load must be safe.
func TestRebuildOnReloadConcurrentWithLoads(t *testing.T) {
	log := zap.NewNop().Sugar()
	bus := events.NewBus(log)

	s, err := syncer.New(testWatchConfig(t), bus, log)
	require.NoError(t, err)

	var current atomic.Pointer[syncer.Syncer]
	current.Store(s)
	hook := rebuildOnReload(&current, bus, log)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			require.NoError(t, hook(testWatchConfig(t)))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			assert.NotNil(t, current.Load())
		}
	}()
	wg.Wait()
}
