package syncer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Cstannahill/farm-framework/config"
	"github.com/Cstannahill/farm-framework/events"
)

const testSchema = `{
	"openapi": "3.1.0",
	"info": {"title": "farm", "version": "1.0.0"},
	"paths": {
		"/ping": {
			"get": {
				"operationId": "ping",
				"responses": {
					"200": {
						"content": {
							"application/json": {
								"schema": {
									"type": "object",
									"properties": {"status": {"type": "string"}},
									"required": ["status"]
								}
							}
						}
					}
				}
			}
		}
	}
}`

// newTestSyncer builds a syncer whose extraction resolves through a static
// schema file; the running-service strategy fails fast against a closed
// port.
func newTestSyncer(t *testing.T) (*Syncer, *config.Config) {
	t.Helper()

	schemaPath := filepath.Join(t.TempDir(), "openapi.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(testSchema), 0o644))

	cfg := config.Default()
	cfg.Extract.Port = 1
	cfg.Extract.Retries = 1
	cfg.Extract.RetryDelayMs = 1
	cfg.Extract.HealthTimeoutSeconds = 1
	cfg.Extract.FetchTimeoutSeconds = 1
	cfg.Extract.StaticLocations = []string{schemaPath}
	cfg.Cache.Dir = t.TempDir()
	cfg.Output.Dir = t.TempDir()

	s, err := New(cfg, events.NewBus(zap.NewNop().Sugar()), zap.NewNop().Sugar())
	require.NoError(t, err)
	return s, cfg
}

func TestSyncOnceGeneratesFiles(t *testing.T) {
	s, cfg := newTestSyncer(t)

	res, err := s.SyncOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "static-file", res.Strategy)
	assert.False(t, res.CacheHit)
	assert.ElementsMatch(t, []string{"types.ts", "client.ts", "hooks.ts"}, res.FilesGenerated)

	types, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "types.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(types), "export interface PingResponse {")
	assert.Contains(t, string(types), "status: string;")

	client, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "client.ts"))
	require.NoError(t, err)
	assert.Contains(t, string(client), "export async function ping(")

	// Trigger marker exists and no staging directory is left behind.
	_, err = os.Stat(cfg.Output.TriggerPath())
	assert.NoError(t, err)
	entries, err := os.ReadDir(cfg.Output.Dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".staging-")
	}
}

func TestSyncOnceSkipsUnchangedSchema(t *testing.T) {
	s, _ := newTestSyncer(t)

	first, err := s.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, first.Skipped)

	second, err := s.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Empty(t, second.FilesGenerated)
}

func TestSyncOnceCacheHitIsByteIdentical(t *testing.T) {
	s, cfg := newTestSyncer(t)
	cfg.Generate.EnableIncrementalGeneration = false

	_, err := s.SyncOnce(context.Background())
	require.NoError(t, err)
	firstTypes, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "types.ts"))
	require.NoError(t, err)

	second, err := s.SyncOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	// Unchanged files are not re-published.
	assert.Empty(t, second.FilesGenerated)

	secondTypes, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "types.ts"))
	require.NoError(t, err)
	assert.Equal(t, firstTypes, secondTypes)
}

func TestSyncOnceEmitsCompletionEvents(t *testing.T) {
	s, _ := newTestSyncer(t)

	ch, cancel := s.bus.Subscribe(events.RegenerationComplete, events.FrontendUpdateRequired)
	defer cancel()

	_, err := s.SyncOnce(context.Background())
	require.NoError(t, err)

	got := map[events.Type]bool{}
	for i := 0; i < 2; i++ {
		select {
		case evt := <-ch:
			got[evt.Type] = true
		case <-time.After(time.Second):
			t.Fatal("missing completion event")
		}
	}
	assert.True(t, got[events.RegenerationComplete])
	assert.True(t, got[events.FrontendUpdateRequired])
}

func TestSyncOnceFailureEmitsError(t *testing.T) {
	s, cfg := newTestSyncer(t)
	// Remove the static schema so every strategy fails.
	require.NoError(t, os.Remove(cfg.Extract.StaticLocations[0]))

	ch, cancel := s.bus.Subscribe(events.RegenerationError)
	defer cancel()

	_, err := s.SyncOnce(context.Background())
	require.Error(t, err)

	select {
	case evt := <-ch:
		assert.NotEmpty(t, evt.Payload["error"])
	case <-time.After(time.Second):
		t.Fatal("no regeneration-error event")
	}
}

// A run that fails mid-generation must leave previously written output
// byte-identical.
func TestSyncOnceFailureLeavesOutputUntouched(t *testing.T) {
	s, cfg := newTestSyncer(t)

	_, err := s.SyncOnce(context.Background())
	require.NoError(t, err)
	before := readOutputDir(t, cfg.Output.Dir)

	// Two operation ids that normalize to the same artifact name make
	// generation fail on a collision after extraction succeeds.
	colliding := `{
		"openapi": "3.1.0",
		"info": {"title": "farm", "version": "1.0.0"},
		"paths": {
			"/ping": {"get": {"operationId": "get_ping", "responses": {}}},
			"/ping2": {"get": {"operationId": "get-ping", "responses": {}}}
		}
	}`
	require.NoError(t, os.WriteFile(cfg.Extract.StaticLocations[0], []byte(colliding), 0o644))

	_, err = s.SyncOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision")

	after := readOutputDir(t, cfg.Output.Dir)
	assert.Equal(t, before, after)
}

// readOutputDir snapshots every regular file under dir, keyed by relative
// path.
func readOutputDir(t *testing.T, dir string) map[string][]byte {
	t.Helper()
	out := make(map[string][]byte)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		out[rel] = data
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestStageFilesSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		"a.ts": []byte("alpha"),
		"b.ts": []byte("beta"),
	}

	written, err := stageFiles(dir, uuid.New(), files)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ts", "b.ts"}, written)

	// Identical content: nothing republished.
	written, err = stageFiles(dir, uuid.New(), files)
	require.NoError(t, err)
	assert.Empty(t, written)

	// One changed file: only that file republished.
	files["b.ts"] = []byte("beta-2")
	written, err = stageFiles(dir, uuid.New(), files)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.ts"}, written)
}

func TestTouchTriggerCreatesAndUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".trigger")

	require.NoError(t, touchTrigger(path))
	info1, err := os.Stat(path)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, touchTrigger(path))
	info2, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info2.ModTime().After(info1.ModTime()) || info2.ModTime().Equal(info1.ModTime()))
}
