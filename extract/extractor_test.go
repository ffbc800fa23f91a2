package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Cstannahill/farm-framework/config"
	"github.com/Cstannahill/farm-framework/errors"
	"github.com/Cstannahill/farm-framework/events"
	"github.com/Cstannahill/farm-framework/schema"
)

const minimalSchema = `{
	"openapi": "3.1.0",
	"info": {"title": "farm", "version": "1.0.0"},
	"paths": {"/ping": {"get": {"operationId": "ping", "responses": {}}}}
}`

func newTestExtractor(t *testing.T, mutate func(*config.Config)) *Extractor {
	t.Helper()
	cfg := config.Default()
	cfg.Cache.Dir = t.TempDir()
	cfg.Extract.Retries = 2
	cfg.Extract.RetryDelayMs = 1
	cfg.Extract.HealthTimeoutSeconds = 1
	cfg.Extract.FetchTimeoutSeconds = 1
	if mutate != nil {
		mutate(cfg)
	}

	e, err := New(cfg, events.NewBus(zap.NewNop().Sugar()), zap.NewNop().Sugar())
	require.NoError(t, err)
	return e
}

// splitHostPort breaks a test server URL into extractor host/port config.
func splitHostPort(t *testing.T, rawURL string) (string, int) {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return u.Hostname(), port
}

func TestFetchRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/openapi.json":
			w.Write([]byte(minimalSchema))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	e := newTestExtractor(t, func(cfg *config.Config) {
		host, port := splitHostPort(t, srv.URL)
		cfg.Extract.Host = host
		cfg.Extract.Port = port
	})

	doc, err := e.fetchRunning(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "farm", doc.Info.Title)
}

func TestFetchRunningRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(minimalSchema))
	}))
	defer srv.Close()

	e := newTestExtractor(t, func(cfg *config.Config) {
		host, port := splitHostPort(t, srv.URL)
		cfg.Extract.Host = host
		cfg.Extract.Port = port
	})

	_, err := e.fetchRunning(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchRunningUnhealthyService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e := newTestExtractor(t, func(cfg *config.Config) {
		host, port := splitHostPort(t, srv.URL)
		cfg.Extract.Host = host
		cfg.Extract.Port = port
	})

	_, err := e.fetchRunning(context.Background())
	assert.True(t, errors.Is(err, errors.ErrServiceUnavailable))
}

func TestFetchStatic(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "api.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(minimalSchema), 0o644))

	e := newTestExtractor(t, func(cfg *config.Config) {
		cfg.Extract.StaticLocations = []string{jsonPath}
	})

	doc, err := e.fetchStatic(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "farm", doc.Info.Title)
}

func TestFetchStaticYAML(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "api.yaml")
	yamlDoc := "openapi: 3.1.0\ninfo:\n  title: farm\npaths:\n  /ping:\n    get:\n      operationId: ping\n"
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlDoc), 0o644))

	e := newTestExtractor(t, func(cfg *config.Config) {
		cfg.Extract.StaticLocations = []string{yamlPath}
	})

	doc, err := e.fetchStatic(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "farm", doc.Info.Title)
}

func TestFetchLastSeenSnapshot(t *testing.T) {
	e := newTestExtractor(t, nil)

	doc, err := schema.Parse([]byte(minimalSchema))
	require.NoError(t, err)
	e.remember(doc)

	// Fresh extractor with the same cache dir finds the disk snapshot.
	fresh := newTestExtractor(t, func(cfg *config.Config) {
		cfg.Cache.Dir = filepath.Dir(e.snapshotPath)
	})
	got, err := fresh.fetchLastSeen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "farm", got.Info.Title)
}

func TestFetchLastSeenInMemoryRespectsAge(t *testing.T) {
	e := newTestExtractor(t, nil)

	doc, err := schema.Parse([]byte(minimalSchema))
	require.NoError(t, err)
	e.remember(doc)

	// A fresh entry is served from memory.
	got, err := e.fetchLastSeen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "farm", got.Info.Title)

	// Backdate the in-memory entry past the staleness window and drop the
	// disk snapshot so it cannot answer instead.
	e.lastSeen.Add(e.cfg.BaseURL(), cachedSchema{doc: doc, savedAt: time.Now().Add(-time.Hour)})
	require.NoError(t, os.Remove(e.snapshotPath))

	_, err = e.fetchLastSeen(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCacheMiss))
}

func TestFetchLastSeenStaleSnapshot(t *testing.T) {
	e := newTestExtractor(t, nil)

	raw, _ := json.Marshal(json.RawMessage(minimalSchema))
	stale, _ := json.Marshal(map[string]interface{}{
		"saved_at": time.Now().Add(-time.Hour),
		"document": json.RawMessage(raw),
	})
	require.NoError(t, os.WriteFile(e.snapshotPath, stale, 0o644))

	_, err := e.fetchLastSeen(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCacheMiss))
}

func TestExtractWalksChainInOrder(t *testing.T) {
	e := newTestExtractor(t, nil)

	doc, err := schema.Parse([]byte(minimalSchema))
	require.NoError(t, err)

	var order []string
	failing := func(name string) strategy {
		return strategy{name, func(context.Context) (*schema.Document, error) {
			order = append(order, name)
			return nil, errors.New(name + " failed")
		}}
	}
	e.chain = []strategy{
		failing("first"),
		failing("second"),
		{"third", func(context.Context) (*schema.Document, error) {
			order = append(order, "third")
			return doc, nil
		}},
		failing("fourth"),
	}

	res, err := e.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.Equal(t, "third", res.Strategy)
	assert.NotEmpty(t, res.Fingerprint)
}

func TestExtractAggregatesChainFailures(t *testing.T) {
	e := newTestExtractor(t, nil)
	e.chain = []strategy{
		{"a", func(context.Context) (*schema.Document, error) { return nil, errors.New("boom-a") }},
		{"b", func(context.Context) (*schema.Document, error) { return nil, errors.New("boom-b") }},
	}

	_, err := e.Extract(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrExtractionFailed))

	var chainErr *ChainError
	require.True(t, errors.As(err, &chainErr))
	require.Len(t, chainErr.Attempts, 2)
	assert.Contains(t, err.Error(), "a: boom-a")
	assert.Contains(t, err.Error(), "b: boom-b")
}

func TestExtractEmitsEvent(t *testing.T) {
	bus := events.NewBus(zap.NewNop().Sugar())
	ch, cancel := bus.Subscribe(events.SchemaExtracted)
	defer cancel()

	e := newTestExtractor(t, nil)
	e.bus = bus

	doc, err := schema.Parse([]byte(minimalSchema))
	require.NoError(t, err)
	e.chain = []strategy{{"stub", func(context.Context) (*schema.Document, error) { return doc, nil }}}

	_, err = e.Extract(context.Background())
	require.NoError(t, err)

	select {
	case evt := <-ch:
		assert.Equal(t, "stub", evt.Payload["strategy"])
		assert.NotEmpty(t, evt.Payload["fingerprint"])
	case <-time.After(time.Second):
		t.Fatal("no schema-extracted event")
	}
}

func TestFetchTemporaryDisabled(t *testing.T) {
	e := newTestExtractor(t, nil)
	_, err := e.fetchTemporary(context.Background())
	assert.ErrorContains(t, err, "no backend command")
}
