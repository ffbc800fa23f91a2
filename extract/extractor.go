// Package extract obtains the schema document from the backend.
//
// Extraction walks a fixed fallback chain: the running dev server first,
// then conventional static schema files, then the last successfully
// extracted schema if it is recent enough, and finally a temporary backend
// process spawned just long enough to serve its schema. The first strategy
// that yields a valid document wins; a run fails only when every strategy
// has failed, and the resulting error reports each strategy's failure.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/Cstannahill/farm-framework/config"
	"github.com/Cstannahill/farm-framework/errors"
	"github.com/Cstannahill/farm-framework/events"
	"github.com/Cstannahill/farm-framework/internal/httpclient"
	"github.com/Cstannahill/farm-framework/schema"
)

// Strategy names, in chain order.
const (
	StrategyRunning   = "running-service"
	StrategyStatic    = "static-file"
	StrategyLastSeen  = "last-seen"
	StrategyTemporary = "temporary-service"
)

// conventionalLocations are the static schema files checked after any
// configured locations, relative to the working directory.
var conventionalLocations = []string{
	"openapi.json",
	"openapi.yaml",
	"openapi.yml",
	"docs/openapi.json",
	"schema/openapi.json",
	".farm/openapi.json",
}

// snapshotFile is the on-disk copy of the last extracted schema, kept in
// the cache directory.
const snapshotFile = "last-schema.json"

// lastSeenSlots bounds the in-memory schemas kept per backend base URL.
const lastSeenSlots = 4

// Result is a successful extraction with its provenance.
type Result struct {
	Document    *schema.Document
	Strategy    string
	Fingerprint string
}

type strategy struct {
	name  string
	fetch func(ctx context.Context) (*schema.Document, error)
}

// Extractor runs the extraction chain.
type Extractor struct {
	cfg          config.ExtractConfig
	cacheTimeout time.Duration
	snapshotPath string

	client   *httpclient.Client
	bus      *events.Bus
	log      *zap.SugaredLogger
	lastSeen *lru.Cache[string, cachedSchema]

	chain []strategy
}

// New creates an extractor wired to the event bus.
func New(cfg *config.Config, bus *events.Bus, log *zap.SugaredLogger) (*Extractor, error) {
	cache, err := lru.New[string, cachedSchema](lastSeenSlots)
	if err != nil {
		return nil, errors.Wrap(err, "creating last-seen cache")
	}

	e := &Extractor{
		cfg:          cfg.Extract,
		cacheTimeout: cfg.Generate.CacheTimeout(),
		snapshotPath: filepath.Join(cfg.Cache.Dir, snapshotFile),
		client:       httpclient.New(cfg.Extract.FetchTimeout()),
		bus:          bus,
		log:          log,
		lastSeen:     cache,
	}
	e.chain = []strategy{
		{StrategyRunning, e.fetchRunning},
		{StrategyStatic, e.fetchStatic},
		{StrategyLastSeen, e.fetchLastSeen},
		{StrategyTemporary, e.fetchTemporary},
	}
	return e, nil
}

// Extract walks the strategy chain and returns the first valid document.
func (e *Extractor) Extract(ctx context.Context) (*Result, error) {
	chainErr := &ChainError{}

	for _, s := range e.chain {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "extraction aborted")
		}

		doc, err := s.fetch(ctx)
		if err != nil {
			e.log.Debugw("Extraction strategy failed", "strategy", s.name, "error", err)
			chainErr.record(s.name, err)
			continue
		}

		fp, err := schema.Fingerprint(doc)
		if err != nil {
			chainErr.record(s.name, errors.Wrap(err, "fingerprinting document"))
			continue
		}

		e.log.Infow("Schema extracted",
			"strategy", s.name,
			"fingerprint", fp,
			"operations", len(doc.Operations()),
		)
		if s.name != StrategyLastSeen {
			e.remember(doc)
		}
		e.bus.Emit(events.SchemaExtracted, map[string]interface{}{
			"strategy":    s.name,
			"fingerprint": fp,
			"title":       doc.Info.Title,
		})
		return &Result{Document: doc, Strategy: s.name, Fingerprint: fp}, nil
	}

	return nil, chainErr
}

// fetchRunning probes the dev server's health endpoint, then fetches the
// schema with retries. Backoff doubles per attempt from the configured base.
func (e *Extractor) fetchRunning(ctx context.Context) (*schema.Document, error) {
	if e.cfg.HealthPath != "" {
		if err := e.probeHealth(ctx, e.cfg.BaseURL()); err != nil {
			return nil, err
		}
	}

	var lastErr error
	for attempt := 0; attempt < e.cfg.Retries; attempt++ {
		if attempt > 0 {
			backoff := e.cfg.RetryDelay() << (attempt - 1)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		doc, err := e.fetchSchema(ctx, e.cfg.BaseURL())
		if err == nil {
			return doc, nil
		}
		lastErr = err
	}
	return nil, errors.Wrapf(lastErr, "after %d attempts", e.cfg.Retries)
}

func (e *Extractor) probeHealth(ctx context.Context, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.HealthTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+e.cfg.HealthPath, nil)
	if err != nil {
		return errors.Wrap(err, "building health request")
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return errors.WithMessage(errors.ErrServiceUnavailable, err.Error())
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.WithMessagef(errors.ErrServiceUnavailable, "health probe returned %d", resp.StatusCode)
	}
	return nil
}

func (e *Extractor) fetchSchema(ctx context.Context, baseURL string) (*schema.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+e.cfg.SchemaPath, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building schema request")
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching schema")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("schema endpoint returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading schema body")
	}
	return schema.Parse(data)
}

// fetchStatic checks configured locations first, then conventional ones.
func (e *Extractor) fetchStatic(_ context.Context) (*schema.Document, error) {
	locations := append(append([]string{}, e.cfg.StaticLocations...), conventionalLocations...)

	var lastErr error
	for _, loc := range locations {
		data, err := os.ReadFile(loc)
		if err != nil {
			continue
		}

		var doc *schema.Document
		if strings.HasSuffix(loc, ".yaml") || strings.HasSuffix(loc, ".yml") {
			doc, err = schema.ParseYAML(data)
		} else {
			doc, err = schema.Parse(data)
		}
		if err != nil {
			lastErr = errors.Wrapf(err, "parsing %s", loc)
			continue
		}

		e.log.Debugw("Schema loaded from static file", "path", loc)
		return doc, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.Newf("no schema file found in %d candidate locations", len(locations))
}

// cachedSchema is the in-memory form of the last extracted schema.
type cachedSchema struct {
	doc     *schema.Document
	savedAt time.Time
}

// snapshot is the disk form of the last extracted schema.
type snapshot struct {
	SavedAt  time.Time       `json:"saved_at"`
	Document json.RawMessage `json:"document"`
}

// fetchLastSeen serves the most recent successful extraction. Both layers
// are bounded by the same staleness window.
func (e *Extractor) fetchLastSeen(_ context.Context) (*schema.Document, error) {
	if cached, ok := e.lastSeen.Get(e.cfg.BaseURL()); ok {
		if age := time.Since(cached.savedAt); age <= e.cacheTimeout {
			return cached.doc, nil
		}
		e.lastSeen.Remove(e.cfg.BaseURL())
	}

	data, err := os.ReadFile(e.snapshotPath)
	if err != nil {
		return nil, errors.WithMessage(errors.ErrCacheMiss, "no schema snapshot")
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(err, "decoding schema snapshot")
	}
	if age := time.Since(snap.SavedAt); age > e.cacheTimeout {
		return nil, errors.WithMessagef(errors.ErrCacheMiss,
			"schema snapshot is %s old (limit %s)", age.Round(time.Second), e.cacheTimeout)
	}
	return schema.Parse(snap.Document)
}

// remember records a freshly extracted document in the in-memory cache and
// the disk snapshot.
func (e *Extractor) remember(doc *schema.Document) {
	e.lastSeen.Add(e.cfg.BaseURL(), cachedSchema{doc: doc, savedAt: time.Now()})

	raw, err := json.Marshal(doc)
	if err != nil {
		e.log.Warnw("Skipping schema snapshot", "error", err)
		return
	}
	data, err := json.Marshal(snapshot{SavedAt: time.Now(), Document: raw})
	if err != nil {
		e.log.Warnw("Skipping schema snapshot", "error", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(e.snapshotPath), 0o755); err != nil {
		e.log.Warnw("Skipping schema snapshot", "error", err)
		return
	}
	tmp := e.snapshotPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		e.log.Warnw("Skipping schema snapshot", "error", err)
		return
	}
	if err := os.Rename(tmp, e.snapshotPath); err != nil {
		os.Remove(tmp)
		e.log.Warnw("Skipping schema snapshot", "error", err)
	}
}

// ChainError aggregates the per-strategy failures of one extraction run.
type ChainError struct {
	Attempts []Attempt
}

// Attempt is one strategy's failure.
type Attempt struct {
	Strategy string
	Err      error
}

func (e *ChainError) record(name string, err error) {
	e.Attempts = append(e.Attempts, Attempt{Strategy: name, Err: err})
}

func (e *ChainError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Strategy, a.Err))
	}
	return "all extraction strategies failed: " + strings.Join(parts, "; ")
}

// Unwrap lets callers match the extraction sentinel with errors.Is.
func (e *ChainError) Unwrap() error { return errors.ErrExtractionFailed }
