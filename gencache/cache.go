// Package gencache is the content-addressed cache for generation results.
//
// Entries are keyed by the combined schema and generator-configuration
// fingerprint, so a cache hit means the exact bytes of a previous run can be
// replayed without re-running any generator. The cache keeps a hot in-memory
// layer over a compressed on-disk layer that survives restarts.
package gencache

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Cstannahill/farm-framework/config"
	"github.com/Cstannahill/farm-framework/errors"
)

// Entry is one cached generation result.
type Entry struct {
	Key               string            `json:"key"`
	SchemaFingerprint string            `json:"schema_fingerprint"`
	ConfigFingerprint string            `json:"config_fingerprint"`
	CreatedAt         time.Time         `json:"created_at"`
	Files             map[string][]byte `json:"files"`
}

// size returns the total payload size of the entry's files in bytes.
func (e *Entry) size() int64 {
	var n int64
	for _, data := range e.Files {
		n += int64(len(data))
	}
	return n
}

// Metrics is a point-in-time snapshot of cache effectiveness.
type Metrics struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Entries   int    `json:"entries"`
	TotalSize int64  `json:"total_size_bytes"`
}

// Cache stores generation results in memory and on disk with TTL expiry.
// All methods are safe for concurrent use.
type Cache struct {
	dir      string
	ttl      time.Duration
	compress bool
	log      *zap.SugaredLogger

	mu      sync.RWMutex
	entries map[string]*Entry

	hits   atomic.Uint64
	misses atomic.Uint64
	group  singleflight.Group
}

// New creates the cache rooted at the configured directory, creating it if
// needed.
func New(cfg config.CacheConfig, log *zap.SugaredLogger) (*Cache, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating cache directory %s", cfg.Dir)
	}
	return &Cache{
		dir:      cfg.Dir,
		ttl:      cfg.TTL(),
		compress: cfg.Compress,
		log:      log,
		entries:  make(map[string]*Entry),
	}, nil
}

// Get returns the cached entry for key, or false on a miss. Expired and
// corrupt entries count as misses and are evicted.
func (c *Cache) Get(key string) (*Entry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		entry = c.loadDisk(key)
		if entry != nil {
			c.mu.Lock()
			c.entries[key] = entry
			c.mu.Unlock()
		}
	}

	if entry == nil || c.expired(entry) {
		if entry != nil {
			c.Invalidate(key)
		}
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return entry, true
}

// Put stores an entry in both layers. The disk write is staged through a
// temp file so a crash never leaves a partial entry behind.
func (c *Cache) Put(entry *Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	c.mu.Lock()
	c.entries[entry.Key] = entry
	c.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "encoding cache entry")
	}

	path := c.entryPath(entry.Key)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "staging cache entry %s", entry.Key)
	}

	var w io.WriteCloser = f
	if c.compress {
		w = gzip.NewWriter(f)
	}
	if _, err := w.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.Wrapf(err, "writing cache entry %s", entry.Key)
	}
	if c.compress {
		if err := w.Close(); err != nil {
			f.Close()
			os.Remove(tmp)
			return errors.Wrapf(err, "flushing cache entry %s", entry.Key)
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "closing cache entry %s", entry.Key)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "committing cache entry %s", entry.Key)
	}

	c.log.Debugw("Cache entry stored", "key", entry.Key, "size", entry.size())
	return nil
}

// GetOrGenerate returns the cached entry for key, running generate on a
// miss. Concurrent callers for the same key share one generate call. The
// returned bool reports whether the result came from cache.
func (c *Cache) GetOrGenerate(key string, generate func() (*Entry, error)) (*Entry, bool, error) {
	if entry, ok := c.Get(key); ok {
		return entry, true, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A racing caller may have populated the key while we queued.
		if entry, ok := c.Get(key); ok {
			return entry, nil
		}
		entry, err := generate()
		if err != nil {
			return nil, err
		}
		entry.Key = key
		if err := c.Put(entry); err != nil {
			c.log.Warnw("Cache store failed, serving uncached result", "key", key, "error", err)
		}
		return entry, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*Entry), false, nil
}

// Invalidate removes one entry from both layers.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	os.Remove(c.entryPath(key))
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	c.mu.Lock()
	c.entries = make(map[string]*Entry)
	c.mu.Unlock()

	names, err := os.ReadDir(c.dir)
	if err != nil {
		return errors.Wrapf(err, "listing cache directory %s", c.dir)
	}
	for _, d := range names {
		if d.IsDir() || !strings.HasSuffix(d.Name(), c.extension()) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, d.Name())); err != nil {
			return errors.Wrapf(err, "removing cache entry %s", d.Name())
		}
	}
	return nil
}

// Metrics returns a snapshot of hit/miss counts and stored entries. Entries
// and size are taken from the disk layer, so a fresh process reports what
// earlier runs stored rather than zero.
func (c *Cache) Metrics() Metrics {
	m := Metrics{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}

	names, err := os.ReadDir(c.dir)
	if err != nil {
		c.log.Warnw("Cache directory unreadable, reporting resident entries", "dir", c.dir, "error", err)
		c.mu.RLock()
		defer c.mu.RUnlock()
		m.Entries = len(c.entries)
		for _, entry := range c.entries {
			m.TotalSize += entry.size()
		}
		return m
	}

	for _, d := range names {
		if d.IsDir() || !strings.HasSuffix(d.Name(), c.extension()) {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		m.Entries++
		m.TotalSize += info.Size()
	}
	return m
}

func (c *Cache) expired(entry *Entry) bool {
	return c.ttl > 0 && time.Since(entry.CreatedAt) > c.ttl
}

func (c *Cache) extension() string {
	if c.compress {
		return ".json.gz"
	}
	return ".json"
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key+c.extension())
}

// loadDisk reads an entry from the disk layer, or nil when absent or
// corrupt. Corrupt files are removed so they never mask later stores.
func (c *Cache) loadDisk(key string) *Entry {
	path := c.entryPath(key)
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var r io.Reader = f
	if c.compress {
		gz, err := gzip.NewReader(f)
		if err != nil {
			c.discardCorrupt(key, path, err)
			return nil
		}
		defer gz.Close()
		r = gz
	}

	var entry Entry
	if err := json.NewDecoder(r).Decode(&entry); err != nil {
		c.discardCorrupt(key, path, err)
		return nil
	}
	if entry.Key != key {
		c.discardCorrupt(key, path, errors.Newf("entry key %q does not match file", entry.Key))
		return nil
	}
	return &entry
}

func (c *Cache) discardCorrupt(key, path string, err error) {
	c.log.Warnw("Discarding corrupt cache entry", "key", key, "error", err)
	os.Remove(path)
}
