// Package syncer orchestrates one type-sync run: extract the schema,
// consult the generation cache, run the generators, and publish the output
// atomically.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Cstannahill/farm-framework/codegen"
	"github.com/Cstannahill/farm-framework/codegen/typescript"
	"github.com/Cstannahill/farm-framework/config"
	"github.com/Cstannahill/farm-framework/errors"
	"github.com/Cstannahill/farm-framework/events"
	"github.com/Cstannahill/farm-framework/extract"
	"github.com/Cstannahill/farm-framework/gencache"
	"github.com/Cstannahill/farm-framework/schema"
)

// Result summarizes one completed sync run.
type Result struct {
	RunID          uuid.UUID
	Strategy       string
	Fingerprint    string
	FilesGenerated []string
	CacheHit       bool
	Skipped        bool
	Duration       time.Duration
}

// Syncer runs the extract-generate-write pipeline.
type Syncer struct {
	cfg       *config.Config
	bus       *events.Bus
	log       *zap.SugaredLogger
	extractor *extract.Extractor
	cache     *gencache.Cache

	generators []codegen.Generator
	assembler  codegen.Assembler

	mu              sync.Mutex
	lastFingerprint string
}

// New wires a syncer from configuration. Generators are selected by the
// configured feature toggles; raw types are always emitted.
func New(cfg *config.Config, bus *events.Bus, log *zap.SugaredLogger) (*Syncer, error) {
	extractor, err := extract.New(cfg, bus, log)
	if err != nil {
		return nil, err
	}
	cache, err := gencache.New(cfg.Cache, log)
	if err != nil {
		return nil, err
	}

	generators := []codegen.Generator{typescript.NewTypeGenerator()}
	if cfg.Generate.Client {
		generators = append(generators, typescript.NewClientGenerator())
	}
	if cfg.Generate.Hooks {
		generators = append(generators, typescript.NewHookGenerator(cfg.Generate))
	}

	return &Syncer{
		cfg:        cfg,
		bus:        bus,
		log:        log,
		extractor:  extractor,
		cache:      cache,
		generators: generators,
		assembler:  typescript.NewAssembler(),
	}, nil
}

// Cache exposes the generation cache for maintenance commands.
func (s *Syncer) Cache() *gencache.Cache { return s.cache }

// SyncOnce runs one full pipeline pass. Concurrent calls for the same
// schema/config state share one generation through the cache.
func (s *Syncer) SyncOnce(ctx context.Context) (*Result, error) {
	start := time.Now()
	runID := uuid.New()
	log := s.log.With("run_id", runID.String())

	extracted, err := s.extractor.Extract(ctx)
	if err != nil {
		s.emitError(runID, err)
		return nil, err
	}

	configFP, err := schema.FingerprintValue(s.cfg.Generate)
	if err != nil {
		s.emitError(runID, err)
		return nil, errors.Wrap(err, "fingerprinting generator options")
	}
	key := schema.CacheKey(extracted.Fingerprint, configFP)

	if s.cfg.Generate.EnableIncrementalGeneration && s.sameAsLastRun(key) {
		log.Debugw("Schema unchanged since last run, skipping generation", "fingerprint", extracted.Fingerprint)
		return &Result{
			RunID:       runID,
			Strategy:    extracted.Strategy,
			Fingerprint: extracted.Fingerprint,
			Skipped:     true,
			Duration:    time.Since(start),
		}, nil
	}

	entry, cacheHit, err := s.cache.GetOrGenerate(key, func() (*gencache.Entry, error) {
		files, err := s.generate(ctx, extracted.Document)
		if err != nil {
			return nil, err
		}
		return &gencache.Entry{
			SchemaFingerprint: extracted.Fingerprint,
			ConfigFingerprint: configFP,
			Files:             files,
		}, nil
	})
	if err != nil {
		s.emitError(runID, err)
		return nil, err
	}

	written, err := stageFiles(s.cfg.Output.Dir, runID, entry.Files)
	if err != nil {
		s.emitError(runID, err)
		return nil, err
	}
	if err := touchTrigger(s.cfg.Output.TriggerPath()); err != nil {
		log.Warnw("Trigger file update failed", "error", err)
	}

	s.setLastRun(key)

	result := &Result{
		RunID:          runID,
		Strategy:       extracted.Strategy,
		Fingerprint:    extracted.Fingerprint,
		FilesGenerated: written,
		CacheHit:       cacheHit,
		Duration:       time.Since(start),
	}

	log.Infow("Sync complete",
		"strategy", result.Strategy,
		"files", len(result.FilesGenerated),
		"cache_hit", result.CacheHit,
		"duration", result.Duration,
	)
	s.bus.Emit(events.RegenerationComplete, map[string]interface{}{
		"run_id":    runID.String(),
		"files":     written,
		"cache_hit": cacheHit,
	})
	s.bus.Emit(events.FrontendUpdateRequired, map[string]interface{}{
		"run_id": runID.String(),
		"dir":    s.cfg.Output.Dir,
	})
	return result, nil
}

// generate runs every generator, bounded by the configured concurrency, and
// assembles the combined artifacts into output files.
func (s *Syncer) generate(ctx context.Context, doc *schema.Document) (map[string][]byte, error) {
	var mu sync.Mutex
	perGenerator := make(map[string][]codegen.Artifact, len(s.generators))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Generate.MaxConcurrency)

	for _, gen := range s.generators {
		gen := gen
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			artifacts, artErrs := gen.Generate(doc)
			for _, err := range artErrs {
				s.log.Warnw("Artifact generation failed", "generator", gen.Name(), "error", err)
			}
			mu.Lock()
			perGenerator[gen.Name()] = artifacts
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Combine in registration order so output is independent of goroutine
	// scheduling.
	var all []codegen.Artifact
	for _, gen := range s.generators {
		all = append(all, perGenerator[gen.Name()]...)
	}

	if collisions := codegen.CheckCollisions(all); len(collisions) > 0 {
		return nil, errors.Wrapf(collisions[0], "artifact name collisions (%d total)", len(collisions))
	}

	return s.assembler.Assemble(codegen.SortArtifacts(all))
}

func (s *Syncer) sameAsLastRun(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFingerprint == key
}

func (s *Syncer) setLastRun(key string) {
	s.mu.Lock()
	s.lastFingerprint = key
	s.mu.Unlock()
}

func (s *Syncer) emitError(runID uuid.UUID, err error) {
	s.bus.Emit(events.RegenerationError, map[string]interface{}{
		"run_id": runID.String(),
		"error":  err.Error(),
	})
}
