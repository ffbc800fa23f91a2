// Package watch drives incremental regeneration from filesystem changes.
//
// A Watcher observes the configured source roots through fsnotify,
// classifies each change, and folds changes into a regeneration plan while
// a debounce window is open. Every further change restarts the window, so a
// burst of saves produces exactly one plan. Config changes bypass the
// window and force a full rebuild immediately. Plans are consumed by a
// single worker goroutine, so regenerations never overlap; a rate limiter
// caps how many run per minute.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Cstannahill/farm-framework/config"
	"github.com/Cstannahill/farm-framework/errors"
	"github.com/Cstannahill/farm-framework/events"
)

// State is the watcher's regeneration lifecycle state.
type State int32

const (
	// StateIdle means no plan is pending.
	StateIdle State = iota
	// StateQueued means changes are debouncing or a plan awaits the worker.
	StateQueued
	// StateRegenerating means the worker is running a plan.
	StateRegenerating
)

func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateRegenerating:
		return "regenerating"
	default:
		return "idle"
	}
}

// RegenerateFunc runs one regeneration for a plan.
type RegenerateFunc func(ctx context.Context, plan Plan) error

// Watcher observes source roots and schedules regenerations.
type Watcher struct {
	cfg        config.WatchConfig
	classify   classifier
	bus        *events.Bus
	log        *zap.SugaredLogger
	regenerate RegenerateFunc

	fsw     *fsnotify.Watcher
	limiter *rate.Limiter

	mu      sync.Mutex
	state   State
	pending *Plan
	timer   *time.Timer

	plans  chan Plan
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a watcher over the configured roots.
func New(cfg config.WatchConfig, bus *events.Bus, log *zap.SugaredLogger, regenerate RegenerateFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating filesystem watcher")
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.MaxRegensPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.MaxRegensPerMinute)/60.0), 1)
	}

	w := &Watcher{
		cfg:        cfg,
		classify:   classifier{cfg: cfg},
		bus:        bus,
		log:        log,
		regenerate: regenerate,
		fsw:        fsw,
		limiter:    limiter,
		plans:      make(chan Plan, 1),
	}

	for _, root := range cfg.Roots {
		if err := w.addRecursive(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// State returns the current lifecycle state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Start runs the watch and regeneration loops until Stop is called or the
// context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(2)
	go w.watchLoop(ctx)
	go w.regenLoop(ctx)

	w.log.Infow("Watcher started",
		"roots", w.cfg.Roots,
		"debounce", w.cfg.Debounce(),
	)
}

// Stop shuts down both loops and the underlying filesystem watcher.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.fsw.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}

// addRecursive registers a directory tree with the filesystem watcher.
// Missing roots are tolerated so a project can grow them later.
func (w *Watcher) addRecursive(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		w.log.Warnw("Watch root missing, skipping", "root", root)
		return nil
	}
	if !info.IsDir() {
		return errors.Wrap(w.fsw.Add(root), "watching "+root)
	}

	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); strings.HasPrefix(name, ".") && path != root {
			return filepath.SkipDir
		}
		return errors.Wrap(w.fsw.Add(path), "watching "+path)
	})
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Errorw("Filesystem watcher error", "error", err)
			w.bus.Emit(events.WatcherError, map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	// New directories join the watch set.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.log.Warnw("Could not watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}

	kind := w.classify.Classify(event.Name)
	if kind == KindIgnored {
		return
	}

	change := FileChangeEvent{
		Path: event.Name,
		Kind: kind,
		Op:   event.Op.String(),
		At:   time.Now(),
	}
	w.log.Debugw("Source change detected",
		"path", change.Path,
		"kind", kind.String(),
		"op", change.Op,
	)
	w.Enqueue(change)
}

// Enqueue folds one change into the pending plan. Config changes flush
// immediately; everything else waits out the debounce window, which
// restarts on every further change.
func (w *Watcher) Enqueue(change FileChangeEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending == nil {
		w.pending = &Plan{}
	}
	w.pending.merge(change)

	if w.state == StateIdle {
		w.state = StateQueued
	}

	if change.Kind == KindConfig {
		if w.timer != nil {
			w.timer.Stop()
		}
		w.flushLocked()
		return
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.cfg.Debounce(), w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushLocked()
}

func (w *Watcher) flushLocked() {
	if w.pending == nil {
		return
	}
	plan := *w.pending
	plan.normalize()
	w.pending = nil

	select {
	case w.plans <- plan:
	default:
		// A plan is already waiting; fold this one into a fresh pending
		// plan so nothing is lost.
		select {
		case queued := <-w.plans:
			merged := mergePlans(queued, plan)
			w.plans <- merged
		default:
			w.plans <- plan
		}
	}
}

func (w *Watcher) regenLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case plan := <-w.plans:
			if err := w.limiter.Wait(ctx); err != nil {
				return
			}
			w.runPlan(ctx, plan)
		}
	}
}

func (w *Watcher) runPlan(ctx context.Context, plan Plan) {
	w.mu.Lock()
	w.state = StateRegenerating
	w.mu.Unlock()

	w.log.Infow("Regenerating",
		"reason", plan.Reason,
		"full", plan.Full,
		"models", plan.Models,
		"routes", plan.Routes,
	)

	if err := w.regenerate(ctx, plan); err != nil {
		w.log.Errorw("Regeneration failed", "error", err)
	}

	w.mu.Lock()
	if w.pending == nil && len(w.plans) == 0 {
		w.state = StateIdle
	} else {
		w.state = StateQueued
	}
	w.mu.Unlock()
}

// mergePlans combines two plans into one covering both.
func mergePlans(a, b Plan) Plan {
	merged := a
	merged.Full = a.Full || b.Full
	for _, m := range b.Models {
		merged.Models = appendUnique(merged.Models, m)
	}
	for _, r := range b.Routes {
		merged.Routes = appendUnique(merged.Routes, r)
	}
	for _, p := range b.Paths {
		merged.Paths = appendUnique(merged.Paths, p)
	}
	if merged.Reason == "" {
		merged.Reason = b.Reason
	}
	merged.normalize()
	return merged
}
