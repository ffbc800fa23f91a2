package commands

import (
	"context"
	"fmt"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"go.uber.org/zap"

	"github.com/Cstannahill/farm-framework/config"
	"github.com/Cstannahill/farm-framework/events"
	"github.com/Cstannahill/farm-framework/logger"
	"github.com/Cstannahill/farm-framework/syncer"
	"github.com/Cstannahill/farm-framework/watch"
)

// WatchCmd watches backend sources and regenerates on change.
var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch backend sources and regenerate on change",
	Long: `Watch the configured source roots and regenerate frontend types
whenever backend models, routes, or project configuration change.

Rapid bursts of saves are debounced into a single regeneration. Changes to
farm.toml skip the debounce window and force a full rebuild. Regenerations
never overlap and are rate limited by watch.max_regens_per_minute.

Runs in the foreground until interrupted (Ctrl+C).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		bus := events.NewBus(logger.Logger)
		s, err := syncer.New(cfg, bus, logger.Logger)
		if err != nil {
			return err
		}

		// Baseline pass so the watcher starts from synchronized output.
		if _, err := s.SyncOnce(ctx); err != nil {
			logger.Warnw("Initial sync failed, watching anyway", "error", err)
		}

		// The regeneration goroutine and the config hot-reload callback
		// run concurrently, so the active syncer is swapped as a whole
		// rather than mutated in place.
		var current atomic.Pointer[syncer.Syncer]
		current.Store(s)

		w, err := watch.New(cfg.Watch, bus, logger.Logger, func(ctx context.Context, plan watch.Plan) error {
			_, err := current.Load().SyncOnce(ctx)
			return err
		})
		if err != nil {
			return err
		}

		w.Start(ctx)
		fmt.Printf("Watching %v (Ctrl+C to stop)\n", cfg.Watch.Roots)

		// Hot-reload the project config file so toggles like streaming
		// hooks apply without restarting the watcher.
		if path := configFilePath(); path != "" {
			cw, err := config.NewWatcher(path, logger.Logger)
			if err != nil {
				logger.Warnw("Config hot-reload unavailable", "error", err)
			} else {
				cw.OnReload(rebuildOnReload(&current, bus, logger.Logger))
				cw.Start()
				defer cw.Stop()
			}
		}

		<-ctx.Done()
		fmt.Println("\nShutting down watcher...")
		w.Stop()
		return nil
	},
}

// rebuildOnReload returns a reload hook that builds a fresh syncer from the
// next config and publishes it for subsequent regenerations. In-flight runs
// finish against the syncer they started with.
func rebuildOnReload(current *atomic.Pointer[syncer.Syncer], bus *events.Bus, log *zap.SugaredLogger) func(*config.Config) error {
	return func(next *config.Config) error {
		s, err := syncer.New(next, bus, log)
		if err != nil {
			return err
		}
		current.Store(s)
		return nil
	}
}
