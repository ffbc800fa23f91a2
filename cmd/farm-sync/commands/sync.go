package commands

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Cstannahill/farm-framework/config"
	"github.com/Cstannahill/farm-framework/events"
	"github.com/Cstannahill/farm-framework/logger"
	"github.com/Cstannahill/farm-framework/syncer"
)

// ConfigPath overrides project config discovery when set by the --config
// flag.
var ConfigPath string

// loadConfig resolves the active configuration for a command run.
func loadConfig() (*config.Config, error) {
	if ConfigPath != "" {
		return config.LoadFromFile(ConfigPath)
	}
	return config.Load()
}

// configFilePath returns the project config file in use, or "" when running
// on defaults only.
func configFilePath() string {
	if ConfigPath != "" {
		return ConfigPath
	}
	return config.FindProjectConfig()
}

// SyncCmd runs one extraction and generation pass.
var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one extraction and generation pass",
	Long: `Run the full pipeline once: extract the backend schema, generate
TypeScript artifacts, and publish them to the output directory.

The run is served from the generation cache when the schema and generator
configuration are unchanged. Use --no-cache to force regeneration.`,
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

		if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
			cfg.Generate.EnableIncrementalGeneration = false
			if err := s.Cache().Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
		}

		res, err := s.SyncOnce(ctx)
		if err != nil {
			return err
		}

		if res.Skipped {
			fmt.Println("Schema unchanged, nothing to do")
			return nil
		}
		fmt.Printf("Synced via %s in %s (%d file(s) updated, cache hit: %v)\n",
			res.Strategy, res.Duration.Round(time.Millisecond), len(res.FilesGenerated), res.CacheHit)
		for _, f := range res.FilesGenerated {
			fmt.Printf("  %s\n", f)
		}
		return nil
	},
}

func init() {
	SyncCmd.Flags().Bool("no-cache", false, "bypass the generation cache for this run")
}
