package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Cstannahill/farm-framework/cmd/farm-sync/commands"
	"github.com/Cstannahill/farm-framework/logger"
)

var jsonLogs bool

var rootCmd = &cobra.Command{
	Use:   "farm-sync",
	Short: "farm-sync - backend schema to frontend type synchronization",
	Long: `farm-sync keeps frontend types in lockstep with the backend schema.

It extracts the API schema from the backend (running dev server, static
schema file, last-seen snapshot, or a temporary server process), generates
TypeScript types, client bindings, and hooks, and publishes them atomically.
Results are cached by content, so an unchanged schema never regenerates.

Available commands:
  sync   - Run one extraction and generation pass
  watch  - Watch backend sources and regenerate on change
  cache  - Inspect or clear the generation cache

Examples:
  farm-sync sync               # One-shot synchronization
  farm-sync watch              # Regenerate as sources change
  farm-sync cache stats        # Show cache hit rates
  farm-sync cache clear        # Drop all cached generations`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit structured JSON logs")
	rootCmd.PersistentFlags().StringVar(&commands.ConfigPath, "config", "", "path to farm.toml (default: walk up from cwd)")

	rootCmd.AddCommand(commands.SyncCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.CacheCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
