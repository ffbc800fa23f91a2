package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Cstannahill/farm-framework/gencache"
	"github.com/Cstannahill/farm-framework/logger"
)

// CacheCmd groups generation-cache maintenance commands.
var CacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the generation cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// CacheStatsCmd prints cache effectiveness metrics.
var CacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cached generations and on-disk size",
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := openCache()
		if err != nil {
			return err
		}

		m := cache.Metrics()
		fmt.Printf("Entries:    %d\n", m.Entries)
		fmt.Printf("Hits:       %d\n", m.Hits)
		fmt.Printf("Misses:     %d\n", m.Misses)
		fmt.Printf("Total size: %d bytes\n", m.TotalSize)
		return nil
	},
}

// CacheClearCmd drops every cached generation.
var CacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached generations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := openCache()
		if err != nil {
			return err
		}
		if err := cache.Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Println("Generation cache cleared")
		return nil
	},
}

func openCache() (*gencache.Cache, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return gencache.New(cfg.Cache, logger.Logger)
}

func init() {
	CacheCmd.AddCommand(CacheStatsCmd)
	CacheCmd.AddCommand(CacheClearCmd)
}
