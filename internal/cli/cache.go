package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sambitsargam/ChainLens-sub000/internal/cache"
	"github.com/sambitsargam/ChainLens-sub000/internal/model"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the embedding cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached embedding vector",
	Long: `Clear deletes the on-disk embedding cache (cache.dir). Vectors are
recomputed by the providers on the next comparison.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return clearCache(cmd.OutOrStdout(), cfg.Cache)
	},
}

func clearCache(w io.Writer, cfg model.CacheConfig) error {
	if cfg.Dir == "" {
		fmt.Fprintln(w, "No disk cache configured (cache.dir is empty)")
		return nil
	}

	if err := cache.NewDiskCache(cfg.Dir, cfg.DiskTTL).Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	fmt.Fprintf(w, "✓ Cleared embedding cache: %s\n", cfg.Dir)
	return nil
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
