package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/haview/internal/config"
	"github.com/matzehuels/haview/pkg/cache"
)

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the layout cache",
		Long: `The layout cache keeps computed node positions and rendered SVGs keyed by
the model hash, so reloading an unchanged topology skips the layout engine.
The backend is chosen with [cache] backend in config.toml or --cache.`,
	}
	cmd.AddCommand(c.cacheClearCommand(), c.cachePathCommand())
	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every entry of the configured cache backend",
		Long: `Drop every entry of the configured cache backend.

For the file backend the cache directory is emptied. For Redis only keys
under redis_prefix are deleted. Memory caches live inside the viewer
process and are always empty here.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Cache.Backend == config.CacheNone || cfg.Cache.Backend == config.CacheMemory {
				printInfo("Nothing to clear for the %s cache", cfg.Cache.Backend)
				return nil
			}

			store := c.newCache(cmd.Context(), cfg)
			defer store.Close()
			clearer, ok := store.(cache.Clearer)
			if !ok {
				return fmt.Errorf("%s cache is unavailable", cfg.Cache.Backend)
			}
			if err := clearer.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear %s cache: %w", cfg.Cache.Backend, err)
			}

			printSuccess("Cleared %s cache", cfg.Cache.Backend)
			switch s := store.(type) {
			case *cache.FileCache:
				printDetail("Directory: %s", s.Dir())
			case *cache.RedisCache:
				printDetail("Prefix: %s", cfg.Cache.RedisPrefix)
			}
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.CacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
