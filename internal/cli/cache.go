package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached layouts and renders",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Cache.Backend == config.CacheNone {
				sayNote("Cache is disabled")
				return nil
			}
			ch, err := newCache(ctx, cfg.Cache, false)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer ch.Close()

			clearer, ok := ch.(cache.Clearer)
			if !ok {
				return fmt.Errorf("%s cache cannot be cleared", cfg.Cache.Backend)
			}
			count, err := clearer.Clear(ctx)
			if err != nil {
				return err
			}

			sayDone("Cleared %d cached entries", count)
			if fc, ok := ch.(*cache.FileCache); ok {
				sayDetail("Directory: %s", fc.Dir())
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			switch cfg.Cache.Backend {
			case config.CacheRedis:
				fmt.Println("redis://" + cfg.Cache.RedisAddr)
				return nil
			case config.CacheNone:
				sayNote("Cache is disabled")
				return nil
			}
			dir := cfg.Cache.Dir
			if dir == "" {
				if dir, err = cacheDir(); err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
			}
			fmt.Println(dir)
			return nil
		},
	}
}
