package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/suratkita/suratkita/pkg/cache"
	"github.com/suratkita/suratkita/pkg/config"
)

// openCache builds the configured artifact cache and its keyer. A file
// cache that cannot be created degrades to no caching with a warning.
func openCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, cache.Keyer, error) {
	keyer := newKeyer(cfg)
	if noCache {
		return cache.NewNullCache(), keyer, nil
	}
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), keyer, nil
	case config.CacheRedis:
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return c, keyer, nil
	}
	dir, err := artifactDir(cfg)
	if err != nil {
		printWarning("Caching disabled: %v", err)
		return cache.NewNullCache(), keyer, nil
	}
	c, err := cache.NewFileCache(dir)
	if err != nil {
		printWarning("Caching disabled: %v", err)
		return cache.NewNullCache(), keyer, nil
	}
	return c, keyer, nil
}

// artifactDir is cache.dir from the configuration or the XDG cache directory.
func artifactDir(cfg *config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "artifacts"), nil
}

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached PDF artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if cfg.Cache.Backend != config.CacheFile {
				printInfo("Cache backend is %s; nothing to clear locally", cfg.Cache.Backend)
				return nil
			}
			dir, err := artifactDir(cfg)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}

			count, err := clearDir(dir)
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached artifacts", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// clearDir removes every file below dir and returns how many were removed.
func clearDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() {
			n, err := clearDir(filepath.Join(dir, e.Name()))
			if err != nil {
				return count, err
			}
			count += n
			_ = os.Remove(filepath.Join(dir, e.Name()))
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err == nil {
			count++
		}
	}
	return count, nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the artifact cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			dir, err := artifactDir(cfg)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
