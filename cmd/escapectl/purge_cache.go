package main

import (
	"fmt"

	"github.com/escape-finder/api-go/config"
	"github.com/escape-finder/api-go/middleware"
	"github.com/spf13/cobra"
)

var allCacheGroups = []string{
	middleware.CacheRooms, middleware.CacheLocations, middleware.CacheThemes,
	middleware.CacheBlog, middleware.CacheSitemap,
}

var purgeCacheCmd = &cobra.Command{
	Use:       "purge-cache [group...]",
	Short:     "Drop cached API responses",
	Long:      "Drops cached responses for the named groups (rooms, locations, themes, blog, sitemap), or all of them.",
	ValidArgs: allCacheGroups,
	Args:      cobra.OnlyValidArgs,
	RunE:      runPurgeCache,
}

func runPurgeCache(cmd *cobra.Command, args []string) error {
	rdb := config.NewRedisClient(logger)
	if rdb == nil {
		return fmt.Errorf("purge-cache: redis is not configured")
	}
	defer rdb.Close()

	groups := args
	if len(groups) == 0 {
		groups = allCacheGroups
	}
	cfg := config.LoadCacheConfig()
	cfg.Enabled = true
	n, err := middleware.NewResponseCache(cfg, rdb, nil, logger).Purge(cmd.Context(), groups...)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached responses\n", n)
	return nil
}
