package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"deckify/internal/analysiscache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the analysis cache",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

// withCache opens the configured cache file. A missing file is reported to
// fn as a nil store instead of being created.
func withCache(ctx *commandContext, cmd *cobra.Command, fn func(*analysiscache.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Cache.Enabled {
		fmt.Fprintln(cmd.OutOrStdout(), "Analysis cache is disabled ([cache] enabled = false)")
	}
	if _, err := os.Stat(cfg.Cache.Path); errors.Is(err, fs.ErrNotExist) {
		return fn(nil)
	}
	store, err := analysiscache.Open(cmd.Context(), cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache size and age",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(ctx, cmd, func(store *analysiscache.Store) error {
				stats := analysiscache.Stats{}
				if store != nil {
					var err error
					if stats, err = store.Stats(cmd.Context()); err != nil {
						return err
					}
				} else {
					cfg, _ := ctx.ensureConfig()
					stats.Path = cfg.Cache.Path
				}
				if jsonOutput {
					return writeJSON(cmd, stats)
				}
				fmt.Fprintln(cmd.OutOrStdout(), stats.String())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove entries not used within the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if days <= 0 {
				days = cfg.Cache.RetentionDays
			}
			return withCache(ctx, cmd, func(store *analysiscache.Store) error {
				if store == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to prune")
					return nil
				}
				removed, err := store.Prune(cmd.Context(), time.Duration(days)*24*time.Hour)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries older than %d days\n", removed, days)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Retention in days (default: [cache] retention_days)")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cache entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(ctx, cmd, func(store *analysiscache.Store) error {
				if store == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to clear")
					return nil
				}
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries\n", removed)
				return nil
			})
		},
	}
}
