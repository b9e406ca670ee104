// Package main implements cache management commands.
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jsvet/internal/cache"
)

var pruneOlderThan time.Duration

// cacheCmd manages the result cache
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the result cache",
	Long: `Inspect and maintain the per-file result cache.

Subcommands:
  status  - Show cache contents and recent runs
  clear   - Drop all cached results and run history
  prune   - Drop results older than a cutoff`,
	RunE: runCacheStatus,
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache contents and recent runs",
	RunE:  runCacheStatus,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all cached results and run history",
	RunE:  runCacheClear,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop results older than a cutoff",
	RunE:  runCachePrune,
}

func init() {
	cachePruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than",
		30*24*time.Hour, "Age cutoff for pruning (e.g. 168h)")

	cacheCmd.AddCommand(cacheStatusCmd, cacheClearCmd, cachePruneCmd)
}

// openCacheStore opens the cache for management commands. Unlike lint
// runs, a broken cache is an error here rather than a degrade.
func openCacheStore() (*cache.Store, *appEnv, error) {
	env, err := loadEnv()
	if err != nil {
		return nil, nil, err
	}

	store, err := cache.NewStore(env.cfg.CacheDir(env.root))
	if err != nil {
		return nil, nil, err
	}
	return store, env, nil
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	store, env, err := openCacheStore()
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats()
	if err != nil {
		return err
	}

	fmt.Println("Result Cache")
	fmt.Println(strings.Repeat("─", 50))
	fmt.Printf("  Path:     %s\n", store.Path())
	fmt.Printf("  Enabled:  %v\n", env.cfg.Cache.Enabled)
	fmt.Printf("  Results:  %d\n", stats.Results)
	fmt.Printf("  Runs:     %d\n", stats.Runs)
	fmt.Printf("  Size:     %s\n", formatBytes(stats.SizeBytes))

	recent, err := store.RecentRuns(5)
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		fmt.Println("\nNo recorded runs yet.")
		return nil
	}

	fmt.Println("\nRecent runs")
	fmt.Println(strings.Repeat("─", 50))
	for _, r := range recent {
		fmt.Printf("  %s  %3d files (%d cached)  %d errors, %d warnings  %s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.FilesChecked, r.FilesFromCache,
			r.Errors, r.Warnings,
			r.Duration.Round(time.Millisecond))
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	store, _, err := openCacheStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Println("Cache cleared.")
	return nil
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	store, _, err := openCacheStore()
	if err != nil {
		return err
	}
	defer store.Close()

	pruned, err := store.Prune(pruneOlderThan)
	if err != nil {
		return err
	}
	fmt.Printf("Pruned %d stale results.\n", pruned)
	return nil
}

// formatBytes renders a byte count for humans.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
