package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shelfkit/shelf/pkg/shelf/config"
	"github.com/shelfkit/shelf/pkg/shelf/hashcache"
	"github.com/shelfkit/shelf/pkg/shelf/types"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the hash cache",
	Long: `Commands for managing the content hash cache.

Duplicate detection hashes files at the destination; the cache stores
those hashes so unchanged files are never read twice. Cache data lives
in the XDG cache directory (typically ~/.cache/shelf/hashes).`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached hashes",
	Long:  `Removes all cached hashes. The next run re-reads any file it needs to compare.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cachePath := config.DefaultHashCachePath()

		// Check if cache exists
		if _, err := os.Stat(cachePath); os.IsNotExist(err) {
			fmt.Println("Hash cache is already empty.")
			return nil
		}

		if err := os.RemoveAll(cachePath); err != nil {
			return fmt.Errorf("failed to clear hash cache: %w", err)
		}

		fmt.Println("Hash cache cleared.")
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show hash cache statistics",
	Long:  `Displays information about the hash cache including its location, size, and entry count.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cachePath := config.DefaultHashCachePath()

		info, err := os.Stat(cachePath)
		if os.IsNotExist(err) {
			fmt.Println("Hash cache: empty (no cache store)")
			fmt.Printf("Cache location: %s\n", cachePath)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to stat hash cache: %w", err)
		}

		// Get directory size
		var size int64
		err = filepath.Walk(cachePath, func(_ string, info os.FileInfo, err error) error {
			if err == nil && !info.IsDir() {
				size += info.Size()
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to calculate cache size: %w", err)
		}

		fmt.Printf("Cache location: %s\n", cachePath)
		fmt.Printf("Cache size: %s\n", types.FormatSize(size))
		fmt.Printf("Last modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))

		// Entry count needs the store open; skip it when a run holds the lock.
		cache, err := hashcache.Open(cachePath)
		if err != nil {
			printVerbose("Cannot open hash cache for entry count: %v", err)
			return nil
		}
		defer cache.Close()

		stats, err := cache.Stats()
		if err != nil {
			printVerbose("Cannot count hash cache entries: %v", err)
			return nil
		}
		fmt.Printf("Entries: %d\n", stats.Entries)

		return nil
	},
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show hash cache location",
	Long:  `Prints the path to the hash cache directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.DefaultHashCachePath())
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}
