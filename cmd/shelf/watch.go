package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shelfkit/shelf/pkg/shelf/organizer"
	"github.com/shelfkit/shelf/pkg/shelf/types"
	"github.com/shelfkit/shelf/pkg/shelf/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch SOURCE DEST",
	Short: "Keep organizing as files arrive",
	Long: `Watch SOURCE and organize new files into DEST as they land.

A new file is organized once it has been quiet for the settle period,
so partially written downloads are left alone. All moves of one watch
session are recorded in a single manifest; reverse the whole session
with 'shelf undo'.

Stop watching with Ctrl-C.`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringP("mode", "m", "", "transfer mode: move or copy")
	watchCmd.Flags().String("conflict", "", "occupied destination strategy: rename or skip")
	watchCmd.Flags().Bool("by-date", false, "add YYYY/MM subdirectories from modification time")
	watchCmd.Flags().String("rules", "", "rules file mapping extensions to categories")
	watchCmd.Flags().Bool("no-defaults", false, "ignore the built-in category rules")
	watchCmd.Flags().StringSliceP("exclude", "e", nil, "exclude glob patterns (repeatable)")
	watchCmd.Flags().String("manifest-out", "", "directory for the undo manifest (default: DEST)")
	watchCmd.Flags().Bool("no-dedup", false, "disable duplicate detection")
	watchCmd.Flags().Bool("no-cache", false, "hash without the on-disk cache")
	watchCmd.Flags().Duration("settle", 0, "quiet time before a new file is organized (default from config)")

	rootCmd.AddCommand(watchCmd)
}

// runWatch handles the watch subcommand.
func runWatch(cmd *cobra.Command, args []string) error {
	// Rebind the shared organize keys to this command's flags. Only one
	// command runs per process, so stealing the bindings from the root
	// command is safe.
	_ = viper.BindPFlag("mode", cmd.Flags().Lookup("mode"))
	_ = viper.BindPFlag("conflict", cmd.Flags().Lookup("conflict"))
	_ = viper.BindPFlag("by_date", cmd.Flags().Lookup("by-date"))
	_ = viper.BindPFlag("rules", cmd.Flags().Lookup("rules"))
	_ = viper.BindPFlag("exclude", cmd.Flags().Lookup("exclude"))
	_ = viper.BindPFlag("manifest.dir", cmd.Flags().Lookup("manifest-out"))
	_ = viper.BindPFlag("watch.settle", cmd.Flags().Lookup("settle"))

	opts, cleanup, err := buildOrganizerOptions(cmd, args[0], args[1])
	if err != nil {
		return err
	}
	defer cleanup()

	org, err := organizer.New(opts)
	if err != nil {
		return err
	}

	settle := viper.GetDuration("watch.settle")

	w, err := watcher.New(watcher.Options{
		Organizer: org,
		Settle:    settle,
		OnPass:    printPassSummary,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		printInfo("\nStopping watch...")
		cancel()
	}()

	printInfo("Watching %s -> %s (settle %s). Ctrl-C to stop.", opts.Source, opts.Dest, w.Settle())

	runErr := w.Run(ctx)

	if path := w.ManifestPath(); path != "" {
		printInfo("Session manifest: %s", path)
		printInfo("Undo with: shelf undo %s", path)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// printPassSummary prints a one-line summary after each pass that
// handled files.
func printPassSummary(r *organizer.Report) {
	var parts []string
	if r.Stats.Moved > 0 {
		parts = append(parts, fmt.Sprintf("moved %d", r.Stats.Moved))
	}
	if r.Stats.Copied > 0 {
		parts = append(parts, fmt.Sprintf("copied %d", r.Stats.Copied))
	}
	if r.Stats.Duplicates > 0 {
		parts = append(parts, fmt.Sprintf("%d duplicates", r.Stats.Duplicates))
	}
	if r.Stats.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("skipped %d", r.Stats.Skipped))
	}
	if r.Stats.Failed > 0 {
		parts = append(parts, fmt.Sprintf("failed %d", r.Stats.Failed))
	}
	if len(parts) == 0 {
		return
	}

	printInfo("%s  %s", time.Now().Format("15:04:05"), strings.Join(parts, ", "))

	for _, row := range r.Rows {
		if row.Action == types.ActionFailed {
			printError("%s: %s", row.Source, row.Reason)
		}
	}
}
