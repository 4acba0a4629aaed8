package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shelfkit/shelf/cmd/shelf/tui"
	"github.com/shelfkit/shelf/pkg/shelf/hashcache"
	"github.com/shelfkit/shelf/pkg/shelf/organizer"
)

// runOrganize is the root command handler.
func runOrganize(cmd *cobra.Command, args []string) error {
	// --undo reverses a manifest instead of organizing.
	if manifestPath, _ := cmd.Flags().GetString("undo"); manifestPath != "" {
		return runUndoReplay(manifestPath)
	}

	if len(args) != 2 {
		return fmt.Errorf("expected SOURCE and DEST arguments, got %d", len(args))
	}

	opts, cleanup, err := buildOrganizerOptions(cmd, args[0], args[1])
	if err != nil {
		return err
	}
	defer cleanup()

	// An explicit non-pretty output format forces non-interactive mode,
	// and a dry run has nothing to apply so the review is skipped too.
	interactive, _ := cmd.Flags().GetBool("interactive")
	outFormat := viper.GetString("output")
	if outFormat != "" && outFormat != "pretty" {
		interactive = false
	}

	if interactive && !opts.DryRun {
		return runInteractiveOrganize(opts)
	}
	return runBatchOrganize(opts)
}

// runInteractiveOrganize hands the run to the TUI review.
func runInteractiveOrganize(opts organizer.Options) error {
	// Re-initialize logging for TUI mode (console output would corrupt the screen)
	if err := initTUILogging(); err != nil {
		return fmt.Errorf("failed to initialize TUI logging: %w", err)
	}

	return tui.Run(tui.Options{Organizer: opts})
}

// runBatchOrganize runs the pipeline once and prints the report.
func runBatchOrganize(opts organizer.Options) error {
	formatter, err := selectFormatter()
	if err != nil {
		return err
	}

	org, err := organizer.New(opts)
	if err != nil {
		return err
	}

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		printInfo("\nInterrupted, stopping after the current file...")
		cancel()
	}()

	printVerbose("Organizing %s into %s", opts.Source, opts.Dest)

	report, runErr := org.Run(ctx)

	// Print whatever completed; an interrupted or partly failed run still
	// produced rows the user needs to see.
	if runErr == nil || len(report.Rows) > 0 {
		var buf bytes.Buffer
		if err := formatter.Format(&buf, convertReport(report)); err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Print(buf.String())
	}

	if cache, ok := opts.Hasher.(*hashcache.Cache); ok {
		if st, err := cache.Stats(); err == nil {
			printVerbose("Hash cache: %d hits, %d misses", st.Hits, st.Misses)
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if report.Interrupted {
		return fmt.Errorf("run interrupted")
	}
	if report.HasFailures() {
		return fmt.Errorf("%d of %d files failed", report.Stats.Failed, report.Stats.Scanned)
	}
	return nil
}
