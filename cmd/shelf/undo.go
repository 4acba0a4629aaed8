package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shelfkit/shelf/pkg/shelf/manifest"
	"github.com/shelfkit/shelf/pkg/shelf/undo"
)

var undoCmd = &cobra.Command{
	Use:   "undo [manifest]",
	Short: "Reverse an organize run",
	Long: `Reverse a previous run from its manifest: moved files return to
where they came from, copies are deleted, and directories the run
created are removed if empty.

The argument may be a manifest file or a directory holding manifests,
in which case the most recent one is reversed. With no argument the
configured manifest directory is searched, falling back to the current
directory.

The manifest file itself is kept, so an undo can be inspected or
repeated; entries whose files have since moved on are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUndo,
}

func init() {
	rootCmd.AddCommand(undoCmd)
}

// runUndo handles the undo subcommand.
func runUndo(_ *cobra.Command, args []string) error {
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	return runUndoReplay(arg)
}

// runUndoReplay reverses the manifest named by arg. Shared by the undo
// subcommand and the root command's --undo flag.
func runUndoReplay(arg string) error {
	path, err := resolveManifestArg(arg)
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
		printInfo("\nInterrupted, stopping after the current entry...")
		cancel()
	}()

	printInfo("Reversing %s...", path)

	res, err := undo.Undo(ctx, path)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	printInfo("Restored: %d  Deleted: %d  Skipped: %d  Pruned dirs: %d",
		res.Restored, res.Deleted, res.Skipped, res.PrunedDirs)

	for _, f := range res.Failed {
		printError("undo %s: %v", f.Op.Destination, f.Err)
	}

	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("undo interrupted")
	}
	if !res.Ok() {
		total := res.Restored + res.Deleted + res.Skipped + len(res.Failed)
		return fmt.Errorf("%d of %d entries failed", len(res.Failed), total)
	}
	return nil
}

// resolveManifestArg maps the undo argument to a manifest file. A
// directory argument selects its newest manifest; an empty argument
// searches the configured manifest directory, then the current one.
func resolveManifestArg(arg string) (string, error) {
	if arg == "" {
		arg = viper.GetString("manifest.dir")
		if arg == "" {
			arg = "."
		}
	}

	path, err := resolvePath(arg, false)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path does not exist: %s", path)
		}
		return "", fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return path, nil
	}

	infos, err := manifest.List(path, 1)
	if err != nil {
		return "", err
	}
	if len(infos) == 0 {
		return "", fmt.Errorf("no manifests found in %s", path)
	}
	return infos[0].Path, nil
}
