package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shelfkit/shelf/pkg/shelf/config"
	"github.com/shelfkit/shelf/pkg/shelf/manifest"
)

var historyCmd = &cobra.Command{
	Use:   "history [dir]",
	Short: "List recorded runs",
	Long: `List the manifests recorded by previous runs.

Each run writes one manifest next to the organized files (or in the
configured manifest directory). The listing shows the newest first;
any entry can be reversed with 'shelf undo <path>'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <manifest>",
	Short: "Show the operations of a recorded run",
	Long:  `Display the full operation log of a manifest file.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean [dir]",
	Short: "Remove old manifests",
	Long: `Remove manifests older than the retention period.

A removed manifest cannot be undone anymore; the organized files are
not touched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistoryClean,
}

var (
	historyLimit int
	historyDays  int
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of runs to show")
	historyCleanCmd.Flags().IntVar(&historyDays, "days", 0, "retention in days (default from config)")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// historyDir picks the directory to operate on: the positional argument
// if given, else the configured manifest directory, else the current one.
func historyDir(args []string) (string, error) {
	dir := viper.GetString("manifest.dir")
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		dir = "."
	}
	return resolvePath(dir, false)
}

// runHistory lists recorded runs, newest first.
func runHistory(_ *cobra.Command, args []string) error {
	dir, err := historyDir(args)
	if err != nil {
		return err
	}

	entries, err := manifest.List(dir, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No runs recorded in %s.", dir)
		printInfo("Run 'shelf SOURCE DEST' to organize files.")
		return nil
	}

	// Print header
	fmt.Printf("\n%-36s  %-19s  %-5s  %5s  %s\n", "RUN", "CREATED", "MODE", "OPS", "DEST")
	fmt.Println(strings.Repeat("-", 90))

	for _, entry := range entries {
		fmt.Printf("%-36s  %-19s  %-5s  %5d  %s\n",
			truncateString(entry.RunID, 36),
			entry.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			entry.Mode,
			entry.Operations,
			entry.DestRoot,
		)
	}

	fmt.Println(strings.Repeat("-", 90))
	fmt.Printf("\nShowing %d runs. Use --limit to see more.\n", len(entries))
	fmt.Println("Use 'shelf history show <manifest>' for the full operation log.")

	return nil
}

// runHistoryShow displays the operation log of one manifest.
func runHistoryShow(_ *cobra.Command, args []string) error {
	path, err := resolvePath(args[0], false)
	if err != nil {
		return err
	}

	doc, err := manifest.Read(path)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}

	fmt.Println("\nRun Details")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Run:        %s\n", doc.RunID)
	fmt.Printf("Created:    %s\n", doc.CreatedAt.Local().Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Mode:       %s\n", doc.Mode)
	fmt.Printf("Source:     %s\n", doc.SourceRoot)
	fmt.Printf("Dest:       %s\n", doc.DestRoot)
	if doc.ByDate {
		fmt.Printf("By date:    yes\n")
	}
	fmt.Printf("Operations: %d\n", len(doc.Operations))

	if len(doc.Operations) > 0 {
		fmt.Println("\nOperations:")
		fmt.Println(strings.Repeat("-", 60))

		// Limit display to 50 operations
		limit := 50
		if len(doc.Operations) < limit {
			limit = len(doc.Operations)
		}

		for i := 0; i < limit; i++ {
			op := doc.Operations[i]
			fmt.Printf("%-5s  %s -> %s\n", op.Mode, op.Source, op.Destination)
		}

		if len(doc.Operations) > limit {
			fmt.Printf("\n... and %d more operations\n", len(doc.Operations)-limit)
		}
	}

	return nil
}

// runHistoryClean removes manifests older than the retention period.
func runHistoryClean(_ *cobra.Command, args []string) error {
	dir, err := historyDir(args)
	if err != nil {
		return err
	}

	days := historyDays
	if days <= 0 {
		days = viper.GetInt("history.retention_days")
	}
	if days <= 0 {
		days = config.DefaultRetentionDays
	}

	printInfo("Removing manifests in %s older than %d days...", dir, days)

	removed, err := manifest.Cleanup(dir, days)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	printInfo("Removed %d manifests.", removed)
	return nil
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
