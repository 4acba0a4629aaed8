package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shelfkit/shelf/pkg/shelf/config"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "shelf SOURCE DEST",
		Short: "Organize files into category folders",
		Long: `Shelf moves files into category folders named by their type, and keeps
an undo manifest so every run can be reversed.

Each run walks SOURCE, classifies every file by extension, and moves it
under DEST (Images/, PDF/, Documents/, ...). The manifest written next
to the organized files records enough to put everything back.

Examples:
  shelf ~/Downloads ~/Sorted            # Organize downloads into ~/Sorted
  shelf -n ~/Downloads ~/Sorted         # Preview without moving anything
  shelf --by-date ~/scans ~/scans       # Organize in place, adding YYYY/MM
  shelf -i ~/Downloads ~/Sorted         # Review the plan before it runs
  shelf undo                            # Reverse the most recent run
  shelf watch ~/Downloads ~/Sorted      # Keep organizing as files arrive`,
		Args:              cobra.MaximumNArgs(2),
		PersistentPreRunE: initializeLogging,
		RunE:              runOrganize,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/shelf/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-file", "", "log file path")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.file", rootCmd.PersistentFlags().Lookup("log-file"))
	_ = viper.BindPFlag("no_color", rootCmd.PersistentFlags().Lookup("no-color"))

	// Organize flags (root command only)
	rootCmd.Flags().BoolP("recursive", "r", true, "descend into subdirectories")
	rootCmd.Flags().Bool("flat", false, "organize the top level only (overrides --recursive)")
	rootCmd.Flags().StringP("mode", "m", "", "transfer mode: move or copy")
	rootCmd.Flags().String("rules", "", "rules file mapping extensions to categories")
	rootCmd.Flags().Bool("no-defaults", false, "ignore the built-in category rules")
	rootCmd.Flags().Bool("by-date", false, "add YYYY/MM subdirectories from modification time")
	rootCmd.Flags().BoolP("dry-run", "n", false, "plan only, move nothing")
	rootCmd.Flags().String("conflict", "", "occupied destination strategy: rename or skip")
	rootCmd.Flags().StringSliceP("exclude", "e", nil, "exclude glob patterns (repeatable)")
	rootCmd.Flags().String("manifest-out", "", "directory for the undo manifest (default: DEST)")
	rootCmd.Flags().Bool("no-dedup", false, "disable duplicate detection")
	rootCmd.Flags().Bool("no-cache", false, "hash without the on-disk cache")
	rootCmd.Flags().BoolP("interactive", "i", false, "review the plan before applying it")
	rootCmd.Flags().StringP("output", "o", "", "report format (pretty, plain, json, jsonl, yaml, tsv, csv, markdown, paths, template, null)")
	rootCmd.Flags().String("template", "", "Go template for -o template")
	rootCmd.Flags().String("undo", "", "undo the given manifest instead of organizing")

	_ = viper.BindPFlag("recursive", rootCmd.Flags().Lookup("recursive"))
	_ = viper.BindPFlag("mode", rootCmd.Flags().Lookup("mode"))
	_ = viper.BindPFlag("rules", rootCmd.Flags().Lookup("rules"))
	_ = viper.BindPFlag("by_date", rootCmd.Flags().Lookup("by-date"))
	_ = viper.BindPFlag("conflict", rootCmd.Flags().Lookup("conflict"))
	_ = viper.BindPFlag("exclude", rootCmd.Flags().Lookup("exclude"))
	_ = viper.BindPFlag("manifest.dir", rootCmd.Flags().Lookup("manifest-out"))
	_ = viper.BindPFlag("output", rootCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("template", rootCmd.Flags().Lookup("template"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		// Add config paths in order of precedence
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "shelf"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "shelf"))
		}
	}

	viper.SetEnvPrefix("SHELF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Set defaults from config package
	viper.SetDefault("mode", config.DefaultMode)
	viper.SetDefault("recursive", true)
	viper.SetDefault("conflict", config.DefaultConflict)
	viper.SetDefault("output", config.DefaultOutput)
	viper.SetDefault("dedup.enabled", true)
	viper.SetDefault("dedup.cache", true)
	viper.SetDefault("watch.settle", config.DefaultSettle)
	viper.SetDefault("history.retention_days", config.DefaultRetentionDays)
	viper.SetDefault("logging.level", config.DefaultLogLevel)
	viper.SetDefault("logging.rotation.max_size", "10MB")
	viper.SetDefault("logging.rotation.max_age", 30)
	viper.SetDefault("logging.rotation.max_backups", 5)
	viper.SetDefault("logging.rotation.daily", true)

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()

	if viper.GetBool("no_color") {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
