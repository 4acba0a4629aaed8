package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shelfkit/shelf/pkg/shelf/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show the effective classification rules",
	Long: `Show the extension-to-category rules a run would use.

The built-in defaults are merged with the rules file named by --rules
(or the config); user entries win for the same extension.`,
	RunE: runRules,
}

var rulesInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a sample rules file",
	Long: `Write a sample rules file to edit and pass back with --rules.

The file is a flat JSON or YAML map from extension to category folder
name. The default path is shelf-rules.json in the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRulesInit,
}

func init() {
	rulesCmd.Flags().String("rules", "", "rules file mapping extensions to categories")
	rulesCmd.Flags().Bool("no-defaults", false, "ignore the built-in category rules")

	rulesCmd.AddCommand(rulesInitCmd)
	rootCmd.AddCommand(rulesCmd)
}

// runRules prints the effective rule set grouped by category.
func runRules(cmd *cobra.Command, _ []string) error {
	rulesPath, _ := cmd.Flags().GetString("rules")
	if rulesPath == "" {
		rulesPath = viper.GetString("rules")
	}
	if rulesPath != "" {
		var err error
		rulesPath, err = resolvePath(rulesPath, false)
		if err != nil {
			return err
		}
	}
	noDefaults, _ := cmd.Flags().GetBool("no-defaults")

	set, err := rules.Build(rulesPath, !noDefaults)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	if rulesPath != "" {
		printInfo("Rules file: %s", rulesPath)
	}
	printInfo("%d extensions across %d categories", set.Len(), len(set.Categories()))
	fmt.Println()

	for _, cr := range set.Categories() {
		fmt.Printf("%-14s %s\n", cr.Category, strings.Join(cr.Extensions, " "))
	}

	fmt.Println()
	printInfo("Everything else lands in %s/.", rules.CategoryOther)
	return nil
}

// runRulesInit writes a sample rules file.
func runRulesInit(_ *cobra.Command, args []string) error {
	path := "shelf-rules.json"
	if len(args) > 0 {
		path = args[0]
	}

	resolved, err := resolvePath(path, false)
	if err != nil {
		return err
	}

	if err := rules.WriteSample(resolved); err != nil {
		return err
	}

	printInfo("Wrote sample rules to %s", resolved)
	printInfo("Use it with: shelf --rules %s SOURCE DEST", resolved)
	return nil
}
