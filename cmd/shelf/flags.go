package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shelfkit/shelf/pkg/shelf/config"
	"github.com/shelfkit/shelf/pkg/shelf/hashcache"
	"github.com/shelfkit/shelf/pkg/shelf/organizer"
	"github.com/shelfkit/shelf/pkg/shelf/output"
	"github.com/shelfkit/shelf/pkg/shelf/rules"
	"github.com/shelfkit/shelf/pkg/shelf/types"
)

// resolvePath expands ~ and makes the path absolute. With mustBeDir set
// it also verifies the path names an existing directory.
func resolvePath(path string, mustBeDir bool) (string, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand path: %w", err)
	}

	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if mustBeDir {
		info, err := os.Stat(absPath)
		if err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("path does not exist: %s", absPath)
			}
			return "", fmt.Errorf("cannot access path: %w", err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("path is not a directory: %s", absPath)
		}
	}

	return absPath, nil
}

// buildOrganizerOptions assembles organizer options from the positional
// SOURCE and DEST arguments plus flags and config. The returned cleanup
// releases the hash cache and must be called once the run is finished.
func buildOrganizerOptions(cmd *cobra.Command, source, dest string) (organizer.Options, func(), error) {
	noop := func() {}

	srcPath, err := resolvePath(source, true)
	if err != nil {
		return organizer.Options{}, noop, err
	}

	// The destination may not exist yet; the run creates it.
	destPath, err := resolvePath(dest, false)
	if err != nil {
		return organizer.Options{}, noop, err
	}

	mode, err := types.ParseMode(viper.GetString("mode"))
	if err != nil {
		return organizer.Options{}, noop, err
	}

	conflict, err := types.ParseConflict(viper.GetString("conflict"))
	if err != nil {
		return organizer.Options{}, noop, err
	}

	recursive := viper.GetBool("recursive")
	if flat, _ := cmd.Flags().GetBool("flat"); flat {
		recursive = false
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")

	rulesPath := viper.GetString("rules")
	if rulesPath != "" {
		rulesPath, err = config.ExpandPath(rulesPath)
		if err != nil {
			return organizer.Options{}, noop, fmt.Errorf("failed to expand rules path: %w", err)
		}
	}
	noDefaults, _ := cmd.Flags().GetBool("no-defaults")
	ruleSet, err := rules.Build(rulesPath, !noDefaults)
	if err != nil {
		return organizer.Options{}, noop, fmt.Errorf("failed to load rules: %w", err)
	}

	manifestDir := viper.GetString("manifest.dir")
	if manifestDir != "" {
		manifestDir, err = resolvePath(manifestDir, false)
		if err != nil {
			return organizer.Options{}, noop, err
		}
	}

	noDedup, _ := cmd.Flags().GetBool("no-dedup")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	hasher, cleanup := buildHasher(noDedup, noCache)

	opts := organizer.Options{
		Source:      srcPath,
		Dest:        destPath,
		Mode:        mode,
		Conflict:    conflict,
		Recursive:   recursive,
		ByDate:      viper.GetBool("by_date"),
		DryRun:      dryRun,
		Rules:       ruleSet,
		Exclude:     viper.GetStringSlice("exclude"),
		ManifestDir: manifestDir,
		Hasher:      hasher,
	}

	return opts, cleanup, nil
}

// buildHasher wires duplicate detection from the dedup settings. Dedup
// defaults on with the persistent hash cache; --no-cache hashes without
// memoization and --no-dedup disables detection entirely. An unopenable
// cache degrades to direct hashing rather than failing the run.
func buildHasher(noDedup, noCache bool) (hashcache.Hasher, func()) {
	noop := func() {}

	if noDedup || !viper.GetBool("dedup.enabled") {
		return nil, noop
	}
	if noCache || !viper.GetBool("dedup.cache") {
		return hashcache.Direct{}, noop
	}

	if err := config.EnsureCacheDir(); err != nil {
		printVerbose("Hash cache unavailable, hashing directly: %v", err)
		return hashcache.Direct{}, noop
	}
	cache, err := hashcache.Open(config.DefaultHashCachePath())
	if err != nil {
		printVerbose("Hash cache unavailable, hashing directly: %v", err)
		return hashcache.Direct{}, noop
	}
	return cache, func() { _ = cache.Close() }
}

// selectFormatter picks the report formatter from the output and template
// settings.
func selectFormatter() (output.Formatter, error) {
	outFormat := viper.GetString("output")
	if outFormat == "" {
		outFormat = config.DefaultOutput
	}

	if outFormat == "template" {
		// Handle custom template format
		tmplStr := viper.GetString("template")
		if tmplStr == "" {
			return nil, fmt.Errorf("--template is required when using -o template")
		}
		return output.NewTemplateFormatter(tmplStr), nil
	}

	formatter, err := output.Get(outFormat)
	if err != nil {
		return nil, fmt.Errorf("unknown output format %q: available formats are %v", outFormat, output.Available())
	}
	return formatter, nil
}

// convertReport converts an organizer report to the output result shape.
// Duplicates fold into the skipped counter; their rows keep the duplicate
// action so formatted output still distinguishes them.
func convertReport(r *organizer.Report) *output.Result {
	rows := make([]output.Row, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = output.Row{
			Source:      row.Source,
			Destination: row.Destination,
			Category:    row.Category,
			Size:        row.Size,
			SizeHuman:   types.FormatSize(row.Size),
			ModTime:     row.ModTime,
			Action:      string(row.Action),
			Reason:      row.Reason,
		}
	}

	return &output.Result{
		Rows: rows,
		Stats: output.RunStats{
			Scanned:  r.Stats.Scanned,
			Moved:    r.Stats.Moved,
			Copied:   r.Stats.Copied,
			Planned:  r.Stats.Planned,
			Skipped:  r.Stats.Skipped + r.Stats.Duplicates,
			Failed:   r.Stats.Failed,
			Duration: r.Stats.Duration,
		},
		Source:       r.Source,
		Dest:         r.Dest,
		Mode:         string(r.Mode),
		DryRun:       r.DryRun,
		ByDate:       r.ByDate,
		RunID:        r.RunID,
		ManifestPath: r.ManifestPath,
		TotalFiles:   len(rows),
		Warnings:     r.Warnings,
		Interrupted:  r.Interrupted,
	}
}
