package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shelfkit/shelf/pkg/shelf/config"
	"github.com/shelfkit/shelf/pkg/shelf/hashcache"
	"github.com/shelfkit/shelf/pkg/shelf/organizer"
	"github.com/shelfkit/shelf/pkg/shelf/types"
)

// resetViperForTest restores the defaults initConfig would set. Tests
// keep dedup.cache off so nothing touches the real cache store.
func resetViperForTest() {
	viper.Reset()
	viper.SetDefault("mode", config.DefaultMode)
	viper.SetDefault("recursive", true)
	viper.SetDefault("conflict", config.DefaultConflict)
	viper.SetDefault("output", config.DefaultOutput)
	viper.SetDefault("dedup.enabled", true)
	viper.SetDefault("dedup.cache", false)
}

// organizeCmdForTest builds a command carrying the flags
// buildOrganizerOptions reads.
func organizeCmdForTest() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Bool("flat", false, "")
	cmd.Flags().Bool("dry-run", false, "")
	cmd.Flags().Bool("no-defaults", false, "")
	cmd.Flags().Bool("no-dedup", false, "")
	cmd.Flags().Bool("no-cache", false, "")
	return cmd
}

func TestBuildOrganizerOptions(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(cmd *cobra.Command)
		check   func(t *testing.T, opts organizer.Options)
		wantErr string
	}{
		{
			name:  "default values",
			setup: func(cmd *cobra.Command) {},
			check: func(t *testing.T, opts organizer.Options) {
				if opts.Mode != types.ModeMove {
					t.Errorf("Mode = %v, want move", opts.Mode)
				}
				if opts.Conflict != types.ConflictRename {
					t.Errorf("Conflict = %v, want rename", opts.Conflict)
				}
				if !opts.Recursive {
					t.Error("expected recursive by default")
				}
				if opts.DryRun {
					t.Error("expected DryRun off by default")
				}
				if opts.Hasher == nil {
					t.Error("expected a hasher with dedup enabled")
				}
				if opts.Rules == nil {
					t.Error("expected the built-in rules")
				}
			},
		},
		{
			name: "flat overrides recursive",
			setup: func(cmd *cobra.Command) {
				_ = cmd.Flags().Set("flat", "true")
			},
			check: func(t *testing.T, opts organizer.Options) {
				if opts.Recursive {
					t.Error("expected --flat to disable recursion")
				}
			},
		},
		{
			name: "dry run flag",
			setup: func(cmd *cobra.Command) {
				_ = cmd.Flags().Set("dry-run", "true")
			},
			check: func(t *testing.T, opts organizer.Options) {
				if !opts.DryRun {
					t.Error("expected DryRun set")
				}
			},
		},
		{
			name: "copy mode and by date",
			setup: func(cmd *cobra.Command) {
				viper.Set("mode", "copy")
				viper.Set("by_date", true)
			},
			check: func(t *testing.T, opts organizer.Options) {
				if opts.Mode != types.ModeCopy {
					t.Errorf("Mode = %v, want copy", opts.Mode)
				}
				if !opts.ByDate {
					t.Error("expected ByDate set")
				}
			},
		},
		{
			name: "no-dedup disables hashing",
			setup: func(cmd *cobra.Command) {
				_ = cmd.Flags().Set("no-dedup", "true")
			},
			check: func(t *testing.T, opts organizer.Options) {
				if opts.Hasher != nil {
					t.Error("expected no hasher with --no-dedup")
				}
			},
		},
		{
			name: "invalid mode",
			setup: func(cmd *cobra.Command) {
				viper.Set("mode", "shuffle")
			},
			wantErr: "invalid transfer mode",
		},
		{
			name: "invalid conflict",
			setup: func(cmd *cobra.Command) {
				viper.Set("conflict", "clobber")
			},
			wantErr: "invalid conflict strategy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViperForTest()
			cmd := organizeCmdForTest()
			tt.setup(cmd)

			source := t.TempDir()
			dest := filepath.Join(t.TempDir(), "sorted")

			opts, cleanup, err := buildOrganizerOptions(cmd, source, dest)
			defer cleanup()

			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildOrganizerOptions() error = %v", err)
			}
			if opts.Source != source {
				t.Errorf("Source = %q, want %q", opts.Source, source)
			}
			tt.check(t, opts)
		})
	}
}

func TestBuildOrganizerOptionsMissingSource(t *testing.T) {
	resetViperForTest()
	cmd := organizeCmdForTest()

	missing := filepath.Join(t.TempDir(), "gone")
	_, cleanup, err := buildOrganizerOptions(cmd, missing, t.TempDir())
	defer cleanup()

	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if !strings.Contains(err.Error(), "path does not exist") {
		t.Errorf("error = %v, want a missing-path message", err)
	}
}

func TestBuildHasher(t *testing.T) {
	tests := []struct {
		name    string
		noDedup bool
		noCache bool
		setup   func()
		want    string // "nil", "direct"
	}{
		{
			name:    "no-dedup flag disables detection",
			noDedup: true,
			setup:   func() {},
			want:    "nil",
		},
		{
			name:  "dedup disabled in config",
			setup: func() { viper.Set("dedup.enabled", false) },
			want:  "nil",
		},
		{
			name:    "no-cache flag hashes directly",
			noCache: true,
			setup:   func() {},
			want:    "direct",
		},
		{
			name:  "cache disabled in config hashes directly",
			setup: func() { viper.Set("dedup.cache", false) },
			want:  "direct",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViperForTest()
			tt.setup()

			hasher, cleanup := buildHasher(tt.noDedup, tt.noCache)
			defer cleanup()

			switch tt.want {
			case "nil":
				if hasher != nil {
					t.Errorf("expected nil hasher, got %T", hasher)
				}
			case "direct":
				if _, ok := hasher.(hashcache.Direct); !ok {
					t.Errorf("expected direct hasher, got %T", hasher)
				}
			}
		})
	}
}

func TestSelectFormatter(t *testing.T) {
	tests := []struct {
		name    string
		setup   func()
		wantErr string
	}{
		{
			name:  "default pretty",
			setup: func() {},
		},
		{
			name:  "json",
			setup: func() { viper.Set("output", "json") },
		},
		{
			name:  "template with a template string",
			setup: func() { viper.Set("output", "template"); viper.Set("template", "{{.Source}}") },
		},
		{
			name:    "template without a template string",
			setup:   func() { viper.Set("output", "template") },
			wantErr: "--template is required",
		},
		{
			name:    "unknown format",
			setup:   func() { viper.Set("output", "carrier-pigeon") },
			wantErr: "available formats",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViperForTest()
			tt.setup()

			formatter, err := selectFormatter()
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("selectFormatter() error = %v", err)
			}
			if formatter == nil {
				t.Error("expected a formatter")
			}
		})
	}
}

func TestConvertReport(t *testing.T) {
	report := &organizer.Report{
		Rows: []organizer.Row{
			{Source: "/in/a.pdf", Destination: "/out/PDF/a.pdf", Category: "PDF", Size: 2048, Action: types.ActionMoved},
			{Source: "/in/b.jpg", Action: types.ActionDuplicate, Reason: "duplicate of /out/Image/b.jpg"},
			{Source: "/in/c.txt", Action: types.ActionFailed, Reason: "permission denied"},
		},
		Stats: organizer.Stats{
			Scanned:    3,
			Moved:      1,
			Duplicates: 1,
			Failed:     1,
			Duration:   42 * time.Millisecond,
		},
		Source:       "/in",
		Dest:         "/out",
		Mode:         types.ModeMove,
		RunID:        "run-1",
		ManifestPath: "/out/.shelf/run-1.json",
		Warnings:     []string{"denied: /in/locked"},
	}

	result := convertReport(report)

	if result.TotalFiles != 3 {
		t.Errorf("TotalFiles = %d, want 3", result.TotalFiles)
	}
	if result.Stats.Skipped != 1 {
		t.Errorf("Stats.Skipped = %d, want duplicates folded in", result.Stats.Skipped)
	}
	if result.Stats.Moved != 1 || result.Stats.Failed != 1 {
		t.Errorf("Stats = %+v, want moved=1 failed=1", result.Stats)
	}
	if result.Rows[1].Action != "duplicate" {
		t.Errorf("Rows[1].Action = %q, want the duplicate action preserved", result.Rows[1].Action)
	}
	if result.Rows[0].SizeHuman == "" {
		t.Error("expected a human-readable size")
	}
	if result.Mode != "move" {
		t.Errorf("Mode = %q, want move", result.Mode)
	}
	if result.ManifestPath != report.ManifestPath {
		t.Errorf("ManifestPath = %q, want %q", result.ManifestPath, report.ManifestPath)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("Warnings = %v, want 1 entry", result.Warnings)
	}
}

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("existing directory", func(t *testing.T) {
		got, err := resolvePath(dir, true)
		if err != nil {
			t.Fatalf("resolvePath() error = %v", err)
		}
		if !filepath.IsAbs(got) {
			t.Errorf("expected absolute path, got %q", got)
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := resolvePath(filepath.Join(dir, "gone"), true)
		if err == nil || !strings.Contains(err.Error(), "path does not exist") {
			t.Errorf("error = %v, want a missing-path message", err)
		}
	})

	t.Run("file where directory required", func(t *testing.T) {
		_, err := resolvePath(file, true)
		if err == nil || !strings.Contains(err.Error(), "not a directory") {
			t.Errorf("error = %v, want a not-a-directory message", err)
		}
	})

	t.Run("missing path allowed", func(t *testing.T) {
		got, err := resolvePath(filepath.Join(dir, "future"), false)
		if err != nil {
			t.Fatalf("resolvePath() error = %v", err)
		}
		if !filepath.IsAbs(got) {
			t.Errorf("expected absolute path, got %q", got)
		}
	})
}
