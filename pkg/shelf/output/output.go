// Package output provides formatters for displaying organize run results
// in various output formats (pretty, plain, json, yaml, etc.).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/shelfkit/shelf/pkg/shelf/logging"
)

// logger is the package-level logger for output operations.
var logger = logging.Get("output")

// Row actions describe the outcome recorded for a single file.
const (
	// ActionMoved indicates the file was relocated to its destination.
	ActionMoved = "moved"

	// ActionCopied indicates the file was duplicated to its destination.
	ActionCopied = "copied"

	// ActionPlanned indicates a dry run outcome that was not executed.
	ActionPlanned = "planned"

	// ActionSkipped indicates the file was deliberately left in place.
	ActionSkipped = "skipped"

	// ActionFailed indicates the file could not be processed.
	ActionFailed = "failed"
)

// Row describes the outcome for one file in an organize run.
type Row struct {
	// Source is the original absolute path of the file.
	Source string `json:"source" yaml:"source"`

	// Destination is the resolved target path. Empty for skipped files
	// that never had a candidate.
	Destination string `json:"destination,omitempty" yaml:"destination,omitempty"`

	// Category is the classification bucket (e.g., "Images", "PDF").
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// Size is the file size in bytes.
	Size int64 `json:"size" yaml:"size"`

	// SizeHuman is the human-readable file size (e.g., "1.5 GiB").
	SizeHuman string `json:"size_human" yaml:"size_human"`

	// ModTime is the last modification time of the file.
	ModTime time.Time `json:"mod_time,omitempty" yaml:"mod_time,omitempty"`

	// Action is one of the Action constants.
	Action string `json:"action" yaml:"action"`

	// Reason explains skipped and failed outcomes.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// RunStats contains counters for an organize run.
type RunStats struct {
	// Scanned is the total number of files considered.
	Scanned int64 `json:"scanned" yaml:"scanned"`

	// Moved is the number of files relocated.
	Moved int64 `json:"moved" yaml:"moved"`

	// Copied is the number of files duplicated.
	Copied int64 `json:"copied" yaml:"copied"`

	// Planned is the number of dry-run outcomes that were not executed.
	Planned int64 `json:"planned,omitempty" yaml:"planned,omitempty"`

	// Skipped is the number of files deliberately left in place.
	Skipped int64 `json:"skipped" yaml:"skipped"`

	// Failed is the number of files that could not be processed.
	Failed int64 `json:"failed" yaml:"failed"`

	// Duration is the total time taken to complete the run.
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Result contains the complete output data for formatting.
// It includes every file outcome, run statistics, and metadata about
// the organize operation.
type Result struct {
	// Rows contains one entry per processed file, in source path order.
	Rows []Row `json:"rows" yaml:"rows"`

	// Stats contains run statistics.
	Stats RunStats `json:"stats" yaml:"stats"`

	// Source is the directory that was organized.
	Source string `json:"source" yaml:"source"`

	// Dest is the destination root files were filed under.
	Dest string `json:"dest" yaml:"dest"`

	// Mode is the transfer mode, "move" or "copy".
	Mode string `json:"mode" yaml:"mode"`

	// DryRun indicates whether the run was a preview without execution.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// ByDate indicates whether date subfolders were in effect.
	ByDate bool `json:"by_date" yaml:"by_date"`

	// RunID identifies the run, matching the manifest run_id.
	RunID string `json:"run_id,omitempty" yaml:"run_id,omitempty"`

	// ManifestPath is where the undo manifest was written, if any.
	ManifestPath string `json:"manifest_path,omitempty" yaml:"manifest_path,omitempty"`

	// TotalFiles is the total number of rows in the result.
	TotalFiles int `json:"total_files" yaml:"total_files"`

	// Warnings contains any warning messages generated during the run.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Interrupted indicates if the run was interrupted by the user.
	Interrupted bool `json:"interrupted" yaml:"interrupted"`
}

// TotalSize returns the sum of all row sizes in the result.
func (r *Result) TotalSize() int64 {
	var total int64
	for _, row := range r.Rows {
		total += row.Size
	}
	return total
}

// HumanSize renders a byte count in IEC units (KiB, MiB, ...).
func HumanSize(size int64) string {
	if size < 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(size))
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	// It returns an error if formatting fails.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
// It returns an error if the formatter is not found.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
