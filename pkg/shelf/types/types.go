// Package types provides core data types for the shelf file organizer.
// It includes the transfer modes and conflict strategies, the operation
// record written to undo manifests, and utility functions for parsing
// and formatting file sizes.
package types

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// Mode selects how a file is transferred to its destination.
type Mode string

// Supported transfer modes.
const (
	// ModeMove relocates the file, removing it from the source.
	ModeMove Mode = "move"

	// ModeCopy duplicates the file, leaving the source untouched.
	ModeCopy Mode = "copy"
)

// ParseMode parses a mode string. Matching is case-insensitive.
// Returns ErrInvalidMode for anything other than "move" or "copy".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ModeMove):
		return ModeMove, nil
	case string(ModeCopy):
		return ModeCopy, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Conflict selects what happens when a destination name is already taken
// by a file with different content.
type Conflict string

// Supported conflict strategies.
const (
	// ConflictRename appends a numeric disambiguator until a free name is found.
	ConflictRename Conflict = "rename"

	// ConflictSkip leaves the source file where it is.
	ConflictSkip Conflict = "skip"
)

// ParseConflict parses a conflict strategy string. Matching is case-insensitive.
// Returns ErrInvalidConflict for anything other than "rename" or "skip".
func ParseConflict(s string) (Conflict, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ConflictRename):
		return ConflictRename, nil
	case string(ConflictSkip):
		return ConflictSkip, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidConflict, s)
	}
}

// Action describes what happened to a single file during a run.
// Actions appear in report rows and in formatted output.
type Action string

// Per-file outcomes.
const (
	ActionMoved     Action = "moved"
	ActionCopied    Action = "copied"
	ActionSkipped   Action = "skipped"
	ActionDuplicate Action = "duplicate"
	ActionFailed    Action = "failed"
	ActionPlanned   Action = "planned"
)

// Operation records one completed filesystem action. It carries enough
// information for exact reversal: the absolute source path, the absolute
// final destination path, and the mode used. Operations are immutable
// once created and are owned by the run's in-memory log until persisted
// to a manifest.
type Operation struct {
	// Source is the absolute original path of the file.
	Source string `json:"source"`

	// Destination is the absolute path the file ended up at.
	Destination string `json:"destination"`

	// Mode is the transfer mode that was performed.
	Mode Mode `json:"mode"`

	// Category is the classification bucket the file was placed under.
	// Informational; undo needs only Source, Destination and Mode.
	Category string `json:"category,omitempty"`

	// Timestamp is when the operation completed.
	Timestamp time.Time `json:"timestamp"`
}

// FileInfo is a snapshot of a candidate file taken during collection.
type FileInfo struct {
	// Path is the absolute path to the file.
	Path string `json:"path"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// ModTime is the last modification time of the file.
	ModTime time.Time `json:"mod_time"`
}

// Name returns the base name of the file.
func (f *FileInfo) Name() string {
	return filepath.Base(f.Path)
}

// Ext returns the file's extension in lower case, including the leading
// dot, or an empty string when the name has no extension.
func (f *FileInfo) Ext() string {
	return strings.ToLower(filepath.Ext(f.Path))
}

// HumanSize returns the file size formatted as a human-readable string.
func (f *FileInfo) HumanSize() string {
	return FormatSize(f.Size)
}

// Progress reports pipeline progress. During collection Total is zero
// (the number of candidates is not yet known); during processing it is
// the size of the collected snapshot.
type Progress struct {
	// Processed is the number of files handled so far.
	Processed int64 `json:"processed"`

	// Total is the number of files in the run, when known.
	Total int64 `json:"total"`

	// CurrentPath is the path currently being processed.
	CurrentPath string `json:"current_path"`

	// Bytes is the total bytes transferred so far.
	Bytes int64 `json:"bytes"`
}

// sizePattern matches size strings like "100M", "2G", "500K", "1.5GB", etc.
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMGT]?(?:i?B)?)\s*$`)

// ParseSize parses a human-readable size string and returns the size in bytes.
// It supports the following formats:
//   - Plain bytes: "1024", "0"
//   - With byte suffix: "512B", "512b"
//   - Kilobytes: "100K", "100k", "100KB", "100KiB"
//   - Megabytes: "50M", "50m", "50MB", "50MiB"
//   - Gigabytes: "2G", "2g", "2GB", "2GiB"
//   - Terabytes: "1T", "1t", "1TB", "1TiB"
//
// Decimal values are supported and truncated to the nearest byte.
// Leading and trailing whitespace is ignored.
//
// Returns ErrInvalidSize if the format is not recognized.
// Returns ErrNegativeSize if the value is negative.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	// Check for negative values
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	// Parse the numeric value
	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	// Determine the multiplier based on the suffix
	suffix := strings.ToUpper(matches[2])
	// Remove 'B' or 'IB' suffix to get just the unit letter
	suffix = strings.TrimSuffix(suffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier int64
	switch suffix {
	case "":
		multiplier = 1
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	case "T":
		multiplier = TiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	return int64(value * float64(multiplier)), nil
}

// FormatSize converts a size in bytes to a human-readable string.
// It uses binary (IEC) units (KiB, MiB, GiB, TiB) for consistency
// with common filesystem tools.
//
// Examples:
//   - FormatSize(0) returns "0 B"
//   - FormatSize(1024) returns "1.0 KiB"
//   - FormatSize(1536*1024) returns "1.5 MiB"
func FormatSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}
