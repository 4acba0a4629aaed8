package types

import "errors"

// Error categories shared across the pipeline. Components wrap these with
// fmt.Errorf("%w: ...") so callers can classify failures with errors.Is.
var (
	// ErrMetadata indicates a file's metadata (stat, timestamps) could not
	// be read. Per-file: the entry is skipped and the run continues.
	ErrMetadata = errors.New("unreadable file metadata")

	// ErrPath indicates the destination root is unwritable or a required
	// intermediate path exists as a non-directory.
	ErrPath = errors.New("invalid destination path")

	// ErrIO indicates a move, copy or write failed (permissions, disk
	// full, source vanished). Per-file: recorded and the run continues.
	ErrIO = errors.New("file operation failed")

	// ErrManifest indicates a manifest could not be read or decoded.
	ErrManifest = errors.New("invalid manifest")

	// ErrCollision indicates an undo target is occupied by a different
	// file. The entry fails rather than overwrite.
	ErrCollision = errors.New("restore target occupied")
)

// Input validation errors.
var (
	// ErrInvalidMode indicates an unrecognized transfer mode string.
	ErrInvalidMode = errors.New("invalid transfer mode")

	// ErrInvalidConflict indicates an unrecognized conflict strategy string.
	ErrInvalidConflict = errors.New("invalid conflict strategy")

	// ErrInvalidSize indicates that a size string could not be parsed.
	ErrInvalidSize = errors.New("invalid size format")

	// ErrNegativeSize indicates that a negative size value was provided.
	ErrNegativeSize = errors.New("size cannot be negative")
)
