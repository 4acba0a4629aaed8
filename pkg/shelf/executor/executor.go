// Package executor performs the filesystem half of the pipeline: moving
// or copying a single file to its resolved destination. Moves prefer an
// atomic rename and fall back to copy-then-delete across filesystem
// boundaries, deleting the source only after the copy is verified
// complete. All failures wrap types.ErrIO so the organizer can isolate
// them per file.
package executor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/shelfkit/shelf/pkg/shelf/types"
)

// Executor performs transfers in a fixed mode.
type Executor struct {
	mode types.Mode
}

// New creates an Executor for the given mode.
func New(mode types.Mode) *Executor {
	return &Executor{mode: mode}
}

// Mode returns the executor's transfer mode.
func (e *Executor) Mode() types.Mode {
	return e.mode
}

// Execute transfers source to destination and returns the operation
// record for the undo manifest. The destination must not exist; the
// resolver guarantees this for the forward pipeline.
func (e *Executor) Execute(source, destination string) (types.Operation, error) {
	var err error
	switch e.mode {
	case types.ModeMove:
		err = Move(source, destination)
	case types.ModeCopy:
		err = Copy(source, destination)
	default:
		err = fmt.Errorf("%w: %q", types.ErrInvalidMode, e.mode)
	}
	if err != nil {
		return types.Operation{}, err
	}

	return types.Operation{
		Source:      source,
		Destination: destination,
		Mode:        e.mode,
		Timestamp:   time.Now(),
	}, nil
}

// Move relocates src to dst. It renames when source and destination
// share a filesystem; across filesystem boundaries it copies, verifies
// the copy's size, and only then removes the source.
func Move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return fmt.Errorf("%w: move %s: %v", types.ErrIO, src, err)
	}

	if err := Copy(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("%w: remove source after copy %s: %v", types.ErrIO, src, err)
	}
	return nil
}

// Copy duplicates src at dst, preserving the source's permission bits
// and modification time. On any failure the partial destination is
// removed and the source is left untouched.
func Copy(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", types.ErrIO, src, err)
	}

	// Fail before writing when the target filesystem cannot hold the file.
	if avail := freeSpace(filepath.Dir(dst)); avail >= 0 && avail < info.Size() {
		return fmt.Errorf("%w: insufficient space for %s (%s needed, %s available)",
			types.ErrIO, dst, types.FormatSize(info.Size()), types.FormatSize(avail))
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", types.ErrIO, src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", types.ErrIO, dst, err)
	}

	written, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("%w: copy %s: %v", types.ErrIO, src, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("%w: close %s: %v", types.ErrIO, dst, err)
	}

	if written != info.Size() {
		os.Remove(dst)
		return fmt.Errorf("%w: short copy of %s: %d of %d bytes", types.ErrIO, src, written, info.Size())
	}

	// Timestamp preservation is best-effort.
	_ = os.Chtimes(dst, time.Now(), info.ModTime())
	return nil
}

// isCrossDevice reports whether a rename failed because source and
// destination are on different filesystems.
func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return false
	}
	return errors.Is(linkErr.Err, syscall.EXDEV)
}
