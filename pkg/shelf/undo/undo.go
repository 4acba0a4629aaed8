// Package undo reverses an organize run from its manifest: moved files
// go back to their recorded source paths, copies are deleted, and
// directories the run created are pruned if empty. Replay is newest
// first so disambiguated names unwind in the right order, and each
// entry is independent; one stuck file never blocks the rest.
package undo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/shelfkit/shelf/pkg/shelf/executor"
	"github.com/shelfkit/shelf/pkg/shelf/logging"
	"github.com/shelfkit/shelf/pkg/shelf/manifest"
	"github.com/shelfkit/shelf/pkg/shelf/types"
)

// logger is the package-level logger for undo runs.
var logger = logging.Get("undo")

// Failure records one manifest entry that could not be reversed.
type Failure struct {
	Op  types.Operation
	Err error
}

// Result summarizes an undo run.
type Result struct {
	ManifestPath string
	Restored     int // moves reversed
	Deleted      int // copies removed
	Skipped      int // destinations already gone
	PrunedDirs   int
	Failed       []Failure
}

// Ok reports whether every entry was reversed or safely skipped.
func (r *Result) Ok() bool {
	return len(r.Failed) == 0
}

// Undo loads the manifest at path and reverses it. The manifest file
// itself is never touched; running undo again on the same manifest
// reports every entry as skipped.
func Undo(ctx context.Context, path string) (*Result, error) {
	doc, err := manifest.Read(path)
	if err != nil {
		return nil, err
	}
	return Replay(ctx, doc, path)
}

// Replay reverses an already-loaded document. Entry failures land in
// the result; the returned error is non-nil only for cancellation,
// in which case the partial result is still meaningful.
func Replay(ctx context.Context, doc *manifest.Document, path string) (*Result, error) {
	res := &Result{ManifestPath: path}

	logger.Info("undo starting", "manifest", path, "operations", len(doc.Operations))

	for i := len(doc.Operations) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		op := doc.Operations[i]
		switch op.Mode {
		case types.ModeMove:
			restored, err := restore(op)
			switch {
			case err != nil:
				res.fail(op, err)
			case restored:
				res.Restored++
			default:
				res.Skipped++
			}
		case types.ModeCopy:
			deleted, err := removeCopy(op)
			switch {
			case err != nil:
				res.fail(op, err)
			case deleted:
				res.Deleted++
			default:
				res.Skipped++
			}
		default:
			res.fail(op, fmt.Errorf("%w: %q", types.ErrInvalidMode, op.Mode))
		}
	}

	res.PrunedDirs = pruneDirs(doc.CreatedDirs)

	logger.Info("undo finished",
		"restored", res.Restored,
		"deleted", res.Deleted,
		"skipped", res.Skipped,
		"failed", len(res.Failed),
		"pruned_dirs", res.PrunedDirs)
	return res, nil
}

// fail records an entry that could not be reversed.
func (r *Result) fail(op types.Operation, err error) {
	logger.Warn("entry not reversed", "source", op.Source, "destination", op.Destination, "error", err)
	r.Failed = append(r.Failed, Failure{Op: op, Err: err})
}

// restore moves an operation's destination back to its source. It
// returns false with no error when the destination is already gone.
func restore(op types.Operation) (bool, error) {
	if _, err := os.Lstat(op.Destination); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: stat %s: %v", types.ErrIO, op.Destination, err)
	}

	// Something else now lives at the original path; restoring would
	// overwrite it.
	if _, err := os.Lstat(op.Source); err == nil {
		return false, fmt.Errorf("%w: restore target %s is occupied", types.ErrCollision, op.Source)
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("%w: stat %s: %v", types.ErrIO, op.Source, err)
	}

	if err := os.MkdirAll(filepath.Dir(op.Source), 0o755); err != nil {
		return false, fmt.Errorf("%w: recreate %s: %v", types.ErrIO, filepath.Dir(op.Source), err)
	}
	if err := executor.Move(op.Destination, op.Source); err != nil {
		return false, err
	}
	return true, nil
}

// removeCopy deletes the copy an operation produced. The source is the
// original and stays where it is.
func removeCopy(op types.Operation) (bool, error) {
	if err := os.Remove(op.Destination); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: remove %s: %v", types.ErrIO, op.Destination, err)
	}
	return true, nil
}

// pruneDirs removes run-created directories that are now empty,
// children before parents. Non-empty directories are left alone, so
// user files that landed there since the run survive.
func pruneDirs(dirs []string) int {
	sorted := make([]string, len(dirs))
	copy(sorted, dirs)
	sort.Sort(sort.Reverse(sort.StringSlice(sorted)))

	pruned := 0
	for _, dir := range sorted {
		// Remove refuses non-empty directories, which is the guard we want.
		if err := os.Remove(dir); err == nil {
			pruned++
		}
	}
	return pruned
}
