// Package walker collects the candidate files for a run before any of
// them is touched. The snapshot keeps the pipeline stable while files
// move: nothing discovered mid-run can shift a decision already made.
package walker

import (
	"cmp"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/gobwas/glob"

	"github.com/shelfkit/shelf/pkg/shelf/types"
)

// WalkError records a path that could not be read during collection.
// These are per-file problems; the walk itself keeps going.
type WalkError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Result holds the collected snapshot.
type Result struct {
	Files  []types.FileInfo
	Errors []WalkError
}

// Options configures a walk.
type Options struct {
	// Root is the directory to collect from.
	Root string

	// Recursive descends into subdirectories. Symlinks are never
	// followed. When false only the top level is listed.
	Recursive bool

	// Exclude holds glob patterns matched against each entry's base
	// name and its root-relative path (slash-separated).
	Exclude []string

	// SkipDir names a subtree to leave alone, used when the
	// destination root lives inside the source tree.
	SkipDir string
}

// Walker snapshots a directory tree into a sorted file list.
type Walker struct {
	opts  Options
	root  string
	skip  string
	globs []glob.Glob

	mu    sync.Mutex
	files []types.FileInfo
	errs  []WalkError
}

// New validates options and compiles exclusion patterns. A pattern that
// does not compile is a configuration error and fails construction.
func New(opts Options) (*Walker, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %v", types.ErrPath, opts.Root, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrPath, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", types.ErrPath, root)
	}

	globs := make([]glob.Glob, 0, len(opts.Exclude))
	for _, pattern := range opts.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("%w: exclude pattern %q: %v", types.ErrPath, pattern, err)
		}
		globs = append(globs, g)
	}

	skip := opts.SkipDir
	if skip != "" {
		if skip, err = filepath.Abs(skip); err != nil {
			return nil, fmt.Errorf("%w: resolve %s: %v", types.ErrPath, opts.SkipDir, err)
		}
	}

	return &Walker{opts: opts, root: root, skip: skip, globs: globs}, nil
}

// Root returns the resolved absolute root.
func (w *Walker) Root() string {
	return w.root
}

// Walk collects regular files under the root and returns them sorted by
// path. Unreadable entries are reported in the result, not as an error;
// only cancellation or an unreadable root aborts the walk.
func (w *Walker) Walk(ctx context.Context) (*Result, error) {
	w.files = nil
	w.errs = nil

	var err error
	if w.opts.Recursive {
		err = w.walkTree(ctx)
	} else {
		err = w.listTop(ctx)
	}
	if err != nil {
		return nil, err
	}

	slices.SortFunc(w.files, func(a, b types.FileInfo) int {
		return cmp.Compare(a.Path, b.Path)
	})
	return &Result{Files: w.files, Errors: w.errs}, nil
}

// listTop collects the root's immediate regular files.
func (w *Walker) listTop(ctx context.Context) error {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", types.ErrPath, w.root, err)
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir() || !e.Type().IsRegular() {
			continue
		}

		path := filepath.Join(w.root, e.Name())
		if w.excluded(path) || w.underSkip(path) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			w.addError(path, err)
			continue
		}
		w.addFile(path, info)
	}
	return nil
}

// walkTree collects recursively with fastwalk.
func (w *Walker) walkTree(ctx context.Context) error {
	conf := fastwalk.Config{
		Follow: false,
	}

	err := fastwalk.Walk(&conf, w.root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			w.addError(path, err)
			return nil
		}

		if d.IsDir() {
			if path == w.root {
				return nil
			}
			if w.skip != "" && path == w.skip {
				return fastwalk.SkipDir
			}
			if w.excluded(path) {
				return fastwalk.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if w.excluded(path) || w.underSkip(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			w.addError(path, err)
			return nil
		}
		w.addFile(path, info)
		return nil
	})
	return err
}

func (w *Walker) addFile(path string, info fs.FileInfo) {
	w.mu.Lock()
	w.files = append(w.files, types.FileInfo{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	})
	w.mu.Unlock()
}

func (w *Walker) addError(path string, err error) {
	w.mu.Lock()
	w.errs = append(w.errs, WalkError{Path: path, Error: err.Error()})
	w.mu.Unlock()
}

// excluded matches a path's base name and root-relative path against
// the exclusion globs.
func (w *Walker) excluded(path string) bool {
	if len(w.globs) == 0 {
		return false
	}

	name := filepath.Base(path)
	rel := strings.TrimPrefix(path, w.root+string(filepath.Separator))
	rel = filepath.ToSlash(rel)

	for _, g := range w.globs {
		if g.Match(name) || g.Match(rel) {
			return true
		}
	}
	return false
}

// underSkip reports whether path sits inside the skipped subtree.
func (w *Walker) underSkip(path string) bool {
	if w.skip == "" {
		return false
	}
	return path == w.skip || strings.HasPrefix(path, w.skip+string(filepath.Separator))
}
