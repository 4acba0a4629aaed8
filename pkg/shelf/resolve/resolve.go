// Package resolve computes collision-free destination paths under the
// target root. It owns directory creation and the numeric disambiguation
// of occupied names, and records every directory it creates so undo can
// prune them later.
package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shelfkit/shelf/pkg/shelf/classify"
	"github.com/shelfkit/shelf/pkg/shelf/types"
)

// Resolver builds destination paths under a single root.
type Resolver struct {
	root    string
	created []string
}

// New creates a Resolver for the given destination root. The root is
// made absolute and, when it already exists, must be a directory. A
// missing root is created lazily by EnsureRoot or the first Resolve.
func New(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrPath, root, err)
	}

	info, err := os.Stat(abs)
	switch {
	case err == nil && !info.IsDir():
		return nil, fmt.Errorf("%w: %s is not a directory", types.ErrPath, abs)
	case err != nil && !os.IsNotExist(err):
		return nil, fmt.Errorf("%w: %s: %v", types.ErrPath, abs, err)
	}

	return &Resolver{root: abs}, nil
}

// Root returns the absolute destination root.
func (r *Resolver) Root() string {
	return r.root
}

// EnsureRoot creates the destination root if it is missing, recording
// any directories created. Called once before the first mutation so an
// unusable root aborts the run before any file is touched.
func (r *Resolver) EnsureRoot() error {
	return r.ensureDir(r.root)
}

// Candidate returns the first-choice destination path for a file:
// root/category[/date_subpath]/name. Pure path construction, no
// filesystem access; callers use it for duplicate and skip checks
// before committing.
func (r *Resolver) Candidate(c classify.Classification, name string) string {
	return filepath.Join(r.root, c.Category, filepath.FromSlash(c.DateSubpath), name)
}

// Resolve returns a destination path that does not exist at call time,
// creating any missing intermediate directories. When the first-choice
// candidate is occupied, a numeric disambiguator is inserted before the
// extension, re-checking existence on every attempt.
func (r *Resolver) Resolve(c classify.Classification, name string) (string, error) {
	candidate := r.Candidate(c, name)

	if err := r.ensureDir(filepath.Dir(candidate)); err != nil {
		return "", err
	}

	path := candidate
	for n := 1; ; n++ {
		_, err := os.Lstat(path)
		if os.IsNotExist(err) {
			return path, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("%w: probe %s: %v", types.ErrPath, path, err)
		}
		path = Numbered(candidate, n)
	}
}

// CreatedDirs returns the directories this resolver created, in
// creation order (parents before children).
func (r *Resolver) CreatedDirs() []string {
	out := make([]string, len(r.created))
	copy(out, r.created)
	return out
}

// ensureDir creates dir and any missing parents one component at a
// time, recording each directory actually created. An intermediate
// path that exists as a non-directory fails with types.ErrPath.
func (r *Resolver) ensureDir(dir string) error {
	var missing []string

	p := dir
	for {
		info, err := os.Stat(p)
		if err == nil {
			if !info.IsDir() {
				return fmt.Errorf("%w: %s exists and is not a directory", types.ErrPath, p)
			}
			break
		}
		if !os.IsNotExist(err) {
			return fmt.Errorf("%w: %s: %v", types.ErrPath, p, err)
		}
		missing = append(missing, p)
		parent := filepath.Dir(p)
		if parent == p {
			break
		}
		p = parent
	}

	// Create from the shallowest missing component down.
	for i := len(missing) - 1; i >= 0; i-- {
		if err := os.Mkdir(missing[i], 0o755); err != nil {
			if os.IsExist(err) {
				continue
			}
			return fmt.Errorf("%w: create %s: %v", types.ErrPath, missing[i], err)
		}
		r.created = append(r.created, missing[i])
	}
	return nil
}

// Numbered inserts a numeric disambiguator before the path's extension:
// "dir/name.ext" becomes "dir/name (n).ext". Names without an extension
// (including dotfiles like ".bashrc") get the suffix appended.
func Numbered(path string, n int) string {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	if ext == base {
		// Dotfile or extensionless name; keep it intact.
		ext = ""
	}
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
}
