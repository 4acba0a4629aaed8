// Package watcher keeps a source tree organized as files land in it. It
// watches the tree with fsnotify, waits for each file to settle so
// nothing is grabbed mid-copy, and then runs a serialized organize pass.
// Every pass of a session appends to one manifest document, so a whole
// watch session undoes as a unit.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/shelfkit/shelf/pkg/shelf/logging"
	"github.com/shelfkit/shelf/pkg/shelf/manifest"
	"github.com/shelfkit/shelf/pkg/shelf/organizer"
	"github.com/shelfkit/shelf/pkg/shelf/types"
)

var logger = logging.Get("watcher")

// DefaultSettle is how long a path must stay quiet before it is
// considered fully written.
const DefaultSettle = 2 * time.Second

// Options configures a watch session.
type Options struct {
	// Organizer runs the passes. Its source root is the tree watched.
	Organizer *organizer.Organizer

	// Settle is the per-path quiet period before a file is eligible
	// for organizing. Zero or negative selects DefaultSettle.
	Settle time.Duration

	// OnPass, when set, receives the report of every pass that
	// processed at least one file.
	OnPass func(*organizer.Report)
}

// Watcher owns the fsnotify instance, the per-path settle timers, and
// the session manifest document.
type Watcher struct {
	org    *organizer.Organizer
	fsw    *fsnotify.Watcher
	settle time.Duration
	onPass func(*organizer.Report)
	kick   chan struct{}

	mu      sync.Mutex
	watched map[string]bool
	timers  map[string]*time.Timer
	closed  bool

	// runMu serializes organize passes; timer fires only schedule.
	runMu        sync.Mutex
	doc          *manifest.Document
	flushed      int
	manifestPath string
}

// New creates a watcher for the organizer's source tree.
func New(opts Options) (*Watcher, error) {
	if opts.Organizer == nil {
		return nil, fmt.Errorf("%w: watcher needs an organizer", types.ErrPath)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create filesystem watcher: %w", err)
	}

	settle := opts.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}

	return &Watcher{
		org:     opts.Organizer,
		fsw:     fsw,
		settle:  settle,
		onPass:  opts.OnPass,
		kick:    make(chan struct{}, 1),
		watched: make(map[string]bool),
		timers:  make(map[string]*time.Timer),
		doc:     opts.Organizer.NewSessionDocument(),
	}, nil
}

// Run blocks until ctx is cancelled or the watcher is closed. It
// registers the source tree, performs an initial organize pass, then
// reacts to events: each path gets a settle timer, and expired timers
// schedule a pass over everything that has settled. Completed
// operations are flushed to the session manifest after every pass and
// once more on the way out.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.watchTree(w.org.Source()); err != nil {
		return err
	}

	logger.Info("watching",
		"source", w.org.Source(),
		"dest", w.org.Dest(),
		"settle", w.settle)

	w.pass(ctx)

	for {
		select {
		case <-ctx.Done():
			w.shutdownFlush()
			return ctx.Err()

		case <-w.kick:
			w.pass(ctx)

		case event, ok := <-w.fsw.Events:
			if !ok {
				w.shutdownFlush()
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				w.shutdownFlush()
				return nil
			}
			logger.Error("watch error", "error", err)
		}
	}
}

// ManifestPath returns where the session manifest was written, or empty
// when no operation has happened yet.
func (w *Watcher) ManifestPath() string {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	return w.manifestPath
}

// Settle returns the effective settle period.
func (w *Watcher) Settle() time.Duration {
	return w.settle
}

// Close stops all timers and releases the fsnotify instance. Run
// returns after Close.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.watched = make(map[string]bool)
	return w.fsw.Close()
}

// watchTree registers root and every directory under it. Symlinks are
// never followed. A separate destination root inside the source tree is
// left unwatched; events there are echoes of our own moves.
func (w *Watcher) watchTree(root string) error {
	if err := w.addWatch(root); err != nil {
		return fmt.Errorf("%w: watch %s: %v", types.ErrPath, root, err)
	}

	dest := w.org.Dest()
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logger.Warn("watch registration skipped", "path", path, "error", walkErr)
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !d.IsDir() || path == root {
			return nil
		}
		if dest != root && path == dest {
			return filepath.SkipDir
		}
		// Subdirectory watches are best effort; the pass re-walks the
		// whole tree anyway.
		_ = w.addWatch(path)
		return nil
	})
}

// addWatch registers one directory, once.
func (w *Watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.watched[path] {
		return nil
	}
	if err := w.fsw.Add(path); err != nil {
		logger.Warn("failed to add watch", "path", path, "error", err)
		return err
	}
	w.watched[path] = true
	return nil
}

// handleEvent routes one filesystem event. Creates and writes restart
// the path's settle timer; removes and renames cancel it and drop any
// watches underneath.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if w.ignored(path) {
		return
	}

	switch {
	case event.Op&fsnotify.Create != 0:
		w.handleCreate(path)
	case event.Op&fsnotify.Write != 0:
		w.bump(path)
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.handleRemove(path)
	}
}

// ignored filters events the session must not react to: manifest writes
// (our own flushes) and anything under a separate destination tree
// (echoes of our own moves).
func (w *Watcher) ignored(path string) bool {
	if manifest.IsManifestName(filepath.Base(path)) {
		return true
	}

	dest := w.org.Dest()
	if dest == w.org.Source() {
		return false
	}
	return path == dest || strings.HasPrefix(path, dest+string(filepath.Separator))
}

// handleCreate starts the settle clock for a new file. A new directory
// is registered recursively, and bumped itself so its contents get
// picked up once it stops changing: a directory moved in whole produces
// no per-file events.
func (w *Watcher) handleCreate(path string) {
	info, err := os.Lstat(path)
	if err != nil {
		return
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		return
	}

	if info.IsDir() {
		_ = w.watchTree(path)
		w.bump(path)
		return
	}
	if info.Mode().IsRegular() {
		w.bump(path)
	}
}

// handleRemove cancels the path's settle timer and forgets any watches
// at or under it.
func (w *Watcher) handleRemove(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}

	for watched := range w.watched {
		if watched == path || strings.HasPrefix(watched, path+string(filepath.Separator)) {
			_ = w.fsw.Remove(watched)
			delete(w.watched, watched)
		}
	}
}

// bump restarts the settle timer for a path. The timer firing marks the
// path settled and schedules a pass.
func (w *Watcher) bump(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.timers[path] = time.AfterFunc(w.settle, func() { w.fire(path) })
}

// fire retires the path's timer and schedules a pass. The send never
// blocks; a pending kick already covers this fire because every pass
// re-collects the whole tree.
func (w *Watcher) fire(path string) {
	w.mu.Lock()
	delete(w.timers, path)
	closed := w.closed
	w.mu.Unlock()

	if closed {
		return
	}
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// pass runs one serialized organize pass and reports it to the
// callback. The callback runs outside the pass lock.
func (w *Watcher) pass(ctx context.Context) {
	report := w.runPass(ctx)
	if report != nil && len(report.Rows) > 0 && w.onPass != nil {
		w.onPass(report)
	}
}

// runPass collects the tree, drops anything still settling, and
// organizes the rest into the session document. Passes are serialized;
// a pass observes every operation of the passes before it.
func (w *Watcher) runPass(ctx context.Context) *organizer.Report {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	files, warnings, err := w.org.Collect(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("collection failed", "error", err)
		}
		return nil
	}

	files = w.withoutSettling(files)
	if len(files) == 0 {
		return nil
	}

	report, err := w.org.ApplyInto(ctx, files, w.doc)
	if err != nil && ctx.Err() == nil {
		logger.Error("organize pass failed", "error", err)
	}
	if report == nil {
		return nil
	}
	report.Warnings = append(warnings, report.Warnings...)

	w.flushLocked()
	report.ManifestPath = w.manifestPath
	return report
}

// withoutSettling filters the snapshot down to paths with no live
// settle timer. Files still being written stay out of the pass.
func (w *Watcher) withoutSettling(files []types.FileInfo) []types.FileInfo {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.timers) == 0 {
		return files
	}

	settled := files[:0]
	for _, fi := range files {
		if _, live := w.timers[fi.Path]; !live {
			settled = append(settled, fi)
		}
	}
	return settled
}

// flushLocked writes the session manifest when new operations have
// accumulated since the last write. Callers hold runMu.
func (w *Watcher) flushLocked() {
	if w.doc.Empty() || len(w.doc.Operations) == w.flushed {
		return
	}

	path, err := w.org.WriteManifest(w.doc)
	if err != nil {
		// Keep watching; the next flush retries with the same document.
		logger.Error("session manifest write failed", "error", err)
		return
	}
	w.flushed = len(w.doc.Operations)
	w.manifestPath = path
	logger.Debug("session manifest updated", "path", path, "operations", w.flushed)
}

// shutdownFlush persists anything the final pass left behind.
func (w *Watcher) shutdownFlush() {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	w.flushLocked()

	if w.manifestPath != "" {
		logger.Info("watch session ended",
			"operations", w.flushed,
			"manifest", w.manifestPath)
	}
}
