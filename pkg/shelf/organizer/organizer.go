// Package organizer runs the organize pipeline: collect candidate files,
// classify each one, resolve a collision-free destination, transfer the
// file, and record the operation in an undo manifest.
//
// A run is strictly two-phase. Collection snapshots the source tree
// before anything moves, so renames during the pass cannot re-enter the
// walk. Processing then handles the snapshot one file at a time; a
// failure on one file is recorded and the run continues with the next.
package organizer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shelfkit/shelf/pkg/shelf/classify"
	"github.com/shelfkit/shelf/pkg/shelf/executor"
	"github.com/shelfkit/shelf/pkg/shelf/hashcache"
	"github.com/shelfkit/shelf/pkg/shelf/logging"
	"github.com/shelfkit/shelf/pkg/shelf/manifest"
	"github.com/shelfkit/shelf/pkg/shelf/resolve"
	"github.com/shelfkit/shelf/pkg/shelf/rules"
	"github.com/shelfkit/shelf/pkg/shelf/types"
	"github.com/shelfkit/shelf/pkg/shelf/walker"
)

// logger is the package-level logger for organize runs.
var logger = logging.Get("organizer")

// Options configures a single organize run.
type Options struct {
	// Source is the directory to organize. Required.
	Source string

	// Dest is the destination root files are filed under. Required.
	// May equal Source or live inside it; the collector never descends
	// into the destination subtree.
	Dest string

	// Mode is the transfer mode, move or copy.
	Mode types.Mode

	// Conflict selects the strategy for occupied destination names
	// holding different content.
	Conflict types.Conflict

	// Recursive walks the whole source tree. When false only the top
	// level of Source is considered.
	Recursive bool

	// ByDate inserts YYYY/MM subfolders under each category.
	ByDate bool

	// DryRun reports what would happen without touching the filesystem
	// and without writing a manifest.
	DryRun bool

	// Rules is the extension rule set. Nil means the built-in defaults.
	Rules *rules.Set

	// Exclude holds glob patterns matched against base names and
	// source-relative paths.
	Exclude []string

	// ManifestDir is where the undo manifest is written. Empty means
	// the destination root.
	ManifestDir string

	// Hasher detects content-identical files already present at the
	// destination. Nil disables duplicate detection.
	Hasher hashcache.Hasher

	// Progress, when non-nil, receives per-file progress updates.
	// Sends never block; a slow consumer just misses updates.
	Progress chan<- types.Progress
}

// Row is the recorded outcome for one file.
type Row struct {
	// Source is the absolute original path.
	Source string

	// Destination is the resolved target path. Empty when the file was
	// skipped before a candidate existed.
	Destination string

	// Category is the classification bucket.
	Category string

	// Size is the file size in bytes at collection time.
	Size int64

	// ModTime is the file's last modification time at collection time.
	ModTime time.Time

	// Action is what happened to the file.
	Action types.Action

	// Reason explains skipped, duplicate, and failed outcomes.
	Reason string
}

// Stats aggregates per-file outcomes for a run.
type Stats struct {
	Scanned    int64
	Moved      int64
	Copied     int64
	Planned    int64
	Skipped    int64
	Duplicates int64
	Failed     int64
	Duration   time.Duration
}

// Report is the full record of an organize run.
type Report struct {
	// Rows holds one entry per processed file, in source path order.
	Rows []Row

	// Stats aggregates the row outcomes.
	Stats Stats

	// Source and Dest are the absolute roots the run operated on.
	Source string
	Dest   string

	// Mode, ByDate and DryRun echo the run configuration.
	Mode   types.Mode
	ByDate bool
	DryRun bool

	// RunID is the manifest run identifier. Empty for dry runs and
	// runs that performed no operations.
	RunID string

	// ManifestPath is where the undo manifest was written, if any.
	ManifestPath string

	// Warnings holds non-fatal problems encountered during the run.
	Warnings []string

	// Interrupted is set when the run stopped early on context cancel.
	Interrupted bool
}

// HasFailures reports whether any file failed during the run.
func (r *Report) HasFailures() bool {
	return r.Stats.Failed > 0
}

// Organizer executes organize runs for one source/destination pair.
type Organizer struct {
	opts       Options
	walker     *walker.Walker
	classifier *classify.Classifier
	resolver   *resolve.Resolver
	exec       *executor.Executor
	writer     *manifest.Writer

	// reserved holds destinations promised to earlier planned rows, so
	// a plan assigns the same rename suffixes a real run would.
	reserved map[string]bool
}

// New validates the run configuration and builds an Organizer.
// Validation failures here are run-level: nothing has been touched yet.
func New(opts Options) (*Organizer, error) {
	mode, err := types.ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}
	opts.Mode = mode

	conflict, err := types.ParseConflict(string(opts.Conflict))
	if err != nil {
		return nil, err
	}
	opts.Conflict = conflict
	if opts.Rules == nil {
		opts.Rules = rules.Defaults()
	}

	resolver, err := resolve.New(opts.Dest)
	if err != nil {
		return nil, err
	}

	// When organizing in place the destination is the source itself;
	// skipping it would skip every file. Already-organized files are
	// filtered per-file instead.
	absSource, err := filepath.Abs(opts.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %v", types.ErrPath, opts.Source, err)
	}
	skipDir := resolver.Root()
	if skipDir == absSource {
		skipDir = ""
	}

	w, err := walker.New(walker.Options{
		Root:      opts.Source,
		Recursive: opts.Recursive,
		Exclude:   opts.Exclude,
		SkipDir:   skipDir,
	})
	if err != nil {
		return nil, err
	}

	manifestDir := opts.ManifestDir
	if manifestDir == "" {
		manifestDir = resolver.Root()
	}

	return &Organizer{
		opts:       opts,
		walker:     w,
		classifier: classify.New(opts.Rules, opts.ByDate),
		resolver:   resolver,
		exec:       executor.New(opts.Mode),
		writer:     manifest.NewWriter(manifestDir, nil),
		reserved:   make(map[string]bool),
	}, nil
}

// Source returns the absolute source root.
func (o *Organizer) Source() string {
	return o.walker.Root()
}

// Dest returns the absolute destination root.
func (o *Organizer) Dest() string {
	return o.resolver.Root()
}

// Mode returns the transfer mode runs use.
func (o *Organizer) Mode() types.Mode {
	return o.opts.Mode
}

// Collect snapshots the candidate files in the source tree. Unreadable
// entries become warnings, not errors; only a cancelled context fails
// the collection.
func (o *Organizer) Collect(ctx context.Context) ([]types.FileInfo, []string, error) {
	res, err := o.walker.Walk(ctx)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	for _, we := range res.Errors {
		warnings = append(warnings, fmt.Sprintf("%s: %s", we.Path, we.Error))
	}
	return res.Files, warnings, nil
}

// Run executes the full pipeline: collect, then process every file.
// With DryRun set it plans instead of executing. The returned report is
// valid even when err is non-nil; err covers run-level failures such as
// a failed manifest write.
func (o *Organizer) Run(ctx context.Context) (*Report, error) {
	logger.Info("organize run starting",
		"source", o.Source(),
		"dest", o.Dest(),
		"mode", o.opts.Mode,
		"dry_run", o.opts.DryRun)

	files, warnings, err := o.Collect(ctx)
	if err != nil {
		return nil, err
	}

	report, err := o.process(ctx, files, !o.opts.DryRun)
	report.Warnings = append(warnings, report.Warnings...)

	logger.Info("organize run finished",
		"scanned", report.Stats.Scanned,
		"moved", report.Stats.Moved,
		"copied", report.Stats.Copied,
		"skipped", report.Stats.Skipped+report.Stats.Duplicates,
		"failed", report.Stats.Failed,
		"interrupted", report.Interrupted)
	return report, err
}

// Apply executes the pipeline for an explicit file snapshot, bypassing
// collection. The interactive review flow uses this to process only the
// files the user kept selected.
func (o *Organizer) Apply(ctx context.Context, files []types.FileInfo) (*Report, error) {
	return o.process(ctx, files, true)
}

// RunInto collects and processes like Run, but appends operations to a
// caller-owned document and leaves persistence to the caller. Watch
// sessions accumulate every pass into one document this way and flush
// it through WriteManifest.
func (o *Organizer) RunInto(ctx context.Context, doc *manifest.Document) (*Report, error) {
	files, warnings, err := o.Collect(ctx)
	if err != nil {
		return nil, err
	}

	report, err := o.ApplyInto(ctx, files, doc)
	report.Warnings = append(warnings, report.Warnings...)
	return report, err
}

// ApplyInto executes an explicit snapshot, appending operations to a
// caller-owned document. Persistence stays with the caller.
func (o *Organizer) ApplyInto(ctx context.Context, files []types.FileInfo, doc *manifest.Document) (*Report, error) {
	if err := o.resolver.EnsureRoot(); err != nil {
		return o.newReport(0, true), err
	}

	report := o.processFiles(ctx, files, doc)
	report.RunID = doc.RunID

	if report.Interrupted {
		return report, ctx.Err()
	}
	return report, nil
}

// NewSessionDocument returns an empty manifest document stamped with
// this run's roots and mode, for use with RunInto and ApplyInto.
func (o *Organizer) NewSessionDocument() *manifest.Document {
	return manifest.NewDocument(o.Source(), o.Dest(), o.opts.Mode, o.opts.ByDate)
}

// WriteManifest persists doc with the run's manifest writer and returns
// the path written. The filename derives from the document's creation
// time, so rewriting a session document updates one file in place.
func (o *Organizer) WriteManifest(doc *manifest.Document) (string, error) {
	doc.CreatedDirs = o.resolver.CreatedDirs()
	return o.writer.Write(doc)
}

// process handles a snapshot one file at a time. When execute is false
// every outcome is advisory and nothing on disk changes.
func (o *Organizer) process(ctx context.Context, files []types.FileInfo, execute bool) (*Report, error) {
	var doc *manifest.Document
	if execute {
		if err := o.resolver.EnsureRoot(); err != nil {
			return o.newReport(0, execute), err
		}
		doc = o.NewSessionDocument()
	}

	report := o.processFiles(ctx, files, doc)

	if execute && !doc.Empty() {
		path, err := o.WriteManifest(doc)
		if err != nil {
			// Files are already in place; the run must surface the
			// missing undo record as a hard failure.
			return report, fmt.Errorf("recording undo manifest: %w", err)
		}
		report.RunID = doc.RunID
		report.ManifestPath = path
	}

	if report.Interrupted {
		return report, ctx.Err()
	}
	return report, nil
}

// processFiles walks the snapshot in order, one file at a time. A nil
// doc plans instead of executing.
func (o *Organizer) processFiles(ctx context.Context, files []types.FileInfo, doc *manifest.Document) *Report {
	start := time.Now()
	report := o.newReport(len(files), doc != nil)

	var bytesDone int64
	for i, fi := range files {
		if ctx.Err() != nil {
			report.Interrupted = true
			break
		}

		var row Row
		if doc != nil {
			row = o.executeFile(fi, doc)
		} else {
			row = o.PlanFile(fi)
		}
		report.Rows = append(report.Rows, row)
		report.Stats.Scanned++
		o.count(&report.Stats, row.Action)

		if row.Action == types.ActionMoved || row.Action == types.ActionCopied {
			bytesDone += row.Size
		}
		o.sendProgress(types.Progress{
			Processed:   int64(i + 1),
			Total:       int64(len(files)),
			CurrentPath: fi.Path,
			Bytes:       bytesDone,
		})
	}

	report.Stats.Duration = time.Since(start)
	return report
}

func (o *Organizer) newReport(capacity int, execute bool) *Report {
	return &Report{
		Rows:   make([]Row, 0, capacity),
		Source: o.Source(),
		Dest:   o.Dest(),
		Mode:   o.opts.Mode,
		ByDate: o.opts.ByDate,
		DryRun: !execute,
	}
}

// PlanFile computes the advisory outcome for one file without touching
// the filesystem beyond existence probes.
func (o *Organizer) PlanFile(fi types.FileInfo) Row {
	row, cls, done := o.prepare(fi)
	if done {
		return row
	}

	candidate := o.resolver.Candidate(cls, fi.Name())
	if skip, reason := o.skipReason(fi, candidate); skip != "" {
		row.Action = skip
		row.Reason = reason
		if skip == types.ActionDuplicate {
			row.Destination = candidate
		}
		return row
	}

	row.Action = types.ActionPlanned
	row.Destination = o.probeFree(candidate)
	return row
}

// executeFile processes one file for real, appending successful
// operations to the manifest document.
func (o *Organizer) executeFile(fi types.FileInfo, doc *manifest.Document) Row {
	row, cls, done := o.prepare(fi)
	if done {
		return row
	}

	// The snapshot may be stale; a file removed since collection is a
	// skip, not a failure.
	if _, err := os.Lstat(fi.Path); err != nil {
		if os.IsNotExist(err) {
			row.Action = types.ActionSkipped
			row.Reason = "source vanished before processing"
			logger.Warn("source vanished", "path", fi.Path)
			return row
		}
		row.Action = types.ActionFailed
		row.Reason = err.Error()
		return row
	}

	candidate := o.resolver.Candidate(cls, fi.Name())
	if skip, reason := o.skipReason(fi, candidate); skip != "" {
		row.Action = skip
		row.Reason = reason
		if skip == types.ActionDuplicate {
			row.Destination = candidate
		}
		return row
	}

	dest, err := o.resolver.Resolve(cls, fi.Name())
	if err != nil {
		row.Action = types.ActionFailed
		row.Reason = err.Error()
		logger.Warn("resolve failed", "path", fi.Path, "error", err)
		return row
	}

	op, err := o.exec.Execute(fi.Path, dest)
	if err != nil {
		row.Action = types.ActionFailed
		row.Reason = err.Error()
		logger.Warn("transfer failed", "path", fi.Path, "dest", dest, "error", err)
		return row
	}

	op.Category = cls.Category
	doc.Append(op)

	row.Destination = dest
	if o.opts.Mode == types.ModeCopy {
		row.Action = types.ActionCopied
	} else {
		row.Action = types.ActionMoved
	}
	logger.Debug("file organized", "source", fi.Path, "dest", dest, "category", cls.Category)
	return row
}

// prepare classifies the file and fills the row skeleton. done is true
// when classification already decided the outcome.
func (o *Organizer) prepare(fi types.FileInfo) (Row, classify.Classification, bool) {
	row := Row{
		Source:  fi.Path,
		Size:    fi.Size,
		ModTime: fi.ModTime,
	}

	// Undo manifests must stay where they were written or history and
	// undo stop finding them.
	if manifest.IsManifestName(fi.Name()) {
		row.Action = types.ActionSkipped
		row.Reason = "undo manifest"
		return row, classify.Classification{}, true
	}

	cls, err := o.classifier.Classify(fi)
	if err != nil {
		// Missing metadata skips the file rather than failing the run.
		row.Action = types.ActionSkipped
		row.Reason = err.Error()
		logger.Warn("classification skipped", "path", fi.Path, "error", err)
		return row, classify.Classification{}, true
	}

	row.Category = cls.Category
	return row, cls, false
}

// skipReason decides whether the file must not be transferred: it is
// already at its destination, it duplicates existing content, or the
// occupied destination plus skip strategy rules it out. An empty action
// means proceed.
func (o *Organizer) skipReason(fi types.FileInfo, candidate string) (types.Action, string) {
	if filepath.Clean(fi.Path) == filepath.Clean(candidate) {
		return types.ActionSkipped, "already organized"
	}

	info, err := os.Lstat(candidate)
	if err != nil {
		// Free name (or unprobeable, which Resolve will surface).
		return "", ""
	}

	if o.opts.Hasher != nil && info.Mode().IsRegular() && info.Size() == fi.Size {
		if same, err := o.sameContent(fi, candidate, info.Size()); err == nil && same {
			return types.ActionDuplicate, fmt.Sprintf("duplicate of %s", candidate)
		}
	}

	if o.opts.Conflict == types.ConflictSkip {
		return types.ActionSkipped, fmt.Sprintf("destination occupied: %s", candidate)
	}
	return "", ""
}

// sameContent compares the file against the occupant by content hash.
func (o *Organizer) sameContent(fi types.FileInfo, candidate string, candidateSize int64) (bool, error) {
	sourceSum, err := o.opts.Hasher.Sum(fi)
	if err != nil {
		logger.Warn("hash failed", "path", fi.Path, "error", err)
		return false, err
	}

	info, err := os.Stat(candidate)
	if err != nil {
		return false, err
	}
	destSum, err := o.opts.Hasher.Sum(types.FileInfo{
		Path:    candidate,
		Size:    candidateSize,
		ModTime: info.ModTime(),
	})
	if err != nil {
		logger.Warn("hash failed", "path", candidate, "error", err)
		return false, err
	}

	return sourceSum == destSum, nil
}

// count updates the stats counter matching the action.
func (o *Organizer) count(s *Stats, action types.Action) {
	switch action {
	case types.ActionMoved:
		s.Moved++
	case types.ActionCopied:
		s.Copied++
	case types.ActionPlanned:
		s.Planned++
	case types.ActionDuplicate:
		s.Duplicates++
	case types.ActionSkipped:
		s.Skipped++
	case types.ActionFailed:
		s.Failed++
	}
}

// sendProgress delivers a progress update without ever blocking.
func (o *Organizer) sendProgress(p types.Progress) {
	if o.opts.Progress == nil {
		return
	}
	select {
	case o.opts.Progress <- p:
	default:
	}
}

// probeFree returns the destination a real run would choose right now:
// the candidate itself when the name is free, otherwise the first
// numbered variant that is. Destinations promised to earlier planned
// rows count as taken. Purely advisory; the disk may change before
// execution.
func (o *Organizer) probeFree(candidate string) string {
	path := candidate
	for n := 1; ; n++ {
		if !o.reserved[path] {
			if _, err := os.Lstat(path); os.IsNotExist(err) {
				o.reserved[path] = true
				return path
			}
		}
		path = resolve.Numbered(candidate, n)
	}
}
