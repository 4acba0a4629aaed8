// Package manifest persists the operation log of an organize run so it
// can be replayed in reverse by the undo engine. One document per run,
// written atomically, named after the run timestamp.
package manifest

import (
	"time"

	"github.com/google/uuid"

	"github.com/shelfkit/shelf/pkg/shelf/types"
)

// Version is the document schema version written by this build. Read
// rejects documents with any other version.
const Version = 1

// Document is the persisted record of a single run: where files came
// from, where they went, and which directories were created along the
// way. It carries everything undo needs to restore the source tree.
type Document struct {
	Version     int               `json:"version"`
	RunID       string            `json:"run_id"`
	CreatedAt   time.Time         `json:"created_at"`
	SourceRoot  string            `json:"source_root"`
	DestRoot    string            `json:"dest_root"`
	Mode        types.Mode        `json:"mode"`
	ByDate      bool              `json:"by_date,omitempty"`
	Operations  []types.Operation `json:"operations"`
	CreatedDirs []string          `json:"created_dirs,omitempty"`
}

// NewDocument creates an empty document for a run starting now.
func NewDocument(sourceRoot, destRoot string, mode types.Mode, byDate bool) *Document {
	return &Document{
		Version:    Version,
		RunID:      uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		SourceRoot: sourceRoot,
		DestRoot:   destRoot,
		Mode:       mode,
		ByDate:     byDate,
		Operations: []types.Operation{},
	}
}

// Append records a completed operation. Order of appends is the order
// of execution; undo depends on it.
func (d *Document) Append(op types.Operation) {
	d.Operations = append(d.Operations, op)
}

// Empty reports whether the run performed no operations.
func (d *Document) Empty() bool {
	return len(d.Operations) == 0
}

// Info is a one-line summary of a stored manifest, used by the history
// listing.
type Info struct {
	Path       string     `json:"path"`
	RunID      string     `json:"run_id"`
	CreatedAt  time.Time  `json:"created_at"`
	Mode       types.Mode `json:"mode"`
	Operations int        `json:"operations"`
	SourceRoot string     `json:"source_root"`
	DestRoot   string     `json:"dest_root"`
}
