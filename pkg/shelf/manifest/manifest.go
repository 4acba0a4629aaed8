package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shelfkit/shelf/pkg/shelf/types"
)

const (
	filenamePrefix = "manifest_"
	filenameLayout = "2006-01-02T15-04-05"
)

// Codec translates documents to and from their stored form. The JSON
// codec is the default and only built-in; alternative encodings plug in
// through the Writer.
type Codec interface {
	Encode(w io.Writer, doc *Document) error
	Decode(r io.Reader) (*Document, error)
	Extension() string
}

// JSONCodec stores documents as indented JSON.
type JSONCodec struct{}

// Encode writes doc as two-space-indented JSON.
func (JSONCodec) Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Decode parses a JSON document.
func (JSONCodec) Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Extension returns the filename extension for JSON manifests.
func (JSONCodec) Extension() string {
	return ".json"
}

// Filename returns the manifest filename for a run that started at t.
// Colons are avoided so the name is valid on every filesystem.
func Filename(t time.Time) string {
	return filenamePrefix + t.Format(filenameLayout) + ".json"
}

// IsManifestName reports whether name looks like a manifest filename
// produced by Filename. The watcher uses this to ignore manifest writes
// in the tree it observes.
func IsManifestName(name string) bool {
	return strings.HasPrefix(name, filenamePrefix) && strings.HasSuffix(name, ".json")
}

// Writer persists documents to a directory, one file per run.
type Writer struct {
	dir   string
	codec Codec
	mu    sync.Mutex
}

// NewWriter creates a Writer targeting dir. A nil codec selects
// JSONCodec. The directory is expected to exist by write time; the
// organizer creates the destination root before any operation.
func NewWriter(dir string, codec Codec) *Writer {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &Writer{dir: dir, codec: codec}
}

// Write stores doc under the writer's directory using the timestamped
// filename and returns the path written.
func (w *Writer) Write(doc *Document) (string, error) {
	path := filepath.Join(w.dir, Filename(doc.CreatedAt))
	if err := w.WriteFile(path, doc); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFile stores doc at an explicit path, for callers overriding the
// default location. The write is atomic: a temp file in the same
// directory, then a rename.
func (w *Writer) WriteFile(path string, doc *Document) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var buf bytes.Buffer
	if err := w.codec.Encode(&buf, doc); err != nil {
		return fmt.Errorf("%w: encode: %v", types.ErrManifest, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", types.ErrIO, tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: rename %s: %v", types.ErrIO, path, err)
	}
	return nil
}

// Read loads and validates a stored document. Any failure to open,
// decode, or version-check wraps types.ErrManifest; undo treats that as
// fatal.
func Read(path string) (*Document, error) {
	return ReadWith(path, JSONCodec{})
}

// ReadWith is Read with an explicit codec.
func ReadWith(path string, codec Codec) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", types.ErrManifest, path, err)
	}
	defer f.Close()

	doc, err := codec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", types.ErrManifest, path, err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("%w: %s has unsupported version %d", types.ErrManifest, path, doc.Version)
	}
	return doc, nil
}

// List returns summaries of the manifests in dir, newest first. Files
// that do not parse are skipped rather than failing the listing. A
// limit of 0 or less returns everything.
func List(dir string, limit int) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("read manifest directory: %w", err)
	}

	infos := []Info{}
	for _, e := range entries {
		if e.IsDir() || !IsManifestName(e.Name()) {
			continue
		}

		path := filepath.Join(dir, e.Name())
		doc, err := Read(path)
		if err != nil {
			continue
		}

		infos = append(infos, Info{
			Path:       path,
			RunID:      doc.RunID,
			CreatedAt:  doc.CreatedAt,
			Mode:       doc.Mode,
			Operations: len(doc.Operations),
			SourceRoot: doc.SourceRoot,
			DestRoot:   doc.DestRoot,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})

	if limit > 0 && len(infos) > limit {
		infos = infos[:limit]
	}
	return infos, nil
}

// Cleanup removes manifests in dir older than retentionDays, returning
// the number removed. It only runs when the user asks; nothing prunes
// manifests automatically.
func Cleanup(dir string, retentionDays int) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read manifest directory: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !IsManifestName(e.Name()) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
				continue
			}
			removed++
		}
	}
	return removed, nil
}
