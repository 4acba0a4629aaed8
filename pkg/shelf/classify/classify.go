// Package classify maps files to destination categories. Classification
// is a pure function of the file's name and modification time: extension
// rules first, then a MIME-type fallback for common media types, then
// the Other bucket. With by-date placement enabled it also derives the
// year/month subpath from the file's last-modified time.
package classify

import (
	"fmt"
	"mime"
	"strings"

	"github.com/shelfkit/shelf/pkg/shelf/rules"
	"github.com/shelfkit/shelf/pkg/shelf/types"
)

// Classification is the placement decision for a single file.
type Classification struct {
	// Category is the destination bucket label.
	Category string

	// DateSubpath is the "YYYY/MM" fragment inserted under the category
	// when by-date placement is enabled; empty otherwise. Always built
	// with forward slashes; the resolver converts separators.
	DateSubpath string
}

// mimeCategories maps MIME major types to category labels for files
// whose extension matches no rule.
var mimeCategories = map[string]string{
	"image": "Images",
	"audio": "Audio",
	"video": "Videos",
	"text":  "Text",
}

// Classifier decides destination categories using a rule set.
type Classifier struct {
	rules  *rules.Set
	byDate bool
}

// New creates a Classifier. When byDate is true, Classify derives a
// year/month subpath from each file's modification time.
func New(set *rules.Set, byDate bool) *Classifier {
	return &Classifier{rules: set, byDate: byDate}
}

// Classify returns the placement decision for a file. It never touches
// the filesystem. When by-date placement is enabled and the file carries
// no modification time, it fails with types.ErrMetadata and the caller
// skips the file.
func (c *Classifier) Classify(fi types.FileInfo) (Classification, error) {
	result := Classification{Category: c.categoryFor(fi)}

	if !c.byDate {
		return result, nil
	}
	if fi.ModTime.IsZero() {
		return Classification{}, fmt.Errorf("%w: no modification time for %s", types.ErrMetadata, fi.Path)
	}
	result.DateSubpath = fmt.Sprintf("%04d/%02d", fi.ModTime.Year(), int(fi.ModTime.Month()))
	return result, nil
}

// categoryFor resolves the category: rules, then MIME fallback, then Other.
func (c *Classifier) categoryFor(fi types.FileInfo) string {
	ext := fi.Ext()
	if ext != "" {
		if category, ok := c.rules.Lookup(ext); ok {
			return category
		}
		if category, ok := mimeCategory(ext); ok {
			return category
		}
	}
	return rules.CategoryOther
}

// mimeCategory infers a category from the platform MIME table.
// Only the major types listed in mimeCategories map to a category.
func mimeCategory(ext string) (string, bool) {
	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return "", false
	}
	major, _, _ := strings.Cut(mimeType, "/")
	category, ok := mimeCategories[major]
	return category, ok
}
