// Package rules provides the extension-to-category mapping that drives
// classification. A Set combines the built-in defaults with an optional
// user rules file (flat JSON or YAML map); user entries win on a
// per-extension basis.
package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRules indicates a rules file that could not be decoded or
// contains an invalid entry (empty category label).
var ErrInvalidRules = errors.New("invalid rules file")

// Set is an immutable extension→category index. Keys are normalized to
// lower case with a leading dot.
type Set struct {
	byExt map[string]string
}

// Defaults returns a Set holding only the built-in categories.
func Defaults() *Set {
	s := &Set{byExt: make(map[string]string, 128)}
	for category, exts := range DefaultCategories {
		for _, ext := range exts {
			s.byExt[NormalizeExt(ext)] = category
		}
	}
	return s
}

// Empty returns a Set with no entries; every lookup misses.
func Empty() *Set {
	return &Set{byExt: make(map[string]string)}
}

// FromMap builds a Set from a plain extension→category map, normalizing
// the keys. The input map is not retained.
func FromMap(m map[string]string) *Set {
	s := &Set{byExt: make(map[string]string, len(m))}
	for ext, category := range m {
		s.byExt[NormalizeExt(ext)] = category
	}
	return s
}

// Build assembles the effective rule set. When path is empty the result
// is the defaults (or an empty set when withDefaults is false). Otherwise
// the file at path is loaded and merged over the base, user entries
// overriding built-ins for the same extension.
func Build(path string, withDefaults bool) (*Set, error) {
	base := Empty()
	if withDefaults {
		base = Defaults()
	}
	if path == "" {
		return base, nil
	}

	user, err := Load(path)
	if err != nil {
		return nil, err
	}
	for ext, category := range user {
		base.byExt[ext] = category
	}
	return base, nil
}

// Load reads a flat extension→category map from a JSON or YAML file.
// The decoder is selected by file extension (.yaml/.yml use YAML,
// anything else JSON). Keys are normalized; duplicate keys follow the
// decoder's last-definition-wins behavior. Values must be non-empty.
func Load(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	raw := make(map[string]string)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRules, path, err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRules, path, err)
		}
	}

	rules := make(map[string]string, len(raw))
	for ext, category := range raw {
		category = strings.TrimSpace(category)
		if category == "" {
			return nil, fmt.Errorf("%w: empty category for extension %q", ErrInvalidRules, ext)
		}
		rules[NormalizeExt(ext)] = category
	}
	return rules, nil
}

// Lookup returns the category for an extension. The extension may be
// given with or without the leading dot and in any case.
func (s *Set) Lookup(ext string) (string, bool) {
	category, ok := s.byExt[NormalizeExt(ext)]
	return category, ok
}

// Len returns the number of extension entries in the set.
func (s *Set) Len() int {
	return len(s.byExt)
}

// Categories returns the set regrouped as category→sorted extensions,
// with categories sorted alphabetically, for display purposes.
func (s *Set) Categories() []CategoryRules {
	grouped := make(map[string][]string)
	for ext, category := range s.byExt {
		grouped[category] = append(grouped[category], ext)
	}

	out := make([]CategoryRules, 0, len(grouped))
	for category, exts := range grouped {
		sort.Strings(exts)
		out = append(out, CategoryRules{Category: category, Extensions: exts})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// CategoryRules pairs a category label with its extensions, for display.
type CategoryRules struct {
	Category   string
	Extensions []string
}

// NormalizeExt lowercases an extension and ensures a leading dot.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ext
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// sampleRules is written by WriteSample as a starting point for users.
const sampleRules = `{
  "pdf": "PDF",
  "jpg": "Images",
  "jpeg": "Images",
  "png": "Images",
  "mp3": "Audio",
  "mp4": "Videos",
  "zip": "Archives",
  "docx": "Documents",
  "xlsx": "Spreadsheets",
  "go": "Code"
}
`

// WriteSample writes a sample rules file to the given path. Fails if
// the file already exists.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("rules file already exists: %s", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create rules directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleRules), 0o644); err != nil {
		return fmt.Errorf("write rules file: %w", err)
	}
	return nil
}
