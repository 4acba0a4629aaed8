package classify

import (
	"errors"
	"testing"
	"time"

	"github.com/shelfkit/shelf/pkg/shelf/rules"
	"github.com/shelfkit/shelf/pkg/shelf/types"
)

func TestClassifyCategories(t *testing.T) {
	c := New(rules.Defaults(), false)

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "pdf default", path: "/src/report.pdf", want: "PDF"},
		{name: "image default", path: "/src/photo.jpg", want: "Images"},
		{name: "case insensitive", path: "/src/PHOTO.JPG", want: "Images"},
		{name: "document default", path: "/src/letter.docx", want: "Documents"},
		{name: "unknown extension", path: "/src/file.xyz", want: "Other"},
		{name: "no extension", path: "/src/Makefile", want: "Other"},
		// .htm and .avif are not in the built-in rules but are in Go's
		// baked-in MIME table, exercising the fallback deterministically.
		{name: "mime fallback text", path: "/src/page.htm", want: "Text"},
		{name: "mime fallback image", path: "/src/photo.avif", want: "Images"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(types.FileInfo{Path: tt.path})
			if err != nil {
				t.Fatalf("Classify() returned error: %v", err)
			}
			if got.Category != tt.want {
				t.Errorf("Classify(%q).Category = %q, want %q", tt.path, got.Category, tt.want)
			}
			if got.DateSubpath != "" {
				t.Errorf("Classify(%q).DateSubpath = %q, want empty without by-date", tt.path, got.DateSubpath)
			}
		})
	}
}

func TestClassifyEmptyRules(t *testing.T) {
	c := New(rules.Empty(), false)

	got, err := c.Classify(types.FileInfo{Path: "/src/file.xyz"})
	if err != nil {
		t.Fatalf("Classify() returned error: %v", err)
	}
	if got.Category != "Other" {
		t.Errorf("Classify(file.xyz).Category = %q, want %q", got.Category, "Other")
	}
}

func TestClassifyUserOverride(t *testing.T) {
	set := rules.FromMap(map[string]string{"pdf": "Paperwork"})
	c := New(set, false)

	got, err := c.Classify(types.FileInfo{Path: "/src/report.pdf"})
	if err != nil {
		t.Fatalf("Classify() returned error: %v", err)
	}
	if got.Category != "Paperwork" {
		t.Errorf("Classify(report.pdf).Category = %q, want override %q", got.Category, "Paperwork")
	}
}

func TestClassifyByDate(t *testing.T) {
	c := New(rules.Defaults(), true)

	fi := types.FileInfo{
		Path:    "/src/a.pdf",
		ModTime: time.Date(2023, time.June, 15, 10, 30, 0, 0, time.UTC),
	}

	got, err := c.Classify(fi)
	if err != nil {
		t.Fatalf("Classify() returned error: %v", err)
	}
	if got.Category != "PDF" {
		t.Errorf("Category = %q, want PDF", got.Category)
	}
	if got.DateSubpath != "2023/06" {
		t.Errorf("DateSubpath = %q, want %q", got.DateSubpath, "2023/06")
	}
}

func TestClassifyByDateZeroPadsMonth(t *testing.T) {
	c := New(rules.Defaults(), true)

	fi := types.FileInfo{
		Path:    "/src/a.pdf",
		ModTime: time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC),
	}

	got, err := c.Classify(fi)
	if err != nil {
		t.Fatalf("Classify() returned error: %v", err)
	}
	if got.DateSubpath != "2024/01" {
		t.Errorf("DateSubpath = %q, want %q", got.DateSubpath, "2024/01")
	}
}

func TestClassifyByDateMissingModTime(t *testing.T) {
	c := New(rules.Defaults(), true)

	_, err := c.Classify(types.FileInfo{Path: "/src/a.pdf"})
	if !errors.Is(err, types.ErrMetadata) {
		t.Errorf("Classify() error = %v, want types.ErrMetadata", err)
	}
}
