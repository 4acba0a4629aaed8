package resolve

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shelfkit/shelf/pkg/shelf/classify"
	"github.com/shelfkit/shelf/pkg/shelf/types"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent dirs: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to touch %s: %v", path, err)
	}
}

func TestNumbered(t *testing.T) {
	tests := []struct {
		name string
		path string
		n    int
		want string
	}{
		{name: "simple", path: "/d/report.pdf", n: 1, want: "/d/report (1).pdf"},
		{name: "second attempt", path: "/d/report.pdf", n: 2, want: "/d/report (2).pdf"},
		{name: "no extension", path: "/d/Makefile", n: 1, want: "/d/Makefile (1)"},
		{name: "dotfile", path: "/d/.bashrc", n: 1, want: "/d/.bashrc (1)"},
		{name: "double extension", path: "/d/a.tar.gz", n: 3, want: "/d/a.tar (3).gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Numbered(tt.path, tt.n); got != tt.want {
				t.Errorf("Numbered(%q, %d) = %q, want %q", tt.path, tt.n, got, tt.want)
			}
		})
	}
}

func TestResolveCreatesDirectories(t *testing.T) {
	root := filepath.Join(t.TempDir(), "sorted")
	r, err := New(root)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	c := classify.Classification{Category: "PDF", DateSubpath: "2023/06"}
	got, err := r.Resolve(c, "a.pdf")
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}

	want := filepath.Join(root, "PDF", "2023", "06", "a.pdf")
	if got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}

	info, err := os.Stat(filepath.Dir(got))
	if err != nil || !info.IsDir() {
		t.Errorf("destination directory was not created: %v", err)
	}

	// Root, category and both date components were created.
	created := r.CreatedDirs()
	if len(created) != 4 {
		t.Errorf("CreatedDirs() = %v, want 4 entries", created)
	}
	if len(created) > 0 && created[0] != root {
		t.Errorf("CreatedDirs()[0] = %q, want root %q (parents first)", created[0], root)
	}
}

func TestResolveIdempotentDirs(t *testing.T) {
	root := t.TempDir()
	r, err := New(root)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	c := classify.Classification{Category: "Images"}
	if _, err := r.Resolve(c, "a.jpg"); err != nil {
		t.Fatalf("first Resolve() returned error: %v", err)
	}
	if _, err := r.Resolve(c, "b.jpg"); err != nil {
		t.Fatalf("second Resolve() returned error: %v", err)
	}

	// Only the category directory was created, and only once.
	created := r.CreatedDirs()
	if len(created) != 1 {
		t.Errorf("CreatedDirs() = %v, want single entry", created)
	}
}

func TestResolveCollisions(t *testing.T) {
	root := t.TempDir()
	r, err := New(root)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	c := classify.Classification{Category: "PDF"}
	touch(t, filepath.Join(root, "PDF", "a.pdf"))

	got, err := r.Resolve(c, "a.pdf")
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}
	if want := filepath.Join(root, "PDF", "a (1).pdf"); got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}

	// With the first disambiguation also taken, the counter advances.
	touch(t, filepath.Join(root, "PDF", "a (1).pdf"))
	got, err = r.Resolve(c, "a.pdf")
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}
	if want := filepath.Join(root, "PDF", "a (2).pdf"); got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestCandidateIsPure(t *testing.T) {
	root := filepath.Join(t.TempDir(), "never-created")
	r, err := New(root)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	c := classify.Classification{Category: "Audio", DateSubpath: "2024/01"}
	got := r.Candidate(c, "song.mp3")
	want := filepath.Join(root, "Audio", "2024", "01", "song.mp3")
	if got != want {
		t.Errorf("Candidate() = %q, want %q", got, want)
	}

	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Error("Candidate() created the root, want no filesystem access")
	}
}

func TestNewRejectsFileRoot(t *testing.T) {
	file := filepath.Join(t.TempDir(), "occupied")
	touch(t, file)

	_, err := New(file)
	if !errors.Is(err, types.ErrPath) {
		t.Errorf("New() error = %v, want types.ErrPath", err)
	}
}

func TestResolveNonDirectoryIntermediate(t *testing.T) {
	root := t.TempDir()
	r, err := New(root)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	// Occupy the category slot with a regular file.
	touch(t, filepath.Join(root, "PDF"))

	_, err = r.Resolve(classify.Classification{Category: "PDF"}, "a.pdf")
	if !errors.Is(err, types.ErrPath) {
		t.Errorf("Resolve() error = %v, want types.ErrPath", err)
	}
}

func TestEnsureRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "deep", "nested", "dest")
	r, err := New(root)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	if err := r.EnsureRoot(); err != nil {
		t.Fatalf("EnsureRoot() returned error: %v", err)
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		t.Fatalf("root was not created: %v", err)
	}

	// deep, deep/nested and deep/nested/dest were all recorded.
	if got := len(r.CreatedDirs()); got != 3 {
		t.Errorf("CreatedDirs() has %d entries, want 3", got)
	}
}
