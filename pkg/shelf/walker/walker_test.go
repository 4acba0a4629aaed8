package walker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/shelfkit/shelf/pkg/shelf/types"
)

func mkFiles(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
}

func collectedNames(t *testing.T, root string, res *Result) []string {
	t.Helper()
	names := make([]string, 0, len(res.Files))
	for _, f := range res.Files {
		rel, err := filepath.Rel(root, f.Path)
		if err != nil {
			t.Fatalf("Rel() error = %v", err)
		}
		names = append(names, filepath.ToSlash(rel))
	}
	return names
}

func TestWalkFlat(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mkFiles(t, root, "b.txt", "a.pdf", "nested/deep.txt")

	w, err := New(Options{Root: root})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res, err := w.Walk(context.Background())
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	got := collectedNames(t, root, res)
	want := []string{"a.pdf", "b.txt"}
	if len(got) != len(want) {
		t.Fatalf("collected %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("collected[%d] = %q, want %q (sorted by path)", i, got[i], want[i])
		}
	}
}

func TestWalkRecursive(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mkFiles(t, root, "top.txt", "sub/mid.txt", "sub/deeper/leaf.txt")

	w, err := New(Options{Root: root, Recursive: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res, err := w.Walk(context.Background())
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	got := collectedNames(t, root, res)
	if len(got) != 3 {
		t.Fatalf("collected %v, want 3 files", got)
	}
	if !sort.StringsAreSorted(got) {
		t.Errorf("results not sorted: %v", got)
	}
}

func TestWalkExcludes(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mkFiles(t, root,
		"keep.txt",
		"scratch.tmp",
		"logs/app.log",
		"node_modules/pkg/index.js",
	)

	w, err := New(Options{
		Root:      root,
		Recursive: true,
		Exclude:   []string{"*.tmp", "logs/*", "node_modules"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res, err := w.Walk(context.Background())
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	got := collectedNames(t, root, res)
	if len(got) != 1 || got[0] != "keep.txt" {
		t.Errorf("collected %v, want only keep.txt", got)
	}
}

func TestWalkSkipsDestinationSubtree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mkFiles(t, root, "pending.txt", "organized/Text/done.txt")

	w, err := New(Options{
		Root:      root,
		Recursive: true,
		SkipDir:   filepath.Join(root, "organized"),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res, err := w.Walk(context.Background())
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	got := collectedNames(t, root, res)
	if len(got) != 1 || got[0] != "pending.txt" {
		t.Errorf("collected %v, want only pending.txt", got)
	}
}

func TestWalkSkipsSymlinks(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mkFiles(t, root, "real.txt")

	link := filepath.Join(root, "alias.txt")
	if err := os.Symlink(filepath.Join(root, "real.txt"), link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	w, err := New(Options{Root: root})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res, err := w.Walk(context.Background())
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	got := collectedNames(t, root, res)
	if len(got) != 1 || got[0] != "real.txt" {
		t.Errorf("collected %v, want only the regular file", got)
	}
}

func TestWalkCanceled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mkFiles(t, root, "a.txt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w, err := New(Options{Root: root, Recursive: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := w.Walk(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Walk() error = %v, want context.Canceled", err)
	}
}

func TestNewErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing root", func(t *testing.T) {
		t.Parallel()
		_, err := New(Options{Root: filepath.Join(t.TempDir(), "absent")})
		if !errors.Is(err, types.ErrPath) {
			t.Errorf("error = %v, want ErrPath", err)
		}
	})

	t.Run("root is a file", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		mkFiles(t, root, "f.txt")
		_, err := New(Options{Root: filepath.Join(root, "f.txt")})
		if !errors.Is(err, types.ErrPath) {
			t.Errorf("error = %v, want ErrPath", err)
		}
	})

	t.Run("invalid exclude pattern", func(t *testing.T) {
		t.Parallel()
		_, err := New(Options{Root: t.TempDir(), Exclude: []string{"[unclosed"}})
		if !errors.Is(err, types.ErrPath) {
			t.Errorf("error = %v, want ErrPath", err)
		}
	})
}
