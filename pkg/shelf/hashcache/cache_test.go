package hashcache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shelfkit/shelf/pkg/shelf/types"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "hashes"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return c
}

func statInfo(t *testing.T, path string) types.FileInfo {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	return types.FileInfo{Path: path, Size: info.Size(), ModTime: info.ModTime()}
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestCacheSum(t *testing.T) {
	t.Parallel()

	c := openTestCache(t)

	path := filepath.Join(t.TempDir(), "doc.txt")
	content := []byte("duplicate detection body")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	fi := statInfo(t, path)

	got, err := c.Sum(fi)
	if err != nil {
		t.Fatalf("Sum() error = %v", err)
	}
	if want := sha256Hex(content); got != want {
		t.Errorf("Sum() = %q, want %q", got, want)
	}

	// Same metadata: served from the store.
	again, err := c.Sum(fi)
	if err != nil {
		t.Fatalf("second Sum() error = %v", err)
	}
	if again != got {
		t.Errorf("cached Sum() = %q, want %q", again, got)
	}

	stats, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Misses != 1 || stats.Hits != 1 {
		t.Errorf("stats = %d hits, %d misses; want 1, 1", stats.Hits, stats.Misses)
	}
	if stats.Entries != 1 {
		t.Errorf("Entries = %d, want 1", stats.Entries)
	}
}

func TestCacheSum_InvalidatesOnChange(t *testing.T) {
	t.Parallel()

	c := openTestCache(t)

	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte("before"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	first, err := c.Sum(statInfo(t, path))
	if err != nil {
		t.Fatalf("Sum() error = %v", err)
	}

	// Rewrite with different content and a clearly different mtime.
	if err := os.WriteFile(path, []byte("after, longer"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	second, err := c.Sum(statInfo(t, path))
	if err != nil {
		t.Fatalf("Sum() after change error = %v", err)
	}
	if second == first {
		t.Error("stale hash served after file changed")
	}
	if want := sha256Hex([]byte("after, longer")); second != want {
		t.Errorf("Sum() = %q, want %q", second, want)
	}

	stats, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Misses != 2 {
		t.Errorf("Misses = %d, want 2", stats.Misses)
	}
}

func TestCacheSum_MissingFile(t *testing.T) {
	t.Parallel()

	c := openTestCache(t)

	fi := types.FileInfo{Path: filepath.Join(t.TempDir(), "absent.bin"), Size: 10, ModTime: time.Now()}
	if _, err := c.Sum(fi); !errors.Is(err, types.ErrIO) {
		t.Errorf("Sum() error = %v, want ErrIO", err)
	}
}

func TestCacheClear(t *testing.T) {
	t.Parallel()

	c := openTestCache(t)

	path := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := c.Sum(statInfo(t, path)); err != nil {
		t.Fatalf("Sum() error = %v", err)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	stats, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Entries != 0 {
		t.Errorf("Entries after Clear = %d, want 0", stats.Entries)
	}
}

func TestDirect(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plain.txt")
	content := []byte("no store involved")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	var h Hasher = Direct{}
	got, err := h.Sum(statInfo(t, path))
	if err != nil {
		t.Fatalf("Sum() error = %v", err)
	}
	if want := sha256Hex(content); got != want {
		t.Errorf("Sum() = %q, want %q", got, want)
	}
	if err := h.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
