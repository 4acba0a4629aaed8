package hashcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/shelfkit/shelf/pkg/shelf/types"
)

// Hasher yields content hashes for duplicate comparison. The organizer
// accepts any Hasher; Cache memoizes, Direct does not.
type Hasher interface {
	Sum(fi types.FileInfo) (string, error)
	Close() error
}

var (
	_ Hasher = (*Cache)(nil)
	_ Hasher = Direct{}
)

// Cache memoizes content hashes in a badger store keyed by absolute
// path.
type Cache struct {
	db     *badger.DB
	hits   atomic.Int64
	misses atomic.Int64
}

// Open opens or creates the hash store at path.
func Open(path string) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open hash cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the store.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Sum returns the file's SHA-256 hex digest. A stored entry is used
// when its size and mtime match the file's current metadata; anything
// else hashes the content and refreshes the entry.
func (c *Cache) Sum(fi types.FileInfo) (string, error) {
	key := []byte(fi.Path)

	var cached Entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(cached.Decode)
	})
	if err == nil && cached.Size == fi.Size && cached.MtimeNano == fi.ModTime.UnixNano() {
		c.hits.Add(1)
		return cached.SHA256, nil
	}

	c.misses.Add(1)
	sum, err := HashFile(fi.Path)
	if err != nil {
		return "", err
	}

	entry := Entry{Size: fi.Size, MtimeNano: fi.ModTime.UnixNano(), SHA256: sum}
	if value, err := entry.Encode(); err == nil {
		// A failed memoization costs a future re-hash, nothing more.
		_ = c.db.Update(func(txn *badger.Txn) error {
			return txn.Set(key, value)
		})
	}
	return sum, nil
}

// Stats reports session counters and the stored entry count.
func (c *Cache) Stats() (Stats, error) {
	var entries int64
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			entries++
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: entries,
	}, nil
}

// Clear drops every stored hash.
func (c *Cache) Clear() error {
	return c.db.DropAll()
}

// Direct hashes files without memoization. It stands in for Cache when
// caching is disabled or the store cannot be opened.
type Direct struct{}

// Sum hashes the file's content.
func (Direct) Sum(fi types.FileInfo) (string, error) {
	return HashFile(fi.Path)
}

// Close is a no-op.
func (Direct) Close() error {
	return nil
}

// HashFile streams the file through SHA-256 and returns the hex digest.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", types.ErrIO, path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("%w: hash %s: %v", types.ErrIO, path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
