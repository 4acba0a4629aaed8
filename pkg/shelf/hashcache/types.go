// Package hashcache computes SHA-256 content hashes for duplicate
// detection and memoizes them in a badger store, so repeated checks
// against the same destination files do not re-read them. Entries are
// validated by size and mtime. The cache is an optimization only:
// every miss and every storage problem falls back to hashing the file
// directly.
package hashcache

import (
	"bytes"
	"encoding/gob"
)

// Entry is a memoized content hash, valid only while the file's size
// and modification time still match what was recorded.
type Entry struct {
	Size      int64
	MtimeNano int64
	SHA256    string
}

// Encode serializes the entry using gob.
func (e *Entry) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes bytes into the entry using gob.
func (e *Entry) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// Stats describes the cache: session hit/miss counters and the number
// of stored entries.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int64 `json:"entries"`
}
