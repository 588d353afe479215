package fetcher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Cache is a content-addressed, append-only-per-URL store on disk. Reads
// never contend; writes are keyed by the URL's hash so two workers fetching
// different URLs never collide (SPEC_FULL.md §6).
type Cache struct {
	dir string
}

// NewCache creates a Cache rooted at dir, creating it if necessary.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", dir, err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) pathFor(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".html")
}

// Get returns the cached body for url, or ok=false on a cache miss.
func (c *Cache) Get(url string) (body []byte, ok bool, err error) {
	b, err := os.ReadFile(c.pathFor(url))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

// Put writes body under url's content-addressed key, atomically via
// temp-file + rename so a cancelled writer can never leave a partial file
// (spec.md §5).
func (c *Cache) Put(url string, body []byte) error {
	dest := c.pathFor(url)
	tmp, err := os.CreateTemp(c.dir, "fetch-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, dest)
}
