package cache

import (
	"crypto/md5"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const cacheFileName = "convert_cache.gob"

type entry struct {
	Hash        string
	Dest        string
	OutHash     string
	Fingerprint string
	CreatedAt   time.Time
}

// Cache remembers which files were converted successfully, keyed by
// path, content hash, destination and the fingerprint of the catalog
// that converted them. It is safe for concurrent use.
type Cache struct {
	Dir         string
	fingerprint string
	entries     map[string]entry
	mutex       sync.Mutex
	maxAge      time.Duration
	now         func() time.Time
}

// New opens (or creates) the cache in dir for the given catalog fingerprint.
func New(dir, fingerprint string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c := &Cache{
		Dir:         dir,
		fingerprint: fingerprint,
		entries:     make(map[string]entry),
		now:         time.Now,
	}

	if err := c.load(); err != nil {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}

	return c, nil
}

func (c *Cache) file() string {
	return filepath.Join(c.Dir, cacheFileName)
}

func (c *Cache) load() error {
	file, err := os.Open(c.file())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&c.entries); err != nil {
		return fmt.Errorf("failed to decode cache file: %w", err)
	}

	return nil
}

// Save writes the cache to disk.
func (c *Cache) Save() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	file, err := os.Create(c.file())
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(c.entries); err != nil {
		return fmt.Errorf("failed to encode cache file: %w", err)
	}

	return nil
}

// Fresh reports whether path with this content was already converted by
// the same catalog into dest, and dest still holds that output.
func (c *Cache) Fresh(path, dest string, content []byte) bool {
	key := c.key(path)

	c.mutex.Lock()
	e, ok := c.entries[key]
	maxAge := c.maxAge
	c.mutex.Unlock()
	if !ok {
		return false
	}

	if c.isEntryInvalid(e, maxAge, c.key(dest), content) {
		c.mutex.Lock()
		if current, ok := c.entries[key]; ok && current == e {
			delete(c.entries, key)
		}
		c.mutex.Unlock()
		return false
	}
	return true
}

func (c *Cache) isEntryInvalid(e entry, maxAge time.Duration, dest string, content []byte) bool {
	// too old
	if maxAge > 0 && c.now().Sub(e.CreatedAt) > maxAge {
		return true
	}
	if e.Fingerprint != c.fingerprint || e.Dest != dest {
		return true
	}
	if e.Hash != Hash(content) {
		return true
	}

	// the output may have been removed or edited since
	out, err := os.ReadFile(dest)
	if err != nil {
		return true
	}
	return e.OutHash != Hash(out)
}

// Set records that converting path with content wrote output to dest.
func (c *Cache) Set(path, dest string, content, output []byte) {
	key := c.key(path)
	e := entry{
		Hash:        Hash(content),
		Dest:        c.key(dest),
		OutHash:     Hash(output),
		Fingerprint: c.fingerprint,
		CreatedAt:   c.now(),
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = e
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.entries)
}

// SetMaxAge expires entries older than d. Zero disables expiry.
func (c *Cache) SetMaxAge(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.maxAge = d
}

// InvalidateAll drops every entry and persists the empty cache.
func (c *Cache) InvalidateAll() error {
	c.mutex.Lock()
	c.entries = make(map[string]entry)
	c.mutex.Unlock()

	return c.Save()
}

func (c *Cache) key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// Hash returns the hex md5 of content.
func Hash(content []byte) string {
	return fmt.Sprintf("%x", md5.Sum(content))
}
