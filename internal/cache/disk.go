package cache

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const diskExt = ".bin"

// Disk is a directory-backed LRU cache for synthesized results.
type Disk struct {
	mu       sync.Mutex
	dir      string
	maxBytes int64
	log      *slog.Logger
	entries  map[string]*entry
}

type entry struct {
	size       int64
	accessedAt time.Time
	path       string
}

// NewDisk creates a Disk cache that stores files in dir with a total size cap
// of maxBytes. It creates dir if needed and indexes any files already there.
func NewDisk(dir string, maxBytes int64, logger *slog.Logger) (*Disk, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create dir: %w", err)
	}
	c := &Disk{
		dir:      dir,
		maxBytes: maxBytes,
		log:      logger.With("component", "cache", "backend", "disk"),
		entries:  make(map[string]*entry),
	}
	c.loadExisting()
	return c, nil
}

// Get returns cached data for key and true on hit, or nil and false on miss.
func (c *Disk) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	data, err := os.ReadFile(e.path)
	if err != nil {
		c.log.Warn("cache file unreadable, removing entry", "key", key, "error", err)
		delete(c.entries, key)
		return nil, false
	}

	e.accessedAt = time.Now()
	return data, true
}

// Put stores data under key, evicting least-recently-used entries if needed.
// Entries larger than the cap are skipped.
func (c *Disk) Put(_ context.Context, key string, data []byte) error {
	newSize := int64(len(data))
	if newSize > c.maxBytes {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		os.Remove(old.path)
		delete(c.entries, key)
	}

	c.evict(newSize)

	p := filepath.Join(c.dir, key+diskExt)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("cache: write: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cache: rename: %w", err)
	}

	c.entries[key] = &entry{
		size:       newSize,
		accessedAt: time.Now(),
		path:       p,
	}
	return nil
}

// Len reports the number of indexed entries.
func (c *Disk) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// totalSize must be called with mu held.
func (c *Disk) totalSize() int64 {
	var total int64
	for _, e := range c.entries {
		total += e.size
	}
	return total
}

// evict removes least-recently-used entries until totalSize + needed <= maxBytes.
// Must be called with mu held.
func (c *Disk) evict(needed int64) {
	total := c.totalSize()
	for total+needed > c.maxBytes {
		oldest := c.oldestKey()
		if oldest == "" {
			break
		}
		e := c.entries[oldest]
		os.Remove(e.path)
		delete(c.entries, oldest)
		total -= e.size
		c.log.Debug("evicted cache entry", "key", oldest, "size", e.size)
	}
}

// oldestKey must be called with mu held.
func (c *Disk) oldestKey() string {
	var oldest string
	var oldestTime time.Time
	first := true
	for k, e := range c.entries {
		if first || e.accessedAt.Before(oldestTime) {
			oldest = k
			oldestTime = e.accessedAt
			first = false
		}
	}
	return oldest
}

// loadExisting rebuilds the index from files in dir, using mod times as
// access times. Leftover temp files from interrupted writes are removed.
func (c *Disk) loadExisting() {
	if tmps, err := filepath.Glob(filepath.Join(c.dir, "*"+diskExt+".tmp")); err == nil {
		for _, p := range tmps {
			os.Remove(p)
		}
	}

	matches, err := filepath.Glob(filepath.Join(c.dir, "*"+diskExt))
	if err != nil {
		c.log.Warn("cache: glob existing files", "error", err)
		return
	}
	for _, p := range matches {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		key := strings.TrimSuffix(filepath.Base(p), diskExt)
		c.entries[key] = &entry{
			size:       info.Size(),
			accessedAt: info.ModTime(),
			path:       p,
		}
	}
	if len(c.entries) > 0 {
		c.log.Info("loaded existing cache entries", "count", len(c.entries), "total_bytes", c.totalSize())
		// The cap may have been lowered since the files were written.
		c.evict(0)
	}
}
