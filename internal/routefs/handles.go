package routefs

import (
	"fmt"
	"sync"
)

// HandleCache is the process-wide table of open handles. Each entry
// pairs the owning path with the handle's cached byte buffer. Handle
// ids come from a strictly increasing counter and are never reused
// while the process runs, so a released handle can never be confused
// with a live one.
//
// Handlers run on their own goroutines, so every table operation takes
// the mutex - including SetAllForPath, which must be atomic with
// respect to concurrent opens and releases on the same path.
//
// There is no eviction: an entry lives exactly from Open to Release.
// A caller that opens and never releases grows the table without
// bound; that is an accepted limitation of the session model, not
// something the cache papers over.
type HandleCache struct {
	mu      sync.Mutex
	nextID  uint64
	entries map[uint64]*handleEntry
}

type handleEntry struct {
	path string
	data []byte
}

// NewHandleCache creates an empty handle cache.
func NewHandleCache() *HandleCache {
	return &HandleCache{entries: make(map[uint64]*handleEntry)}
}

// Open stores a new buffer for the path and returns its handle id.
func (c *HandleCache) Open(path string, data []byte) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.entries[c.nextID] = &handleEntry{path: path, data: cloneBytes(data)}
	return c.nextID
}

// Buffer returns a copy of the handle's cached contents.
func (c *HandleCache) Buffer(fh uint64) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[fh]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrStaleHandle, fh)
	}
	return cloneBytes(e.data), nil
}

// Set replaces the handle's cached contents.
func (c *HandleCache) Set(fh uint64, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[fh]
	if !ok {
		return fmt.Errorf("%w: %d", ErrStaleHandle, fh)
	}
	e.data = cloneBytes(data)
	return nil
}

// Release removes the handle. Any later operation referencing it gets
// ErrStaleHandle.
func (c *HandleCache) Release(fh uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[fh]; !ok {
		return fmt.Errorf("%w: %d", ErrStaleHandle, fh)
	}
	delete(c.entries, fh)
	return nil
}

// SetAllForPath replaces the cached contents of every open handle on
// the path and returns how many were updated. Truncate uses this to
// invalidate stale buffers across handles sharing the path.
func (c *HandleCache) SetAllForPath(path string, data []byte) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.path == path {
			e.data = cloneBytes(data)
			n++
		}
	}
	return n
}

// Len returns the number of live handles.
func (c *HandleCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
