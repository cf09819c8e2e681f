package internal

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// BlobCache keeps the contents of blobs in memory, up to a budget of bytes.
// It is safe for concurrent use by multiple goroutines.
//
// The cache owns the slices it holds. Callers copy data before a Put and
// before handing a Get result to code that may modify it.
type BlobCache struct {
	entries  *xsync.MapOf[string, []byte]
	bytes    atomic.Int64
	maxBytes int64
	hits     atomic.Int64
	misses   atomic.Int64
}

// NewBlobCache returns a cache holding up to maxBytes bytes of blob data.
//
// Setting maxBytes to -1 or less disables eviction. A maxBytes of 0
// creates a cache that keeps nothing.
func NewBlobCache(maxBytes int64) *BlobCache {
	return &BlobCache{
		entries:  xsync.NewMapOf[string, []byte](),
		maxBytes: maxBytes,
	}
}

// Get returns the cached contents of the blob at path.
func (c *BlobCache) Get(path string) ([]byte, bool) {
	data, ok := c.entries.Load(path)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return data, true
}

// Put caches data as the contents of the blob at path, evicting other blobs
// while the cache is over budget. A blob larger than the whole budget is not
// cached, and any older version of it is dropped.
func (c *BlobCache) Put(path string, data []byte) {
	if c.maxBytes >= 0 && int64(len(data)) > c.maxBytes {
		c.Delete(path)
		return
	}
	old, loaded := c.entries.LoadAndStore(path, data)
	delta := int64(len(data))
	if loaded {
		delta -= int64(len(old))
	}
	if c.bytes.Add(delta) > c.maxBytes && c.maxBytes >= 0 {
		c.evict(path)
	}
}

// Delete drops the blob at path from the cache.
func (c *BlobCache) Delete(path string) {
	if old, ok := c.entries.LoadAndDelete(path); ok {
		c.bytes.Add(-int64(len(old)))
	}
}

// evict drops arbitrary blobs other than keep until the cache fits its
// budget. Concurrent puts may briefly leave it over budget.
func (c *BlobCache) evict(keep string) {
	c.entries.Range(func(path string, _ []byte) bool {
		if c.bytes.Load() <= c.maxBytes {
			return false
		}
		if path != keep {
			c.Delete(path)
		}
		return true
	})
}

// Len returns the number of cached blobs.
func (c *BlobCache) Len() int { return c.entries.Size() }

// Bytes returns the total size of the cached blobs.
func (c *BlobCache) Bytes() int64 { return c.bytes.Load() }

// Hits returns the number of Get calls that found the blob in the cache.
func (c *BlobCache) Hits() int { return int(c.hits.Load()) }

// Misses returns the number of Get calls that did not find the blob.
func (c *BlobCache) Misses() int { return int(c.misses.Load()) }

// ResetRatio resets the ratio of hits to misses.
func (c *BlobCache) ResetRatio() {
	c.misses.Store(0)
	c.hits.Store(0)
}
