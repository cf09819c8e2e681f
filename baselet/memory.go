package baselet

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/btree"
)

// DefaultBTreeDegree is the degree of the BTree that indexes the blobs of a
// MemoryStore.
var DefaultBTreeDegree = 8

// MemoryStore is a Store that keeps every blob in memory. It is useful for
// tests and for short-lived databases.
//
// A MemoryStore is safe for concurrent use by multiple goroutines.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs *btree.BTree
}

// Assert MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

type memoryBlob struct {
	path string
	data []byte
}

func (b memoryBlob) Less(than btree.Item) bool {
	return b.path < than.(memoryBlob).path
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: btree.New(DefaultBTreeDegree)}
}

// Get returns a copy of the blob stored at path.
func (m *MemoryStore) Get(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item := m.blobs.Get(memoryBlob{path: path})
	if item == nil {
		return nil, fmt.Errorf("get %s: %w", path, ErrNotFound)
	}
	return cloneBytes(item.(memoryBlob).data), nil
}

// Set stores a copy of data at path.
func (m *MemoryStore) Set(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs.ReplaceOrInsert(memoryBlob{path: path, data: cloneBytes(data)})
	return nil
}

// Delete removes the blob at path.
func (m *MemoryStore) Delete(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs.Delete(memoryBlob{path: path})
	return nil
}

// List returns the immediate children of dir.
func (m *MemoryStore) List(dir string) (map[string]EntryKind, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := ListPrefix(dir)
	out := make(map[string]EntryKind)
	m.blobs.AscendGreaterOrEqual(memoryBlob{path: prefix}, func(i btree.Item) bool {
		key := i.(memoryBlob).path
		if !strings.HasPrefix(key, prefix) {
			return false
		}
		if path, kind, ok := ChildEntry(dir, key); ok {
			out[path] = kind
		}
		return true
	})
	return out, nil
}

// Len returns the number of blobs in the store.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blobs.Len()
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
