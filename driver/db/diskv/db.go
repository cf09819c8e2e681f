// Package diskvd provides a Diskv driver for baselet.
package diskvd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/btree"
	"github.com/peterbourgon/diskv/v3"

	"github.com/lucmq/go-baselet/baselet"
)

var (
	// DefaultCacheSize is the default size of the cache used when a Store is
	// created with NewDefault.
	DefaultCacheSize uint64 = 1024 * 1024

	// DefaultAdvancedTransform is the default function used to transform
	// blob paths to filesystem paths when a Store is created with
	// NewDefault.
	DefaultAdvancedTransform = BlobPathToPathKey

	// DefaultInverseTransform is the default function used to map filesystem
	// paths back to blob paths when a Store is created with NewDefault. It is
	// the inverse of DefaultAdvancedTransform.
	DefaultInverseTransform = PathKeyToBlobPath

	// DefaultLessFunction is the default function used to compare keys when a
	// Store is created with NewDefault.
	DefaultLessFunction = StringLess

	// DefaultBTreeDegree is the degree of the BTree used as the diskv index
	// when a Store is created with NewDefault.
	DefaultBTreeDegree = 8

	// tempDirName is the folder, under the base path, where diskv stages
	// writes before renaming them into place.
	tempDirName = ".tmp"
)

// listBatchSize is the number of index keys read at a time by List.
const listBatchSize = 256

// Store is a [baselet.Store] driver backed by a diskv.Diskv instance. Every
// blob is a file under the diskv base path, at its own blob path, so the
// buckets stay readable on disk. Folders are listed from the diskv index.
type Store struct {
	db *diskv.Diskv
}

// Assert that Store implements the baselet.Store interface.
var _ baselet.Store = (*Store)(nil)

// New creates a new Store with the given diskv.Diskv instance. The instance
// must be configured with an index.
func New(db *diskv.Diskv) (*Store, error) {
	if db.Index == nil {
		return nil, errors.New("diskv index is required")
	}
	return &Store{db: db}, nil
}

// NewDefault creates a new Store rooted at path with sensible default values.
func NewDefault(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}
	db := diskv.New(diskv.Options{
		BasePath:          path,
		AdvancedTransform: DefaultAdvancedTransform,
		InverseTransform:  DefaultInverseTransform,
		CacheSizeMax:      DefaultCacheSize,
		TempDir:           filepath.Join(path, tempDirName),
		Index:             newBTreeIndex(),
		IndexLess:         DefaultLessFunction,
	})
	return New(db)
}

func newBTreeIndex() *diskv.BTreeIndex {
	return &diskv.BTreeIndex{
		RWMutex:      sync.RWMutex{},
		LessFunction: DefaultLessFunction,
		BTree:        btree.New(DefaultBTreeDegree),
	}
}

// Close closes the underlying diskv.Diskv instance. In diskv, this is a no-op.
func (*Store) Close() error {
	return nil
}

// Get returns the blob stored at path.
func (s *Store) Get(path string) ([]byte, error) {
	value, err := s.db.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("get %s: %w", path, baselet.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// Set stores data at path.
func (s *Store) Set(path string, data []byte) error {
	return s.db.Write(path, data)
}

// Delete removes the blob at path. Folders left empty are removed by diskv.
func (s *Store) Delete(path string) error {
	err := s.db.Erase(path)
	if errors.Is(err, os.ErrNotExist) {
		// Blob not found
		return nil
	}
	return err
}

// List returns the immediate children of dir. It pages through the sorted
// diskv index, which cannot seek to a missing key, so keys before the folder
// prefix are skipped.
func (s *Store) List(dir string) (map[string]baselet.EntryKind, error) {
	prefix := baselet.ListPrefix(dir)
	out := make(map[string]baselet.EntryKind)
	from := ""
	for {
		keys := s.db.Index.Keys(from, listBatchSize)
		if len(keys) == 0 {
			return out, nil
		}
		for _, key := range keys {
			if key < prefix {
				continue
			}
			if !strings.HasPrefix(key, prefix) {
				return out, nil
			}
			if path, kind, ok := baselet.ChildEntry(dir, key); ok {
				out[path] = kind
			}
		}
		from = keys[len(keys)-1]
	}
}

// BlobPathToPathKey converts a slash separated blob path to a PathKey:
// "db/p/0.json" is stored as the file 0.json in the folder db/p.
func BlobPathToPathKey(path string) *diskv.PathKey {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

// PathKeyToBlobPath converts a diskv.PathKey to a blob path. It is the
// inverse of BlobPathToPathKey.
func PathKeyToBlobPath(pk *diskv.PathKey) string {
	parts := append(append([]string{}, pk.Path...), pk.FileName)
	return strings.Join(parts, "/")
}

// StringLess returns true if a is less than b lexicographically.
func StringLess(a, b string) bool { return a < b }
