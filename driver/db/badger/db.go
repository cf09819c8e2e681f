// Package badgerd provides a BadgerDB driver for baselet.
package badgerd

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"github.com/lucmq/go-baselet/baselet"
)

// Store is a BadgerDB driver for [baselet.Store]. Blob paths are stored as
// Badger keys, and listing a folder is a key-only prefix iteration.
type Store struct {
	db        *badger.DB
	valueCopy copyFunc
}

// Assert Store implements baselet.Store
var _ baselet.Store = (*Store)(nil)

type copyFunc func(item *badger.Item, dest []byte) ([]byte, error)

// New creates a new BadgerDB store.
func New(db *badger.DB) (*Store, error) {
	return &Store{db: db, valueCopy: valueCopy}, nil
}

// NewDefault creates a new BadgerDB store with sensible default values.
func NewDefault(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)

	// Badger uses mmap and recommends using async writes for
	// most scenarios
	opts = opts.WithSyncWrites(false)
	opts = opts.WithDir(path)
	opts = opts.WithValueDir(path)
	opts = opts.WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return New(db)
}

// NewInMemory creates a BadgerDB store that keeps everything in memory.
func NewInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return New(db)
}

// Close closes the underlying BadgerDB database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Sync synchronizes the underlying BadgerDB database to persistent storage.
func (s *Store) Sync() error {
	return s.db.Sync()
}

// Get returns a copy of the blob stored at path.
func (s *Store) Get(path string) ([]byte, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("get %s: %w", path, baselet.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get: %w", err)
		}
		val, err = s.valueCopy(item, make([]byte, 0, item.ValueSize()))
		if err != nil {
			return fmt.Errorf("copy value: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if val == nil {
		val = []byte{}
	}
	return val, nil
}

// Set stores data at path.
func (s *Store) Set(path string, data []byte) error {
	return s.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(path), data)
	})
}

// Delete removes the blob at path.
func (s *Store) Delete(path string) error {
	return s.db.Update(func(tx *badger.Txn) error {
		return tx.Delete([]byte(path))
	})
}

// List returns the immediate children of dir.
func (s *Store) List(dir string) (map[string]baselet.EntryKind, error) {
	out := make(map[string]baselet.EntryKind)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // Only fetch keys
		opts.Prefix = []byte(baselet.ListPrefix(dir))

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			if path, kind, ok := baselet.ChildEntry(dir, key); ok {
				out[path] = kind
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func valueCopy(item *badger.Item, dst []byte) ([]byte, error) {
	return item.ValueCopy(dst)
}
