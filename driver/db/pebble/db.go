// Package pebbled provides a Pebble driver for baselet.
package pebbled

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/lucmq/go-baselet/baselet"
)

// Store is a Pebble driver for [baselet.Store]. Blob paths are stored as
// Pebble keys, and listing a folder is a bounded iteration over its key
// prefix.
type Store struct {
	db        *pebble.DB
	newIterFn newIterFunc
}

// Assert Store implements baselet.Store
var _ baselet.Store = (*Store)(nil)

type newIterFunc func(*pebble.DB, *pebble.IterOptions) (*pebble.Iterator, error)

// New creates a new Pebble store.
func New(db *pebble.DB) (*Store, error) {
	return &Store{
		db:        db,
		newIterFn: defaultNewIterFn(),
	}, nil
}

// NewDefault creates a new Pebble store with sensible default values.
func NewDefault(path string) (*Store, error) {
	db, err := Open(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return New(db)
}

// Open is a wrapper around pebble.Open.
func Open(dirname string, opts *pebble.Options) (*pebble.DB, error) {
	return pebble.Open(dirname, opts)
}

// Close closes the Pebble database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Sync flushes the memtable of the Pebble database to disk.
func (s *Store) Sync() error {
	return s.db.Flush()
}

// Get returns a copy of the blob stored at path.
func (s *Store) Get(path string) ([]byte, error) {
	value, closer, err := s.db.Get([]byte(path))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("get %s: %w", path, baselet.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	// The value is only valid until the closer is closed
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores data at path.
func (s *Store) Set(path string, data []byte) error {
	return s.db.Set([]byte(path), data, pebble.Sync)
}

// Delete removes the blob at path.
func (s *Store) Delete(path string) error {
	return s.db.Delete([]byte(path), pebble.Sync)
}

// List returns the immediate children of dir.
func (s *Store) List(dir string) (map[string]baselet.EntryKind, error) {
	prefix := []byte(baselet.ListPrefix(dir))
	opts := &pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upperBound(prefix),
	}
	iter, err := s.newIterFn(s.db, opts)
	if err != nil {
		return nil, fmt.Errorf("new iter: %w", err)
	}
	defer iter.Close()

	out := make(map[string]baselet.EntryKind)
	for iter.First(); iter.Valid(); iter.Next() {
		if path, kind, ok := baselet.ChildEntry(dir, string(iter.Key())); ok {
			out[path] = kind
		}
	}
	if err = iter.Error(); err != nil {
		return nil, err
	}
	return out, nil
}

// upperBound returns the smallest key greater than every key with the given
// prefix, or nil if there is no such key.
func upperBound(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func defaultNewIterFn() newIterFunc {
	return func(db *pebble.DB, o *pebble.IterOptions) (*pebble.Iterator, error) {
		return db.NewIter(o)
	}
}
