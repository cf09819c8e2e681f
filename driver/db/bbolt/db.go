// Package bboltd provides a bbolt driver for baselet.
package bboltd

import (
	"bytes"
	"fmt"
	"os"

	"go.etcd.io/bbolt"

	"github.com/lucmq/go-baselet/baselet"
)

// DefaultBucket is the bbolt bucket used by NewDefault.
var DefaultBucket = []byte("baselet")

// Store is a bbolt driver for [baselet.Store]. Blob paths are stored as keys
// of a single bbolt bucket. Since bbolt keeps keys sorted, listing a folder
// is a cursor scan over its key prefix.
type Store struct {
	db     *bbolt.DB
	bucket []byte
}

// Assert Store implements baselet.Store
var _ baselet.Store = (*Store)(nil)

// New creates a new bbolt store. The bucket is created if it doesn't exist.
func New(db *bbolt.DB, bucket []byte) (*Store, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Store{db: db, bucket: bucket}, nil
}

// NewDefault opens the bbolt database at path and creates a store in the
// DefaultBucket.
func NewDefault(path string) (*Store, error) {
	db, err := Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	s, err := New(db, DefaultBucket)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Open opens a bbolt database. It is a wrapper around bbolt.Open.
func Open(path string, mode os.FileMode, options *bbolt.Options) (*bbolt.DB, error) {
	return bbolt.Open(path, mode, options)
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns a copy of the blob stored at path.
func (s *Store) Get(path string) ([]byte, error) {
	var val []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		v := b.Get([]byte(path))
		if v == nil {
			return fmt.Errorf("get %s: %w", path, baselet.ErrNotFound)
		}
		// Values are only valid for the life of the transaction
		val = bytes.Clone(v)
		if val == nil {
			val = []byte{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Set stores data at path.
func (s *Store) Set(path string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Put([]byte(path), data)
	})
}

// Delete removes the blob at path.
func (s *Store) Delete(path string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Delete([]byte(path))
	})
}

// List returns the immediate children of dir.
func (s *Store) List(dir string) (map[string]baselet.EntryKind, error) {
	prefix := []byte(baselet.ListPrefix(dir))
	out := make(map[string]baselet.EntryKind)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		c := b.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			if path, kind, ok := baselet.ChildEntry(dir, string(k)); ok {
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
