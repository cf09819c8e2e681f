// Package sdb is the default filesystem store for baselet.
//
// # Blobs
//
// In sdb, each blob is a distinct file and each folder of the blob path is a
// filesystem directory, so a database written by baselet can be read and
// edited with ordinary tools. The blob "users/0.json" lives at
// <root>/users/0.json.
//
// Blob path segments may not be empty, "." or "..", nor start with a dot:
// names starting with a dot are reserved for the temporary files of
// in-flight writes.
//
// # Cache
//
// The sdb store keeps the contents of the blobs it reads and writes in
// memory to speed up reads. By default the cache is unbounded, but it can be
// given a budget in bytes or disabled altogether. Deleted blobs leave the
// cache immediately.
//
// # Atomicity
//
// Blobs are written atomically. With a file-per-blob design, sdb achieves
// this by using atomic file writes, which consist of creating a temporary
// file next to the target and then renaming it [1]. Temporary files left
// behind by a crash are removed when the store is opened.
//
// As an optimization, blobs might be written directly without needing a
// temporary file if the data fits in a single sector since a single-sector
// write can be assumed to be atomic on some systems [2] [3].
//
// # Durability
//
// By default, sdb leverages the filesystem cache to speed up writes. For the
// highest level of durability, the WithSynchronousWrites option makes the
// store synchronize data to persistent storage on each write.
//
// # Notes
//
// [1] On Windows, additional configuration is involved.
//
// [2] https://stackoverflow.com/questions/2009063/are-disk-sector-writes-atomic
//
// [3] https://web.cs.ucla.edu/classes/spring07/cs111-2/scribe/lecture14.html
package sdb

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/lucmq/go-baselet/baselet"
	"github.com/lucmq/go-baselet/sdb/internal"
)

// ErrInvalidPath is returned when a blob path cannot be mapped to a file
// under the store root.
var ErrInvalidPath = errors.New("invalid blob path")

// DB is a filesystem [baselet.Store]. It is safe for concurrent use by
// multiple goroutines.
type DB struct {
	mu         sync.RWMutex
	path       string
	fs         fileSystem
	writer     *atomicWriter
	cache      *internal.BlobCache
	syncWrites bool
	metrics    *dbMetrics
	logger     *zap.Logger
}

// Assert DB implements baselet.Store
var _ baselet.Store = (*DB)(nil)

// Open opens the store rooted at the directory path, creating it if needed.
func Open(path string, options ...Option) (*DB, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}
	db := &DB{
		path:   filepath.Clean(path),
		fs:     &osFS{},
		cache:  internal.NewBlobCache(-1),
		logger: zap.NewNop(),
	}
	for _, option := range options {
		option(db)
	}
	db.writer = newAtomicWriter(db.fs, db.syncWrites)
	db.metrics = newDBMetrics(db)

	if err := db.fs.MkdirAll(db.path, defaultDirPermissions); err != nil {
		return nil, fmt.Errorf("make root: %w", err)
	}
	if err := db.recover(); err != nil {
		return nil, fmt.Errorf("recover: %w", err)
	}
	db.logger.Debug("store opened", zap.String("path", db.path))
	return db, nil
}

// Close closes the store. Writes are already on disk when Set returns, so
// there is nothing to flush.
func (db *DB) Close() error {
	return nil
}

// Path returns the root directory of the store.
func (db *DB) Path() string { return db.path }

// Get returns the blob stored at path.
func (db *DB) Get(path string) ([]byte, error) {
	db.metrics.reads.Inc()
	name, err := db.filePath(path)
	if err != nil {
		return nil, db.metrics.observe(err)
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	if v, ok := db.cache.Get(path); ok {
		return bytes.Clone(v), nil
	}
	data, err := db.fs.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("get %s: %w", path, baselet.ErrNotFound)
	}
	if err != nil {
		return nil, db.metrics.observe(fmt.Errorf("read file: %w", err))
	}
	if data == nil {
		data = []byte{}
	}
	db.cache.Put(path, bytes.Clone(data))
	return data, nil
}

// Set stores data at path, creating the folders of the path as needed.
func (db *DB) Set(path string, data []byte) error {
	db.metrics.writes.Inc()
	name, err := db.filePath(path)
	if err != nil {
		return db.metrics.observe(err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if err = db.fs.MkdirAll(filepath.Dir(name), defaultDirPermissions); err != nil {
		return db.metrics.observe(fmt.Errorf("make dir: %w", err))
	}
	if err = db.writer.WriteFile(name, data); err != nil {
		db.cache.Delete(path)
		return db.metrics.observe(fmt.Errorf("write file: %w", err))
	}
	db.cache.Put(path, bytes.Clone(data))
	return nil
}

// Delete removes the blob at path. Folders left empty are removed.
func (db *DB) Delete(path string) error {
	db.metrics.deletes.Inc()
	name, err := db.filePath(path)
	if err != nil {
		return db.metrics.observe(err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	db.cache.Delete(path)
	err = db.fs.Remove(name)
	if errors.Is(err, fs.ErrNotExist) {
		// Blob not found
		return nil
	}
	if err != nil {
		return db.metrics.observe(fmt.Errorf("remove: %w", err))
	}
	if err = pruneDirs(db.fs, db.path, filepath.Dir(name)); err != nil {
		// The blob is gone. An empty folder left behind only shows up in
		// List until the next delete under it.
		db.logger.Warn("prune empty folders",
			zap.String("path", path), zap.Error(err))
	}
	return nil
}

// List returns the immediate children of the folder dir.
func (db *DB) List(dir string) (map[string]baselet.EntryKind, error) {
	db.metrics.lists.Inc()
	name := db.path
	if strings.Trim(dir, "/") != "" {
		var err error
		if name, err = db.filePath(dir); err != nil {
			return nil, db.metrics.observe(err)
		}
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	entries, err := db.fs.ReadDir(name)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]baselet.EntryKind{}, nil
	}
	if err != nil {
		return nil, db.metrics.observe(fmt.Errorf("read dir: %w", err))
	}

	prefix := baselet.ListPrefix(dir)
	out := make(map[string]baselet.EntryKind, len(entries))
	for _, entry := range entries {
		if isTemp(entry.Name()) {
			continue
		}
		kind := baselet.File
		if entry.IsDir() {
			kind = baselet.Folder
		}
		out[prefix+entry.Name()] = kind
	}
	return out, nil
}

// filePath maps a blob path to a file under the store root.
func (db *DB) filePath(path string) (string, error) {
	path = strings.Trim(path, "/")
	if path == "" || strings.Contains(path, `\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	for _, segment := range strings.Split(path, "/") {
		if segment == "" || isTemp(segment) {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return filepath.Join(db.path, filepath.FromSlash(path)), nil
}
