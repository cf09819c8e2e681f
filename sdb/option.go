package sdb

import (
	"go.uber.org/zap"

	"github.com/lucmq/go-baselet/sdb/internal"
)

// Option is passed to the Open function to create a customized DB.
type Option func(*DB)

// WithCacheSize sets the number of bytes of blob data kept in the read
// cache. A value of -1 represents an unlimited cache and a value of 0
// disables the cache. The default cache size is -1.
func WithCacheSize(size int64) Option {
	return func(db *DB) {
		db.cache = internal.NewBlobCache(size)
	}
}

// WithSynchronousWrites enables synchronous writes to the database. By default,
// synchronous writes are disabled.
func WithSynchronousWrites(sync bool) Option {
	return func(db *DB) {
		db.syncWrites = sync
	}
}

// WithLogger sets the logger used by the database. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(db *DB) {
		if logger != nil {
			db.logger = logger
		}
	}
}

func withFileSystem(fsys fileSystem) Option {
	return func(db *DB) {
		db.fs = fsys
	}
}
