package baselet

import (
	"errors"
	"strings"
)

// EntryKind describes a child returned by Store.List.
type EntryKind string

const (
	// File is a blob.
	File EntryKind = "file"

	// Folder is a path prefix shared by one or more blobs.
	Folder EntryKind = "folder"
)

// ErrNotFound is returned by Store.Get when no blob exists at a path.
var ErrNotFound = errors.New("blob not found")

// Store is the path-addressable blob storage used by the bases. Paths are
// slash separated and relative to the store root, e.g. "users/0.json".
//
// The sdb package provides the default filesystem implementation. The
// packages in driver/db provide others, backed by embedded key-value
// databases from the Go ecosystem.
type Store interface {
	// Get returns the blob stored at path. If there is no blob, it returns
	// an error wrapping ErrNotFound.
	Get(path string) ([]byte, error)

	// Set stores data at path, replacing any existing blob.
	Set(path string, data []byte) error

	// Delete removes the blob at path. Deleting a missing blob is not an
	// error.
	Delete(path string) error

	// List returns the immediate children of the folder dir, keyed by their
	// full path. An empty dir lists the store root. A missing folder yields
	// an empty map.
	List(dir string) (map[string]EntryKind, error)
}

// ChildEntry reports the immediate child of dir that contains the blob at
// key. It is a helper for Store implementations that keep a flat key space
// and need to fold it into folders for List.
//
// For example, ChildEntry("db", "db/users/0.json") returns "db/users" as a
// Folder, and ChildEntry("db", "db/config.json") returns "db/config.json" as
// a File.
func ChildEntry(dir, key string) (path string, kind EntryKind, ok bool) {
	prefix := ListPrefix(dir)
	if !strings.HasPrefix(key, prefix) || len(key) == len(prefix) {
		return "", "", false
	}
	rest := key[len(prefix):]
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return prefix + rest[:i], Folder, true
	}
	return key, File, true
}

// ListPrefix returns the key prefix shared by every blob under dir.
func ListPrefix(dir string) string {
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return ""
	}
	return dir + "/"
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
