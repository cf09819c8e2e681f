package sdb

import (
	"io/fs"

	"github.com/lucmq/go-baselet/sdb/internal"
)

// Mock Filesystem

// mockFS lets unit-tests inject behaviour for any subset of fileSystem
// operations. Operations without a func fall back to the real filesystem.
type mockFS struct {
	openFileFunc func(name string, flag int, perm fs.FileMode) (file, error)
	readFileFunc func(name string) ([]byte, error)
	readDirFunc  func(name string) ([]fs.DirEntry, error)
	removeFunc   func(name string) error
	renameFunc   func(oldpath, newpath string) error
	mkdirAllFunc func(path string, perm fs.FileMode) error
}

// Compile-time interface check.
var _ fileSystem = (*mockFS)(nil)

func (m *mockFS) OpenFile(name string, flag int, perm fs.FileMode) (file, error) {
	if m.openFileFunc != nil {
		return m.openFileFunc(name, flag, perm)
	}
	return (&osFS{}).OpenFile(name, flag, perm)
}

func (m *mockFS) ReadFile(name string) ([]byte, error) {
	if m.readFileFunc != nil {
		return m.readFileFunc(name)
	}
	return (&osFS{}).ReadFile(name)
}

func (m *mockFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if m.readDirFunc != nil {
		return m.readDirFunc(name)
	}
	return (&osFS{}).ReadDir(name)
}

func (m *mockFS) Remove(name string) error {
	if m.removeFunc != nil {
		return m.removeFunc(name)
	}
	return (&osFS{}).Remove(name)
}

func (m *mockFS) Rename(oldpath, newpath string) error {
	if m.renameFunc != nil {
		return m.renameFunc(oldpath, newpath)
	}
	return (&osFS{}).Rename(oldpath, newpath)
}

func (m *mockFS) MkdirAll(path string, perm fs.FileMode) error {
	if m.mkdirAllFunc != nil {
		return m.mkdirAllFunc(path, perm)
	}
	return (&osFS{}).MkdirAll(path, perm)
}

// Mock File

// mockFile is an in-memory test double that pretends to be an *os.File.
type mockFile struct {
	writeFunc func(p []byte) (n int, err error)
	syncFunc  func() error
	closeFunc func() error
}

// Compile-time interface check.
var _ file = (*mockFile)(nil)

func (f *mockFile) Write(p []byte) (n int, err error) {
	if f.writeFunc != nil {
		return f.writeFunc(p)
	}
	return len(p), nil
}

func (f *mockFile) Sync() error {
	if f.syncFunc != nil {
		return f.syncFunc()
	}
	return nil
}

func (f *mockFile) Close() error {
	if f.closeFunc != nil {
		return f.closeFunc()
	}
	return nil
}

// NewTestCache returns an empty unbounded cache.
func NewTestCache() *internal.BlobCache {
	return internal.NewBlobCache(-1)
}
