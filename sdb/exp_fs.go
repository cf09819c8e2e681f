package sdb

import (
	"io/fs"
	"os"
)

// file is the subset of *os.File used when writing blobs.
type file interface {
	Write(p []byte) (int, error)
	Sync() error
	Close() error
}

type fileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (file, error)

	ReadFile(name string) ([]byte, error)
	ReadDir(name string) ([]fs.DirEntry, error)

	Remove(name string) error
	Rename(oldpath, newpath string) error

	MkdirAll(path string, perm os.FileMode) error
}

type osFS struct{}

func (*osFS) OpenFile(name string, flag int, perm os.FileMode) (file, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (*osFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (*osFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}

func (*osFS) Remove(name string) error {
	return os.Remove(name)
}

func (*osFS) Rename(oldpath, newpath string) error {
	return renameFile(oldpath, newpath)
}

func (*osFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}
