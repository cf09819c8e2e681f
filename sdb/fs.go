package sdb

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

var (
	defaultDiskSectorSize = 4096
	defaultPermissions    = os.FileMode(0600)
	defaultDirPermissions = os.FileMode(0700)
)

// tempPrefix marks staging files. They live next to their target, so the
// final rename never crosses a filesystem, and List skips them.
const tempPrefix = "."

// The main object of atomicWrite is to protect against incomplete writes.
// When used together with O_SYNC, atomicWrite also provides some additional
// durability guarantees.
type atomicWriter struct {
	fs             fileSystem
	syncWrites     bool
	diskSectorSize int
	perm           os.FileMode
	goos           string
}

func newAtomicWriter(fsys fileSystem, syncWrites bool) *atomicWriter {
	return &atomicWriter{
		fs:             fsys,
		syncWrites:     syncWrites,
		diskSectorSize: defaultDiskSectorSize,
		perm:           defaultPermissions,
		goos:           runtime.GOOS,
	}
}

func (w *atomicWriter) flag() int {
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if w.syncWrites {
		flag |= os.O_SYNC
	}
	return flag
}

// WriteFile replaces the contents of path with data. Readers see either the
// old or the new contents, never a mix.
func (w *atomicWriter) WriteFile(path string, data []byte) (err error) {
	defer func() {
		// Sync the parent directory for more durability guarantees. See:
		// - https://lwn.net/Articles/457667/#:~:text=When%20should%20you%20Fsync
		if err == nil && w.syncWrites {
			_ = syncFile(filepath.Dir(path))
		}
	}()

	if w.goos == "linux" && len(data) > 0 && len(data) <= w.diskSectorSize {
		// A write that fits in a single sector is assumed to be atomic. See:
		//
		// - https://stackoverflow.com/questions/2009063/are-disk-sector-writes-atomic
		// - https://web.cs.ucla.edu/classes/spring07/cs111-2/scribe/lecture14.html
		return w.writeFile(path, data)
	}

	tmpPath := makeTempPath(path)
	if err = w.writeFile(tmpPath, data); err != nil {
		_ = w.fs.Remove(tmpPath)
		return fmt.Errorf("write: %w", err)
	}
	if err = w.fs.Rename(tmpPath, path); err != nil {
		_ = w.fs.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// writeFile is os.WriteFile on top of the fileSystem.
func (w *atomicWriter) writeFile(name string, data []byte) error {
	f, err := w.fs.OpenFile(name, w.flag(), w.perm)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	if err1 := f.Close(); err1 != nil && err == nil {
		err = err1
	}
	return err
}

// pruneDirs removes dir and its parents, up to but excluding root, while
// they are empty.
func pruneDirs(fsys fileSystem, root, dir string) error {
	for dir != root && strings.HasPrefix(dir, root) {
		entries, err := fsys.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			dir = filepath.Dir(dir)
			continue
		}
		if err != nil {
			return fmt.Errorf("read dir: %w", err)
		}
		if len(entries) > 0 {
			return nil
		}
		if err = fsys.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove dir: %w", err)
		}
		dir = filepath.Dir(dir)
	}
	return nil
}

// Helpers

func makeTempPath(path string) string {
	tmpBase := fmt.Sprintf(
		"%s%s-%d-%d",
		tempPrefix,
		filepath.Base(path),
		rand.Uint32(),
		time.Now().UnixNano(),
	)
	return filepath.Join(filepath.Dir(path), tmpBase)
}

func isTemp(name string) bool {
	return strings.HasPrefix(name, tempPrefix)
}

func syncFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	err = f.Sync()
	if err1 := f.Close(); err1 != nil && err == nil {
		err = err1
	}
	return err
}
