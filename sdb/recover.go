package sdb

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"
)

// recover removes the temporary files left behind by writes that were
// interrupted before their rename.
func (db *DB) recover() error {
	removed, err := removeTempFiles(db.fs, db.path)
	if err != nil {
		return err
	}
	if removed > 0 {
		db.logger.Info("removed incomplete writes",
			zap.String("path", db.path), zap.Int("count", removed))
	}
	return nil
}

func removeTempFiles(fsys fileSystem, dir string) (int, error) {
	entries, err := fsys.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read dir: %w", err)
	}

	var removed int
	for _, entry := range entries {
		name := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			n, err := removeTempFiles(fsys, name)
			removed += n
			if err != nil {
				return removed, err
			}
			continue
		}
		if !isTemp(entry.Name()) {
			continue
		}
		if err = fsys.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("remove: %w", err)
		}
		removed++
	}
	return removed, nil
}
