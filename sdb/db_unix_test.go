//go:build !windows

package sdb

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDB_Permissions(t *testing.T) {
	root := t.TempDir()
	db, err := Open(root)
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	defer db.Close()

	small := []byte("zero")
	large := make([]byte, 2*defaultDiskSectorSize)
	for path, data := range map[string][]byte{"db/0.json": small, "db/1.json": large} {
		if err = db.Set(path, data); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(path)))
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if info.Mode().Perm() != defaultPermissions {
			t.Errorf("Expected %s to have mode %v, but got %v",
				path, defaultPermissions, info.Mode().Perm())
		}
	}

	info, err := os.Stat(filepath.Join(root, "db"))
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if info.Mode().Perm() != defaultDirPermissions {
		t.Errorf("Expected mode %v, but got %v",
			defaultDirPermissions, info.Mode().Perm())
	}
}
