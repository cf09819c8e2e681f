package sdb

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lucmq/go-baselet/baselet"
	storetest "github.com/lucmq/go-baselet/driver/test"
)

var dbPath = filepath.Join(os.TempDir(), "baselet-sdb-test")

func OpenTestStore() (storetest.TStore, error) {
	// Clean-up the database folder
	err := os.RemoveAll(dbPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return Open(dbPath)
}

func ReopenTestStore() (storetest.TStore, error) {
	return Open(dbPath)
}

func TestStore(t *testing.T) {
	tests := storetest.NewStoreTests(OpenTestStore, ReopenTestStore)
	tests.TestAll(t)
}

func TestStore_NoCache(t *testing.T) {
	open := func() (storetest.TStore, error) {
		if err := os.RemoveAll(dbPath); err != nil {
			return nil, err
		}
		return Open(dbPath, WithCacheSize(0))
	}
	reopen := func() (storetest.TStore, error) {
		return Open(dbPath, WithCacheSize(0))
	}
	tests := storetest.NewStoreTests(open, reopen)
	tests.TestAll(t)
}

func TestStore_SynchronousWrites(t *testing.T) {
	open := func() (storetest.TStore, error) {
		if err := os.RemoveAll(dbPath); err != nil {
			return nil, err
		}
		return Open(dbPath, WithSynchronousWrites(true), WithCacheSize(4))
	}
	tests := storetest.NewStoreTests(open, nil)
	tests.TestAll(t)
}

func TestOpen(t *testing.T) {
	t.Run("Empty path", func(t *testing.T) {
		db, err := Open("")
		if err == nil {
			t.Errorf("Expected an error, but got nil")
		}
		if db != nil {
			t.Errorf("Expected db to be nil")
		}
	})

	t.Run("MkdirAll error", func(t *testing.T) {
		fsys := &mockFS{
			mkdirAllFunc: func(string, fs.FileMode) error {
				return fs.ErrPermission
			},
		}
		_, err := Open(t.TempDir(), withFileSystem(fsys))
		if !errors.Is(err, fs.ErrPermission) {
			t.Errorf("Expected ErrPermission, but got %v", err)
		}
	})

	t.Run("Removes incomplete writes", func(t *testing.T) {
		root := t.TempDir()
		dir := filepath.Join(root, "db", "p")
		if err := os.MkdirAll(dir, TestDirPermissions); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		for _, name := range []string{".0.json-1-2", "0.json"} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), defaultPermissions); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
		}

		core, logs := observer.New(zapcore.InfoLevel)
		db, err := Open(root, WithLogger(zap.New(core)))
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		defer db.Close()

		entries, _ := os.ReadDir(dir)
		if len(entries) != 1 || entries[0].Name() != "0.json" {
			t.Errorf("Expected only 0.json to be left, but got %v", entries)
		}
		if logs.FilterMessage("removed incomplete writes").Len() != 1 {
			t.Errorf("Expected the removal to be logged, but got %v", logs.All())
		}
	})

	t.Run("Recover error", func(t *testing.T) {
		fsys := &mockFS{
			readDirFunc: func(string) ([]fs.DirEntry, error) {
				return nil, fs.ErrPermission
			},
		}
		_, err := Open(t.TempDir(), withFileSystem(fsys))
		if !errors.Is(err, fs.ErrPermission) {
			t.Errorf("Expected ErrPermission, but got %v", err)
		}
	})
}

func TestDB_FileLayout(t *testing.T) {
	root := t.TempDir()
	db, err := Open(root)
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	defer db.Close()

	if err = db.Set("users/p/0.json", []byte(`["a"]`)); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "users", "p", "0.json"))
	if err != nil {
		t.Fatalf("Expected the blob to be a file, but got %v", err)
	}
	if string(data) != `["a"]` {
		t.Errorf("Expected %s, but got %s", `["a"]`, data)
	}
	if db.Path() != filepath.Clean(root) {
		t.Errorf("Expected path to be %s, but got %s", root, db.Path())
	}

	if err = db.Delete("users/p/0.json"); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	if _, err = os.Stat(filepath.Join(root, "users")); !os.IsNotExist(err) {
		t.Errorf("Expected empty folders to be removed, but got %v", err)
	}
	if _, err = os.Stat(root); err != nil {
		t.Errorf("Expected the root to be kept, but got %v", err)
	}
}

func TestDB_InvalidPath(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	defer db.Close()

	paths := []string{
		"", "/", "db//0.json", "db/../0.json", "./0.json",
		"db/.0.json", `db\0.json`,
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			if _, err := db.Get(path); !errors.Is(err, ErrInvalidPath) {
				t.Errorf("Get: expected ErrInvalidPath, but got %v", err)
			}
			if err := db.Set(path, nil); !errors.Is(err, ErrInvalidPath) {
				t.Errorf("Set: expected ErrInvalidPath, but got %v", err)
			}
			if err := db.Delete(path); !errors.Is(err, ErrInvalidPath) {
				t.Errorf("Delete: expected ErrInvalidPath, but got %v", err)
			}
		})
	}

	t.Run("List", func(t *testing.T) {
		if _, err := db.List("db/../x"); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("Expected ErrInvalidPath, but got %v", err)
		}
	})
}

func TestDB_Cache(t *testing.T) {
	var reads int
	fsys := &mockFS{
		readFileFunc: func(name string) ([]byte, error) {
			reads++
			return os.ReadFile(name)
		},
	}
	db, err := Open(t.TempDir(), withFileSystem(fsys))
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}

	t.Run("Set fills the cache", func(t *testing.T) {
		if err := db.Set("db/0.json", []byte("zero")); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		v, _ := db.Get("db/0.json")
		if string(v) != "zero" || reads != 0 {
			t.Errorf("Expected a cached read, but got (%s, %d reads)", v, reads)
		}
	})

	t.Run("Get returns a copy", func(t *testing.T) {
		v, _ := db.Get("db/0.json")
		v[0] = 'x'
		v, _ = db.Get("db/0.json")
		if string(v) != "zero" {
			t.Errorf("Expected zero, but got %s", v)
		}
	})

	t.Run("Miss reads the file once", func(t *testing.T) {
		reads = 0
		db.cache = NewTestCache()
		for i := 0; i < 3; i++ {
			if _, err := db.Get("db/0.json"); err != nil {
				t.Fatalf("Expected no error, but got %v", err)
			}
		}
		if reads != 1 {
			t.Errorf("Expected 1 read, but got %d", reads)
		}
	})

	t.Run("Delete evicts", func(t *testing.T) {
		if err := db.Delete("db/0.json"); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if db.cache.Len() != 0 || db.cache.Bytes() != 0 {
			t.Errorf("Expected an empty cache, but got (%d blobs, %d bytes)",
				db.cache.Len(), db.cache.Bytes())
		}
		if _, err := db.Get("db/0.json"); !errors.Is(err, baselet.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, but got %v", err)
		}
	})

	t.Run("Byte budget", func(t *testing.T) {
		reads = 0
		WithCacheSize(10)(db)
		for _, path := range []string{"db/1.json", "db/2.json", "db/3.json"} {
			if err := db.Set(path, []byte("abcd")); err != nil {
				t.Fatalf("Expected no error, but got %v", err)
			}
		}
		if db.cache.Bytes() > 10 || db.cache.Len() != 2 {
			t.Errorf("Expected 2 blobs within 10 bytes, but got (%d blobs, %d bytes)",
				db.cache.Len(), db.cache.Bytes())
		}
		for _, path := range []string{"db/1.json", "db/2.json", "db/3.json"} {
			if v, err := db.Get(path); err != nil || string(v) != "abcd" {
				t.Errorf("Expected abcd, but got (%s, %v)", v, err)
			}
		}
		if reads == 0 {
			t.Errorf("Expected the evicted blob to be read from disk")
		}
	})
}

func TestDB_Errors(t *testing.T) {
	t.Run("Read error", func(t *testing.T) {
		db, _ := Open(t.TempDir(), WithCacheSize(0), withFileSystem(&mockFS{
			readFileFunc: func(string) ([]byte, error) { return nil, TestError },
		}))
		if _, err := db.Get("db/0.json"); !errors.Is(err, TestError) {
			t.Errorf("Expected TestError, but got %v", err)
		}
	})

	t.Run("Write error evicts the cache", func(t *testing.T) {
		var fail bool
		db, _ := Open(t.TempDir(), withFileSystem(&mockFS{
			openFileFunc: func(name string, flag int, perm fs.FileMode) (file, error) {
				if fail {
					return nil, TestError
				}
				return (&osFS{}).OpenFile(name, flag, perm)
			},
		}))
		_ = db.Set("db/0.json", []byte("zero"))
		fail = true
		if err := db.Set("db/0.json", []byte("one")); !errors.Is(err, TestError) {
			t.Errorf("Expected TestError, but got %v", err)
		}
		v, _ := db.Get("db/0.json")
		if string(v) != "zero" {
			t.Errorf("Expected the file contents, but got %s", v)
		}
	})

	t.Run("Remove error", func(t *testing.T) {
		db, _ := Open(t.TempDir(), withFileSystem(&mockFS{
			removeFunc: func(string) error { return TestError },
		}))
		if err := db.Delete("db/0.json"); !errors.Is(err, TestError) {
			t.Errorf("Expected TestError, but got %v", err)
		}
	})

	t.Run("List error", func(t *testing.T) {
		var fail bool
		db, _ := Open(t.TempDir(), withFileSystem(&mockFS{
			readDirFunc: func(name string) ([]fs.DirEntry, error) {
				if fail {
					return nil, TestError
				}
				return os.ReadDir(name)
			},
		}))
		fail = true
		if _, err := db.List("db"); !errors.Is(err, TestError) {
			t.Errorf("Expected TestError, but got %v", err)
		}
	})

	t.Run("Prune error is logged", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		var fail bool
		db, _ := Open(t.TempDir(), WithLogger(zap.New(core)), withFileSystem(&mockFS{
			readDirFunc: func(name string) ([]fs.DirEntry, error) {
				if fail {
					return nil, TestError
				}
				return os.ReadDir(name)
			},
		}))
		_ = db.Set("db/0.json", []byte("zero"))
		fail = true
		if err := db.Delete("db/0.json"); err != nil {
			t.Errorf("Expected no error, but got %v", err)
		}
		if logs.Len() != 1 {
			t.Errorf("Expected 1 warning, but got %v", logs.All())
		}
	})
}

func TestDB_WriteMetrics(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	_ = db.Set("db/0.json", []byte("zero"))
	_, _ = db.Get("db/0.json")
	_, _ = db.Get("db/1.json")
	_, _ = db.List("db")
	_ = db.Delete("db/0.json")
	_, _ = db.Get("db/../x")

	var buf bytes.Buffer
	db.WriteMetrics(&buf)
	out := buf.String()

	expected := []string{
		"sdb_reads_total 3",
		"sdb_writes_total 1",
		"sdb_deletes_total 1",
		"sdb_lists_total 1",
		"sdb_errors_total 1",
		"sdb_cache_hits 1",
		"sdb_cache_misses 1",
		"sdb_cache_blobs 0",
		"sdb_cache_bytes 0",
	}
	for _, line := range expected {
		if !strings.Contains(out, line+"\n") {
			t.Errorf("Expected %q in the metrics, but got:\n%s", line, out)
		}
	}
}
