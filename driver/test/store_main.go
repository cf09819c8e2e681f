package storetest

import (
	"errors"
	"io"
	"reflect"
	"strconv"
	"sync"
	"testing"

	"github.com/lucmq/go-baselet/baselet"
)

// Test Suite

// OpenFunc is a function that opens a new store.
type OpenFunc func() (TStore, error)

// StoreTests is a collection of tests for a baselet.Store.
type StoreTests struct {
	Open   OpenFunc // Open the store in a clean state
	Reopen OpenFunc // Reopen the store without cleaning it

	// Run additional checks after initialization
	CheckInitialization func(t *testing.T, store TStore)
}

// NewStoreTests creates a new instance of StoreTests. It can be used to test
// different implementations of the baselet.Store interface.
//
// A nil reopen skips the persistence tests. Stores that implement io.Closer
// are closed before they are reopened.
func NewStoreTests(open, reopen OpenFunc) *StoreTests {
	return &StoreTests{
		Open:                open,
		Reopen:              reopen,
		CheckInitialization: func(t *testing.T, store TStore) {},
	}
}

// TestAll is the entrypoint to the test suite.
func (T *StoreTests) TestAll(t *testing.T) {
	t.Run("Open succeeds", func(t *testing.T) {
		store, err := T.Open()
		if err != nil {
			t.Errorf("Expected no error, but got %v", err)
		}
		if store == nil {
			t.Errorf("Expected store to be non-nil")
		}
		closeStore(t, store)
	})

	T.TestGet(t)
	T.TestSet(t)
	T.TestDelete(t)
	T.TestList(t)

	if T.Reopen != nil {
		T.TestPersistence(t)
	}
}

func (T *StoreTests) TestGet(t *testing.T) {
	t.Run("Get succeeds", func(t *testing.T) {
		// Arrange
		seed := map[string]string{
			"db/0.json": "zero", "db/1.json": "one",
			"db/p/0.json": "p-zero",
		}
		store := StartStore(t, T.Open, seed)
		defer closeStore(t, store)

		// Act
		v, err := store.Get("db/p/0.json")
		if err != nil {
			t.Errorf("Expected no error, but got %v", err)
		}

		// Assert
		if string(v) != "p-zero" {
			t.Errorf("Expected value to be p-zero, but got %s", v)
		}
	})

	t.Run("Get non-existing blob", func(t *testing.T) {
		// Arrange
		store := StartStore(t, T.Open, nil)
		defer closeStore(t, store)

		// Act
		v, err := store.Get("db/0.json")

		// Assert
		if !errors.Is(err, baselet.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, but got %v", err)
		}
		if v != nil {
			t.Errorf("Expected value to be nil, but got %v", v)
		}
	})

	t.Run("Get returns a copy", func(t *testing.T) {
		// Arrange
		store := StartStore(t, T.Open, map[string]string{"db/0.json": "abc"})
		defer closeStore(t, store)

		// Act
		v, err := store.Get("db/0.json")
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		v[0] = 'x'

		// Assert
		checkStore(t, store, map[string]string{"db/0.json": "abc"})
	})
}

func (T *StoreTests) TestSet(t *testing.T) {
	t.Run("Set existing blob", func(t *testing.T) {
		// Arrange
		seed := map[string]string{"db/0.json": "zero", "db/1.json": "one"}
		store := StartStore(t, T.Open, seed)
		defer closeStore(t, store)

		// Act
		if err := store.Set("db/1.json", []byte("uno")); err != nil {
			t.Errorf("Expected no error, but got %v", err)
		}

		// Assert
		seed["db/1.json"] = "uno"
		checkStore(t, store, seed)
	})

	t.Run("Set empty blob", func(t *testing.T) {
		// Arrange
		store := StartStore(t, T.Open, nil)
		defer closeStore(t, store)

		// Act
		if err := store.Set("db/0.json", []byte{}); err != nil {
			t.Errorf("Expected no error, but got %v", err)
		}

		// Assert
		v, err := store.Get("db/0.json")
		if err != nil || len(v) != 0 {
			t.Errorf("Expected an empty blob, but got (%v, %v)", v, err)
		}
	})

	t.Run("Set many", func(t *testing.T) {
		// Arrange
		seed := make(map[string]string)
		for i := 0; i < 100; i++ {
			path := "db/p" + strconv.Itoa(i%4) + "/" + strconv.Itoa(i) + ".json"
			seed[path] = "value-" + strconv.Itoa(i)
		}

		// Act
		store := StartStore(t, T.Open, seed)
		defer closeStore(t, store)

		// Assert
		checkStore(t, store, seed)
	})

	t.Run("Set concurrent", func(t *testing.T) {
		// Arrange
		seed := make(map[string]string)
		for i := 0; i < 100; i++ {
			seed["db/"+strconv.Itoa(i)+".json"] = "value-" + strconv.Itoa(i)
		}
		store := StartStore(t, T.Open, nil)
		defer closeStore(t, store)

		// Act
		var wg sync.WaitGroup
		for k, v := range seed {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := store.Set(k, []byte(v)); err != nil {
					t.Errorf("Expected no error, but got %v", err)
				}
			}()
		}
		wg.Wait()

		// Assert
		checkStore(t, store, seed)
	})

	t.Run("Set keeps its own copy", func(t *testing.T) {
		// Arrange
		store := StartStore(t, T.Open, nil)
		defer closeStore(t, store)
		data := []byte("abc")

		// Act
		if err := store.Set("db/0.json", data); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		data[0] = 'x'

		// Assert
		checkStore(t, store, map[string]string{"db/0.json": "abc"})
	})
}

func (T *StoreTests) TestDelete(t *testing.T) {
	t.Run("Delete succeeds", func(t *testing.T) {
		// Arrange
		seed := map[string]string{"db/0.json": "zero", "db/1.json": "one"}
		store := StartStore(t, T.Open, seed)
		defer closeStore(t, store)

		// Act
		if err := store.Delete("db/0.json"); err != nil {
			t.Errorf("Expected no error, but got %v", err)
		}

		// Assert
		if _, err := store.Get("db/0.json"); !errors.Is(err, baselet.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, but got %v", err)
		}
		delete(seed, "db/0.json")
		checkStore(t, store, seed)
	})

	t.Run("Delete non-existing blob", func(t *testing.T) {
		// Arrange
		seed := map[string]string{"db/0.json": "zero"}
		store := StartStore(t, T.Open, seed)
		defer closeStore(t, store)

		// Act
		if err := store.Delete("db/9.json"); err != nil {
			t.Errorf("Expected no error, but got %v", err)
		}
		if err := store.Delete("other/9.json"); err != nil {
			t.Errorf("Expected no error, but got %v", err)
		}

		// Assert
		checkStore(t, store, seed)
	})
}

func (T *StoreTests) TestList(t *testing.T) {
	seed := map[string]string{
		"db/config.json": "{}",
		"db/0.json":      "zero",
		"db/-1.json":     "minus-one",
		"db/p/1.json":    "p-one",
		"db/p/q/2.json":  "q-two",
		"dbx/0.json":     "x-zero",
		"top.json":       "top",
	}

	tests := []struct {
		name     string
		dir      string
		expected map[string]baselet.EntryKind
	}{
		{
			name: "Database folder",
			dir:  "db",
			expected: map[string]baselet.EntryKind{
				"db/config.json": baselet.File,
				"db/0.json":      baselet.File,
				"db/-1.json":     baselet.File,
				"db/p":           baselet.Folder,
			},
		},
		{
			name: "Root",
			dir:  "",
			expected: map[string]baselet.EntryKind{
				"db":       baselet.Folder,
				"dbx":      baselet.Folder,
				"top.json": baselet.File,
			},
		},
		{
			name: "Nested folder",
			dir:  "db/p",
			expected: map[string]baselet.EntryKind{
				"db/p/1.json": baselet.File,
				"db/p/q":      baselet.Folder,
			},
		},
		{
			name:     "Missing folder",
			dir:      "missing",
			expected: map[string]baselet.EntryKind{},
		},
	}

	for _, test := range tests {
		t.Run("List "+test.name, func(t *testing.T) {
			// Arrange
			store := StartStore(t, T.Open, seed)
			defer closeStore(t, store)

			// Act
			entries, err := store.List(test.dir)
			if err != nil {
				t.Errorf("Expected no error, but got %v", err)
			}

			// Assert
			if len(entries) != len(test.expected) {
				t.Errorf("Expected len to be %v, but got %v",
					len(test.expected), len(entries))
			}
			if !reflect.DeepEqual(entries, test.expected) {
				t.Errorf("Expected %v, but got %v", test.expected, entries)
			}
		})
	}

	t.Run("List after deleting a folder", func(t *testing.T) {
		// Arrange
		store := StartStore(t, T.Open, seed)
		defer closeStore(t, store)

		// Act
		for _, path := range []string{"db/p/1.json", "db/p/q/2.json"} {
			if err := store.Delete(path); err != nil {
				t.Fatalf("Expected no error, but got %v", err)
			}
		}
		entries, err := store.List("db")
		if err != nil {
			t.Errorf("Expected no error, but got %v", err)
		}

		// Assert
		if _, ok := entries["db/p"]; ok {
			t.Errorf("Expected db/p to be gone, but got %v", entries)
		}
	})
}

func (T *StoreTests) TestPersistence(t *testing.T) {
	t.Run("Reopen", func(t *testing.T) {
		seed := map[string]string{
			"db/config.json": "{}", "db/0.json": "zero",
			"db/p/0.json": "p-zero",
		}
		store := StartStore(t, T.Open, seed)

		T.CheckInitialization(t, store)

		// Reopen and verify
		closeStore(t, store)
		store, err := T.Reopen()
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		defer closeStore(t, store)

		T.CheckInitialization(t, store)
		checkStore(t, store, seed)
	})
}

// Test Suite - Helpers

// StartStore opens a store and seeds it with blobs.
func StartStore(t testing.TB, open OpenFunc, seed map[string]string) TStore {
	t.Helper()
	store, err := open()
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}

	for k, v := range seed {
		if err = store.Set(k, []byte(v)); err != nil {
			t.Errorf("Expected no error, but got %v", err)
		}
	}
	return store
}

func checkStore(t testing.TB, store TStore, expected map[string]string) {
	t.Helper()
	for k, v := range expected {
		got, err := store.Get(k)
		if err != nil {
			t.Errorf("Expected no error, but got %v", err)
		}
		if string(got) != v {
			t.Errorf("Expected value to be %v, but got %s", v, got)
		}
	}
}

func closeStore(t testing.TB, store TStore) {
	t.Helper()
	c, ok := store.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close store failed: %v", err)
	}
}
