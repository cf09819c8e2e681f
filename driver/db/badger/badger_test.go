package badgerd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v3"

	"github.com/lucmq/go-baselet/baselet"
	storetest "github.com/lucmq/go-baselet/driver/test"
)

var dbPath = filepath.Join(os.TempDir(), "baselet-badger-test")

func OpenTestStore() (storetest.TStore, error) {
	// Clean-up the database directory
	err := os.RemoveAll(dbPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return NewDefault(dbPath)
}

func ReopenTestStore() (storetest.TStore, error) {
	return NewDefault(dbPath)
}

func TestStore(t *testing.T) {
	tests := storetest.NewStoreTests(OpenTestStore, ReopenTestStore)
	tests.TestAll(t)
}

func TestStore_InMemory(t *testing.T) {
	open := func() (storetest.TStore, error) { return NewInMemory() }
	tests := storetest.NewStoreTests(open, nil)
	tests.TestAll(t)
}

func TestNewDefault(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		s, err := NewDefault("")
		if err == nil {
			t.Errorf("expected error")
		}
		if s != nil {
			defer s.Close()
		}
	})
}

func TestStore_EmptyPath(t *testing.T) {
	s, err := NewInMemory()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer s.Close()

	t.Run("Get", func(t *testing.T) {
		_, err := s.Get("")
		if err == nil || errors.Is(err, baselet.ErrNotFound) {
			t.Fatalf("expected a key error, got %v", err)
		}
	})

	t.Run("Set", func(t *testing.T) {
		if err := s.Set("", []byte{}); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := s.Delete(""); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestStore_Get_CopyError(t *testing.T) {
	s, err := NewInMemory()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer s.Close()

	// Replace the copy function to return an error
	s.valueCopy = func(item *badger.Item, dst []byte) ([]byte, error) {
		return nil, storetest.TestError
	}

	if err = s.Set("db/0.json", []byte("value")); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	_, err = s.Get("db/0.json")
	if !errors.Is(err, storetest.TestError) {
		t.Errorf("Expected %v, but got %v", storetest.TestError, err)
	}
}
