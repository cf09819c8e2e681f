package baselet_test

import (
	"testing"

	"github.com/lucmq/go-baselet/baselet"
	storetest "github.com/lucmq/go-baselet/driver/test"
)

func TestMemoryStore(t *testing.T) {
	open := func() (storetest.TStore, error) {
		return baselet.NewMemoryStore(), nil
	}
	tests := storetest.NewStoreTests(open, nil)
	tests.CheckInitialization = func(t *testing.T, store storetest.TStore) {
		if store.(*baselet.MemoryStore).Len() != 0 {
			t.Errorf("Expected a new store to be empty")
		}
	}
	tests.TestAll(t)
}

func TestMemoryStore_Len(t *testing.T) {
	store := baselet.NewMemoryStore()
	for _, path := range []string{"db/0.json", "db/1.json", "db/0.json"} {
		if err := store.Set(path, []byte("v")); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
	}
	if store.Len() != 2 {
		t.Errorf("Expected len to be 2, but got %d", store.Len())
	}
	_ = store.Delete("db/0.json")
	if store.Len() != 1 {
		t.Errorf("Expected len to be 1, but got %d", store.Len())
	}
}
