package baselet

import "errors"

// TestError is returned by mocks that simulate a failure.
var TestError = errors.New("test error")

// MockStore is a mock implementation of the Store interface. Methods without
// a Func fall back to an in-memory store.
type MockStore struct {
	GetFunc    func(path string) ([]byte, error)
	SetFunc    func(path string, data []byte) error
	DeleteFunc func(path string) error
	ListFunc   func(dir string) (map[string]EntryKind, error)

	mem *MemoryStore
}

// Assert that MockStore implements the Store interface.
var _ Store = (*MockStore)(nil)

// NewMockStore creates a MockStore backed by an empty MemoryStore.
func NewMockStore() *MockStore {
	return &MockStore{mem: NewMemoryStore()}
}

// Get mocks the Get method of the Store interface.
func (m *MockStore) Get(path string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(path)
	}
	return m.mem.Get(path)
}

// Set mocks the Set method of the Store interface.
func (m *MockStore) Set(path string, data []byte) error {
	if m.SetFunc != nil {
		return m.SetFunc(path, data)
	}
	return m.mem.Set(path, data)
}

// Delete mocks the Delete method of the Store interface.
func (m *MockStore) Delete(path string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(path)
	}
	return m.mem.Delete(path)
}

// List mocks the List method of the Store interface.
func (m *MockStore) List(dir string) (map[string]EntryKind, error) {
	if m.ListFunc != nil {
		return m.ListFunc(dir)
	}
	return m.mem.List(dir)
}

// MockCodec is a mock implementation of the Codec interface.
type MockCodec struct {
	EncodeFunc func(value any) ([]byte, error)
	DecodeFunc func(data []byte, value any) error
}

// Assert that MockCodec implements the Codec interface.
var _ Codec = (*MockCodec)(nil)

// Encode mocks the Encode method of the Codec interface.
func (m *MockCodec) Encode(value any) ([]byte, error) {
	if m.EncodeFunc != nil {
		return m.EncodeFunc(value)
	}
	return JSONCodec().Encode(value)
}

// Decode mocks the Decode method of the Codec interface.
func (m *MockCodec) Decode(data []byte, value any) error {
	if m.DecodeFunc != nil {
		return m.DecodeFunc(data, value)
	}
	return JSONCodec().Decode(data, value)
}
