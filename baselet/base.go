package baselet

import (
	"errors"
	"fmt"
)

// Base is the behavior shared by every database type.
type Base interface {
	Name() string
	Type() BaseType
}

// Assert the database types implement Base
var (
	_ Base = (*CountBase[any])(nil)
	_ Base = (*HashBase[any])(nil)
	_ Base = (*RangeBase[Doc])(nil)
)

// OpenBase opens an existing database of any type. The type is read from the
// descriptor, and the database is opened with schemaless values: a
// *CountBase[any], a *HashBase[any] or a *RangeBase[Doc].
func OpenBase(store Store, name string, opts ...Option) (Base, error) {
	typ, err := ReadType(store, name)
	if err != nil {
		return nil, err
	}
	switch typ {
	case CountBaseType:
		return OpenCountBase[any](store, name, opts...)
	case HashBaseType:
		return OpenHashBase[any](store, name, opts...)
	case RangeBaseType:
		return OpenRangeBase[Doc](store, name, opts...)
	default:
		return nil, fmt.Errorf("%w: unknown database type %q", ErrTypeMismatch, typ)
	}
}

func createOrOpen[T any](create, open func() (T, error)) (T, error) {
	db, err := create()
	if errors.Is(err, ErrDatabaseExists) {
		return open()
	}
	return db, err
}
