package baselet

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/tiendc/go-deepcopy"
)

// BaseType is the type tag stored in a database descriptor.
type BaseType string

const (
	CountBaseType BaseType = "COUNT_BASE"
	HashBaseType  BaseType = "HASH_BASE"
	RangeBaseType BaseType = "RANGE_BASE"
)

// CountConfig is the descriptor of a CountBase.
type CountConfig struct {
	Type       BaseType                  `json:"type"`
	BucketSize int                       `json:"bucketSize"`
	Partitions map[string]CountPartition `json:"partitions"`
}

// CountPartition holds the metadata of a CountBase partition.
type CountPartition struct {
	// Length is the next free index of the partition.
	Length int `json:"length"`
}

// HashConfig is the descriptor of a HashBase.
type HashConfig struct {
	Type       BaseType `json:"type"`
	PrefixSize int      `json:"prefixSize"`
}

// RangeConfig is the descriptor of a RangeBase.
type RangeConfig struct {
	Type           BaseType               `json:"type"`
	BucketSize     int                    `json:"bucketSize"`
	RangeKey       string                 `json:"rangeKey"`
	IDKey          string                 `json:"idKey"`
	IDPrefixLength int                    `json:"idPrefixLength"`
	Limits         map[string]RangeLimits `json:"limits"`
	Sizes          map[string]int         `json:"sizes"`
}

// RangeLimits holds the smallest and largest range values of a partition.
// Both are nil when the partition is empty.
type RangeLimits struct {
	MinRange *float64 `json:"minRange,omitempty"`
	MaxRange *float64 `json:"maxRange,omitempty"`
}

// descriptorHeader decodes only the type tag of any descriptor.
type descriptorHeader struct {
	Type BaseType `json:"type"`
}

func readDescriptor(store Store, database string, v any) error {
	data, err := store.Get(descriptorPath(database))
	if isNotFound(err) {
		return fmt.Errorf("%w: %s", ErrDatabaseNotFound, database)
	}
	if err != nil {
		return fmt.Errorf("read descriptor: %w", err)
	}
	return decodeDescriptor(data, v)
}

func decodeDescriptor(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode descriptor: %w", err)
	}
	return nil
}

func writeDescriptor(store Store, database string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode descriptor: %w", err)
	}
	if err = store.Set(descriptorPath(database), data); err != nil {
		return fmt.Errorf("write descriptor: %w", err)
	}
	return nil
}

// ReadType returns the type tag of an existing database.
func ReadType(store Store, database string) (BaseType, error) {
	if err := checkDatabaseName(database); err != nil {
		return "", err
	}
	var h descriptorHeader
	if err := readDescriptor(store, database, &h); err != nil {
		return "", err
	}
	return h.Type, nil
}

// databaseExists reports whether a descriptor is stored for database.
func databaseExists(store Store, database string) (bool, error) {
	_, err := store.Get(descriptorPath(database))
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read descriptor: %w", err)
	}
	return true, nil
}

// prepareCreate validates a database name and fails if it is taken.
func prepareCreate(store Store, database string) error {
	if err := checkDatabaseName(database); err != nil {
		return err
	}
	exists, err := databaseExists(store, database)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDatabaseExists, database)
	}
	return nil
}

// openDescriptor reads the descriptor of database into v and checks that its
// type tag is want.
func openDescriptor(store Store, database string, want BaseType, v any) error {
	if err := checkDatabaseName(database); err != nil {
		return err
	}
	data, err := store.Get(descriptorPath(database))
	if isNotFound(err) {
		return fmt.Errorf("%w: %s", ErrDatabaseNotFound, database)
	}
	if err != nil {
		return fmt.Errorf("read descriptor: %w", err)
	}
	var h descriptorHeader
	if err = decodeDescriptor(data, &h); err != nil {
		return err
	}
	if h.Type != want {
		return fmt.Errorf("%w: tried to open %s, but type is %s",
			ErrTypeMismatch, want, h.Type)
	}
	return decodeDescriptor(data, v)
}

// snapshot returns a deep copy of a descriptor, so callers of Dump cannot
// mutate the state of an open handle.
func snapshot[T any](config *T) (T, error) {
	var out T
	if err := deepcopy.Copy(&out, *config); err != nil {
		return out, fmt.Errorf("copy descriptor: %w", err)
	}
	return out, nil
}
