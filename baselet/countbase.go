package baselet

import "fmt"

// maxUnwrittenSlots bounds the nil slots past the length of a partition that
// a single query returns.
const maxUnwrittenSlots = 1 << 16

// A CountBase stores values at contiguous, non-negative integer indices.
// Each partition is sharded into buckets of a fixed size, so the value at
// index i lives in bucket i/bucketSize, at slot i%bucketSize.
//
// A CountBase is not safe for concurrent use. Callers must serialize the
// mutations of a partition.
type CountBase[V any] struct {
	name   string
	store  Store
	io     bucketIO
	config CountConfig
}

// CountDump is the export of a CountBase partition.
type CountDump[V any] struct {
	Config CountConfig `json:"config"`
	Data   []*V        `json:"data"`
}

// CreateCountBase creates a new CountBase and returns it opened. It fails
// if the database already exists.
func CreateCountBase[V any](
	store Store,
	name string,
	bucketSize int,
	opts ...Option,
) (*CountBase[V], error) {
	if bucketSize <= 0 {
		return nil, ErrInvalidBucketSize
	}
	if err := prepareCreate(store, name); err != nil {
		return nil, err
	}
	config := CountConfig{
		Type:       CountBaseType,
		BucketSize: bucketSize,
		Partitions: map[string]CountPartition{"": {Length: 0}},
	}
	if err := writeDescriptor(store, name, &config); err != nil {
		return nil, err
	}
	return OpenCountBase[V](store, name, opts...)
}

// OpenCountBase opens an existing CountBase.
func OpenCountBase[V any](store Store, name string, opts ...Option) (
	*CountBase[V],
	error,
) {
	var config CountConfig
	if err := openDescriptor(store, name, CountBaseType, &config); err != nil {
		return nil, err
	}
	if config.BucketSize <= 0 {
		return nil, fmt.Errorf("open %s: %w", name, ErrInvalidBucketSize)
	}
	if config.Partitions == nil {
		config.Partitions = make(map[string]CountPartition)
	}
	return &CountBase[V]{
		name:   name,
		store:  store,
		io:     newBucketIO(store, name, makeOptions(opts)),
		config: config,
	}, nil
}

// CreateOrOpenCountBase opens the CountBase called name, creating it first
// if it does not exist yet.
func CreateOrOpenCountBase[V any](
	store Store,
	name string,
	bucketSize int,
	opts ...Option,
) (*CountBase[V], error) {
	return createOrOpen(
		func() (*CountBase[V], error) {
			return CreateCountBase[V](store, name, bucketSize, opts...)
		},
		func() (*CountBase[V], error) {
			return OpenCountBase[V](store, name, opts...)
		},
	)
}

// Name returns the database name.
func (c *CountBase[V]) Name() string { return c.name }

// Type returns CountBaseType.
func (c *CountBase[V]) Type() BaseType { return CountBaseType }

// Config returns a copy of the database descriptor.
func (c *CountBase[V]) Config() (CountConfig, error) { return snapshot(&c.config) }

// Insert writes value at index. The index must be in [0, Length]: inserting
// at Length appends and grows the partition by one, a smaller index
// overwrites an existing value.
func (c *CountBase[V]) Insert(partition string, index int, value V) error {
	if err := checkPartition(partition); err != nil {
		return err
	}
	meta := c.config.Partitions[partition]
	if index < 0 {
		return fmt.Errorf("%w: index must be a number greater than or "+
			"equal to 0, got %d", ErrInvalidIndex, index)
	}
	if index > meta.Length {
		return fmt.Errorf("%w: index %d is larger than next index %d in "+
			"partition", ErrInvalidIndex, index, meta.Length)
	}

	bucketSize := c.config.BucketSize
	path := c.io.path(partition, formatBucket(int64(index/bucketSize)))
	var bucket []V
	if _, err := c.io.load(path, &bucket); err != nil {
		return err
	}
	slot := index % bucketSize
	if slot >= len(bucket) {
		bucket = append(bucket, make([]V, slot-len(bucket)+1)...)
	}
	bucket[slot] = value
	if err := c.io.save(path, bucket, false); err != nil {
		return err
	}

	if index == meta.Length {
		meta.Length++
		c.config.Partitions[partition] = meta
	}
	return c.saveConfig()
}

// Query returns one slot per index in [start, end], in order. Slots that
// were never written are nil. Ranges reaching more than maxUnwrittenSlots
// past the length of the partition fail with ErrInvalidRange.
func (c *CountBase[V]) Query(partition string, start, end int) ([]*V, error) {
	if err := checkPartition(partition); err != nil {
		return nil, err
	}
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrInvalidRange, start, end)
	}
	length := c.Length(partition)
	if tail := max(start, length); end >= tail && end-tail >= maxUnwrittenSlots {
		return nil, fmt.Errorf("%w: [%d, %d] reaches past length %d",
			ErrInvalidRange, start, end, length)
	}

	n := end - start + 1
	out := make([]*V, 0, n)
	stop := min(end, length-1)
	if stop >= start {
		bucketSize := c.config.BucketSize
		first, last := start/bucketSize, stop/bucketSize
		paths := make([]string, 0, last-first+1)
		for b := first; b <= last; b++ {
			paths = append(paths, c.io.path(partition, formatBucket(int64(b))))
		}
		buckets, err := fetchAll[[]V](&c.io, paths)
		if err != nil {
			return nil, err
		}
		for i := start; i <= stop; i++ {
			bucket := buckets[i/bucketSize-first]
			slot := i % bucketSize
			if slot >= len(bucket) {
				out = append(out, nil)
				continue
			}
			out = append(out, &bucket[slot])
		}
	}
	for len(out) < n {
		out = append(out, nil)
	}
	return out, nil
}

// Get returns the value stored at index.
func (c *CountBase[V]) Get(partition string, index int) (value V, ok bool, err error) {
	values, err := c.Query(partition, index, index)
	if err != nil {
		return value, false, err
	}
	if values[0] == nil {
		return value, false, nil
	}
	return *values[0], true, nil
}

// Length returns the next free index of a partition, or 0 if the partition
// was never written.
func (c *CountBase[V]) Length(partition string) int {
	return c.config.Partitions[partition].Length
}

// Dump exports the descriptor and every value of a partition.
func (c *CountBase[V]) Dump(partition string) (*CountDump[V], error) {
	if err := checkPartition(partition); err != nil {
		return nil, err
	}
	config, err := snapshot(&c.config)
	if err != nil {
		return nil, err
	}
	dump := &CountDump[V]{Config: config, Data: []*V{}}
	if n := c.Length(partition); n > 0 {
		dump.Data, err = c.Query(partition, 0, n-1)
		if err != nil {
			return nil, err
		}
	}
	return dump, nil
}

func (c *CountBase[V]) saveConfig() error {
	if err := writeDescriptor(c.store, c.name, &c.config); err != nil {
		return err
	}
	c.io.logger.Debug("descriptor written")
	return nil
}
