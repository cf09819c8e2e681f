package baselet

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// A HashBase stores values keyed by hash strings. Each partition is sharded
// by the first prefixSize characters of the hash: all hashes sharing a
// prefix live in the same bucket, a map from hash to value.
//
// A HashBase keeps no per-partition state. Its buckets are discovered by
// listing the store.
type HashBase[V any] struct {
	name   string
	store  Store
	io     bucketIO
	config HashConfig
}

// HashDump is the export of a HashBase partition. Data maps each
// sub-partition ("" for the dumped partition itself) to its hashes.
type HashDump[V any] struct {
	Config HashConfig              `json:"config"`
	Data   map[string]map[string]V `json:"data"`
}

// CreateHashBase creates a new HashBase and returns it opened. It fails if
// the database already exists.
func CreateHashBase[V any](
	store Store,
	name string,
	prefixSize int,
	opts ...Option,
) (*HashBase[V], error) {
	if prefixSize <= 0 {
		return nil, ErrInvalidPrefixSize
	}
	if err := prepareCreate(store, name); err != nil {
		return nil, err
	}
	config := HashConfig{Type: HashBaseType, PrefixSize: prefixSize}
	if err := writeDescriptor(store, name, &config); err != nil {
		return nil, err
	}
	return OpenHashBase[V](store, name, opts...)
}

// OpenHashBase opens an existing HashBase.
func OpenHashBase[V any](store Store, name string, opts ...Option) (
	*HashBase[V],
	error,
) {
	var config HashConfig
	if err := openDescriptor(store, name, HashBaseType, &config); err != nil {
		return nil, err
	}
	if config.PrefixSize <= 0 {
		return nil, fmt.Errorf("open %s: %w", name, ErrInvalidPrefixSize)
	}
	return &HashBase[V]{
		name:   name,
		store:  store,
		io:     newBucketIO(store, name, makeOptions(opts)),
		config: config,
	}, nil
}

// CreateOrOpenHashBase opens the HashBase called name, creating it first if
// it does not exist yet.
func CreateOrOpenHashBase[V any](
	store Store,
	name string,
	prefixSize int,
	opts ...Option,
) (*HashBase[V], error) {
	return createOrOpen(
		func() (*HashBase[V], error) {
			return CreateHashBase[V](store, name, prefixSize, opts...)
		},
		func() (*HashBase[V], error) {
			return OpenHashBase[V](store, name, opts...)
		},
	)
}

// Name returns the database name.
func (h *HashBase[V]) Name() string { return h.name }

// Type returns HashBaseType.
func (h *HashBase[V]) Type() BaseType { return HashBaseType }

// Config returns a copy of the database descriptor.
func (h *HashBase[V]) Config() (HashConfig, error) { return snapshot(&h.config) }

// PrefixSize returns the number of leading hash characters that name a
// bucket.
func (h *HashBase[V]) PrefixSize() int { return h.config.PrefixSize }

// Insert stores value under hash, replacing any previous value.
func (h *HashBase[V]) Insert(partition, hash string, value V) error {
	if err := checkPartition(partition); err != nil {
		return err
	}
	prefix, err := h.prefix(partition, hash)
	if err != nil {
		return err
	}
	path := h.io.path(partition, prefix)
	bucket := make(map[string]V)
	if _, err = h.io.load(path, &bucket); err != nil {
		return err
	}
	if bucket == nil {
		bucket = make(map[string]V)
	}
	bucket[hash] = value
	return h.io.save(path, bucket, false)
}

// Query returns, for each hash in order, its stored value or nil. Hashes
// shorter than the prefix size yield nil. Each bucket is fetched once, in
// parallel with the others.
func (h *HashBase[V]) Query(partition string, hashes []string) ([]*V, error) {
	if err := checkPartition(partition); err != nil {
		return nil, err
	}
	buckets, err := h.fetch(partition, hashes)
	if err != nil {
		return nil, err
	}
	out := make([]*V, len(hashes))
	for i, hash := range hashes {
		prefix, ok := h.prefixOf(hash)
		if !ok {
			continue
		}
		if v, ok := buckets[prefix][hash]; ok {
			out[i] = &v
		}
	}
	return out, nil
}

// Delete removes the given hashes and returns their previous values, or nil
// for hashes that were not found. Every touched bucket is written once,
// after all removals, and its blob is deleted if the bucket becomes empty.
func (h *HashBase[V]) Delete(partition string, hashes []string) ([]*V, error) {
	if err := checkPartition(partition); err != nil {
		return nil, err
	}
	buckets, err := h.fetch(partition, hashes)
	if err != nil {
		return nil, err
	}
	out := make([]*V, len(hashes))
	touched := make(map[string]bool)
	for i, hash := range hashes {
		prefix, ok := h.prefixOf(hash)
		if !ok {
			continue
		}
		v, ok := buckets[prefix][hash]
		if !ok {
			continue
		}
		out[i] = &v
		delete(buckets[prefix], hash)
		touched[prefix] = true
	}

	prefixes := make([]string, 0, len(touched))
	for prefix := range touched {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	for _, prefix := range prefixes {
		bucket := buckets[prefix]
		err = h.io.save(h.io.path(partition, prefix), bucket, len(bucket) == 0)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Dump exports the descriptor and every value stored in a partition. One
// level of sub-folders is exported as nested partitions.
func (h *HashBase[V]) Dump(partition string) (*HashDump[V], error) {
	if err := checkPartition(partition); err != nil {
		return nil, err
	}
	config, err := snapshot(&h.config)
	if err != nil {
		return nil, err
	}
	dump := &HashDump[V]{Config: config, Data: make(map[string]map[string]V)}

	root := partitionPath(h.name, partition)
	entries, err := h.store.List(root)
	if err != nil {
		return nil, fmt.Errorf("list partition: %w", err)
	}
	for path, kind := range entries {
		switch kind {
		case File:
			if err = h.dumpBucket(dump, "", path); err != nil {
				return nil, err
			}
		case Folder:
			sub := strings.TrimPrefix(path, ListPrefix(root))
			children, err := h.store.List(path)
			if err != nil {
				return nil, fmt.Errorf("list partition %s: %w", sub, err)
			}
			for child, kind := range children {
				if kind != File {
					continue
				}
				if err = h.dumpBucket(dump, sub, child); err != nil {
					return nil, err
				}
			}
		}
	}
	return dump, nil
}

func (h *HashBase[V]) dumpBucket(dump *HashDump[V], sub, path string) error {
	if _, ok := bucketName(path, h.io.ext); !ok {
		return nil
	}
	if sub == "" && path == descriptorPath(h.name) {
		return nil
	}
	var bucket map[string]V
	if _, err := h.io.load(path, &bucket); err != nil {
		return err
	}
	if len(bucket) == 0 {
		return nil
	}
	data := dump.Data[sub]
	if data == nil {
		data = make(map[string]V, len(bucket))
		dump.Data[sub] = data
	}
	for k, v := range bucket {
		data[k] = v
	}
	return nil
}

// fetch loads, in parallel, the buckets addressed by hashes. Each distinct
// prefix is fetched once. Missing buckets are returned as empty maps.
func (h *HashBase[V]) fetch(partition string, hashes []string) (
	map[string]map[string]V,
	error,
) {
	var prefixes []string
	seen := make(map[string]bool)
	for _, hash := range hashes {
		prefix, ok := h.prefixOf(hash)
		if !ok || seen[prefix] {
			continue
		}
		seen[prefix] = true
		prefixes = append(prefixes, prefix)
	}

	paths := make([]string, len(prefixes))
	for i, prefix := range prefixes {
		paths[i] = h.io.path(partition, prefix)
	}
	loaded, err := fetchAll[map[string]V](&h.io, paths)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]map[string]V, len(prefixes))
	for i, prefix := range prefixes {
		bucket := loaded[i]
		if bucket == nil {
			bucket = make(map[string]V)
		}
		buckets[prefix] = bucket
	}
	h.io.logger.Debug("buckets fetched",
		zap.String("partition", partition), zap.Int("buckets", len(paths)))
	return buckets, nil
}

// prefix returns the bucket name of a hash that is about to be written.
func (h *HashBase[V]) prefix(partition, hash string) (string, error) {
	prefix, ok := h.prefixOf(hash)
	if !ok {
		return "", fmt.Errorf("%w: hash %q is shorter than prefix size %d",
			ErrInvalidHash, hash, h.config.PrefixSize)
	}
	if err := checkPrefix(partition, prefix); err != nil {
		return "", err
	}
	return prefix, nil
}

// checkPrefix reports whether prefix can name a bucket blob of partition.
func checkPrefix(partition, prefix string) error {
	if strings.ContainsAny(prefix, `/\`) || strings.HasPrefix(prefix, ".") {
		return fmt.Errorf("%w: prefix %q cannot name a bucket",
			ErrInvalidHash, prefix)
	}
	if partition == "" && prefix == descriptorName {
		return fmt.Errorf("%w: prefix %q is reserved", ErrInvalidHash, prefix)
	}
	return nil
}

func (h *HashBase[V]) prefixOf(hash string) (string, bool) {
	if len(hash) < h.config.PrefixSize {
		return "", false
	}
	return hash[:h.config.PrefixSize], true
}
