package baselet

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// bucketIO reads and writes the buckets of one database.
type bucketIO struct {
	store            Store
	database         string
	codec            Codec
	ext              string
	logger           *zap.Logger
	fetchConcurrency int
}

func newBucketIO(store Store, database string, o options) bucketIO {
	return bucketIO{
		store:            store,
		database:         database,
		codec:            o.codec,
		ext:              codecExtension(o.codec),
		logger:           o.logger.With(zap.String("database", database)),
		fetchConcurrency: o.fetchConcurrency,
	}
}

func (b *bucketIO) path(partition, bucket string) string {
	return bucketPath(b.database, partition, bucket, b.ext)
}

// load decodes the bucket at path into v. A bucket that was never written is
// not an error: ok is false and v is left untouched.
func (b *bucketIO) load(path string, v any) (ok bool, err error) {
	data, err := b.store.Get(path)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read bucket: %w", err)
	}
	if err = b.codec.Decode(data, v); err != nil {
		return false, fmt.Errorf("decode bucket %s: %w", path, err)
	}
	return true, nil
}

// save writes a bucket, or deletes its blob when the bucket is empty.
func (b *bucketIO) save(path string, v any, empty bool) error {
	if empty {
		if err := b.store.Delete(path); err != nil {
			return fmt.Errorf("delete bucket: %w", err)
		}
		b.logger.Debug("bucket deleted", zap.String("path", path))
		return nil
	}
	data, err := b.codec.Encode(v)
	if err != nil {
		return fmt.Errorf("encode bucket %s: %w", path, err)
	}
	if err = b.store.Set(path, data); err != nil {
		return fmt.Errorf("write bucket: %w", err)
	}
	b.logger.Debug("bucket written",
		zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

// listBuckets returns the ids of the buckets stored directly in a partition
// folder. Sub-folders and blobs without the bucket extension (such as the
// descriptor) are skipped.
func (b *bucketIO) listBuckets(partition string) ([]string, error) {
	entries, err := b.store.List(partitionPath(b.database, partition))
	if err != nil {
		return nil, fmt.Errorf("list partition: %w", err)
	}
	var names []string
	for path, kind := range entries {
		if kind != File {
			continue
		}
		name, ok := bucketName(path, b.ext)
		if !ok || name == descriptorName {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// listBucketNumbers returns the numeric bucket ids of a partition, sorted
// ascending.
func (b *bucketIO) listBucketNumbers(partition string) ([]int64, error) {
	names, err := b.listBuckets(partition)
	if err != nil {
		return nil, err
	}
	numbers := make([]int64, 0, len(names))
	for _, name := range names {
		n, err := strconv.ParseInt(name, 10, 64)
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	return numbers, nil
}

// fetchAll loads every path in parallel and returns the results in the same
// order. Missing buckets yield their zero value.
func fetchAll[T any](b *bucketIO, paths []string) ([]T, error) {
	out := make([]T, len(paths))
	var g errgroup.Group
	if b.fetchConcurrency > 0 {
		g.SetLimit(b.fetchConcurrency)
	}
	for i, path := range paths {
		g.Go(func() error {
			_, err := b.load(path, &out[i])
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// bucketNumber returns the bucket holding value. Values whose bucket is
// out of the int64 range, infinities included, are clamped to its bounds.
func bucketNumber(value float64, bucketSize int) int64 {
	n, ok := bucketOf(value, bucketSize)
	if ok {
		return n
	}
	if value > 0 {
		return math.MaxInt64
	}
	return math.MinInt64
}

// bucketOf returns the bucket holding value, or false when the bucket number
// cannot be represented.
func bucketOf(value float64, bucketSize int) (int64, bool) {
	n := math.Floor(value / float64(bucketSize))
	if math.IsNaN(n) || n < math.MinInt64 || n >= math.MaxInt64 {
		return 0, false
	}
	return int64(n), true
}

func formatBucket(n int64) string {
	return strconv.FormatInt(n, 10)
}
