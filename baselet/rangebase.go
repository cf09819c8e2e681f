package baselet

import (
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"
)

// maxDenseSpan is the widest bucket span a range query reads bucket by
// bucket. Wider spans list the partition and fetch only existing buckets.
const maxDenseSpan = 256

// IDDatabaseSuffix is appended to the name of a RangeBase to name the
// HashBase that indexes its ids.
const IDDatabaseSuffix = "_ids"

// A RangeBase stores records sorted by a numeric range field, unique by a
// string id field. Each partition is sharded into buckets covering
// bucketSize consecutive range values; every bucket is sorted by
// (range, id), so the buckets in ascending order form one sorted sequence.
//
// The RangeBase owns a HashBase, named after it with IDDatabaseSuffix, that
// maps each id to its range value. It rejects duplicate ids and resolves id
// lookups without scanning buckets.
//
// The smallest and largest range values and the record count of each
// partition are kept in the descriptor.
//
// A RangeBase is not safe for concurrent use, and its mutations are not
// atomic: a failed store write can leave the id index out of sync with the
// buckets.
type RangeBase[R Record] struct {
	name   string
	store  Store
	io     bucketIO
	config RangeConfig
	ids    *HashBase[float64]
}

// RangeDump is the export of a RangeBase partition.
type RangeDump[R Record] struct {
	Config RangeConfig `json:"config"`
	Data   []R         `json:"data"`
}

// CreateRangeBase creates a new RangeBase, together with its id index, and
// returns it opened. It fails if either database already exists.
func CreateRangeBase[R Record](
	store Store,
	name string,
	bucketSize int,
	rangeKey, idKey string,
	idPrefixLength int,
	opts ...Option,
) (*RangeBase[R], error) {
	if bucketSize <= 0 {
		return nil, ErrInvalidBucketSize
	}
	if idPrefixLength <= 0 {
		return nil, ErrInvalidPrefixSize
	}
	if rangeKey == "" || idKey == "" {
		return nil, fmt.Errorf("%w: range key and id key are required",
			ErrMissingKey)
	}
	if err := prepareCreate(store, name); err != nil {
		return nil, err
	}
	idsName := name + IDDatabaseSuffix
	if err := prepareCreate(store, idsName); err != nil {
		return nil, err
	}

	config := RangeConfig{
		Type:           RangeBaseType,
		BucketSize:     bucketSize,
		RangeKey:       rangeKey,
		IDKey:          idKey,
		IDPrefixLength: idPrefixLength,
		Limits:         make(map[string]RangeLimits),
		Sizes:          make(map[string]int),
	}
	if err := writeDescriptor(store, name, &config); err != nil {
		return nil, err
	}
	if _, err := CreateHashBase[float64](store, idsName, idPrefixLength, opts...); err != nil {
		return nil, fmt.Errorf("create id index: %w", err)
	}
	return OpenRangeBase[R](store, name, opts...)
}

// OpenRangeBase opens an existing RangeBase and its id index.
func OpenRangeBase[R Record](store Store, name string, opts ...Option) (
	*RangeBase[R],
	error,
) {
	var config RangeConfig
	if err := openDescriptor(store, name, RangeBaseType, &config); err != nil {
		return nil, err
	}
	if config.BucketSize <= 0 {
		return nil, fmt.Errorf("open %s: %w", name, ErrInvalidBucketSize)
	}
	if config.Limits == nil {
		config.Limits = make(map[string]RangeLimits)
	}
	if config.Sizes == nil {
		config.Sizes = make(map[string]int)
	}
	ids, err := OpenHashBase[float64](store, name+IDDatabaseSuffix, opts...)
	if err != nil {
		return nil, fmt.Errorf("open id index: %w", err)
	}
	return &RangeBase[R]{
		name:   name,
		store:  store,
		io:     newBucketIO(store, name, makeOptions(opts)),
		config: config,
		ids:    ids,
	}, nil
}

// CreateOrOpenRangeBase opens the RangeBase called name, creating it first
// if it does not exist yet.
func CreateOrOpenRangeBase[R Record](
	store Store,
	name string,
	bucketSize int,
	rangeKey, idKey string,
	idPrefixLength int,
	opts ...Option,
) (*RangeBase[R], error) {
	return createOrOpen(
		func() (*RangeBase[R], error) {
			return CreateRangeBase[R](store, name, bucketSize, rangeKey,
				idKey, idPrefixLength, opts...)
		},
		func() (*RangeBase[R], error) {
			return OpenRangeBase[R](store, name, opts...)
		},
	)
}

// Name returns the database name.
func (r *RangeBase[R]) Name() string { return r.name }

// Type returns RangeBaseType.
func (r *RangeBase[R]) Type() BaseType { return RangeBaseType }

// Config returns a copy of the database descriptor.
func (r *RangeBase[R]) Config() (RangeConfig, error) { return snapshot(&r.config) }

// RangeKey returns the name of the range field.
func (r *RangeBase[R]) RangeKey() string { return r.config.RangeKey }

// IDKey returns the name of the id field.
func (r *RangeBase[R]) IDKey() string { return r.config.IDKey }

// Insert adds record to a partition. It fails with ErrDuplicateID if the id
// of record is already stored in the partition.
func (r *RangeBase[R]) Insert(partition string, record R) error {
	if err := checkPartition(partition); err != nil {
		return err
	}
	rv, id, err := r.keys(partition, record)
	if err != nil {
		return err
	}
	existing, err := r.ids.Query(partition, []string{id})
	if err != nil {
		return fmt.Errorf("query id index: %w", err)
	}
	if existing[0] != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	path := r.bucketPath(partition, rv)
	var bucket []R
	if _, err = r.io.load(path, &bucket); err != nil {
		return err
	}
	i := r.insertPosition(bucket, rv, id)
	bucket = slices.Insert(bucket, i, record)
	if err = r.io.save(path, bucket, false); err != nil {
		return err
	}

	if err = r.ids.Insert(partition, id, rv); err != nil {
		r.io.logger.Warn("record written but id index update failed",
			zap.String("partition", partition), zap.String("id", id),
			zap.Error(err))
		return fmt.Errorf("update id index: %w", err)
	}

	limits := r.config.Limits[partition]
	if limits.MinRange == nil || rv < *limits.MinRange {
		limits.MinRange = ptr(rv)
	}
	if limits.MaxRange == nil || rv > *limits.MaxRange {
		limits.MaxRange = ptr(rv)
	}
	r.config.Limits[partition] = limits
	r.config.Sizes[partition]++
	return r.saveConfig()
}

// Query returns the records whose range value is in [start, end], sorted by
// (range, id). A partition that was never written yields an empty slice.
func (r *RangeBase[R]) Query(partition string, start, end float64) ([]R, error) {
	if err := checkPartition(partition); err != nil {
		return nil, err
	}
	if math.IsNaN(start) || math.IsNaN(end) || end < start {
		return nil, fmt.Errorf("%w: [%v, %v]", ErrInvalidRange, start, end)
	}

	bucketSize := r.config.BucketSize
	first, last := bucketNumber(start, bucketSize), bucketNumber(end, bucketSize)
	numbers, err := r.span(partition, first, last)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(numbers))
	for i, n := range numbers {
		paths[i] = r.io.path(partition, formatBucket(n))
	}
	buckets, err := fetchAll[[]R](&r.io, paths)
	if err != nil {
		return nil, err
	}

	out := []R{}
	for i, bucket := range buckets {
		lo, hi := 0, len(bucket)
		if numbers[i] == first {
			_, lo = findIndex(bucket, start, r.rangeOf, 0, len(bucket), false)
		}
		if numbers[i] == last {
			found, j := findIndex(bucket, end, r.rangeOf, lo, len(bucket), true)
			if found {
				j++
			}
			hi = j
		}
		if lo < hi {
			out = append(out, bucket[lo:hi]...)
		}
	}
	return out, nil
}

// QueryByID returns the record with the given id. The range value of the
// record is resolved through the id index.
func (r *RangeBase[R]) QueryByID(partition, id string) (record R, ok bool, err error) {
	if err = checkPartition(partition); err != nil {
		return record, false, err
	}
	res, err := r.ids.Query(partition, []string{id})
	if err != nil {
		return record, false, fmt.Errorf("query id index: %w", err)
	}
	if res[0] == nil {
		return record, false, nil
	}
	return r.Find(partition, *res[0], id)
}

// Find returns the record stored with the exact (range, id) pair.
func (r *RangeBase[R]) Find(partition string, rangeValue float64, id string) (
	record R,
	ok bool,
	err error,
) {
	if err = checkPartition(partition); err != nil {
		return record, false, err
	}
	var bucket []R
	if _, err = r.io.load(r.bucketPath(partition, rangeValue), &bucket); err != nil {
		return record, false, err
	}
	i, ok := r.locate(bucket, rangeValue, id)
	if !ok {
		return record, false, nil
	}
	return bucket[i], true, nil
}

// QueryByCount returns up to count records in descending (range, id) order,
// skipping the offset newest ones. It pages through a partition from the
// largest range value down, regardless of bucket boundaries.
func (r *RangeBase[R]) QueryByCount(partition string, count, offset int) ([]R, error) {
	if err := checkPartition(partition); err != nil {
		return nil, err
	}
	if count < 0 || offset < 0 {
		return nil, fmt.Errorf("%w: count %d, offset %d",
			ErrInvalidRange, count, offset)
	}
	out := []R{}
	if count == 0 {
		return out, nil
	}
	numbers, err := r.io.listBucketNumbers(partition)
	if err != nil {
		return nil, err
	}
	for i := len(numbers) - 1; i >= 0 && len(out) < count; i-- {
		var bucket []R
		path := r.io.path(partition, formatBucket(numbers[i]))
		if _, err = r.io.load(path, &bucket); err != nil {
			return nil, err
		}
		if offset >= len(bucket) {
			offset -= len(bucket)
			continue
		}
		for j := len(bucket) - 1 - offset; j >= 0 && len(out) < count; j-- {
			out = append(out, bucket[j])
		}
		offset = 0
	}
	return out, nil
}

// Delete removes the record with the given (range, id) pair and returns it.
// If there is no such record, ok is false and nothing is written.
func (r *RangeBase[R]) Delete(partition string, rangeValue float64, id string) (
	record R,
	ok bool,
	err error,
) {
	if err = checkPartition(partition); err != nil {
		return record, false, err
	}
	path := r.bucketPath(partition, rangeValue)
	var bucket []R
	if _, err = r.io.load(path, &bucket); err != nil {
		return record, false, err
	}
	i, ok := r.locate(bucket, rangeValue, id)
	if !ok {
		return record, false, nil
	}
	record = bucket[i]
	bucket = slices.Delete(bucket, i, i+1)
	if err = r.io.save(path, bucket, len(bucket) == 0); err != nil {
		return record, false, err
	}

	if _, err = r.ids.Delete(partition, []string{id}); err != nil {
		r.io.logger.Warn("record deleted but id index update failed",
			zap.String("partition", partition), zap.String("id", id),
			zap.Error(err))
		return record, false, fmt.Errorf("update id index: %w", err)
	}

	if err = r.shrinkLimits(partition, bucket, rangeValue); err != nil {
		return record, false, err
	}
	if err = r.saveConfig(); err != nil {
		return record, false, err
	}
	return record, true, nil
}

// DeleteByID removes the record with the given id, resolving its range value
// through the id index.
func (r *RangeBase[R]) DeleteByID(partition, id string) (record R, ok bool, err error) {
	if err = checkPartition(partition); err != nil {
		return record, false, err
	}
	res, err := r.ids.Query(partition, []string{id})
	if err != nil {
		return record, false, fmt.Errorf("query id index: %w", err)
	}
	if res[0] == nil {
		return record, false, nil
	}
	return r.Delete(partition, *res[0], id)
}

// Update replaces the record stored at oldRange that has the id of record.
// The record may move to a different range value. It fails with
// ErrRecordNotFound if there is no such record.
func (r *RangeBase[R]) Update(partition string, oldRange float64, record R) error {
	if err := checkPartition(partition); err != nil {
		return err
	}
	if _, _, err := r.keys(partition, record); err != nil {
		return err
	}
	id, _ := record.IDValue(r.config.IDKey)
	_, ok, err := r.Delete(partition, oldRange, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s at %v", ErrRecordNotFound, id, oldRange)
	}
	return r.Insert(partition, record)
}

// Min returns the smallest range value stored in a partition. It reports
// false when the partition is empty.
func (r *RangeBase[R]) Min(partition string) (float64, bool) {
	limits := r.config.Limits[partition]
	if limits.MinRange == nil {
		return 0, false
	}
	return *limits.MinRange, true
}

// Max returns the largest range value stored in a partition. It reports
// false when the partition is empty.
func (r *RangeBase[R]) Max(partition string) (float64, bool) {
	limits := r.config.Limits[partition]
	if limits.MaxRange == nil {
		return 0, false
	}
	return *limits.MaxRange, true
}

// Size returns the number of records stored in a partition.
func (r *RangeBase[R]) Size(partition string) int {
	return r.config.Sizes[partition]
}

// Dump exports the descriptor and every record of a partition.
func (r *RangeBase[R]) Dump(partition string) (*RangeDump[R], error) {
	if err := checkPartition(partition); err != nil {
		return nil, err
	}
	config, err := snapshot(&r.config)
	if err != nil {
		return nil, err
	}
	dump := &RangeDump[R]{Config: config, Data: []R{}}
	lo, okMin := r.Min(partition)
	hi, okMax := r.Max(partition)
	if okMin && okMax {
		dump.Data, err = r.Query(partition, lo, hi)
		if err != nil {
			return nil, err
		}
	}
	return dump, nil
}

// shrinkLimits updates the size and limits of a partition after a record
// at rangeValue was removed from bucket.
//
// A limit is recomputed only when the removed record held it and no record
// left in its bucket shares the value. The recomputation lists the
// partition, which is O(bucket count).
func (r *RangeBase[R]) shrinkLimits(partition string, bucket []R, rangeValue float64) error {
	size := r.config.Sizes[partition] - 1
	if size <= 0 {
		delete(r.config.Sizes, partition)
		delete(r.config.Limits, partition)
		return nil
	}
	r.config.Sizes[partition] = size

	limits := r.config.Limits[partition]
	shared, _ := findIndex(bucket, rangeValue, r.rangeOf, 0, len(bucket), false)
	if shared {
		return nil
	}
	var err error
	if limits.MinRange != nil && *limits.MinRange == rangeValue {
		if limits.MinRange, err = r.scanLimit(partition, false); err != nil {
			return err
		}
	}
	if limits.MaxRange != nil && *limits.MaxRange == rangeValue {
		if limits.MaxRange, err = r.scanLimit(partition, true); err != nil {
			return err
		}
	}
	r.config.Limits[partition] = limits
	return nil
}

// scanLimit finds the smallest (or largest) range value of a partition by
// reading the first (or last) element of its lowest (or highest) bucket.
func (r *RangeBase[R]) scanLimit(partition string, largest bool) (*float64, error) {
	numbers, err := r.io.listBucketNumbers(partition)
	if err != nil {
		return nil, err
	}
	if len(numbers) == 0 {
		return nil, nil
	}
	n := numbers[0]
	if largest {
		n = numbers[len(numbers)-1]
	}
	var bucket []R
	if _, err = r.io.load(r.io.path(partition, formatBucket(n)), &bucket); err != nil {
		return nil, err
	}
	if len(bucket) == 0 {
		return nil, nil
	}
	v := r.rangeOf(bucket[0])
	if largest {
		v = r.rangeOf(bucket[len(bucket)-1])
	}
	r.io.logger.Debug("range limit recomputed",
		zap.String("partition", partition),
		zap.Bool("max", largest), zap.Float64("value", v))
	return &v, nil
}

// span returns the numbers of the buckets to fetch for bucket numbers in
// [first, last].
func (r *RangeBase[R]) span(partition string, first, last int64) ([]int64, error) {
	// The difference wraps negative when the span exceeds the int64 range.
	if d := last - first; d >= 0 && d < maxDenseSpan {
		numbers := make([]int64, 0, d+1)
		for i := int64(0); i <= d; i++ {
			numbers = append(numbers, first+i)
		}
		return numbers, nil
	}
	stored, err := r.io.listBucketNumbers(partition)
	if err != nil {
		return nil, err
	}
	var numbers []int64
	for _, n := range stored {
		if n >= first && n <= last {
			numbers = append(numbers, n)
		}
	}
	return numbers, nil
}

// insertPosition returns where a record with (rv, id) goes in bucket: after
// the records with a smaller range value, and ordered by id among the
// records sharing rv.
func (r *RangeBase[R]) insertPosition(bucket []R, rv float64, id string) int {
	found, i := findIndex(bucket, rv, r.rangeOf, 0, len(bucket), false)
	if !found {
		return i
	}
	_, last := findIndex(bucket, rv, r.rangeOf, i, len(bucket), true)
	_, j := findIndex(bucket, id, r.idOf, i, last+1, false)
	return j
}

// locate returns the index of the record with (rv, id) in bucket.
func (r *RangeBase[R]) locate(bucket []R, rv float64, id string) (int, bool) {
	found, i := findIndex(bucket, rv, r.rangeOf, 0, len(bucket), false)
	if !found {
		return 0, false
	}
	_, last := findIndex(bucket, rv, r.rangeOf, i, len(bucket), true)
	found, j := findIndex(bucket, id, r.idOf, i, last+1, false)
	return j, found
}

// keys extracts and validates the range value and id of record before
// anything of it is written to partition.
func (r *RangeBase[R]) keys(partition string, record R) (float64, string, error) {
	rv, okRange := record.RangeValue(r.config.RangeKey)
	id, okID := record.IDValue(r.config.IDKey)
	if !okRange || !okID {
		return 0, "", fmt.Errorf("%w: data must have properties %s and %s",
			ErrMissingKey, r.config.RangeKey, r.config.IDKey)
	}
	if math.IsNaN(rv) || math.IsInf(rv, 0) {
		return 0, "", fmt.Errorf("%w: %s must be a finite number",
			ErrInvalidRange, r.config.RangeKey)
	}
	if _, ok := bucketOf(rv, r.config.BucketSize); !ok {
		return 0, "", fmt.Errorf("%w: %s %v is out of bounds",
			ErrInvalidRange, r.config.RangeKey, rv)
	}
	if len(id) < r.config.IDPrefixLength {
		return 0, "", fmt.Errorf("%w: id %q is shorter than id prefix "+
			"length %d", ErrInvalidHash, id, r.config.IDPrefixLength)
	}
	if err := checkPrefix(partition, id[:r.config.IDPrefixLength]); err != nil {
		return 0, "", err
	}
	return rv, id, nil
}

func (r *RangeBase[R]) rangeOf(record R) float64 {
	v, _ := record.RangeValue(r.config.RangeKey)
	return v
}

func (r *RangeBase[R]) idOf(record R) string {
	v, _ := record.IDValue(r.config.IDKey)
	return v
}

func (r *RangeBase[R]) bucketPath(partition string, rv float64) string {
	return r.io.path(partition, formatBucket(bucketNumber(rv, r.config.BucketSize)))
}

func (r *RangeBase[R]) saveConfig() error {
	if err := writeDescriptor(r.store, r.name, &r.config); err != nil {
		return err
	}
	r.io.logger.Debug("descriptor written")
	return nil
}

func ptr[T any](v T) *T { return &v }
