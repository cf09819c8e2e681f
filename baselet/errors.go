package baselet

import "errors"

var (
	// ErrInvalidName is returned when a database or partition name contains
	// characters other than letters, digits and underscores.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidBucketSize is returned when a bucket size is not positive.
	ErrInvalidBucketSize = errors.New("bucket size must be greater than 0")

	// ErrInvalidPrefixSize is returned when a hash prefix size is not
	// positive.
	ErrInvalidPrefixSize = errors.New("prefix size must be greater than 0")

	// ErrInvalidIndex is returned by CountBase.Insert when the index is
	// negative or would skip past the end of the partition.
	ErrInvalidIndex = errors.New("invalid index")

	// ErrInvalidRange is returned when query bounds are malformed.
	ErrInvalidRange = errors.New("invalid range")

	// ErrMissingKey is returned when a record lacks its range or id field.
	ErrMissingKey = errors.New("record is missing a required key")

	// ErrInvalidHash is returned when a hash cannot address a bucket.
	ErrInvalidHash = errors.New("invalid hash")

	// ErrDatabaseExists is returned when creating a database whose name is
	// already taken.
	ErrDatabaseExists = errors.New("database already exists")

	// ErrDatabaseNotFound is returned when opening a database that has no
	// descriptor.
	ErrDatabaseNotFound = errors.New("database not found")

	// ErrTypeMismatch is returned when opening a database with the wrong
	// engine.
	ErrTypeMismatch = errors.New("database type mismatch")

	// ErrDuplicateID is returned when inserting a record whose id already
	// exists in the partition.
	ErrDuplicateID = errors.New("cannot insert data because id already exists")

	// ErrRecordNotFound is returned when updating a record that does not
	// exist.
	ErrRecordNotFound = errors.New("record not found")
)
