package baselet

import (
	"fmt"
	"strings"
)

const descriptorName = "config"

// descriptorPath returns the path of the database descriptor.
func descriptorPath(database string) string {
	return database + "/" + descriptorName + ".json"
}

// partitionPath returns the folder holding the buckets of a partition. The
// default partition ("") lives directly under the database folder.
func partitionPath(database, partition string) string {
	if partition == "" {
		return database
	}
	return database + "/" + partition
}

// bucketPath returns the blob path of a bucket.
func bucketPath(database, partition, bucket, ext string) string {
	return partitionPath(database, partition) + "/" + bucket + "." + ext
}

// bucketName extracts the bucket id from a blob path. It reports false for
// paths that do not carry the extension.
func bucketName(path, ext string) (string, bool) {
	base := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		base = path[i+1:]
	}
	name, ok := strings.CutSuffix(base, "."+ext)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// checkDatabaseName validates a database name: letters, digits and
// underscores, and not empty.
func checkDatabaseName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: database name is empty", ErrInvalidName)
	}
	if !isValidName(name) {
		return fmt.Errorf("%w: database name %q may only contain letters, "+
			"numbers, and underscores", ErrInvalidName, name)
	}
	return nil
}

// checkPartition validates a partition name. The empty string denotes the
// default partition.
func checkPartition(partition string) error {
	if !isValidName(partition) {
		return fmt.Errorf("%w: partition %q may only contain letters, "+
			"numbers, and underscores", ErrInvalidName, partition)
	}
	return nil
}

func isValidName(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return false
		}
	}
	return true
}
