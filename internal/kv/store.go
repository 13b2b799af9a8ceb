// Package kv provides the key-value store that holds the serialized grocery
// database and the small session keys next to it.
//
// Drivers:
//   - "file"   one file per key in the data directory (default)
//   - "memory" in-process map, for tests and throwaway runs
//   - "redis"  a redis server
//   - "s3"     an S3-compatible bucket (AWS S3, MinIO, R2)
package kv

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Store errors.
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrInvalidKey  = errors.New("invalid key")
)

// Store reads and writes whole values by key. Put overwrites.
type Store interface {
	// Get returns the value stored at key or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value at key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases driver resources.
	Close() error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateKey rejects keys that cannot be used as a file name or object key
// component.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Open builds the store selected by cfg. dataDir is the root for the file
// driver and is ignored by the others.
func Open(ctx context.Context, cfg types.StoreConfig, dataDir string) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.GetDriver() {
	case types.StoreFile:
		return NewFileStore(dataDir)
	case types.StoreMemory:
		return NewMemoryStore(), nil
	case types.StoreRedis:
		return NewRedisStore(ctx, cfg.Redis)
	case types.StoreS3:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, types.ErrStoreDriverUnknown
	}
}
