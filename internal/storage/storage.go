package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/esans/internal"
	"github.com/redis/go-redis/v9"
)

// Storage is the durable key/value store behind cart persistence.
// Values are opaque byte blobs; keys are colon-separated namespaces
// such as "esans:cart:<session>".
type Storage interface {
	// Get returns the value stored at key, or an ErrNotFound error.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value at key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// NewStorage creates a Storage implementation based on configuration.
func NewStorage(cfg internal.StorageConfig) (Storage, error) {
	switch cfg.Provider {
	case "local", "":
		return NewLocalStorage(cfg.LocalPath)
	case "memory":
		return NewMemoryStorage(), nil
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		return NewRedisStorage(redis.NewClient(opts), time.Duration(cfg.CartTTLHours)*time.Hour), nil
	case "r2":
		return NewR2Storage(R2Config{
			AccountID:   cfg.R2AccountID,
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretKey,
			BucketName:  cfg.R2BucketName,
		})
	default:
		return nil, ErrUnknownProvider(cfg.Provider)
	}
}
