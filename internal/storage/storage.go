// Package storage defines the key-value port behind the persisted cart
// snapshot. Backends live in the memory, redis and postgres subpackages.
package storage

import "context"

// KeyValue stores opaque values under string keys. Get returns an error
// wrapping apperrors.ErrNotFound when the key is absent.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
}

// Supported STORAGE_BACKEND values.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)
