// Package storage provides the key-value byte store that visitlog persists to.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("key not found")

// Store defines the interface for a flat, durable key-value byte store.
// This abstraction allows swapping backends (SQLite, PostgreSQL, S3, memory)
// without changing the collections built on top of it.
type Store interface {
	// Get returns the value stored under key.
	// Returns ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes the given keys. Absent keys are not an error.
	Remove(ctx context.Context, keys ...string) error

	// Close releases any resources held by the store.
	Close() error
}
