// Package collection manages a set of records stored as one JSON blob.
//
// A collection lives under a single store key as an object mapping record ID
// to record. Every mutation rewrites the whole blob, so writers go through
// Update, which holds the collection's mutex across load, mutate and persist.
// The lock is process-local: create exactly one Collection per key per store.
package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mmynk/visitlog/internal/models"
	"github.com/mmynk/visitlog/internal/storage"
)

// Collection is a document collection of T keyed by record ID.
type Collection[T any] struct {
	store storage.Store
	key   string
	mu    sync.Mutex
}

// New returns the collection stored under key.
func New[T any](store storage.Store, key string) *Collection[T] {
	return &Collection[T]{store: store, key: key}
}

// Key returns the store key backing the collection.
func (c *Collection[T]) Key() string {
	return c.key
}

// LoadAll reads the whole collection. An absent key yields an empty map.
func (c *Collection[T]) LoadAll(ctx context.Context) (map[string]T, error) {
	raw, err := c.store.Get(ctx, c.key)
	if errors.Is(err, storage.ErrNotFound) {
		return make(map[string]T), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", models.ErrStoreUnavailable, c.key, err)
	}

	records := make(map[string]T)
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", models.ErrCorruptStore, c.key, err)
	}
	// A stored JSON null decodes to a nil map.
	if records == nil {
		records = make(map[string]T)
	}
	return records, nil
}

// Persist serializes records and replaces the stored blob.
// It does not take the write lock; use Update for read-modify-write.
func (c *Collection[T]) Persist(ctx context.Context, records map[string]T) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if err := c.store.Set(ctx, c.key, raw); err != nil {
		return fmt.Errorf("%w: persist %s: %w", models.ErrStoreUnavailable, c.key, err)
	}
	return nil
}

// Filter returns the records matching pred in store order, which is ascending
// record ID. The result is never nil.
func (c *Collection[T]) Filter(ctx context.Context, pred func(T) bool) ([]T, error) {
	records, err := c.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return Ordered(records, pred), nil
}

// Update loads the collection, applies fn and persists the result while
// holding the write lock. If fn returns an error nothing is written.
func (c *Collection[T]) Update(ctx context.Context, fn func(records map[string]T) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.LoadAll(ctx)
	if err != nil {
		return err
	}
	if err := fn(records); err != nil {
		return err
	}
	return c.Persist(ctx, records)
}

// Ordered returns the records accepted by pred sorted by ID.
// A nil pred accepts everything.
func Ordered[T any](records map[string]T, pred func(T) bool) []T {
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		r := records[id]
		if pred == nil || pred(r) {
			out = append(out, r)
		}
	}
	return out
}
