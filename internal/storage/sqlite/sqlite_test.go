package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mmynk/visitlog/internal/storage"
)

func TestSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	t.Run("Get returns ErrNotFound for absent key", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Set then Get returns value", func(t *testing.T) {
		if err := store.Set(ctx, "users", []byte(`{"a":1}`)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := store.Get(ctx, "users")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != `{"a":1}` {
			t.Errorf("value mismatch: got %s", got)
		}
	})

	t.Run("Set overwrites existing value", func(t *testing.T) {
		if err := store.Set(ctx, "users", []byte(`{"b":2}`)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := store.Get(ctx, "users")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != `{"b":2}` {
			t.Errorf("value mismatch: got %s", got)
		}
	})

	t.Run("Remove deletes several keys and ignores absent ones", func(t *testing.T) {
		store.Set(ctx, "k1", []byte("1"))
		store.Set(ctx, "k2", []byte("2"))

		if err := store.Remove(ctx, "k1", "k2", "never-set"); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		for _, k := range []string{"k1", "k2"} {
			if _, err := store.Get(ctx, k); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("%s: expected ErrNotFound after Remove, got %v", k, err)
			}
		}
	})

	t.Run("Remove with no keys is a no-op", func(t *testing.T) {
		if err := store.Remove(ctx); err != nil {
			t.Errorf("Remove() failed: %v", err)
		}
	})
}

func TestSQLiteStore_DurableAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "device.db")
	ctx := context.Background()

	first, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := first.Set(ctx, "current_user", []byte(`{"id":"u1"}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	first.Close()

	second, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer second.Close()

	got, err := second.Get(ctx, "current_user")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(got) != `{"id":"u1"}` {
		t.Errorf("value mismatch after reopen: got %s", got)
	}
}

func TestSQLiteStore_InMemory(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Set(ctx, "visits", []byte("{}")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := store.Get(ctx, "visits"); err != nil {
		t.Errorf("Get failed: %v", err)
	}
}
