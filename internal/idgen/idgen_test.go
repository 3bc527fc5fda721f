package idgen

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestNew(t *testing.T) {
	t.Run("parses as UUIDv7", func(t *testing.T) {
		id := New()
		parsed, err := uuid.Parse(id)
		if err != nil {
			t.Fatalf("uuid.Parse(%q) failed: %v", id, err)
		}
		if parsed.Version() != 7 {
			t.Errorf("version: got %d, want 7", parsed.Version())
		}
	})

	t.Run("unique across goroutines", func(t *testing.T) {
		const workers, perWorker = 8, 500

		var mu sync.Mutex
		seen := make(map[string]bool, workers*perWorker)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					id := New()
					mu.Lock()
					if seen[id] {
						t.Errorf("duplicate id %s", id)
					}
					seen[id] = true
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if len(seen) != workers*perWorker {
			t.Errorf("got %d unique ids, want %d", len(seen), workers*perWorker)
		}
	})
}
