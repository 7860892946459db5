package conversation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestStore_ConcurrentAppend exercises the single-writer-per-thread guarantee:
// concurrent appenders to the same thread must never observe a duplicate or
// skipped turn_index.
func TestStore_ConcurrentAppend(t *testing.T) {
	store := New()
	const n = 50

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := store.AppendEntry("session-1", "thread-1", ActorUser, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries := store.ThreadEntries("thread-1")
	assert.Len(t, entries, n)
	seen := make(map[int]bool, n)
	for _, e := range entries {
		assert.False(t, seen[e.TurnIndex], "duplicate turn_index %d", e.TurnIndex)
		seen[e.TurnIndex] = true
	}
	for i := 0; i < n; i++ {
		assert.True(t, seen[i], "missing turn_index %d", i)
	}
}
