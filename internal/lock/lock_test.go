package lock_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/tbardin/equiprent/internal/lock"
)

// TestKeyedMutex_SerializesSameKey hammers one key from many goroutines and
// checks the critical section is never entered concurrently.
func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := lock.NewKeyedMutex()
	key := uuid.New()

	var (
		wg      sync.WaitGroup
		inside  int
		maxSeen int
		mu      sync.Mutex
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock(key)
			defer km.Unlock(key)

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen, "critical section entered concurrently")
}

// TestKeyedMutex_IndependentKeys verifies that holding one key does not block
// another key.
func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := lock.NewKeyedMutex()
	a, b := uuid.New(), uuid.New()

	km.Lock(a)
	defer km.Unlock(a)

	done := make(chan struct{})
	go func() {
		km.Lock(b)
		km.Unlock(b)
		close(done)
	}()

	<-done // would deadlock if keys shared a mutex
}

func TestKeyedMutex_Reentry(t *testing.T) {
	km := lock.NewKeyedMutex()
	key := uuid.New()

	// Lock/unlock cycles must leave the mutex reusable.
	for i := 0; i < 3; i++ {
		km.Lock(key)
		km.Unlock(key)
	}
}
