// Package lock provides a keyed mutex used to serialize booking creation per
// listing. Two concurrent requests for the same listing must not both observe
// sufficient free capacity and both commit; holding the listing's mutex across
// the check-then-create section prevents that. Requests for different listings
// proceed in parallel.
package lock

import (
	"sync"

	"github.com/google/uuid"
)

// KeyedMutex hands out one mutex per UUID key. The zero value is not usable;
// construct with NewKeyedMutex.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex returns an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[uuid.UUID]*entry)}
}

// Lock acquires the mutex for key, blocking until it is free.
func (k *KeyedMutex) Lock(key uuid.UUID) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for key. The entry is removed from the map once
// no goroutine holds or waits on it, so the map does not grow with the number
// of listings ever booked.
func (k *KeyedMutex) Unlock(key uuid.UUID) {
	k.mu.Lock()
	e := k.locks[key]
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
