// Package cache provides the in-process store backing the sentiment
// tracker's per-segment classification cache. Entries are keyed by
// segment and expire on their own; there is no cross-process sharing.
package cache

import (
	"sync"
	"time"
)

const sweepInterval = 5 * time.Minute

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is a TTL-bounded in-memory key-value store
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemoryStore creates the store and starts its expiry sweep
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{entries: make(map[string]entry)}
	go store.sweep()
	return store
}

// Set stores a value under key for the given lifetime
func (ms *MemoryStore) Set(key string, value string, expiration time.Duration) {
	ms.mu.Lock()
	ms.entries[key] = entry{value: value, expiresAt: time.Now().Add(expiration)}
	ms.mu.Unlock()
}

// Get returns the live value for key; expired entries read as absent
func (ms *MemoryStore) Get(key string) (string, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	e, ok := ms.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return "", false
	}
	return e.value, true
}

// sweep drops expired entries so abandoned keys do not accumulate
// across calls
func (ms *MemoryStore) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		ms.mu.Lock()
		for key, e := range ms.entries {
			if now.After(e.expiresAt) {
				delete(ms.entries, key)
			}
		}
		ms.mu.Unlock()
	}
}
