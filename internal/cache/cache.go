package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Memo is a thread-safe memoization cache for pure computations.
// A key is computed at most once while it is in flight; concurrent callers for
// the same key share the result. The first stored value for a key is retained
// until Delete or Clear is called.
type Memo[V any] struct {
	entries map[string]*Entry[V]
	mutex   sync.RWMutex
	group   singleflight.Group
	source  string

	hits   atomic.Int64
	misses atomic.Int64
}

// Entry represents a memoized value with metadata
type Entry[V any] struct {
	Key       string
	Value     V
	CreatedAt time.Time
	Source    string
}

// NewMemo creates an empty memo cache. Source labels entries for stats and logs.
func NewMemo[V any](source string) *Memo[V] {
	return &Memo[V]{
		entries: make(map[string]*Entry[V]),
		source:  source,
	}
}

// Get returns the value stored for key, calling compute on a miss
func (m *Memo[V]) Get(key string, compute func() V) V {
	if entry, ok := m.lookup(key); ok {
		m.hits.Add(1)
		return entry.Value
	}

	v, _, _ := m.group.Do(key, func() (interface{}, error) {
		// Another caller may have stored the key between lookup and Do
		if entry, ok := m.lookup(key); ok {
			m.hits.Add(1)
			return entry.Value, nil
		}

		m.misses.Add(1)
		return m.storeIfAbsent(key, compute()), nil
	})

	return v.(V)
}

// Peek returns the stored value without computing it
func (m *Memo[V]) Peek(key string) (V, bool) {
	entry, ok := m.lookup(key)
	if !ok {
		var zero V
		return zero, false
	}
	return entry.Value, true
}

func (m *Memo[V]) lookup(key string) (*Entry[V], bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	entry, ok := m.entries[key]
	return entry, ok
}

// storeIfAbsent keeps the first value stored for key and returns it
func (m *Memo[V]) storeIfAbsent(key string, value V) V {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if existing, ok := m.entries[key]; ok {
		return existing.Value
	}

	m.entries[key] = &Entry[V]{
		Key:       key,
		Value:     value,
		CreatedAt: time.Now(),
		Source:    m.source,
	}
	return value
}

// Delete removes an entry from cache
func (m *Memo[V]) Delete(key string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.entries, key)
}

// Clear removes all entries from cache
func (m *Memo[V]) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.entries = make(map[string]*Entry[V])
}

// Keys returns all cache keys
func (m *Memo[V]) Keys() []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	return keys
}

// Len returns the number of stored entries
func (m *Memo[V]) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.entries)
}

// Stats returns cache statistics
func (m *Memo[V]) Stats() Stats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	stats := Stats{
		Source:       m.source,
		TotalEntries: len(m.entries),
		Hits:         m.hits.Load(),
		Misses:       m.misses.Load(),
	}

	for _, entry := range m.entries {
		if stats.OldestEntry.IsZero() || entry.CreatedAt.Before(stats.OldestEntry) {
			stats.OldestEntry = entry.CreatedAt
		}
		if entry.CreatedAt.After(stats.NewestEntry) {
			stats.NewestEntry = entry.CreatedAt
		}
	}

	return stats
}

// Stats provides cache usage statistics
type Stats struct {
	Source       string
	TotalEntries int
	Hits         int64
	Misses       int64
	OldestEntry  time.Time
	NewestEntry  time.Time
}
