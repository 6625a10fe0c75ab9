package cache

import (
	"context"
	"sync"
	"time"
)

const defaultMaxEntries = 1024

// Memory is the in-process cache driver: a mutex-guarded map with lazy
// expiry and oldest-creation-time eviction when full. Eviction follows
// insertion order by creation time, not recency of use.
type Memory struct {
	mu      sync.Mutex
	entries map[string]Entry
	max     int

	hits   uint64
	misses uint64
	writes uint64
}

// NewMemory creates an in-memory store bounded to maxEntries.
// Non-positive values fall back to the default capacity.
func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Memory{
		entries: make(map[string]Entry),
		max:     maxEntries,
	}
}

func (m *Memory) Get(_ context.Context, key string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		m.misses++
		return Entry{}, false
	}
	if entry.Expired(time.Now()) {
		delete(m.entries, key)
		m.misses++
		return Entry{}, false
	}
	m.hits++
	return entry, true
}

func (m *Memory) Put(_ context.Context, key string, entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.Key = key

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.max {
		m.evictOldest()
	}
	m.entries[key] = entry
	m.writes++
}

// evictOldest removes the entry with the oldest creation time.
// Caller must hold the lock.
func (m *Memory) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, e := range m.entries {
		if oldestKey == "" || e.CreatedAt.Before(oldest) {
			oldestKey = k
			oldest = e.CreatedAt
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Stats{
		Driver:  "memory",
		Enabled: true,
		Hits:    m.hits,
		Misses:  m.misses,
		Writes:  m.writes,
		Size:    len(m.entries),
		Max:     m.max,
	}
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]Entry)
	return nil
}
