package store

import (
	"context"
	"strconv"
	"sync"
	"time"
)

type memoryEntry struct {
	value    string
	deadline time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.deadline.IsZero() && now.After(e.deadline)
}

// Memory is an in-process [Store] for tests and deployments without a cache.
// Entries carry explicit deadlines; expired entries are treated as absent on
// read and reclaimed by [Memory.Sweep].
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Increment implements [Store]. The deadline anchors at the increment that
// creates the key, matching the Redis adapter's fixed-window semantics.
func (m *Memory) Increment(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.entries[key]
	if ok && entry.expired(now) {
		ok = false
	}

	count := int64(1)
	deadline := entry.deadline
	if ok {
		prev, err := strconv.ParseInt(entry.value, 10, 64)
		if err == nil {
			count = prev + 1
		}
	} else if ttl > 0 {
		deadline = now.Add(ttl)
	} else {
		deadline = time.Time{}
	}

	m.entries[key] = memoryEntry{
		value:    strconv.FormatInt(count, 10),
		deadline: deadline,
	}
	return count, nil
}

// Get implements [Store].
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || entry.expired(m.now()) {
		return "", false, nil
	}
	return entry.value, true, nil
}

// SetWithTTL implements [Store].
func (m *Memory) SetWithTTL(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	deadline := time.Time{}
	if ttl > 0 {
		deadline = m.now().Add(ttl)
	}
	m.entries[key] = memoryEntry{value: value, deadline: deadline}
	return nil
}

// Delete implements [Store].
func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

// TTL implements [Store].
func (m *Memory) TTL(_ context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	now := m.now()
	if !ok || entry.expired(now) || entry.deadline.IsZero() {
		return 0, nil
	}
	return entry.deadline.Sub(now), nil
}

// Sweep implements [Sweeper]. Only entries whose deadline has passed are
// removed.
func (m *Memory) Sweep(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cleaned := 0
	for k, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, k)
			cleaned++
		}
	}
	return cleaned, nil
}

// Len reports the number of live (unexpired) entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for _, entry := range m.entries {
		if !entry.expired(now) {
			n++
		}
	}
	return n
}
