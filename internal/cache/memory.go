package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Memory is an in-process Cache used in tests and local development.
// Entries expire lazily on read; there is no eviction beyond TTL.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memEntry
	pubs    map[string][][]byte

	// now is the clock used for TTL checks, overridable in tests.
	now func() time.Time
}

type memEntry struct {
	value     []byte
	expiresAt time.Time // zero = no expiry
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memEntry),
		pubs:    make(map[string][][]byte),
		now:     time.Now,
	}
}

// SetClock replaces the TTL clock. Used in tests.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
}

func (m *Memory) Incr(_ context.Context, key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(0)
	if e, ok := m.entries[key]; ok {
		if parsed, err := strconv.ParseInt(string(e.value), 10, 64); err == nil {
			n = parsed
		}
	}
	n++
	m.entries[key] = memEntry{value: []byte(strconv.FormatInt(n, 10))}
	return n
}

func (m *Memory) Del(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *Memory) Publish(_ context.Context, channel string, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pubs[channel] = append(m.pubs[channel], payload)
}

// Published returns everything published on a channel, oldest first.
func (m *Memory) Published(channel string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.pubs[channel]))
	copy(out, m.pubs[channel])
	return out
}

// Len returns the number of live entries (expired entries may be counted
// until their next read).
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
