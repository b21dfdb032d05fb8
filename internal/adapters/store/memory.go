// Package store holds the shared state adapters behind core.Store.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/Rooms/internal/core"
)

type memEntry struct {
	value   []byte
	expires time.Time
}

// Memory is a process-local store. It is only shared by the gateways of
// one process; use Redis to scale out.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memEntry
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memEntry),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.getLocked(key)
	if !ok {
		return nil, core.ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(key, value)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

// Swap runs fn under the store lock, so concurrent swaps of a key never
// lose an update.
func (m *Memory) Swap(_ context.Context, key string, fn func(old []byte, found bool) ([]byte, error)) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, found := m.getLocked(key)
	next, err := fn(old, found)
	if err != nil {
		return nil, err
	}
	m.setLocked(key, next)
	return next, nil
}

func (m *Memory) getLocked(key string) ([]byte, bool) {
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true
}

func (m *Memory) setLocked(key string, value []byte) {
	e := memEntry{value: make([]byte, len(value))}
	copy(e.value, value)
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.entries[key] = e
}
