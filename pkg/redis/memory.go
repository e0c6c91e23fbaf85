package redis

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryValue struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is a process-local stand-in for the idempotency and lock surface of Client.
// It is used when the API runs without Redis (dev memory mode and tests).
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryValue
	now   func() time.Time
}

// NewMemoryStore returns an empty store. A nil clock defaults to time.Now.
func NewMemoryStore(clock func() time.Time) *MemoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStore{items: map[string]memoryValue{}, now: clock}
}

func (m *MemoryStore) lookup(key string) (memoryValue, bool) {
	item, ok := m.items[key]
	if !ok {
		return memoryValue{}, false
	}
	if !item.expiresAt.IsZero() && !m.now().Before(item.expiresAt) {
		delete(m.items, key)
		return memoryValue{}, false
	}
	return item, true
}

// Get returns Nil when the key is missing or expired.
func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.lookup(key)
	if !ok {
		return "", Nil
	}
	return item.value, nil
}

func (m *MemoryStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lookup(key); ok {
		return false, nil
	}
	item := memoryValue{value: fmt.Sprint(value)}
	if ttl > 0 {
		item.expiresAt = m.now().Add(ttl)
	}
	m.items[key] = item
	return true, nil
}

// Set overwrites key. ttl <= 0 keeps it until deleted.
func (m *MemoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := memoryValue{value: fmt.Sprint(value)}
	if ttl > 0 {
		item.expiresAt = m.now().Add(ttl)
	}
	m.items[key] = item
	return nil
}

func (m *MemoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.items, key)
	}
	return nil
}

// ReleaseIfOwner deletes key only while it still holds owner.
func (m *MemoryStore) ReleaseIfOwner(_ context.Context, key, owner string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.lookup(key)
	if !ok || item.value != owner {
		return false, nil
	}
	delete(m.items, key)
	return true, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func (m *MemoryStore) IdempotencyKey(scope, id string) string {
	return buildKey(idempotencyPrefix, scope, id)
}

func (m *MemoryStore) LockKey(scope, id string) string {
	return buildKey(lockPrefix, scope, id)
}
