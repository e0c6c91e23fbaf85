package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCartNotFound is returned when no cart is stored under the id.
var ErrCartNotFound = errors.New("cart not found")

// Store persists carts between requests.
type Store interface {
	Load(ctx context.Context, cartID string) (*Cart, error)
	Save(ctx context.Context, c Cart) error
	Delete(ctx context.Context, cartID string) error
}

type redisKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	CartKey(cartID string) string
}

// RedisStore keeps each cart as a JSON document with a sliding TTL.
type RedisStore struct {
	client redisKV
	ttl    time.Duration
}

// NewRedisStore builds a Redis-backed cart store.
func NewRedisStore(client redisKV, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client required for cart store")
	}
	if ttl <= 0 {
		return nil, errors.New("cart ttl must be positive")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, cartID string) (*Cart, error) {
	key := s.client.CartKey(cartID)
	raw, err := s.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("read cart: %w", err)
	}
	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if _, err := s.client.Expire(ctx, key, s.ttl); err != nil {
		return nil, fmt.Errorf("refresh cart ttl: %w", err)
	}
	return &c, nil
}

func (s *RedisStore) Save(ctx context.Context, c Cart) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.client.Set(ctx, s.client.CartKey(c.ID), string(payload), s.ttl); err != nil {
		return fmt.Errorf("write cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, cartID string) error {
	if err := s.client.Del(ctx, s.client.CartKey(cartID)); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStore keeps carts in process memory. Entries expire like the Redis TTL.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore builds an in-process cart store.
func NewMemoryStore(ttl time.Duration, clock func() time.Time) *MemoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStore{entries: map[string]memoryEntry{}, ttl: ttl, now: clock}
}

func (s *MemoryStore) Load(_ context.Context, cartID string) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[cartID]
	if !ok {
		return nil, ErrCartNotFound
	}
	now := s.now()
	if s.ttl > 0 && !now.Before(entry.expiresAt) {
		delete(s.entries, cartID)
		return nil, ErrCartNotFound
	}
	var c Cart
	if err := json.Unmarshal(entry.payload, &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	entry.expiresAt = now.Add(s.ttl)
	s.entries[cartID] = entry
	return &c, nil
}

func (s *MemoryStore) Save(_ context.Context, c Cart) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[c.ID] = memoryEntry{payload: payload, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, cartID)
	return nil
}
