package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const lockScope = "cart"

// ErrCartBusy is returned when the cart lock could not be taken before the wait timeout.
var ErrCartBusy = errors.New("cart is busy")

// Locker serializes mutations of a single cart.
type Locker interface {
	Lock(ctx context.Context, cartID string) (unlock func(), err error)
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ReleaseIfOwner(ctx context.Context, key, owner string) (bool, error)
	LockKey(scope, id string) string
}

// RedisLocker takes a SETNX lock per cart with an owner token so only the holder releases it.
type RedisLocker struct {
	client lockStore
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
}

// NewRedisLocker builds a distributed cart lock.
func NewRedisLocker(client lockStore, ttl, wait time.Duration) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client required for cart lock")
	}
	if ttl <= 0 {
		return nil, errors.New("cart lock ttl must be positive")
	}
	return &RedisLocker{client: client, ttl: ttl, wait: wait, retry: 25 * time.Millisecond}, nil
}

func (l *RedisLocker) Lock(ctx context.Context, cartID string) (func(), error) {
	key := l.client.LockKey(lockScope, cartID)
	owner := uuid.NewString()
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, key, owner, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("setnx cart lock: %w", err)
		}
		if ok {
			return func() { l.release(key, owner) }, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrCartBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

func (l *RedisLocker) release(key, owner string) {
	// Release runs after the request may have been canceled.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, _ = l.client.ReleaseIfOwner(ctx, key, owner)
}

// MemoryLocker is a keyed mutex for single-instance deployments and tests.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
	wait  time.Duration
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker builds an in-process cart lock. wait <= 0 means block until ctx is done.
func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	return &MemoryLocker{slots: map[string]*lockSlot{}, wait: wait}
}

func (l *MemoryLocker) Lock(ctx context.Context, cartID string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[cartID]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[cartID] = slot
	}
	slot.refs++
	l.mu.Unlock()

	var timeout <-chan time.Time
	if l.wait > 0 {
		timer := time.NewTimer(l.wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case slot.ch <- struct{}{}:
		return func() {
			<-slot.ch
			l.drop(cartID, slot)
		}, nil
	case <-ctx.Done():
		l.drop(cartID, slot)
		return nil, ctx.Err()
	case <-timeout:
		l.drop(cartID, slot)
		return nil, ErrCartBusy
	}
}

func (l *MemoryLocker) drop(cartID string, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, cartID)
	}
}
