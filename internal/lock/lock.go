// Package lock serializes analysis runs per user.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrBusy is returned by TryLock when another run for the user holds the lock.
var ErrBusy = errors.New("analysis already running for user")

// UserLocker grants exclusive per-user access. Unlock must be called with the
// function returned from a successful Lock or TryLock.
type UserLocker interface {
	// Lock blocks until the user's lock is held or ctx is done.
	Lock(ctx context.Context, userID string) (unlock func(), err error)
	// TryLock returns ErrBusy instead of waiting.
	TryLock(ctx context.Context, userID string) (unlock func(), err error)
}

// KeyedMutex is an in-process UserLocker. Entries are reference counted and
// removed once nobody holds or waits on them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{} // buffered(1); a token in the channel means free
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*entry)}
}

func (k *KeyedMutex) acquire(userID string) *entry {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.locks[userID]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		e.ch <- struct{}{}
		k.locks[userID] = e
	}
	e.refs++
	return e
}

func (k *KeyedMutex) release(userID string, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, userID)
	}
}

func (k *KeyedMutex) unlocker(userID string, e *entry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			e.ch <- struct{}{}
			k.release(userID, e)
		})
	}
}

func (k *KeyedMutex) Lock(ctx context.Context, userID string) (func(), error) {
	e := k.acquire(userID)
	select {
	case <-e.ch:
		return k.unlocker(userID, e), nil
	case <-ctx.Done():
		k.release(userID, e)
		return nil, ctx.Err()
	}
}

func (k *KeyedMutex) TryLock(_ context.Context, userID string) (func(), error) {
	e := k.acquire(userID)
	select {
	case <-e.ch:
		return k.unlocker(userID, e), nil
	default:
		k.release(userID, e)
		return nil, ErrBusy
	}
}
