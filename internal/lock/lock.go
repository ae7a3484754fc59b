// Package lock provides the serialization point for per-habit write sequences.
package lock

import (
	"context"
	"sync"
)

type Locker interface {
	// Lock blocks until key is held by the caller or ctx is done.
	// The returned function releases the key.
	Lock(ctx context.Context, key string) (func(), error)
}

type keyedMutex struct {
	ch   chan struct{}
	refs int
}

// MemoryLocker serializes holders of the same key inside one process.
// Different keys never contend.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedMutex
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]*keyedMutex),
	}
}

func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	km, ok := l.locks[key]
	if !ok {
		km = &keyedMutex{ch: make(chan struct{}, 1)}
		l.locks[key] = km
	}
	km.refs++
	l.mu.Unlock()

	select {
	case km.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, km, false)
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, km, true) })
	}, nil
}

func (l *MemoryLocker) release(key string, km *keyedMutex, held bool) {
	if held {
		<-km.ch
	}
	l.mu.Lock()
	km.refs--
	if km.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}
