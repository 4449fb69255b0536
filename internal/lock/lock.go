// Package lock provides keyed mutual exclusion used to serialise the
// check-then-insert sequence of booking creation per room.  Two
// implementations exist: an in-process keyed mutex for single-instance
// deployments and a Redis lock for deployments running several replicas.
package lock

import (
	"context"
	"sync"
)

// Locker acquires an exclusive lock on key.  The returned unlock function
// is safe to call more than once.  Lock blocks until the lock is acquired
// or ctx is done, in which case ctx.Err() is returned.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Memory is a keyed mutex.  Entries are reference counted and removed once
// nobody holds or waits for them, so the map does not grow with the number
// of rooms ever booked.
type Memory struct {
	mu    sync.Mutex
	locks map[string]*memEntry
}

type memEntry struct {
	ch   chan struct{}
	refs int
}

// NewMemory returns an empty in-process locker.
func NewMemory() *Memory {
	return &Memory{locks: make(map[string]*memEntry)}
}

func (m *Memory) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &memEntry{ch: make(chan struct{}, 1)}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			m.release(key, e)
		})
	}, nil
}

func (m *Memory) release(key string, e *memEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.locks, key)
	}
}

// size is used by tests to check that idle entries are dropped.
func (m *Memory) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
