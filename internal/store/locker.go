package store

import (
	"context"
	"errors"
	"sync"
)

// Locker serializes read-modify-write cycles per key within a process.
// Across processes the stored version still guards against lost updates.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewLocker returns an empty Locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*keyLock)}
}

// Lock acquires the lock for (kind, key) and returns its release function.
func (l *Locker) Lock(kind Kind, key string) func() {
	id := string(kind) + "/" + key

	l.mu.Lock()
	kl, ok := l.locks[id]
	if !ok {
		kl = &keyLock{}
		l.locks[id] = kl
	}
	kl.refs++
	l.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		l.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

// UpdateFunc receives the current payload (nil when the key is absent) and
// returns the payload to store.
type UpdateFunc func(current []byte) ([]byte, error)

// Update runs a read-modify-write of (kind, key) under the key's lock and
// saves with the version it read, so a concurrent writer in another process
// surfaces as ErrConflict instead of a lost update.
func (l *Locker) Update(ctx context.Context, s Store, kind Kind, key string, fn UpdateFunc) (int64, error) {
	unlock := l.Lock(kind, key)
	defer unlock()

	var current []byte
	var version int64
	e, err := s.Load(ctx, kind, key)
	switch {
	case err == nil:
		current, version = e.Payload, e.Version
	case errors.Is(err, ErrNotFound):
	default:
		return 0, err
	}

	next, err := fn(current)
	if err != nil {
		return 0, err
	}
	return s.Save(ctx, kind, key, next, version)
}
