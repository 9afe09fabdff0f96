package lock

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrNotAcquired = errors.New("doctor lock not acquired")

// Locker serializes scheduling writes for a single doctor. Both window
// creation and booking run their check-then-insert sequence inside the lock,
// so no two writes for the same doctor are evaluated concurrently.
// Implementations may fail fast with ErrNotAcquired instead of blocking.
type Locker interface {
	WithDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context) error) error
}

// KeyedMutex is an in-process Locker backed by one mutex per doctor.
// Used by tests and the single-node deployments that skip Redis.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (k *KeyedMutex) WithDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context) error) error {
	k.mu.Lock()
	m, ok := k.locks[doctorID]
	if !ok {
		m = &sync.Mutex{}
		k.locks[doctorID] = m
	}
	k.mu.Unlock()

	m.Lock()
	defer m.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}
