package lock

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesPerDoctor(t *testing.T) {
	km := NewKeyedMutex()
	doctor := uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := km.WithDoctorLock(context.Background(), doctor, func(ctx context.Context) error {
				// Not atomic on purpose; the lock must make it safe.
				v := counter
				counter = v + 1
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestKeyedMutexIndependentDoctors(t *testing.T) {
	km := NewKeyedMutex()
	a, b := uuid.New(), uuid.New()

	// Holding a's lock must not block b's.
	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = km.WithDoctorLock(context.Background(), a, func(ctx context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	done := make(chan struct{})
	go func() {
		_ = km.WithDoctorLock(context.Background(), b, func(ctx context.Context) error { return nil })
		close(done)
	}()
	<-done
	close(release)
}

func TestKeyedMutexCancelledContext(t *testing.T) {
	km := NewKeyedMutex()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := km.WithDoctorLock(ctx, uuid.New(), func(ctx context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
