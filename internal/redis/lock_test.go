package redisclient

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerializesPerPractitioner(t *testing.T) {
	locker := NewLocalLocker()
	praID := uuid.New()

	var (
		wg      sync.WaitGroup
		inside  int
		maxSeen int
		mu      sync.Mutex
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithPractitionerLock(context.Background(), praID, func(context.Context) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen, "critical section must never be entered concurrently")
}

func TestLocalLockerIndependentPractitioners(t *testing.T) {
	locker := NewLocalLocker()
	a, b := uuid.New(), uuid.New()

	// Holding a's lock must not block b's.
	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = locker.WithPractitionerLock(context.Background(), a, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	err := locker.WithPractitionerLock(context.Background(), b, func(context.Context) error { return nil })
	require.NoError(t, err)
	close(release)
}

func TestLocalLockerPropagatesCallbackError(t *testing.T) {
	locker := NewLocalLocker()
	want := errors.New("boom")

	err := locker.WithPractitionerLock(context.Background(), uuid.New(), func(context.Context) error { return want })
	assert.ErrorIs(t, err, want)
}
