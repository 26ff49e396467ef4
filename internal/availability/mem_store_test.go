package availability

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveConcurrent(t *testing.T) {
	store := NewMemStore()
	praID := uuid.New()

	const attempts = 50
	var (
		wg        sync.WaitGroup
		successes int64
		conflicts int64
		mu        sync.Mutex
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Reserve(context.Background(), praID, "15_6_2025", "10:00 AM")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrAlreadyReserved):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), successes)
	assert.Equal(t, int64(attempts-1), conflicts)
}

func TestReleaseIsIdempotent(t *testing.T) {
	store := NewMemStore()
	praID := uuid.New()
	ctx := context.Background()

	require.NoError(t, store.Reserve(ctx, praID, "15_6_2025", "10:00 AM"))

	require.NoError(t, store.Release(ctx, praID, "15_6_2025", "10:00 AM"))
	require.NoError(t, store.Release(ctx, praID, "15_6_2025", "10:00 AM"))

	reserved, err := store.IsReserved(ctx, praID, "15_6_2025", "10:00 AM")
	require.NoError(t, err)
	assert.False(t, reserved)

	// The slot is bookable again.
	assert.NoError(t, store.Reserve(ctx, praID, "15_6_2025", "10:00 AM"))
}

func TestReserveDifferentPractitionersDoNotConflict(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	require.NoError(t, store.Reserve(ctx, uuid.New(), "15_6_2025", "10:00 AM"))
	require.NoError(t, store.Reserve(ctx, uuid.New(), "15_6_2025", "10:00 AM"))
}

func TestReservedTimes(t *testing.T) {
	store := NewMemStore()
	praID := uuid.New()
	ctx := context.Background()

	require.NoError(t, store.Reserve(ctx, praID, "15_6_2025", "10:00 AM"))
	require.NoError(t, store.Reserve(ctx, praID, "15_6_2025", "4:30 PM"))
	require.NoError(t, store.Reserve(ctx, praID, "16_6_2025", "11:00 AM"))

	booked, err := store.ReservedTimes(ctx, praID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"10:00 AM", "4:30 PM"}, booked["15_6_2025"])
	assert.Equal(t, []string{"11:00 AM"}, booked["16_6_2025"])
}

func TestSetAvailableReturnsPrevious(t *testing.T) {
	store := NewMemStore()
	praID := uuid.New()
	ctx := context.Background()

	_, err := store.SetAvailable(ctx, uuid.New(), true)
	assert.ErrorIs(t, err, ErrPractitionerNotFound)

	store.AddPractitioner(praID, false)

	prev, err := store.SetAvailable(ctx, praID, true)
	require.NoError(t, err)
	assert.False(t, prev)

	prev, err = store.SetAvailable(ctx, praID, true)
	require.NoError(t, err)
	assert.True(t, prev)
}

func TestIsAvailableReflectsSetAvailable(t *testing.T) {
	store := NewMemStore()
	praID := uuid.New()
	ctx := context.Background()

	_, err := store.IsAvailable(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrPractitionerNotFound)

	store.AddPractitioner(praID, true)

	available, err := store.IsAvailable(ctx, praID)
	require.NoError(t, err)
	assert.True(t, available)

	_, err = store.SetAvailable(ctx, praID, false)
	require.NoError(t, err)

	available, err = store.IsAvailable(ctx, praID)
	require.NoError(t, err)
	assert.False(t, available)
}
