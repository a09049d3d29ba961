package throttle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncrementCounts(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	for want := 1; want <= 5; want++ {
		got, err := store.Increment(ctx, "subject:doc_auth", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	count, err := store.Count(ctx, "subject:doc_auth")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestIncrementIsolatesKeys(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	_, err := store.Increment(ctx, "a", time.Minute)
	require.NoError(t, err)

	count, err := store.Count(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIncrementResetsExpiredWindow(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	_, err := store.Increment(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	count, err := store.Increment(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "expired window must restart the count")
}

func TestIncrementAtomicUnderConcurrency(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			_, _ = store.Increment(ctx, "contended", time.Minute)
		}()
	}
	wg.Wait()

	count, err := store.Count(ctx, "contended")
	require.NoError(t, err)
	assert.Equal(t, goroutines, count, "every concurrent increment must land exactly once")
}

func TestLockLifecycle(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	until, err := store.LockedUntil(ctx, "subject")
	require.NoError(t, err)
	assert.Nil(t, until)

	lockUntil := time.Now().Add(time.Hour)
	require.NoError(t, store.Lock(ctx, "subject", lockUntil))

	until, err = store.LockedUntil(ctx, "subject")
	require.NoError(t, err)
	require.NotNil(t, until)
	assert.WithinDuration(t, lockUntil, *until, time.Second)

	require.NoError(t, store.Reset(ctx, "subject"))
	until, err = store.LockedUntil(ctx, "subject")
	require.NoError(t, err)
	assert.Nil(t, until)
}

func TestExpiredLockNotReported(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	require.NoError(t, store.Lock(ctx, "subject", time.Now().Add(-time.Minute)))

	until, err := store.LockedUntil(ctx, "subject")
	require.NoError(t, err)
	assert.Nil(t, until)
}
