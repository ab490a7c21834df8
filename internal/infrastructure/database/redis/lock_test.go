package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medcodelab/substance-mapper/internal/infrastructure/monitoring/logging"
)

func newLockClient(t *testing.T) *Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(&Config{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestMutex_TryLockUnlock(t *testing.T) {
	client := newLockClient(t)
	ctx := context.Background()

	m := NewMutex(client, logging.NewNopLogger(), "vocab-refresh", time.Minute)

	ok, err := m.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// Held: a second holder cannot take it.
	other := NewMutex(client, logging.NewNopLogger(), "vocab-refresh", time.Minute)
	ok, err = other.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Unlock(ctx))

	ok, err = other.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMutex_UnlockByNonOwnerFails(t *testing.T) {
	client := newLockClient(t)
	ctx := context.Background()

	owner := NewMutex(client, logging.NewNopLogger(), "vocab-refresh", time.Minute)
	ok, err := owner.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	intruder := NewMutex(client, logging.NewNopLogger(), "vocab-refresh", time.Minute)
	assert.ErrorIs(t, intruder.Unlock(ctx), ErrLockNotHeld)

	// The owner can still release.
	assert.NoError(t, owner.Unlock(ctx))
}

func TestMutex_Extend(t *testing.T) {
	client := newLockClient(t)
	ctx := context.Background()

	m := NewMutex(client, logging.NewNopLogger(), "vocab-refresh", time.Minute)
	ok, err := m.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	extended, err := m.Extend(ctx)
	require.NoError(t, err)
	assert.True(t, extended)

	// A non-owner cannot extend.
	other := NewMutex(client, logging.NewNopLogger(), "vocab-refresh", time.Minute)
	extended, err = other.Extend(ctx)
	require.NoError(t, err)
	assert.False(t, extended)
}

func TestMutex_LockBlocksUntilCancelled(t *testing.T) {
	client := newLockClient(t)

	held := NewMutex(client, logging.NewNopLogger(), "vocab-refresh", time.Minute)
	ok, err := held.TryLock(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	waiter := NewMutex(client, logging.NewNopLogger(), "vocab-refresh", time.Minute)
	err = waiter.Lock(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
