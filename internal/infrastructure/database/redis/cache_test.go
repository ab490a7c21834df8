package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medcodelab/substance-mapper/internal/infrastructure/monitoring/logging"
	"github.com/medcodelab/substance-mapper/pkg/errors"
)

type cachedRow struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

func newMockCache(t *testing.T) (Cache, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	client := &Client{
		rdb:    db,
		config: &Config{},
		logger: logging.NewNopLogger(),
	}
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return NewCache(client, logging.NewNopLogger(), WithPrefix("test:")), mock
}

func newLiveCache(t *testing.T) Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(&Config{Mode: "standalone", Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return NewCache(client, logging.NewNopLogger(), WithPrefix("test:"))
}

func TestCache_GetHit(t *testing.T) {
	cache, mock := newMockCache(t)

	want := cachedRow{Input: "Tamoxifen", Output: "Tamoxifen"}
	data, err := json.Marshal(want)
	require.NoError(t, err)
	mock.ExpectGet("test:row").SetVal(string(data))

	var got cachedRow
	require.NoError(t, cache.Get(context.Background(), "row", &got))
	assert.Equal(t, want, got)
}

func TestCache_GetMiss(t *testing.T) {
	cache, mock := newMockCache(t)

	mock.ExpectGet("test:absent").RedisNil()

	var got cachedRow
	assert.ErrorIs(t, cache.Get(context.Background(), "absent", &got), ErrCacheMiss)
}

func TestCache_GetNullSentinelIsMiss(t *testing.T) {
	cache, mock := newMockCache(t)

	mock.ExpectGet("test:row").SetVal(nullSentinel)

	var got cachedRow
	assert.ErrorIs(t, cache.Get(context.Background(), "row", &got), ErrCacheMiss)
}

func TestCache_Delete(t *testing.T) {
	cache, mock := newMockCache(t)

	mock.ExpectDel("test:a", "test:b").SetVal(2)

	assert.NoError(t, cache.Delete(context.Background(), "a", "b"))
	assert.NoError(t, cache.Delete(context.Background()))
}

func TestCache_Exists(t *testing.T) {
	cache, mock := newMockCache(t)

	mock.ExpectExists("test:row").SetVal(1)

	ok, err := cache.Exists(context.Background(), "row")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCache_SetThenGet(t *testing.T) {
	cache := newLiveCache(t)
	ctx := context.Background()

	want := cachedRow{Input: "Leuprorelin; Tamoxifen", Output: "Leuprorelin; Tamoxifen"}
	require.NoError(t, cache.Set(ctx, "row", want, time.Minute))

	var got cachedRow
	require.NoError(t, cache.Get(ctx, "row", &got))
	assert.Equal(t, want, got)
}

func TestCache_GetOrSet_LoadsOnMiss(t *testing.T) {
	cache := newLiveCache(t)
	ctx := context.Background()

	want := cachedRow{Input: "Letrozol", Output: "Letrozol"}
	loads := 0

	var got cachedRow
	err := cache.GetOrSet(ctx, "row", &got, time.Minute,
		func(ctx context.Context) (interface{}, error) {
			loads++
			return want, nil
		})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Second call is served from cache.
	var again cachedRow
	require.NoError(t, cache.GetOrSet(ctx, "row", &again, time.Minute,
		func(ctx context.Context) (interface{}, error) {
			loads++
			return want, nil
		}))
	assert.Equal(t, want, again)
	assert.Equal(t, 1, loads)
}

func TestCache_GetOrSet_PropagatesLoaderError(t *testing.T) {
	cache := newLiveCache(t)

	loaderErr := errors.New(errors.ErrCodeExternalService, "fetch failed")
	var got cachedRow
	err := cache.GetOrSet(context.Background(), "row", &got, time.Minute,
		func(ctx context.Context) (interface{}, error) {
			return nil, loaderErr
		})
	assert.ErrorIs(t, err, loaderErr)
}

func TestCache_GetOrSet_NilValueCachesNull(t *testing.T) {
	cache := newLiveCache(t)
	ctx := context.Background()

	var got cachedRow
	err := cache.GetOrSet(ctx, "row", &got, time.Minute,
		func(ctx context.Context) (interface{}, error) {
			return nil, nil
		})
	assert.ErrorIs(t, err, ErrCacheMiss)

	// The null sentinel is stored so repeated misses do not re-run the loader.
	ok, err := cache.Exists(ctx, "row")
	require.NoError(t, err)
	assert.True(t, ok)

	var again cachedRow
	assert.ErrorIs(t, cache.Get(ctx, "row", &again), ErrCacheMiss)
}

func TestCache_DeleteByPrefix(t *testing.T) {
	cache := newLiveCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "batch:1", cachedRow{}, time.Minute))
	require.NoError(t, cache.Set(ctx, "batch:2", cachedRow{}, time.Minute))
	require.NoError(t, cache.Set(ctx, "other", cachedRow{}, time.Minute))

	n, err := cache.DeleteByPrefix(ctx, "batch:")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ok, err := cache.Exists(ctx, "other")
	require.NoError(t, err)
	assert.True(t, ok)
}
