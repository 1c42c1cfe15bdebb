package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mydscvr/backend/internal/domain/providers"
	redisclient "github.com/mydscvr/backend/internal/infrastructure/clients/redis"
	"github.com/mydscvr/backend/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redisclient.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, redisclient.NewFromRedis(rdb)
}

func TestRedisAdapter_GetSetMiss(t *testing.T) {
	_, client := newTestClient(t)
	adapter := NewRedisAdapter(client)
	ctx := context.Background()

	_, err := adapter.Get(ctx, "missing")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	require.NoError(t, adapter.Set(ctx, "k", []byte("v"), 60))
	got, err := adapter.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	ok, err := adapter.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, adapter.Delete(ctx, "k"))
	ok, err = adapter.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisAdapter_SetHonoursTTL(t *testing.T) {
	mr, client := newTestClient(t)
	adapter := NewRedisAdapter(client)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "short", []byte("v"), 5))
	mr.FastForward(6 * time.Second)

	_, err := adapter.Get(ctx, "short")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestRedisAdapter_DeletePatternScansAllPages(t *testing.T) {
	mr, client := newTestClient(t)
	adapter := NewRedisAdapter(client)

	for i := 0; i < 450; i++ {
		require.NoError(t, mr.Set(fmt.Sprintf("http:cache:GET:/api/search/filters?v=%d", i), "x"))
	}
	require.NoError(t, mr.Set("http:cache:GET:/api/search/date-filters", "x"))

	n, err := adapter.DeletePattern(context.Background(), "http:cache:*/api/search/filters*")
	require.NoError(t, err)
	assert.Equal(t, 450, n)
	assert.Equal(t, []string{"http:cache:GET:/api/search/date-filters"}, mr.Keys())
}

func TestRedisAdapter_DeletePatternInterleavedKeys(t *testing.T) {
	mr, client := newTestClient(t)
	adapter := NewRedisAdapter(client)

	for i := 0; i < 600; i++ {
		require.NoError(t, mr.Set(fmt.Sprintf("http:cache:GET:/api/search/suggestions?q=%03d", i), "x"))
		require.NoError(t, mr.Set(fmt.Sprintf("ratelimit:search:%03d", i), "1"))
	}

	n, err := adapter.DeletePattern(context.Background(), "http:cache:*")
	require.NoError(t, err)
	assert.Equal(t, 600, n)
	assert.Len(t, mr.Keys(), 600)

	n, err = adapter.DeletePattern(context.Background(), "http:cache:*")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisRateLimitStore_SlidingWindow(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewRedisRateLimitStore(client)
	ctx := context.Background()
	start := time.Date(2026, time.October, 21, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		res, err := store.Allow(ctx, "search:1.2.3.4", 3, time.Minute, start.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
		assert.Equal(t, start.Add(time.Minute), res.Reset)
	}

	res, err := store.Allow(ctx, "search:1.2.3.4", 3, time.Minute, start.Add(10*time.Second))
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 50*time.Second, res.RetryAfter)
	assert.Equal(t, 50, res.RetryAfterSeconds())

	card, err := mr.ZMembers("ratelimit:search:1.2.3.4")
	require.NoError(t, err)
	assert.Len(t, card, 3, "rejected requests are not recorded")

	// the first stamp leaves the window exactly one window after it was taken
	res, err = store.Allow(ctx, "search:1.2.3.4", 3, time.Minute, start.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	assert.True(t, mr.TTL("ratelimit:search:1.2.3.4") > 0)
}

func TestRedisRateLimitStore_KeysAreIndependent(t *testing.T) {
	_, client := newTestClient(t)
	limiter, err := ratelimit.New("search", 1, time.Minute, ratelimit.WithStore(NewRedisRateLimitStore(client)))
	require.NoError(t, err)
	ctx := context.Background()

	first, err := limiter.Check(ctx, "a")
	require.NoError(t, err)
	second, err := limiter.Check(ctx, "a")
	require.NoError(t, err)
	other, err := limiter.Check(ctx, "b")
	require.NoError(t, err)

	assert.True(t, first.Allowed)
	assert.False(t, second.Allowed)
	assert.True(t, other.Allowed)
}
