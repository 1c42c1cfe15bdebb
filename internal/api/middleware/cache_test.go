package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mydscvr/backend/internal/domain/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]int
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string][]byte{}, ttls: map[string]int{}}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, ttl int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = append([]byte(nil), value...)
	c.ttls[key] = ttl
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *mapCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok, nil
}

func (c *mapCache) DeletePattern(context.Context, string) (int, error) {
	return 0, nil
}

func countingHandler(calls *int, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"categories":["music"]}`))
	})
}

func TestCacheMiddleware_MissThenHit(t *testing.T) {
	cache := newMapCache()
	calls := 0
	handler := NewCacheMiddleware(cache, nil, nil).Middleware(countingHandler(&calls, http.StatusOK))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/search/filters", nil))
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/search/filters", nil))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())

	assert.Equal(t, 1, calls)
	assert.Equal(t, 600, cache.ttls["http:cache:GET:/api/search/filters"])
}

func TestCacheMiddleware_SkipsUncachedRoutesAndErrors(t *testing.T) {
	cache := newMapCache()
	calls := 0
	ok := NewCacheMiddleware(cache, nil, nil).Middleware(countingHandler(&calls, http.StatusOK))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		ok.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=jazz", nil))
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, calls)

	failing := NewCacheMiddleware(cache, nil, nil).Middleware(countingHandler(&calls, http.StatusServiceUnavailable))
	rec := httptest.NewRecorder()
	failing.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search/filters", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, cache.entries)
}

func TestCacheMiddleware_NilCachePassesThrough(t *testing.T) {
	calls := 0
	handler := NewCacheMiddleware(nil, nil, nil).Middleware(countingHandler(&calls, http.StatusOK))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search/filters", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calls)
}

func TestCacheKey_SortsQuery(t *testing.T) {
	a := httptest.NewRequest(http.MethodGet, "/api/search/suggestions?q=ja&limit=5", nil)
	b := httptest.NewRequest(http.MethodGet, "/api/search/suggestions?limit=5&q=ja", nil)

	assert.Equal(t, "http:cache:GET:/api/search/suggestions?limit=5&q=ja", CacheKey(a))
	assert.Equal(t, CacheKey(a), CacheKey(b))
	assert.Equal(t, "http:cache:GET:/api/search/filters", CacheKey(httptest.NewRequest(http.MethodGet, "/api/search/filters", nil)))
}
