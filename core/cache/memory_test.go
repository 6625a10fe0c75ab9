package cache_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsroute/fsroute/core/cache"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("put_then_get_within_ttl", func(t *testing.T) {
		t.Parallel()

		store := cache.NewMemory(8)
		store.Put(ctx, "k", cache.Entry{
			Status: 200,
			Body:   []byte("cached"),
			TTL:    50 * time.Millisecond,
		})

		entry, ok := store.Get(ctx, "k")
		require.True(t, ok)
		assert.Equal(t, 200, entry.Status)
		assert.Equal(t, []byte("cached"), entry.Body)
		assert.Equal(t, "k", entry.Key)
	})

	t.Run("expired_entry_is_a_miss_and_removed", func(t *testing.T) {
		t.Parallel()

		store := cache.NewMemory(8)
		store.Put(ctx, "k", cache.Entry{Body: []byte("stale"), TTL: 30 * time.Millisecond})

		time.Sleep(50 * time.Millisecond)

		_, ok := store.Get(ctx, "k")
		assert.False(t, ok)
		assert.Equal(t, 0, store.Stats().Size)
	})

	t.Run("absent_key_is_a_miss", func(t *testing.T) {
		t.Parallel()

		store := cache.NewMemory(8)
		_, ok := store.Get(ctx, "nothing")
		assert.False(t, ok)
	})

	t.Run("full_store_evicts_oldest_entry", func(t *testing.T) {
		t.Parallel()

		store := cache.NewMemory(2)
		now := time.Now()
		store.Put(ctx, "old", cache.Entry{CreatedAt: now.Add(-2 * time.Minute), TTL: time.Hour})
		store.Put(ctx, "mid", cache.Entry{CreatedAt: now.Add(-1 * time.Minute), TTL: time.Hour})
		store.Put(ctx, "new", cache.Entry{CreatedAt: now, TTL: time.Hour})

		_, ok := store.Get(ctx, "old")
		assert.False(t, ok)
		_, ok = store.Get(ctx, "mid")
		assert.True(t, ok)
		_, ok = store.Get(ctx, "new")
		assert.True(t, ok)
	})

	t.Run("overwrite_does_not_evict", func(t *testing.T) {
		t.Parallel()

		store := cache.NewMemory(2)
		store.Put(ctx, "a", cache.Entry{TTL: time.Hour})
		store.Put(ctx, "b", cache.Entry{TTL: time.Hour})
		store.Put(ctx, "a", cache.Entry{TTL: time.Hour})

		assert.Equal(t, 2, store.Stats().Size)
		_, ok := store.Get(ctx, "b")
		assert.True(t, ok)
	})

	t.Run("stats_track_counters", func(t *testing.T) {
		t.Parallel()

		store := cache.NewMemory(8)
		store.Put(ctx, "k", cache.Entry{TTL: time.Hour})
		store.Get(ctx, "k")
		store.Get(ctx, "absent")

		stats := store.Stats()
		assert.Equal(t, "memory", stats.Driver)
		assert.True(t, stats.Enabled)
		assert.Equal(t, uint64(1), stats.Hits)
		assert.Equal(t, uint64(1), stats.Misses)
		assert.Equal(t, uint64(1), stats.Writes)
		assert.Equal(t, 1, stats.Size)
		assert.Equal(t, 8, stats.Max)
	})

	t.Run("close_drops_all_entries", func(t *testing.T) {
		t.Parallel()

		store := cache.NewMemory(8)
		store.Put(ctx, "k", cache.Entry{TTL: time.Hour})
		require.NoError(t, store.Close())

		_, ok := store.Get(ctx, "k")
		assert.False(t, ok)
	})

	t.Run("concurrent_access_is_safe", func(t *testing.T) {
		t.Parallel()

		store := cache.NewMemory(64)
		done := make(chan struct{})
		for i := 0; i < 4; i++ {
			go func(n int) {
				defer func() { done <- struct{}{} }()
				for j := 0; j < 100; j++ {
					key := fmt.Sprintf("k%d", j%8)
					store.Put(ctx, key, cache.Entry{TTL: time.Hour})
					store.Get(ctx, key)
				}
			}(i)
		}
		for i := 0; i < 4; i++ {
			<-done
		}
	})
}

func TestDefaultKey(t *testing.T) {
	t.Parallel()

	t.Run("method_and_path", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest("GET", "/users/42", nil)
		assert.Equal(t, "GET:/users/42", cache.DefaultKey(r))
	})

	t.Run("query_order_is_canonical", func(t *testing.T) {
		t.Parallel()

		a := httptest.NewRequest("GET", "/search?b=2&a=1", nil)
		b := httptest.NewRequest("GET", "/search?a=1&b=2", nil)
		assert.Equal(t, cache.DefaultKey(a), cache.DefaultKey(b))
		assert.Equal(t, "GET:/search?a=1&b=2", cache.DefaultKey(a))
	})
}
