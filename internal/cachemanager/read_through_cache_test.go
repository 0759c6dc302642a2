package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type listQuery struct {
	Page int
}

func TestReadThroughCache_SkipCacheAlwaysFetches(t *testing.T) {
	cache := NewInMemoryCacheManager[string, []feedItem]("insights", DefaultExpiration, DefaultCleanupInterval)

	fetches := 0
	rtc := NewReadThroughCache(
		cache,
		func(ctx context.Context, q listQuery) ([]feedItem, error) {
			fetches++
			return []feedItem{{ID: q.Page}}, nil
		},
		true,
	)

	for i := 0; i < 3; i++ {
		items, err := rtc.Get(context.Background(), "insights:list", listQuery{Page: 1}, time.Minute)
		require.NoError(t, err)
		require.Equal(t, []feedItem{{ID: 1}}, items)
	}
	require.Equal(t, 3, fetches)

	// Nothing should have been cached along the way
	_, ok := cache.Get(context.Background(), "insights:list")
	require.False(t, ok)
}

func TestReadThroughCache_MissFetchesAndCaches(t *testing.T) {
	cache := NewInMemoryCacheManager[string, []feedItem]("insights", DefaultExpiration, DefaultCleanupInterval)

	fetches := 0
	rtc := NewReadThroughCache(
		cache,
		func(ctx context.Context, q listQuery) ([]feedItem, error) {
			fetches++
			return []feedItem{{ID: 1, Title: "Low Stock Alert"}}, nil
		},
		false,
	)

	items, err := rtc.Get(context.Background(), "insights:list", listQuery{}, time.Minute)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 1, fetches)

	// Second call is served from the cache
	items, err = rtc.Get(context.Background(), "insights:list", listQuery{}, time.Minute)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 1, fetches)
}

func TestReadThroughCache_FetchErrorNotCached(t *testing.T) {
	cache := NewInMemoryCacheManager[string, []feedItem]("insights", DefaultExpiration, DefaultCleanupInterval)

	fetchErr := errors.New("feed unavailable")
	calls := 0
	rtc := NewReadThroughCache(
		cache,
		func(ctx context.Context, q listQuery) ([]feedItem, error) {
			calls++
			if calls == 1 {
				return nil, fetchErr
			}
			return []feedItem{{ID: 2}}, nil
		},
		false,
	)

	_, err := rtc.Get(context.Background(), "insights:list", listQuery{}, time.Minute)
	require.ErrorIs(t, err, fetchErr)

	// The failure must not poison the cache: the retry fetches fresh
	items, err := rtc.Get(context.Background(), "insights:list", listQuery{}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []feedItem{{ID: 2}}, items)
	require.Equal(t, 2, calls)
}

func TestReadThroughCache_HitSkipsFetch(t *testing.T) {
	cache := NewInMemoryCacheManager[string, []feedItem]("insights", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "insights:list", []feedItem{{ID: 9}}, DefaultExpiration)

	rtc := NewReadThroughCache(
		cache,
		func(ctx context.Context, q listQuery) ([]feedItem, error) {
			t.Fatal("fetch should not run on a cache hit")
			return nil, nil
		},
		false,
	)

	items, err := rtc.Get(context.Background(), "insights:list", listQuery{}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []feedItem{{ID: 9}}, items)
}
