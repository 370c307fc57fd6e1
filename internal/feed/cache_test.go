package feed

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujalbistaa/shadowspace/internal/models"
)

// countingFetcher stands in for the post service and counts DB hits.
type countingFetcher struct {
	calls atomic.Int64
	posts []models.Post
}

func (f *countingFetcher) Recent(ctx context.Context, limit int) ([]models.Post, error) {
	f.calls.Add(1)
	if limit > len(f.posts) {
		limit = len(f.posts)
	}
	return f.posts[:limit], nil
}

func setupCache(t *testing.T) (*Cache, *countingFetcher, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	fetcher := &countingFetcher{posts: []models.Post{
		{ID: "p1", Content: "first", Version: 3},
		{ID: "p2", Content: "second", Version: 1},
	}}
	return NewCache(fetcher, rdb, time.Minute), fetcher, mr
}

func TestRecentServesFromCache(t *testing.T) {
	cache, fetcher, _ := setupCache(t)
	ctx := context.Background()

	posts, err := cache.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.EqualValues(t, 1, fetcher.calls.Load())

	// Second read is a cache hit.
	posts, err = cache.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "p1", posts[0].ID)
	assert.EqualValues(t, 3, posts[0].Version)
	assert.EqualValues(t, 1, fetcher.calls.Load())
}

func TestDifferentLimitsCacheSeparately(t *testing.T) {
	cache, fetcher, _ := setupCache(t)
	ctx := context.Background()

	_, err := cache.Recent(ctx, 1)
	require.NoError(t, err)
	_, err = cache.Recent(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, fetcher.calls.Load())

	one, err := cache.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
	assert.EqualValues(t, 2, fetcher.calls.Load())
}

func TestInvalidateDropsAllPages(t *testing.T) {
	cache, fetcher, _ := setupCache(t)
	ctx := context.Background()

	_, err := cache.Recent(ctx, 1)
	require.NoError(t, err)
	_, err = cache.Recent(ctx, 2)
	require.NoError(t, err)
	require.EqualValues(t, 2, fetcher.calls.Load())

	cache.Invalidate(ctx)

	_, err = cache.Recent(ctx, 1)
	require.NoError(t, err)
	_, err = cache.Recent(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 4, fetcher.calls.Load())
}

func TestEntriesExpire(t *testing.T) {
	cache, fetcher, mr := setupCache(t)
	ctx := context.Background()

	_, err := cache.Recent(ctx, 2)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = cache.Recent(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, fetcher.calls.Load())
}

func TestRedisOutageFallsThroughToDB(t *testing.T) {
	cache, fetcher, mr := setupCache(t)
	ctx := context.Background()

	mr.Close()

	posts, err := cache.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.EqualValues(t, 1, fetcher.calls.Load())
}
