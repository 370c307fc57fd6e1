package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sujalbistaa/shadowspace/internal/log"
	"github.com/sujalbistaa/shadowspace/internal/models"
)

// RecentFetcher is the slice of the post service the cache sits in front of.
type RecentFetcher interface {
	Recent(ctx context.Context, limit int) ([]models.Post, error)
}

// Cache is a read-through redis cache over the recent-posts query. Every
// write path (new post, vote, impression) invalidates it, so a page is at
// most TTL-stale and usually fresh.
type Cache struct {
	posts RecentFetcher
	rdb   *redis.Client
	ttl   time.Duration
}

func NewCache(posts RecentFetcher, rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{posts: posts, rdb: rdb, ttl: ttl}
}

func cacheKey(limit int) string {
	return fmt.Sprintf("feed:recent:%d", limit)
}

// Recent returns the most recent posts, serving from redis when possible.
// Cache failures fall through to the database; the feed must keep working
// without redis.
func (c *Cache) Recent(ctx context.Context, limit int) ([]models.Post, error) {
	key := cacheKey(limit)
	if data, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var posts []models.Post
		if uErr := json.Unmarshal(data, &posts); uErr == nil {
			return posts, nil
		}
	}

	posts, err := c.posts.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(posts); err == nil {
		if setErr := c.rdb.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			logger := log.WithComponent("feed")
			logger.Warn().Err(setErr).Msg("feed cache set failed")
		}
	}
	return posts, nil
}

// Invalidate drops all cached feed pages. Called after any write that
// changes feed contents.
func (c *Cache) Invalidate(ctx context.Context) {
	keys, err := c.rdb.Keys(ctx, "feed:recent:*").Result()
	if err != nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		logger := log.WithComponent("feed")
		logger.Warn().Err(err).Msg("feed cache invalidation failed")
	}
}
