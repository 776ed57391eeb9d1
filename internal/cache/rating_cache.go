package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// sentinel value for "title has no reviews yet", so the absence of a
// rating is cacheable too
const noRating = "none"

// RatingCache caches derived title ratings. A nil *float64 means the
// title has no reviews; the second return of Get distinguishes a cached
// "no rating" from a cache miss.
type RatingCache interface {
	Get(ctx context.Context, titleID int64) (*float64, bool)
	Set(ctx context.Context, titleID int64, rating *float64)
	Invalidate(ctx context.Context, titleID int64)
}

type redisRatingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRatingCache(client *redis.Client, ttl time.Duration) RatingCache {
	return &redisRatingCache{client: client, ttl: ttl}
}

func ratingKey(titleID int64) string {
	return fmt.Sprintf("title:%d:rating", titleID)
}

// Get returns the cached rating. Redis errors degrade to a miss so the
// caller falls back to the database.
func (c *redisRatingCache) Get(ctx context.Context, titleID int64) (*float64, bool) {
	val, err := c.client.Get(ctx, ratingKey(titleID)).Result()
	if err != nil {
		return nil, false
	}
	if val == noRating {
		return nil, true
	}
	rating, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return nil, false
	}
	return &rating, true
}

func (c *redisRatingCache) Set(ctx context.Context, titleID int64, rating *float64) {
	val := noRating
	if rating != nil {
		val = strconv.FormatFloat(*rating, 'f', 1, 64)
	}
	// best effort: a failed write just means the next read recomputes
	c.client.Set(ctx, ratingKey(titleID), val, c.ttl)
}

func (c *redisRatingCache) Invalidate(ctx context.Context, titleID int64) {
	c.client.Del(ctx, ratingKey(titleID))
}

// noopRatingCache is used when no redis instance is configured.
type noopRatingCache struct{}

func NewNoopRatingCache() RatingCache {
	return noopRatingCache{}
}

func (noopRatingCache) Get(ctx context.Context, titleID int64) (*float64, bool) { return nil, false }
func (noopRatingCache) Set(ctx context.Context, titleID int64, rating *float64) {}
func (noopRatingCache) Invalidate(ctx context.Context, titleID int64)           {}
