package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stores-api/internal/models"
)

const (
	topStoresCacheKey = "stores:top"
	tagsCacheKey      = "stores:tags"
	aggregateCacheTTL = time.Hour
)

// AggregationCache serves the two expensive aggregations read-through from
// Redis. A miss or a Redis failure falls back to Mongo; writes to the cache
// are best effort.
type AggregationCache struct {
	rdb    *redis.Client
	stores *StoreService
}

func NewAggregationCache(rdb *redis.Client, stores *StoreService) *AggregationCache {
	return &AggregationCache{rdb: rdb, stores: stores}
}

// TopStores returns the cached top-stores ranking, recomputing on a miss.
func (c *AggregationCache) TopStores(ctx context.Context) ([]models.TopStore, error) {
	val, err := c.rdb.Get(ctx, topStoresCacheKey).Result()
	if err == nil {
		var top []models.TopStore
		if jsonErr := json.Unmarshal([]byte(val), &top); jsonErr == nil {
			return top, nil
		}
		// stale or corrupt entry, recompute below
	} else if err != redis.Nil {
		fmt.Printf("Redis read failed for %s: %v\n", topStoresCacheKey, err)
	}

	top, err := c.stores.TopStores(ctx)
	if err != nil {
		return nil, err
	}
	c.put(ctx, topStoresCacheKey, top)
	return top, nil
}

// Tags returns the cached tag counts, recomputing on a miss.
func (c *AggregationCache) Tags(ctx context.Context) ([]models.TagCount, error) {
	val, err := c.rdb.Get(ctx, tagsCacheKey).Result()
	if err == nil {
		var tags []models.TagCount
		if jsonErr := json.Unmarshal([]byte(val), &tags); jsonErr == nil {
			return tags, nil
		}
	} else if err != redis.Nil {
		fmt.Printf("Redis read failed for %s: %v\n", tagsCacheKey, err)
	}

	tags, err := c.stores.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	c.put(ctx, tagsCacheKey, tags)
	return tags, nil
}

// Warm recomputes both aggregations and rewrites the cache entries. Run
// from the hourly cron job.
func (c *AggregationCache) Warm(ctx context.Context) error {
	top, err := c.stores.TopStores(ctx)
	if err != nil {
		return fmt.Errorf("failed to warm top stores: %w", err)
	}
	c.put(ctx, topStoresCacheKey, top)

	tags, err := c.stores.ListTags(ctx)
	if err != nil {
		return fmt.Errorf("failed to warm tags: %w", err)
	}
	c.put(ctx, tagsCacheKey, tags)
	return nil
}

func (c *AggregationCache) put(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		fmt.Printf("Failed to marshal %s for caching: %v\n", key, err)
		return
	}
	if err := c.rdb.Set(ctx, key, data, aggregateCacheTTL).Err(); err != nil {
		fmt.Printf("Failed to cache %s in Redis: %v\n", key, err)
	}
}
