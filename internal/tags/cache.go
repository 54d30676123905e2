package tags

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "tags:version"

// Cache keeps tag listings with item counts in Redis. Counts drift with
// every item tag-set write, so writers bump a version key instead of
// hunting down individual listing keys.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

type cachedListing struct {
	Tags  []WithCount `json:"tags"`
	Total int64       `json:"total"`
}

// Get returns a cached listing, ok=false on miss or when disabled.
func (c *Cache) Get(ctx context.Context, term string, take, skip int) ([]WithCount, int64, bool) {
	if c == nil || c.client == nil {
		return nil, 0, false
	}
	raw, err := c.client.Get(ctx, c.key(ctx, term, take, skip)).Bytes()
	if err != nil {
		return nil, 0, false
	}
	var listing cachedListing
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, 0, false
	}
	return listing.Tags, listing.Total, true
}

// Set stores a listing window.
func (c *Cache) Set(ctx context.Context, term string, take, skip int, tags []WithCount, total int64) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(cachedListing{Tags: tags, Total: total})
	if err != nil {
		return
	}
	c.client.Set(ctx, c.key(ctx, term, take, skip), raw, c.ttl)
}

// Invalidate retires every cached listing by bumping the version.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Incr(ctx, cacheVersionKey)
}

func (c *Cache) key(ctx context.Context, term string, take, skip int) string {
	version, _ := c.client.Get(ctx, cacheVersionKey).Int64()
	return fmt.Sprintf("tags:list:%d:%s:%d:%d", version, term, take, skip)
}
