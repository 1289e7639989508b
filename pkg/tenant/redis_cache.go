package tenant

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache shares resolved tenants between service instances.
// Cache errors degrade to misses; the provider remains the source of truth.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a Redis-backed tenant cache.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, prefix: "tenant:"}
}

func (c *RedisCache) Get(ctx context.Context, identifier string) (Tenant, bool) {
	data, err := c.client.Get(ctx, c.prefix+identifier).Bytes()
	if err != nil {
		return Tenant{}, false
	}
	var t Tenant
	if err := json.Unmarshal(data, &t); err != nil {
		return Tenant{}, false
	}
	return t, true
}

func (c *RedisCache) Set(ctx context.Context, identifier string, t Tenant, ttl time.Duration) {
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.prefix+identifier, data, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, identifier string) {
	_ = c.client.Del(ctx, c.prefix+identifier).Err()
}
