package aggregation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the T1Cache implementation backed by internal/mredis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache builds a T1Cache against client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, campaignRef string) (*Totals, bool, error) {
	raw, err := c.client.Get(ctx, HotKey(campaignRef)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	var totals Totals
	if err := json.Unmarshal(raw, &totals); err != nil {
		return nil, false, err
	}

	return &totals, true, nil
}

func (c *RedisCache) Set(ctx context.Context, totals *Totals, ttl time.Duration) error {
	raw, err := json.Marshal(totals)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, HotKey(totals.CampaignRef), raw, ttl).Err()
}

func (c *RedisCache) Del(ctx context.Context, campaignRef string) error {
	return c.client.Del(ctx, HotKey(campaignRef)).Err()
}
