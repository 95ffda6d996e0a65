package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the L1Cache implementation backed by internal/mredis.
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisCache builds an L1Cache against client, namespacing keys under
// prefix (e.g. "idempotency:payments:").
func NewRedisCache(client *redis.Client, keyPrefix string) *RedisCache {
	return &RedisCache{client: client, keyPrefix: keyPrefix}
}

type redisPayload struct {
	StatusCode   int       `json:"status_code"`
	ResponseBody []byte    `json:"response_body"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Record, bool, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	var p redisPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false, err
	}

	return &Record{
		Key:          key,
		StatusCode:   p.StatusCode,
		ResponseBody: p.ResponseBody,
		ExpiresAt:    p.ExpiresAt,
	}, true, nil
}

func (c *RedisCache) Set(ctx context.Context, rec *Record, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	raw, err := json.Marshal(redisPayload{
		StatusCode:   rec.StatusCode,
		ResponseBody: rec.ResponseBody,
		ExpiresAt:    rec.ExpiresAt,
	})
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.keyPrefix+rec.Key, raw, ttl).Err()
}
