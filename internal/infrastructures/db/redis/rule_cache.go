package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	derr "github.com/ozzus/fan-avia/exchange-rules/internal/domain/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rules:"

type RuleCache struct {
	redis *redis.Client
}

func NewRuleCache(redisClient *redis.Client) *RuleCache {
	return &RuleCache{redis: redisClient}
}

// Get decodes the cached JSON payload into dst.
func (c *RuleCache) Get(ctx context.Context, key string, dst any) error {
	data, err := c.redis.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return derr.ErrCacheMiss
		}
		return fmt.Errorf("redis get rule: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal cached rule: %w", err)
	}
	return nil
}

func (c *RuleCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal rule for cache: %w", err)
	}

	if err := c.redis.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set rule: %w", err)
	}
	return nil
}
