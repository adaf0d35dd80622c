package repositories

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// BannedTokenCache mirrors the banned-token table in a Redis set. The table
// stays the source of truth; a cache miss says nothing.
type BannedTokenCache struct {
	client *redis.Client
	key    string
}

func NewBannedTokenCache(client *redis.Client, key string) *BannedTokenCache {
	if key == "" {
		key = "auth:banned_tokens"
	}
	return &BannedTokenCache{client: client, key: key}
}

func (c *BannedTokenCache) Contains(ctx context.Context, token string) (bool, error) {
	ok, err := c.client.SIsMember(ctx, c.key, token).Result()
	if err != nil {
		return false, fmt.Errorf("redis banned tokens: lookup failed: %w", err)
	}
	return ok, nil
}

func (c *BannedTokenCache) Add(ctx context.Context, token string) error {
	if err := c.client.SAdd(ctx, c.key, token).Err(); err != nil {
		return fmt.Errorf("redis banned tokens: add failed: %w", err)
	}
	return nil
}
