package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ResultCache = (*ResultCache)(nil)

// ResultCache implements driven.ResultCache using Redis.
// Entries expire through Redis TTLs.
type ResultCache struct {
	client *redis.Client
	prefix string
}

// NewResultCache creates a new Redis-backed ResultCache
func NewResultCache(client *redis.Client) *ResultCache {
	return &ResultCache{client: client, prefix: "handover:"}
}

// Get returns a cached response or domain.ErrNotFound
func (c *ResultCache) Get(ctx context.Context, key string) (*domain.AggregateResponse, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached response: %w", err)
	}

	var resp domain.AggregateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		// A corrupt entry is a miss; the next Set overwrites it
		return nil, domain.ErrNotFound
	}
	return &resp, nil
}

// Set stores a response for ttl. A non-positive ttl stores nothing.
func (c *ResultCache) Set(ctx context.Context, key string, resp *domain.AggregateResponse, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache response: %w", err)
	}
	return nil
}
