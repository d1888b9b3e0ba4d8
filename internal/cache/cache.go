// Package cache is a small read-through Redis cache for model parameters and
// other hot blobs. Every method degrades gracefully: a cache failure is a
// miss, never an error surfaced to the prediction path.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "foresight:"

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, addr, password string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Cache{client: client, ttl: ttl, logger: logger}, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// GetModelParams returns the cached parameter blob for a model, or ok=false
// on a miss or any Redis failure.
func (c *Cache) GetModelParams(ctx context.Context, modelName string) ([]byte, bool) {
	raw, err := c.client.Get(ctx, keyPrefix+"model:"+modelName).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("model params cache read failed", "model", modelName, "error", err)
		}
		return nil, false
	}
	return raw, true
}

// SetModelParams caches the parameter blob with the configured TTL.
func (c *Cache) SetModelParams(ctx context.Context, modelName string, params []byte) {
	if err := c.client.Set(ctx, keyPrefix+"model:"+modelName, params, c.ttl).Err(); err != nil {
		c.logger.Warn("model params cache write failed", "model", modelName, "error", err)
	}
}

// InvalidateModelParams drops the cached blob, e.g. after retraining.
func (c *Cache) InvalidateModelParams(ctx context.Context, modelName string) {
	if err := c.client.Del(ctx, keyPrefix+"model:"+modelName).Err(); err != nil {
		c.logger.Warn("model params cache invalidation failed", "model", modelName, "error", err)
	}
}
