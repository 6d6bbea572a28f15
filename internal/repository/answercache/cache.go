// Package answercache stores composed answers in memory with an optional shared L2.
package answercache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sahraevent/venuesearch/internal/cache"
	"github.com/sahraevent/venuesearch/internal/db"
)

const keyPrefix = "venuesearch:answer:"

// store is the consumer interface for the shared answer tier (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache serves answers from process memory first, then from the shared store.
// Shared-store failures are logged and treated as misses.
type Cache struct {
	mem    *cache.TTL[string]
	shared store
	ttl    time.Duration
	logger *zap.Logger
}

// New creates an answer cache. shared may be nil for a memory-only cache.
func New(mem *cache.TTL[string], shared store, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{mem: mem, shared: shared, ttl: ttl, logger: logger}
}

// Get returns the cached answer for key.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if answer, ok := c.mem.Get(key); ok {
		return answer, true
	}
	if c.shared == nil {
		return "", false
	}

	data, err := c.shared.Get(ctx, keyPrefix+key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get shared answer", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}

	answer := string(data)
	c.mem.Set(key, answer)
	return answer, true
}

// Set stores answer under key in both tiers.
func (c *Cache) Set(ctx context.Context, key, answer string) {
	c.mem.Set(key, answer)
	if c.shared == nil {
		return
	}
	if err := c.shared.SetWithTTL(ctx, keyPrefix+key, []byte(answer), c.ttl); err != nil {
		c.logger.Warn("Failed to store shared answer", zap.String("key", key), zap.Error(err))
	}
}
