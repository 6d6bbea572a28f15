// Package cache provides the bounded TTL caches and their key derivation.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/sahraevent/venuesearch/internal/metrics"
)

type entry[V any] struct {
	value    V
	inserted time.Time
}

// TTL is a size-bounded cache whose entries expire a fixed duration after insertion.
// Expiry is checked lazily on Get. At capacity the least recently used entry is evicted.
// Safe for concurrent use.
type TTL[V any] struct {
	name string
	ttl  time.Duration
	now  func() time.Time

	mu  sync.Mutex
	lru *simplelru.LRU[string, entry[V]]
}

// Option configures a TTL cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewTTL creates a cache holding at most capacity entries for ttl each.
// name labels the cache metrics.
func NewTTL[V any](name string, ttl time.Duration, capacity int, opts ...Option) (*TTL[V], error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("cache %s: ttl must be positive", name)
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	lru, err := simplelru.NewLRU[string, entry[V]](capacity, nil)
	if err != nil {
		return nil, fmt.Errorf("cache %s: %w", name, err)
	}
	return &TTL[V]{name: name, ttl: ttl, now: o.now, lru: lru}, nil
}

// Get returns the value for key if present and not expired.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.lru.Get(key)
	if !ok {
		metrics.CacheRequestsTotal.WithLabelValues(c.name, "miss").Inc()
		return zero, false
	}
	if c.now().Sub(e.inserted) > c.ttl {
		c.lru.Remove(key)
		metrics.CacheRequestsTotal.WithLabelValues(c.name, "expired").Inc()
		return zero, false
	}
	metrics.CacheRequestsTotal.WithLabelValues(c.name, "hit").Inc()
	return e.value, true
}

// Set inserts or overwrites key. Overwriting restarts the entry's TTL.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if evicted := c.lru.Add(key, entry[V]{value: value, inserted: c.now()}); evicted {
		metrics.CacheEvictionsTotal.WithLabelValues(c.name).Inc()
	}
}

// Len returns the number of entries, including expired ones not yet read.
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Purge drops all entries.
func (c *TTL[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}
