package utils

import (
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is an LRU cache with TTL support and hit/miss accounting
type Cache[K comparable, V any] struct {
	lru    *expirable.LRU[K, V]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates a cache holding at most maxSize entries for ttl each.
// A ttl of 0 keeps entries until they are evicted.
func NewCache[K comparable, V any](maxSize int, ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		lru: expirable.NewLRU[K, V](maxSize, nil, ttl),
	}
}

// Get retrieves a value from the cache
func (c *Cache[K, V]) Get(key K) (V, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Set adds or updates a value in the cache
func (c *Cache[K, V]) Set(key K, value V) {
	c.lru.Add(key, value)
}

// Delete removes a value from the cache
func (c *Cache[K, V]) Delete(key K) {
	c.lru.Remove(key)
}

// Clear removes all entries and resets the counters
func (c *Cache[K, V]) Clear() {
	c.lru.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Size returns the current number of entries
func (c *Cache[K, V]) Size() int {
	return c.lru.Len()
}

// Stats returns cache statistics
func (c *Cache[K, V]) Stats() (hits, misses int64, size int) {
	return c.hits.Load(), c.misses.Load(), c.lru.Len()
}

// HitRate returns the cache hit rate (0.0 to 1.0)
func (c *Cache[K, V]) HitRate() float64 {
	hits, misses := c.hits.Load(), c.misses.Load()
	total := hits + misses
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}
