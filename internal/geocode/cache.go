package geocode

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/skylens/skylens/pkg/textscan"
)

const (
	// DefaultCacheCapacity bounds the number of cached locations.
	DefaultCacheCapacity = 500

	// DefaultCacheTTL is how long a resolved location stays valid.
	DefaultCacheTTL = 24 * time.Hour
)

// CacheConfig holds configuration for the location cache.
type CacheConfig struct {
	// Capacity is the maximum number of entries (default: 500).
	// The least-recently-used entry is evicted under pressure.
	Capacity int

	// TTL is how long entries stay valid (default: 24h).
	TTL time.Duration

	// Now returns the current time. Injectable for tests
	// (default: time.Now).
	Now func() time.Time
}

type cacheEntry struct {
	location   *LocationEntity
	insertedAt time.Time
}

// Cache is a bounded, time-expiring store of resolved place names.
// It is the only shared mutable state across concurrent requests.
type Cache struct {
	mu  sync.Mutex
	lru *lru.Cache[string, cacheEntry]
	ttl time.Duration
	now func() time.Time

	hits   int64
	misses int64
}

// NewCache creates a location cache with the given capacity and TTL.
func NewCache(cfg CacheConfig) *Cache {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	// lru.New only fails on non-positive sizes, which are defaulted above.
	store, _ := lru.New[string, cacheEntry](capacity)

	return &Cache{
		lru: store,
		ttl: ttl,
		now: now,
	}
}

// NormalizeKey converts a place name to its cache key form: lowercased,
// punctuation-trimmed, single-spaced.
func NormalizeKey(name string) string {
	return textscan.Normalize(name)
}

// Get returns the cached location for name, if present and unexpired.
// Expired entries are removed on access.
func (c *Cache) Get(name string) (*LocationEntity, bool) {
	key := NormalizeKey(name)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Get(key)
	if !ok {
		c.misses++
		return nil, false
	}
	if c.now().Sub(entry.insertedAt) >= c.ttl {
		c.lru.Remove(key)
		c.misses++
		return nil, false
	}

	c.hits++
	return entry.location, true
}

// Put stores a resolved location under its normalized name, refreshing the
// TTL if the key already exists. Expired entries are evicted on every
// write so the cache never carries dead weight between requests.
func (c *Cache) Put(name string, loc *LocationEntity) {
	key := NormalizeKey(name)
	if key == "" || loc == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictExpiredLocked()
	c.lru.Add(key, cacheEntry{location: loc, insertedAt: c.now()})
}

// evictExpiredLocked drops entries whose TTL has elapsed, oldest first.
// Insertion order approximates recency order well enough here because TTLs
// are uniform.
func (c *Cache) evictExpiredLocked() {
	now := c.now()
	for _, key := range c.lru.Keys() {
		entry, ok := c.lru.Peek(key)
		if !ok {
			continue
		}
		if now.Sub(entry.insertedAt) >= c.ttl {
			c.lru.Remove(key)
		}
	}
}

// Len returns the number of entries currently stored.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns cache hit/miss counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Entries: c.lru.Len(),
		Hits:    c.hits,
		Misses:  c.misses,
	}
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}
