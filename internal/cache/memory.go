package cache

import (
	"strings"
	"sync"
	"time"
)

// Config holds cache configuration
type Config struct {
	// MaxItems is the maximum number of items to store
	MaxItems int

	// DefaultTTL applies when Set is called with a zero ttl
	DefaultTTL time.Duration
}

// DefaultConfig returns a reasonable default cache configuration
func DefaultConfig() Config {
	return Config{
		MaxItems:   256,
		DefaultTTL: 10 * time.Minute,
	}
}

// Stats provides cache performance metrics
type Stats struct {
	Hits      int64
	Misses    int64
	Sets      int64
	Evictions int64
	Size      int
}

// HitRatio returns hits over lookups, or 0 before any lookup
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type item[V any] struct {
	value      V
	expiresAt  time.Time
	lastAccess time.Time
}

// Memory is an in-memory TTL cache bounded by Config.MaxItems.
// When full, the least recently accessed item is evicted.
type Memory[V any] struct {
	mu     sync.Mutex
	items  map[string]*item[V]
	config Config
	stats  Stats
	now    func() time.Time
}

// NewMemory creates a new in-memory cache
func NewMemory[V any](config Config) *Memory[V] {
	if config.MaxItems <= 0 {
		config.MaxItems = DefaultConfig().MaxItems
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = DefaultConfig().DefaultTTL
	}
	return &Memory[V]{
		items:  make(map[string]*item[V]),
		config: config,
		now:    time.Now,
	}
}

// Get retrieves a value from the cache
func (c *Memory[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	it, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}

	now := c.now()
	if now.After(it.expiresAt) {
		delete(c.items, key)
		c.stats.Misses++
		c.stats.Evictions++
		return zero, false
	}

	it.lastAccess = now
	c.stats.Hits++
	return it.value, true
}

// Set stores a value with ttl, or the default TTL when ttl is zero
func (c *Memory[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}

	if _, exists := c.items[key]; !exists && len(c.items) >= c.config.MaxItems {
		c.evictOldest()
	}

	now := c.now()
	c.items[key] = &item[V]{value: value, expiresAt: now.Add(ttl), lastAccess: now}
	c.stats.Sets++
}

// Delete removes a value from the cache
func (c *Memory[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear removes all values from the cache
func (c *Memory[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*item[V])
}

// Stats returns cache statistics
func (c *Memory[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = len(c.items)
	return stats
}

// evictOldest removes the least recently accessed item. Caller holds mu.
func (c *Memory[V]) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, it := range c.items {
		if oldestKey == "" || it.lastAccess.Before(oldest) {
			oldestKey, oldest = key, it.lastAccess
		}
	}
	if oldestKey != "" {
		delete(c.items, oldestKey)
		c.stats.Evictions++
	}
}

// GenerateKey creates a cache key from components
func GenerateKey(prefix string, components ...string) string {
	return prefix + ":" + strings.Join(components, ":")
}
