package cache

import (
	"time"

	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/config"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog/log"
)

// Cache wraps Ristretto with the read-through semantics the request
// gateway needs: per-entry TTL, expiry checked on every Get, and a
// cheap Clear for manual invalidation.
type Cache struct {
	client     *ristretto.Cache
	defaultTTL time.Duration
}

// New creates a new cache instance with the given configuration
func New(cfg config.CacheConfig) (*Cache, error) {
	// Calculate max cost in bytes (convert MB to bytes)
	maxCost := int64(cfg.MaxSizeMB) * 1024 * 1024

	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64(cfg.CounterSize), // Number of keys to track frequency for admission
		MaxCost:     maxCost,                // Maximum cache size in bytes
		BufferItems: 64,                     // Number of keys per Get buffer
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("max_size_mb", cfg.MaxSizeMB).
		Int("ttl_seconds", cfg.TTLSeconds).
		Int("counter_size", cfg.CounterSize).
		Msg("Cache initialized successfully")

	return &Cache{
		client:     client,
		defaultTTL: time.Duration(cfg.TTLSeconds) * time.Second,
	}, nil
}

// Get retrieves a value from the cache.
// Returns (value, true) if found and not expired, (nil, false) otherwise.
func (c *Cache) Get(key string) (interface{}, bool) {
	if c.client == nil {
		return nil, false
	}
	return c.client.Get(key)
}

// Set stores a value with the configured default TTL.
// cost represents the memory cost of the item (use 1 for simple items).
func (c *Cache) Set(key string, value interface{}, cost int64) bool {
	return c.SetWithTTL(key, value, cost, c.defaultTTL)
}

// SetWithTTL stores a value with an explicit TTL. A Get after the TTL
// elapses never returns the entry.
func (c *Cache) SetWithTTL(key string, value interface{}, cost int64, ttl time.Duration) bool {
	if c.client == nil {
		return false
	}
	return c.client.SetWithTTL(key, value, cost, ttl)
}

// Wait blocks until buffered writes have been applied. Sets are
// asynchronous; callers that must read their own write use this.
func (c *Cache) Wait() {
	if c.client == nil {
		return
	}
	c.client.Wait()
}

// Delete removes a key from the cache
func (c *Cache) Delete(key string) {
	if c.client == nil {
		return
	}
	c.client.Del(key)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	if c.client == nil {
		return
	}
	c.client.Clear()
	log.Debug().Msg("Cache cleared")
}

// DefaultTTL returns the TTL applied by Set.
func (c *Cache) DefaultTTL() time.Duration {
	return c.defaultTTL
}

// Close cleanly shuts down the cache
func (c *Cache) Close() {
	if c.client != nil {
		c.client.Close()
		log.Info().Msg("Cache closed")
	}
}

// MetricsSnapshot is a point-in-time view of cache performance.
type MetricsSnapshot struct {
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	KeysAdded   uint64  `json:"keys_added"`
	KeysEvicted uint64  `json:"keys_evicted"`
	CostAdded   uint64  `json:"cost_added"`
	CostEvicted uint64  `json:"cost_evicted"`
	HitRatio    float64 `json:"hit_ratio"`
	TTLSeconds  int     `json:"ttl_seconds"`
}

// GetMetricsSnapshot returns current cache metrics as a snapshot
func (c *Cache) GetMetricsSnapshot() MetricsSnapshot {
	if c.client == nil || c.client.Metrics == nil {
		return MetricsSnapshot{TTLSeconds: int(c.defaultTTL.Seconds())}
	}

	m := c.client.Metrics
	hits := m.Hits()
	misses := m.Misses()
	total := hits + misses

	hitRatio := 0.0
	if total > 0 {
		hitRatio = float64(hits) / float64(total)
	}

	return MetricsSnapshot{
		Hits:        hits,
		Misses:      misses,
		KeysAdded:   m.KeysAdded(),
		KeysEvicted: m.KeysEvicted(),
		CostAdded:   m.CostAdded(),
		CostEvicted: m.CostEvicted(),
		HitRatio:    hitRatio,
		TTLSeconds:  int(c.defaultTTL.Seconds()),
	}
}
