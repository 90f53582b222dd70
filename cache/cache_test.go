package cache

import (
	"testing"
	"time"

	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/config"
)

func newTestCache(t *testing.T, ttlSeconds int) *Cache {
	t.Helper()
	cfg := config.CacheConfig{
		Enabled:     true,
		MaxSizeMB:   10,
		TTLSeconds:  ttlSeconds,
		CounterSize: 1000,
	}
	cache, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	t.Cleanup(cache.Close)
	return cache
}

func TestCacheBasicOperations(t *testing.T) {
	cache := newTestCache(t, 60)

	t.Run("Set_and_Get", func(t *testing.T) {
		key := "test_key"
		value := "test_value"

		ok := cache.Set(key, value, 1)
		if !ok {
			t.Error("Failed to set value in cache")
		}
		cache.Wait()

		retrieved, found := cache.Get(key)
		if !found {
			t.Error("Value not found in cache")
		}
		if retrieved != value {
			t.Errorf("Expected %v, got %v", value, retrieved)
		}
	})

	t.Run("Get_NonExistent", func(t *testing.T) {
		_, found := cache.Get("nonexistent_key")
		if found {
			t.Error("Expected key not to be found")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		key := "delete_key"
		cache.Set(key, "delete_value", 1)
		cache.Wait()

		if _, found := cache.Get(key); !found {
			t.Error("Value should exist before deletion")
		}

		cache.Delete(key)
		time.Sleep(10 * time.Millisecond)

		if _, found := cache.Get(key); found {
			t.Error("Value should not exist after deletion")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		cache.Set("a", 1, 1)
		cache.Set("b", 2, 1)
		cache.Wait()

		cache.Clear()

		if _, found := cache.Get("a"); found {
			t.Error("Value 'a' should not survive Clear")
		}
		if _, found := cache.Get("b"); found {
			t.Error("Value 'b' should not survive Clear")
		}
	})
}

func TestCacheTTL(t *testing.T) {
	cache := newTestCache(t, 1)

	key := "ttl_key"
	cache.Set(key, "ttl_value", 1)
	cache.Wait()

	// Verify it exists
	if _, found := cache.Get(key); !found {
		t.Error("Value should exist immediately after setting")
	}

	// Wait for TTL to expire
	time.Sleep(1200 * time.Millisecond)

	// A Get past the deadline must never return the entry
	if _, found := cache.Get(key); found {
		t.Error("Value should have expired after TTL")
	}
}

func TestCachePerEntryTTL(t *testing.T) {
	cache := newTestCache(t, 60)

	cache.SetWithTTL("short", "value", 1, 500*time.Millisecond)
	cache.SetWithTTL("long", "value", 1, time.Minute)
	cache.Wait()

	time.Sleep(700 * time.Millisecond)

	if _, found := cache.Get("short"); found {
		t.Error("Entry with short TTL should have expired")
	}
	if _, found := cache.Get("long"); !found {
		t.Error("Entry with long TTL should still be present")
	}
}

func TestCacheMetrics(t *testing.T) {
	cache := newTestCache(t, 60)

	cache.Set("key1", "value1", 1)
	cache.Set("key2", "value2", 1)
	cache.Wait()

	cache.Get("key1") // Hit
	cache.Get("key2") // Hit
	cache.Get("key3") // Miss

	time.Sleep(200 * time.Millisecond) // Metrics update asynchronously

	metrics := cache.GetMetricsSnapshot()

	// Ristretto metrics are async, so be lenient in assertions
	if metrics.TTLSeconds != 60 {
		t.Errorf("Expected TTL 60 seconds, got %d", metrics.TTLSeconds)
	}

	t.Logf("Cache metrics: Hits=%d, Misses=%d, KeysAdded=%d, HitRatio=%.2f",
		metrics.Hits, metrics.Misses, metrics.KeysAdded, metrics.HitRatio)
}

func TestCacheNilHandling(t *testing.T) {
	cache := &Cache{client: nil}

	// All operations should be safe with nil client
	val, found := cache.Get("key")
	if found {
		t.Error("Get should return false with nil client")
	}
	if val != nil {
		t.Error("Get should return nil value with nil client")
	}

	if ok := cache.Set("key", "value", 1); ok {
		t.Error("Set should return false with nil client")
	}

	// Should not panic
	cache.Delete("key")
	cache.Clear()
	cache.Wait()
	cache.Close()

	metrics := cache.GetMetricsSnapshot()
	if metrics.Hits != 0 {
		t.Error("Nil cache should return zero metrics")
	}
}
