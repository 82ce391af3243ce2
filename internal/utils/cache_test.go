package utils

import (
	"testing"
	"time"
)

func TestCacheBasicOperations(t *testing.T) {
	cache := NewCache[string, string](3, 0) // No TTL

	cache.Set("key1", "value1")
	val, ok := cache.Get("key1")
	if !ok {
		t.Error("Expected key1 to exist")
	}
	if val != "value1" {
		t.Errorf("Expected value1, got %v", val)
	}

	cache.Set("key2", "value2")
	cache.Set("key3", "value3")
	if cache.Size() != 3 {
		t.Errorf("Expected size 3, got %d", cache.Size())
	}

	if _, ok = cache.Get("nonexistent"); ok {
		t.Error("Expected key to not exist")
	}
}

func TestCacheLRUEviction(t *testing.T) {
	cache := NewCache[string, int](3, 0)

	cache.Set("key1", 1)
	cache.Set("key2", 2)
	cache.Set("key3", 3)

	// Access key1 to make it most recently used
	cache.Get("key1")

	// key2 is now least recently used
	cache.Set("key4", 4)

	if cache.Size() != 3 {
		t.Errorf("Expected size 3, got %d", cache.Size())
	}
	if _, ok := cache.Get("key2"); ok {
		t.Error("Expected key2 to be evicted")
	}
	if _, ok := cache.Get("key1"); !ok {
		t.Error("Expected key1 to still exist")
	}
}

func TestCacheTTL(t *testing.T) {
	cache := NewCache[string, string](10, 50*time.Millisecond)

	cache.Set("key1", "value1")

	if val, ok := cache.Get("key1"); !ok || val != "value1" {
		t.Error("Expected key1 to exist")
	}

	time.Sleep(100 * time.Millisecond)

	if _, ok := cache.Get("key1"); ok {
		t.Error("Expected key1 to be expired")
	}
}

func TestCacheUpdateAndDelete(t *testing.T) {
	cache := NewCache[string, string](10, 0)

	cache.Set("key1", "value1")
	cache.Set("key1", "value2")

	if val, ok := cache.Get("key1"); !ok || val != "value2" {
		t.Errorf("Expected value2, got %v", val)
	}
	if cache.Size() != 1 {
		t.Errorf("Expected size 1, got %d", cache.Size())
	}

	cache.Delete("key1")
	if _, ok := cache.Get("key1"); ok {
		t.Error("Expected key1 to be deleted")
	}
}

func TestCacheStats(t *testing.T) {
	cache := NewCache[string, string](10, 0)

	cache.Set("key1", "value1")
	cache.Get("key1")
	cache.Get("key1")
	cache.Get("missing")

	hits, misses, size := cache.Stats()
	if hits != 2 || misses != 1 || size != 1 {
		t.Errorf("Unexpected stats: hits=%d misses=%d size=%d", hits, misses, size)
	}

	if rate := cache.HitRate(); rate < 0.66 || rate > 0.67 {
		t.Errorf("Expected hit rate ~0.667, got %f", rate)
	}

	cache.Clear()
	if hits, misses, size = cache.Stats(); hits != 0 || misses != 0 || size != 0 {
		t.Error("Clear should reset entries and counters")
	}
}
