package ai

import (
	"testing"
	"time"
)

func TestCacheTTLExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	cache := NewCache(5*time.Minute, 10, clock)
	cache.Put("Deploy", []string{"Deploy staging"})

	if got, ok := cache.Get("deploy"); !ok || got[0] != "Deploy staging" {
		t.Fatalf("expected case-insensitive hit, got %v/%v", got, ok)
	}

	now = now.Add(4 * time.Minute)
	if _, ok := cache.Get("deploy"); !ok {
		t.Errorf("entry expired too early")
	}

	now = now.Add(time.Minute)
	if _, ok := cache.Get("deploy"); ok {
		t.Errorf("entry should have expired after TTL")
	}
}

func TestCacheEviction(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	cache := NewCache(time.Hour, 2, clock)
	cache.Put("a", []string{"1"})
	now = now.Add(time.Second)
	cache.Put("b", []string{"2"})
	now = now.Add(time.Second)
	cache.Put("c", []string{"3"})

	if cache.Len() != 2 {
		t.Fatalf("len = %d, want 2", cache.Len())
	}
	if _, ok := cache.Get("a"); ok {
		t.Errorf("oldest entry should have been evicted")
	}
	if _, ok := cache.Get("b"); !ok {
		t.Errorf("entry b should remain")
	}
	if _, ok := cache.Get("c"); !ok {
		t.Errorf("entry c should remain")
	}
}

func TestCacheOverwriteDoesNotEvict(t *testing.T) {
	cache := NewCache(time.Hour, 2, nil)
	cache.Put("a", []string{"1"})
	cache.Put("b", []string{"2"})
	cache.Put("a", []string{"updated"})

	if cache.Len() != 2 {
		t.Errorf("len = %d, want 2", cache.Len())
	}
	if got, _ := cache.Get("b"); got == nil {
		t.Errorf("overwriting an existing key must not evict others")
	}
	if got, _ := cache.Get("a"); got[0] != "updated" {
		t.Errorf("expected updated value, got %v", got)
	}
}
