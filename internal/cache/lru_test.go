package cache

import (
	"testing"
	"time"
)

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)

	c.Set("75", "Paris")
	c.Set("69", "Rhône")

	if v, ok := c.Get("75"); !ok || v != "Paris" {
		t.Fatalf("Get(75) = %q, %v", v, ok)
	}

	// 69 is now least recently used and gets evicted.
	c.Set("13", "Bouches-du-Rhône")
	if _, ok := c.Get("69"); ok {
		t.Error("expected 69 to be evicted")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}

	c.Set("75", "Paris 2")
	if v, _ := c.Get("75"); v != "Paris 2" {
		t.Errorf("overwrite failed, got %q", v)
	}

	c.Delete("75")
	if _, ok := c.Get("75"); ok {
		t.Error("expected 75 to be deleted")
	}

	stats := c.Stats()
	if stats.Hits != 2 || stats.Misses != 2 || stats.Size != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	c.Set("b", 2)

	now = now.Add(30 * time.Second)
	c.Set("c", 3)

	now = now.Add(45 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if removed := c.CleanExpired(); removed != 1 {
		t.Errorf("CleanExpired() = %d, want 1", removed)
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Errorf("c should still be live, got %d %v", v, ok)
	}
}

func TestManager_CleanAll(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("x", 1)
	now = now.Add(2 * time.Minute)

	m := NewManager()
	m.Register("departments", c)
	if n := m.CleanAll(); n != 1 {
		t.Errorf("CleanAll() = %d, want 1", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
