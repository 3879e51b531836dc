package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)

	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v; want 1, true", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get(missing) = true, want false")
	}
}

func TestLRUCache_EvictsOldest(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a") // a is now most recently used
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should have survived eviction")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCache_TTLExpiry(t *testing.T) {
	c := NewLRUCache[string](10, time.Nanosecond)

	c.Set("a", "1")
	time.Sleep(time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("expired entry should not be returned")
	}
}

func TestLRUCache_InvalidatePrefix(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)

	c.Set("user-1:overview:currentMonth", "x")
	c.Set("user-1:trend:GROCERY", "y")
	c.Set("user-2:overview:currentMonth", "z")

	removed := c.InvalidatePrefix("user-1:")
	if removed != 2 {
		t.Fatalf("InvalidatePrefix() removed %d, want 2", removed)
	}
	if _, ok := c.Get("user-1:overview:currentMonth"); ok {
		t.Error("user-1 entry survived invalidation")
	}
	if _, ok := c.Get("user-2:overview:currentMonth"); !ok {
		t.Error("user-2 entry wrongly invalidated")
	}
}

func TestLRUCache_CleanExpired(t *testing.T) {
	c := NewLRUCache[int](10, time.Nanosecond)
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	time.Sleep(time.Millisecond)

	if cleaned := c.CleanExpired(); cleaned != 5 {
		t.Errorf("CleanExpired() = %d, want 5", cleaned)
	}
	if c.Size() != 0 {
		t.Errorf("Size() after clean = %d, want 0", c.Size())
	}
}
