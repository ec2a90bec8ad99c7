package cache

import (
	"testing"
	"time"
)

func TestSetEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c := New[string, int](Options{Max: 2})
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be evicted")
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Fatalf("get b: got %d, %v", v, ok)
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatalf("get c: got %d, %v", v, ok)
	}
}

func TestGetRefreshesRecency(t *testing.T) {
	t.Parallel()

	c := New[string, int](Options{Max: 2})
	c.Set("a", 1)
	c.Set("b", 2)

	// Touch a so that b becomes the eviction candidate.
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to be present")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted, not a")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to survive eviction")
	}
}

func TestSetOverwritesWithoutEviction(t *testing.T) {
	t.Parallel()

	c := New[string, int](Options{Max: 2})
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10)

	if c.Len() != 2 {
		t.Fatalf("unexpected size: %d", c.Len())
	}
	if v, _ := c.Get("a"); v != 10 {
		t.Fatalf("expected overwrite, got %d", v)
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatalf("expected b to be present")
	}
}

func TestExpiredEntryIsAbsentAndRemoved(t *testing.T) {
	t.Parallel()

	current := time.Unix(1000, 0)
	c := New[string, string](Options{
		Max: 10,
		TTL: time.Minute,
		Now: func() time.Time { return current },
	})

	c.Set("k", "v")
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("expected live hit, got %q, %v", v, ok)
	}

	current = current.Add(time.Minute + time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected expired entry to be absent")
	}
	if c.Len() != 0 {
		t.Fatalf("expected lazy removal on read, size=%d", c.Len())
	}
}

func TestExpiryBoundary(t *testing.T) {
	t.Parallel()

	current := time.Unix(1000, 0)
	c := New[string, string](Options{
		Max: 10,
		TTL: time.Minute,
		Now: func() time.Time { return current },
	})

	c.Set("k", "v")
	current = current.Add(time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("entry exactly at expiresAt must be treated as absent")
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	c := New[string, int](Options{Max: 4})
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if c.Len() != 0 {
		t.Fatalf("expected empty cache, size=%d", c.Len())
	}
	if c.Has("a") || c.Has("b") {
		t.Fatalf("expected entries gone after clear")
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	t.Parallel()

	current := time.Unix(1000, 0)
	c := New[string, int](Options{
		Max: 2,
		Now: func() time.Time { return current },
	})
	c.Set("a", 1)
	current = current.Add(24 * time.Hour)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("entry without TTL must not expire")
	}
}
