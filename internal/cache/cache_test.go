package cache

import (
	"testing"
	"time"
)

func TestGet_FreshEntry(t *testing.T) {
	c := New(time.Minute, time.Minute)
	defer c.Close()

	c.Set("alpha", 42)

	v, ok := c.Get("alpha")
	if !ok {
		t.Fatal("expected fresh entry to be returned")
	}
	if v.(int) != 42 {
		t.Errorf("Expected 42, got %v", v)
	}
}

func TestGet_MissingKey(t *testing.T) {
	c := New(time.Minute, time.Minute)
	defer c.Close()

	if _, ok := c.Get("nope"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestGet_ExpiredEntry(t *testing.T) {
	c := New(10*time.Millisecond, time.Minute)
	defer c.Close()

	c.Set("alpha", "v")
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("alpha"); ok {
		t.Error("expected expired entry to miss on Get")
	}

	v, present, fresh := c.GetStale("alpha")
	if !present {
		t.Fatal("expected expired entry to remain available via GetStale")
	}
	if fresh {
		t.Error("expected stale flag on expired entry")
	}
	if v.(string) != "v" {
		t.Errorf("Expected original value, got %v", v)
	}
}

func TestSet_RefreshesExpiry(t *testing.T) {
	c := New(30*time.Millisecond, time.Minute)
	defer c.Close()

	c.Set("alpha", 1)
	time.Sleep(20 * time.Millisecond)
	c.Set("alpha", 2)
	time.Sleep(20 * time.Millisecond)

	v, ok := c.Get("alpha")
	if !ok {
		t.Fatal("expected re-set entry to still be fresh")
	}
	if v.(int) != 2 {
		t.Errorf("Expected refreshed value 2, got %v", v)
	}
}

func TestDelete_RemovesStaleCopy(t *testing.T) {
	c := New(time.Minute, time.Minute)
	defer c.Close()

	c.Set("alpha", 1)
	c.Delete("alpha")

	if _, present, _ := c.GetStale("alpha"); present {
		t.Error("expected Delete to drop the entry entirely")
	}
	if c.Len() != 0 {
		t.Errorf("Expected empty cache, got %d entries", c.Len())
	}
}

func TestPurge_DropsEntriesPastRetention(t *testing.T) {
	c := New(time.Minute, time.Minute)
	defer c.Close()

	c.Set("alpha", 1)
	c.mu.Lock()
	c.entries["alpha"] = entry{value: 1, expiresAt: time.Now().Add(-2 * time.Minute)}
	c.mu.Unlock()

	c.purge(time.Now())

	if _, present, _ := c.GetStale("alpha"); present {
		t.Error("expected entry past retention to be purged")
	}
}
