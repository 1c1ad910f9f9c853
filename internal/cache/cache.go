// Package cache provides a small in-process TTL cache for read-mostly
// documents. Expired entries are kept for a retention window so callers can
// fall back to stale data when the backing store is unreachable.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

type TTL struct {
	mu        sync.RWMutex
	entries   map[string]entry
	ttl       time.Duration
	retention time.Duration
	stop      chan struct{}
	stopOnce  sync.Once
}

// New builds a cache whose entries expire after ttl and are purged once they
// have been expired for retention. A retention <= 0 purges on expiry.
func New(ttl, retention time.Duration) *TTL {
	c := &TTL{
		entries:   make(map[string]entry),
		ttl:       ttl,
		retention: retention,
		stop:      make(chan struct{}),
	}

	// Cleanup goroutine
	go func() {
		interval := ttl
		if interval < time.Second {
			interval = time.Second
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				c.purge(time.Now())
			}
		}
	}()

	return c
}

func (c *TTL) purge(now time.Time) {
	c.mu.Lock()
	for k, e := range c.entries {
		if now.Sub(e.expiresAt) > c.retention {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// Get returns the value for key if it is present and fresh.
func (c *TTL) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// GetStale returns the value for key even after expiry, as long as it has
// not been purged. The second return reports presence, the third freshness.
func (c *TTL) GetStale(key string) (interface{}, bool, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, false
	}
	return e.value, true, !time.Now().After(e.expiresAt)
}

// Set stores value under key with the configured TTL.
func (c *TTL) Set(key string, value interface{}) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Delete removes key immediately, stale copy included.
func (c *TTL) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len reports the number of entries, fresh or stale.
func (c *TTL) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine.
func (c *TTL) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}
