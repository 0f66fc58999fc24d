// Package cache holds short-lived encoded values such as prediction
// responses. Values are opaque bytes so the same interface fits an
// in-process LRU and Redis.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is a keyed byte store with per-entry expiry.
type Cache interface {
	// Get reports whether key holds a live value.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// LRU is a thread-safe least-recently-used cache with expiring entries.
type LRU struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*entry
	order   []string // oldest first

	now func() time.Time
}

type entry struct {
	val     []byte
	expires time.Time // zero means no expiry
}

// NewLRU creates a cache with the given maximum number of entries.
// If maxSize <= 0, it defaults to 256.
func NewLRU(maxSize int) *LRU {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &LRU{
		maxSize: maxSize,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Len returns the number of stored entries, expired or not.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *LRU) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.removeLocked(key)
		return nil, false, nil
	}

	// Move to end (most recently used)
	c.moveToEnd(key)
	return e.val, true, nil
}

func (c *LRU) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry{val: val}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}

	if _, ok := c.entries[key]; ok {
		c.entries[key] = e
		c.moveToEnd(key)
		return nil
	}

	// Evict oldest if at capacity
	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = e
	c.order = append(c.order, key)
	return nil
}

func (c *LRU) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
	return nil
}

func (c *LRU) removeLocked(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *LRU) moveToEnd(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, key)
			return
		}
	}
}
