// Package cache provides a small bounded key/value store with TTL expiry and
// least-recently-used eviction, shared by the engine clients, the hybrid
// orchestrator and the request dispatcher.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Clock returns the current time. Swappable for tests.
type Clock func() time.Time

// Options configures a Cache.
type Options struct {
	Max int           // maximum number of entries, at least 1
	TTL time.Duration // zero means entries never expire
	Now Clock
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time // zero time means no expiry
}

// Cache is a bounded TTL/LRU store. Expiry is checked lazily on access; there
// is no background sweeper. All operations are synchronous and never block on
// anything but the internal mutex.
type Cache[K comparable, V any] struct {
	mu    sync.Mutex
	max   int
	ttl   time.Duration
	now   Clock
	order *list.List // front = most recently used
	items map[K]*list.Element
}

func New[K comparable, V any](opts Options) *Cache[K, V] {
	max := opts.Max
	if max < 1 {
		max = 1
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Cache[K, V]{
		max:   max,
		ttl:   opts.TTL,
		now:   now,
		order: list.New(),
		items: make(map[K]*list.Element, max),
	}
}

// Get returns the live value for key. An expired entry is removed and reported
// as absent. A hit re-inserts the entry at the most-recently-used position.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	ent := elem.Value.(*entry[K, V])
	if !ent.expiresAt.IsZero() && !ent.expiresAt.After(c.now()) {
		c.removeLocked(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return ent.value, true
}

// Set stores value under key, overwriting any previous entry, and evicts the
// single least-recently-used entry if the cache grew past its maximum.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	if elem, ok := c.items[key]; ok {
		c.removeLocked(elem)
	}
	elem := c.order.PushFront(&entry[K, V]{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = elem

	if c.order.Len() > c.max {
		if oldest := c.order.Back(); oldest != nil {
			c.removeLocked(oldest)
		}
	}
}

// Has reports whether key maps to a live entry. It shares Get's semantics,
// including the LRU touch and lazy removal of expired entries.
func (c *Cache[K, V]) Has(key K) bool {
	_, ok := c.Get(key)
	return ok
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear removes every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[K]*list.Element, c.max)
}

func (c *Cache[K, V]) removeLocked(elem *list.Element) {
	ent := elem.Value.(*entry[K, V])
	c.order.Remove(elem)
	delete(c.items, ent.key)
}
