// Package cache provides an in-memory LRU cache with per-entry TTL.
//
// Each Cache instance is bounded by capacity: inserting into a full
// cache evicts least-recently-used entries first. Entries also carry
// an expiry; reads past the expiry behave as a miss and remove the
// entry. A Registry groups named instances (user, premium, channel,
// link, session classes) and a Sweeper reclaims expired entries in
// the background.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// Config holds cache instance configuration.
type Config struct {
	// Name identifies the instance in logs, stats and the registry.
	Name string
	// Capacity is the maximum number of entries. Must be positive.
	Capacity int
	// DefaultTTL applies to Set calls with a non-positive ttl.
	DefaultTTL time.Duration
}

// Cache is a bounded LRU cache with per-entry TTL.
// All operations are safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	name       string
	capacity   int
	defaultTTL time.Duration

	ll    *list.List // front = most recently used
	items map[string]*list.Element

	stats counters

	// now is replaceable in tests.
	now func() time.Time
}

type entry struct {
	key       string
	value     any
	expiresAt time.Time // zero = no expiry
}

// New creates a cache instance. Capacity must be positive; a
// non-positive capacity falls back to 1000 entries.
func New(cfg Config) *Cache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1000
	}
	return &Cache{
		name:       cfg.Name,
		capacity:   cfg.Capacity,
		defaultTTL: cfg.DefaultTTL,
		ll:         list.New(),
		items:      make(map[string]*list.Element),
		now:        time.Now,
	}
}

// Name returns the instance name.
func (c *Cache) Name() string {
	return c.name
}

// Capacity returns the configured entry limit.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Get retrieves a value. An entry past its expiry counts as a miss
// and is removed.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}

	ent := el.Value.(*entry)
	if c.expired(ent) {
		c.removeElement(el)
		c.stats.ExpiryEvictions++
		c.stats.Evictions++
		c.stats.Misses++
		return nil, false
	}

	c.ll.MoveToFront(el)
	c.stats.Hits++
	return ent.value, true
}

// Set stores a value under key. A non-positive ttl uses the instance
// default. When the cache is full the least-recently-used entries are
// evicted to make room.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	if el, ok := c.items[key]; ok {
		ent := el.Value.(*entry)
		ent.value = value
		ent.expiresAt = expiresAt
		c.ll.MoveToFront(el)
		c.stats.Sets++
		return
	}

	for len(c.items) >= c.capacity {
		c.evictOldest()
	}

	el := c.ll.PushFront(&entry{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = el
	c.stats.Sets++
}

// Delete removes a key. Returns true if the key was present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(el)
	return true
}

// Clear removes all entries. Counters are preserved.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element)
}

// Len returns the number of entries, including not-yet-collected
// expired ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Keys returns all keys with the given prefix. An empty prefix
// returns every key. Expired entries are skipped.
func (c *Cache) Keys(prefix string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.items))
	for el := c.ll.Front(); el != nil; el = el.Next() {
		ent := el.Value.(*entry)
		if c.expired(ent) {
			continue
		}
		if prefix == "" || strings.HasPrefix(ent.key, prefix) {
			keys = append(keys, ent.key)
		}
	}
	return keys
}

// CleanupExpired removes all expired entries and returns how many
// were removed.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for el := c.ll.Back(); el != nil; {
		prev := el.Prev()
		if c.expired(el.Value.(*entry)) {
			c.removeElement(el)
			c.stats.ExpiryEvictions++
			c.stats.Evictions++
			removed++
		}
		el = prev
	}
	return removed
}

// countError increments the error counter. Used by the caching facade
// when a stored value cannot be used.
func (c *Cache) countError() {
	c.mu.Lock()
	c.stats.Errors++
	c.mu.Unlock()
}

// expired reports whether an entry has reached its expiry. An entry
// is expired at the expiry instant itself, not one tick later.
// Caller must hold c.mu.
func (c *Cache) expired(ent *entry) bool {
	return !ent.expiresAt.IsZero() && !c.now().Before(ent.expiresAt)
}

// evictOldest removes the least-recently-used entry.
// Caller must hold c.mu.
func (c *Cache) evictOldest() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.removeElement(el)
	c.stats.CapacityEvictions++
	c.stats.Evictions++
}

// removeElement unlinks an element from both indexes.
// Caller must hold c.mu.
func (c *Cache) removeElement(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}
