// Package store provides the TTL-bounded storage the service relies on:
// an in-memory cache with LRU eviction, and a cross-process file-backed
// task record store.
package store

import (
	"container/list"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// Cache is an in-memory TTL key-value store with LRU eviction once the
// size bound is reached. Entries expire a fixed TTL after their last
// write; expiry is checked on read. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	order   *list.List
	items   map[string]*list.Element

	// now is a test hook for expiry checks.
	now func() time.Time
}

type cacheEntry struct {
	key       string
	value     any
	expiresAt time.Time
}

// NewCache builds a cache holding at most maxSize entries, each living
// for ttl after its last write.
func NewCache(ttl time.Duration, maxSize int) *Cache {
	return &Cache{
		ttl:     ttl,
		maxSize: maxSize,
		order:   list.New(),
		items:   make(map[string]*list.Element),
		now:     time.Now,
	}
}

// Get returns the value for key, or false if absent or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if !c.now().Before(entry.expiresAt) {
		c.removeLocked(elem)
		return nil, false
	}
	c.order.MoveToFront(elem)
	return entry.value, true
}

// Set stores the value under key, resetting its TTL. The least recently
// used entry is evicted when the cache is full.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&cacheEntry{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = elem

	for c.maxSize > 0 && c.order.Len() > c.maxSize {
		c.removeLocked(c.order.Back())
	}
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache) removeLocked(elem *list.Element) {
	if elem == nil {
		return
	}
	entry := elem.Value.(*cacheEntry)
	delete(c.items, entry.key)
	c.order.Remove(elem)
}

// BuildCacheKey derives a compact, collision-resistant cache key from a
// prefix and request parameters.
func BuildCacheKey(prefix string, parts ...string) string {
	sum := md5.Sum([]byte(prefix + ":" + strings.Join(parts, ":")))
	return prefix + ":" + hex.EncodeToString(sum[:])
}
