package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// DigestCache is a thread-safe LRU cache with TTL support that remembers the
// last observed content digest per remote file. The digest is the optimistic
// concurrency token for compare-and-swap writes, so entries are keyed by the
// full owner/repo/branch/path coordinate.
type DigestCache struct {
	mu       sync.RWMutex
	capacity int
	ttl      time.Duration
	items    map[string]*list.Element
	lru      *list.List
}

type entry struct {
	key       string
	digest    string
	expiresAt time.Time
}

// NewDigestCache creates a cache with the given capacity and TTL.
func NewDigestCache(capacity int, ttl time.Duration) *DigestCache {
	if capacity <= 0 {
		capacity = 256
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &DigestCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element, capacity),
		lru:      list.New(),
	}
}

// Key builds the cache key for a file coordinate.
func Key(owner, repo, branch, path string) string {
	return strings.Join([]string{owner, repo, branch, path}, "\x00")
}

// Get retrieves the cached digest for a key.
func (c *DigestCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return "", false
	}

	ent := elem.Value.(*entry)
	if time.Now().After(ent.expiresAt) {
		c.lru.Remove(elem)
		delete(c.items, key)
		return "", false
	}

	c.lru.MoveToFront(elem)
	return ent.digest, true
}

// Set records the digest for a key, replacing any previous value.
func (c *DigestCache) Set(key, digest string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(c.ttl)

	if elem, ok := c.items[key]; ok {
		c.lru.MoveToFront(elem)
		ent := elem.Value.(*entry)
		ent.digest = digest
		ent.expiresAt = expiresAt
		return
	}

	elem := c.lru.PushFront(&entry{key: key, digest: digest, expiresAt: expiresAt})
	c.items[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).key)
		}
	}
}

// Delete drops the entry for a key, if present.
func (c *DigestCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.lru.Remove(elem)
		delete(c.items, key)
	}
}

// Clear removes all entries from the cache.
func (c *DigestCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element, c.capacity)
	c.lru.Init()
}

// Len returns the number of entries in the cache.
func (c *DigestCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}
