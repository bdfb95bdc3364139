package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/parakeet-chat/parakeet/src/provider"
)

// Entry holds a cached model catalog with expiration.
type Entry struct {
	Models    []provider.AIModel `json:"models"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// CatalogCache is a thread-safe LRU cache for remote model catalogs with
// TTL support. Keys are provider or account identifiers.
type CatalogCache struct {
	mu       sync.RWMutex
	capacity int
	ttl      time.Duration
	items    map[string]*list.Element
	lru      *list.List
}

type entry struct {
	key   string
	value Entry
}

// New creates a catalog cache with the given capacity and TTL.
func New(capacity int, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element, capacity),
		lru:      list.New(),
	}
}

// Get retrieves a catalog, dropping it when expired.
func (c *CatalogCache) Get(key string) ([]provider.AIModel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	ent := elem.Value.(*entry)
	if time.Now().After(ent.value.ExpiresAt) {
		c.lru.Remove(elem)
		delete(c.items, key)
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return ent.value.Models, true
}

// Set adds or refreshes a catalog.
func (c *CatalogCache) Set(key string, models []provider.AIModel) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value := Entry{Models: models, ExpiresAt: time.Now().Add(c.ttl)}
	if elem, ok := c.items[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*entry).value = value
		return
	}
	elem := c.lru.PushFront(&entry{key: key, value: value})
	c.items[key] = elem
	if c.lru.Len() > c.capacity {
		c.evictOldest()
	}
}

func (c *CatalogCache) evictOldest() {
	oldest := c.lru.Back()
	if oldest != nil {
		c.lru.Remove(oldest)
		delete(c.items, oldest.Value.(*entry).key)
	}
}

// Invalidate removes one catalog, as after a settings change.
func (c *CatalogCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.lru.Remove(elem)
		delete(c.items, key)
	}
}

// Clear removes all catalogs.
func (c *CatalogCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element, c.capacity)
	c.lru.Init()
}

// Len returns the number of cached catalogs.
func (c *CatalogCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}

// Dump returns the live entries for persistence between sessions.
func (c *CatalogCache) Dump() map[string]Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dump := make(map[string]Entry, len(c.items))
	for k, elem := range c.items {
		dump[k] = elem.Value.(*entry).value
	}
	return dump
}

// Restore repopulates the cache, skipping expired entries.
func (c *CatalogCache) Restore(dump map[string]Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Init()
	c.items = make(map[string]*list.Element, c.capacity)
	for k, v := range dump {
		if time.Now().After(v.ExpiresAt) {
			continue
		}
		elem := c.lru.PushFront(&entry{key: k, value: v})
		c.items[k] = elem
	}
	for c.lru.Len() > c.capacity {
		c.evictOldest()
	}
}
