// Package cache implements the registry's identifier LRU: a bounded
// Cval -> Id map used to skip the relational store on repeat
// registrations. It never lies — an entry present in the cache always
// corresponds to a durably committed row — but it may lag reality, since
// entries are only evicted, never proactively refreshed.
package cache

import (
	"container/list"
	"sync"
)

// entry is the payload stored in each list.Element, mirroring the shape
// used by the pack's agilira-metis caching library (a list.Element
// pointer kept alongside the cached value for O(1) move-to-front), pared
// down to just the Cval/Id pair this registry needs.
type entry struct {
	key string
	id  uint64
}

// Cache is a fixed-capacity, move-to-front LRU mapping canonical value
// bytes to registry identifiers. The zero value is not usable; construct
// with New. Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

// New creates a Cache with the given capacity. A capacity of 0 or less is
// silently promoted to 1, mirroring §3's lru_cache_size normalization so
// callers that pass a Configuration's normalized cache size never have to
// special-case zero themselves.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Probe looks up cval and, if present, moves it to the front (most
// recently used) and returns its Id. The second return value is false on
// a miss.
func (c *Cache) Probe(cval string) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[cval]
	if !ok {
		return 0, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry).id, true
}

// Insert installs cval -> id, evicting the least-recently-used entry if
// the cache is at capacity. If cval is already present its id is
// overwritten in place — an upsert is idempotent, so a re-insert should
// never disagree with what's already cached.
func (c *Cache) Insert(cval string, id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[cval]; ok {
		el.Value.(*entry).id = id
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&entry{key: cval, id: id})
	c.items[cval] = el

	if c.ll.Len() > c.capacity {
		c.evictOldest()
	}
}

func (c *Cache) evictOldest() {
	oldest := c.ll.Back()
	if oldest == nil {
		return
	}
	c.ll.Remove(oldest)
	delete(c.items, oldest.Value.(*entry).key)
}

// Len reports the number of entries currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
