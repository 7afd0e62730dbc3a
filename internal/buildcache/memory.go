package buildcache

import (
	"sync"
)

// memoryCache keeps the entries read or written during the lifetime of a Cache, a watch session
// recompiling an unchanged manifest never reaches the database.
type memoryCache struct {
	entries map[Key]*Entry
	lock    sync.Mutex
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		entries: make(map[Key]*Entry, 0),
	}
}

func (c *memoryCache) invalidateAllEntries() {
	c.lock.Lock()
	defer c.lock.Unlock()
	clear(c.entries)
}

func (c *memoryCache) get(key Key) (*Entry, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	entry, ok := c.entries[key]
	return entry, ok
}

func (c *memoryCache) put(key Key, entry *Entry) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.entries[key] = entry
}
