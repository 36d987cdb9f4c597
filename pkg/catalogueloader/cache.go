package catalogueloader

import (
	"sync"

	"github.com/chazu/libload/pkg/catalogue"
)

// Cache provides thread-safe caching of built catalogues keyed by digest
type Cache struct {
	mu    sync.RWMutex
	items map[string]*catalogue.Catalogue
}

// NewCache creates a new cache instance
func NewCache() *Cache {
	return &Cache{
		items: make(map[string]*catalogue.Catalogue),
	}
}

// Get retrieves a catalogue from the cache
func (c *Cache) Get(key string) (*catalogue.Catalogue, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, found := c.items[key]
	return value, found
}

// Set stores a catalogue in the cache
func (c *Cache) Set(key string, value *catalogue.Catalogue) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = value
	updateCacheEntries(len(c.items))
}

// Delete removes a catalogue from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, found := c.items[key]; found {
		delete(c.items, key)
		RecordCacheEviction()
	}
	updateCacheEntries(len(c.items))
}

// Clear removes all catalogues from the cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*catalogue.Catalogue)
	updateCacheEntries(0)
}

// Size returns the number of items in the cache
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}
